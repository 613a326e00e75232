package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

type LakeService struct {
	lakes repository.Lakes
	auth  Authorizer
	log   logging.Logger
	now   func() time.Time
}

func NewLakeService(lakes repository.Lakes, auth Authorizer, log logging.Logger) *LakeService {
	return &LakeService{lakes: lakes, auth: auth, log: log, now: time.Now}
}

func (s *LakeService) List(ctx context.Context) ([]models.Lake, error) {
	lakes, err := s.lakes.List(ctx)
	if err != nil {
		return nil, err
	}
	if lakes == nil {
		lakes = []models.Lake{}
	}
	return lakes, nil
}

func (s *LakeService) Get(ctx context.Context, id string) (*models.Lake, error) {
	lid, err := parseID(id, "Lake not found")
	if err != nil {
		return nil, err
	}
	return s.lakes.Get(ctx, lid)
}

// UpdateStatus is admin-only. Checks run in order: caller, status value, lake
// existence. The new updated_at is always strictly after the previous one.
func (s *LakeService) UpdateStatus(ctx context.Context, token, id, status string) error {
	admin, err := s.auth.RequireAdmin(ctx, token)
	if err != nil {
		return err
	}

	st, ok := models.ParseLakeStatus(status)
	if !ok {
		return common.New(common.ErrorBadRequest, "Invalid status")
	}

	lid, err := parseID(id, "Lake not found")
	if err != nil {
		return err
	}
	lake, err := s.lakes.Get(ctx, lid)
	if err != nil {
		return err
	}

	// Postgres keeps microseconds, so compare and bump at that precision.
	at := s.now().UTC().Truncate(time.Microsecond)
	prev := lake.UpdatedAt.UTC().Truncate(time.Microsecond)
	if !at.After(prev) {
		at = prev.Add(time.Microsecond)
	}
	if err := s.lakes.UpdateStatus(ctx, lid, st, at); err != nil {
		return err
	}

	metrics.LakeStatusChanges.WithLabelValues(string(st)).Inc()
	s.log.Info(ctx, "lake status updated", "lake_id", lid, "from", lake.Status, "to", st, "admin_id", admin.ID)
	return nil
}

// parseID treats a malformed id like an unknown one.
func parseID(id, notFound string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, common.New(common.ErrorNotFound, notFound)
	}
	return u, nil
}
