package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

type ReportInput struct {
	LakeID      string  `json:"lake_id"`
	Description string  `json:"description"`
	ImageBase64 *string `json:"image_base64"`
	VideoBase64 *string `json:"video_base64"`
}

type ReportService struct {
	reports repository.Reports
	auth    Authorizer
	log     logging.Logger
	now     func() time.Time
}

func NewReportService(reports repository.Reports, auth Authorizer, log logging.Logger) *ReportService {
	return &ReportService{reports: reports, auth: auth, log: log, now: time.Now}
}

// Create files a pending report for any authenticated caller. The lake id is
// stored as given; it is not checked against the lake collection.
func (s *ReportService) Create(ctx context.Context, token string, in ReportInput) (*models.Report, error) {
	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	// Whitespace-only counts as missing.
	if strings.TrimSpace(in.LakeID) == "" {
		return nil, common.New(common.ErrorBadRequest, "lake_id is required")
	}

	rep := &models.Report{
		ID:          uuid.New(),
		LakeID:      in.LakeID,
		UserID:      user.ID,
		UserName:    user.Name,
		Description: in.Description,
		ImageBase64: in.ImageBase64,
		VideoBase64: in.VideoBase64,
		CreatedAt:   s.now().UTC(),
		Status:      models.ReportPending,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "report created", "report_id", rep.ID, "lake_id", rep.LakeID, "user_id", user.ID)
	return rep, nil
}

func (s *ReportService) ListAll(ctx context.Context, token string) ([]models.Report, error) {
	if _, err := s.auth.CurrentUser(ctx, token); err != nil {
		return nil, err
	}
	return nonNil(s.reports.List(ctx))
}

func (s *ReportService) ListForLake(ctx context.Context, lakeID string) ([]models.Report, error) {
	return nonNil(s.reports.ListByLake(ctx, lakeID))
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
