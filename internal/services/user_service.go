package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/identity"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

// IdentityProvider verifies an opaque session id with the external provider.
type IdentityProvider interface {
	ResolveSession(ctx context.Context, sessionID string) (*identity.Profile, error)
}

// Authorizer resolves a presented session token into a caller.
type Authorizer interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	RequireAdmin(ctx context.Context, token string) (*models.User, error)
}

// UserService is the session resolver. Tokens are bearer credentials looked up
// verbatim; issuance is delegated to the identity provider.
type UserService struct {
	users repository.Users
	idp   IdentityProvider
	log   logging.Logger
	now   func() time.Time
}

func NewUserService(users repository.Users, idp IdentityProvider, log logging.Logger) *UserService {
	return &UserService{users: users, idp: idp, log: log, now: time.Now}
}

// Authenticate verifies sessionID with the provider and upserts the user by
// email, storing the freshly issued session token.
func (s *UserService) Authenticate(ctx context.Context, sessionID string) (*models.User, error) {
	if strings.TrimSpace(sessionID) == "" {
		metrics.AuthAttempts.WithLabelValues("bad_request").Inc()
		return nil, common.New(common.ErrorBadRequest, "Session ID required")
	}

	profile, err := s.idp.ResolveSession(ctx, sessionID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(common.KindName(err)).Inc()
		s.log.Warn(ctx, "identity provider rejected session", "err", err)
		return nil, err
	}

	user, err := s.users.UpsertByEmail(ctx, &models.User{
		ID:           uuid.New(),
		Email:        profile.Email,
		Name:         profile.Name,
		Picture:      profile.Picture,
		SessionToken: profile.SessionToken,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("internal").Inc()
		s.log.Error(ctx, "user upsert failed", "email", profile.Email, "err", err)
		return nil, err
	}

	metrics.AuthAttempts.WithLabelValues("ok").Inc()
	s.log.Info(ctx, "user authenticated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.New(common.ErrorUnauthorized, "Session ID required")
	}
	u, err := s.users.FindBySessionToken(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.New(common.ErrorUnauthorized, "Invalid session")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) RequireAdmin(ctx context.Context, token string) (*models.User, error) {
	u, err := s.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, common.New(common.ErrorForbidden, "Admin access required")
	}
	return u, nil
}
