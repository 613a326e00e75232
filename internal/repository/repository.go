// Package repository holds the User Directory and the lake, report and
// awareness-post stores. Each store has a gorm implementation for Postgres and
// an in-memory one for development and tests.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/models"
)

// MaxListSize caps every list query.
const MaxListSize = 1000

type Users interface {
	// UpsertByEmail creates u when no user has u.Email. Otherwise it replaces
	// only the stored session token and returns the existing record.
	UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error)
	FindBySessionToken(ctx context.Context, token string) (*models.User, error)
}

type Lakes interface {
	Count(ctx context.Context) (int64, error)
	// Seed inserts lakes only if the collection is empty and reports how many
	// were written.
	Seed(ctx context.Context, lakes []models.Lake) (int, error)
	List(ctx context.Context) ([]models.Lake, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Lake, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LakeStatus, at time.Time) error
}

type Reports interface {
	Create(ctx context.Context, r *models.Report) error
	// List and ListByLake return newest first.
	List(ctx context.Context) ([]models.Report, error)
	ListByLake(ctx context.Context, lakeID string) ([]models.Report, error)
}

type Posts interface {
	Create(ctx context.Context, p *models.AwarenessPost) error
	// ListPublished returns published posts, newest first.
	ListPublished(ctx context.Context) ([]models.AwarenessPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles the four collections.
type Store struct {
	Users   Users
	Lakes   Lakes
	Reports Reports
	Posts   Posts
}
