package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/models"
)

// NewMemoryStore returns a process-local Store. Records are copied in and out
// so callers never share memory with the store.
func NewMemoryStore() *Store {
	return &Store{
		Users:   &MemoryUsers{},
		Lakes:   &MemoryLakes{},
		Reports: &MemoryReports{},
		Posts:   &MemoryPosts{},
	}
}

// newestFirst reverses insertion order and then stable-sorts on created_at, so
// equal timestamps keep the latest insert in front.
func newestFirst[T any](in []T, created func(T) time.Time) []T {
	out := make([]T, len(in))
	copy(out, in)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b T) int {
		return created(b).Compare(created(a))
	})
	if len(out) > MaxListSize {
		out = out[:MaxListSize]
	}
	return out
}

// ---------------- USERS ----------------
type MemoryUsers struct {
	mu    sync.RWMutex
	users []models.User
}

func (r *MemoryUsers) UpsertByEmail(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == u.Email {
			r.users[i].SessionToken = u.SessionToken
			out := r.users[i]
			return &out, nil
		}
	}
	r.users = append(r.users, *u)
	out := *u
	return &out, nil
}

func (r *MemoryUsers) FindBySessionToken(_ context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.SessionToken == token {
			return &u, nil
		}
	}
	return nil, common.New(common.ErrorNotFound, "user not found")
}

// SetAdmin flips the admin flag for email. It stands in for the manual
// database step used in production.
func (r *MemoryUsers) SetAdmin(email string, admin bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			r.users[i].IsAdmin = admin
			return true
		}
	}
	return false
}

// ---------------- LAKES ----------------
type MemoryLakes struct {
	mu    sync.RWMutex
	lakes []models.Lake
}

func (r *MemoryLakes) Count(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.lakes)), nil
}

func (r *MemoryLakes) Seed(_ context.Context, lakes []models.Lake) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lakes) > 0 {
		return 0, nil
	}
	r.lakes = append(r.lakes, lakes...)
	return len(lakes), nil
}

func (r *MemoryLakes) List(context.Context) ([]models.Lake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Lake, len(r.lakes))
	copy(out, r.lakes)
	return out, nil
}

func (r *MemoryLakes) Get(_ context.Context, id uuid.UUID) (*models.Lake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lakes {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, common.New(common.ErrorNotFound, "Lake not found")
}

func (r *MemoryLakes) UpdateStatus(_ context.Context, id uuid.UUID, status models.LakeStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lakes {
		if r.lakes[i].ID == id {
			r.lakes[i].Status = status
			r.lakes[i].UpdatedAt = at
			return nil
		}
	}
	return common.New(common.ErrorNotFound, "Lake not found")
}

// ---------------- REPORTS ----------------
type MemoryReports struct {
	mu      sync.RWMutex
	reports []models.Report
}

func reportCreated(r models.Report) time.Time { return r.CreatedAt }

func (r *MemoryReports) Create(_ context.Context, rep *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, *rep)
	return nil
}

func (r *MemoryReports) List(context.Context) ([]models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.reports, reportCreated), nil
}

func (r *MemoryReports) ListByLake(_ context.Context, lakeID string) ([]models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []models.Report
	for _, rep := range r.reports {
		if rep.LakeID == lakeID {
			matched = append(matched, rep)
		}
	}
	return newestFirst(matched, reportCreated), nil
}

// ---------------- AWARENESS ----------------
type MemoryPosts struct {
	mu    sync.RWMutex
	posts []models.AwarenessPost
}

func (r *MemoryPosts) Create(_ context.Context, p *models.AwarenessPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, *p)
	return nil
}

func (r *MemoryPosts) ListPublished(context.Context) ([]models.AwarenessPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var published []models.AwarenessPost
	for _, p := range r.posts {
		if p.IsPublished {
			published = append(published, p)
		}
	}
	return newestFirst(published, func(p models.AwarenessPost) time.Time { return p.CreatedAt }), nil
}

func (r *MemoryPosts) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			r.posts = slices.Delete(r.posts, i, i+1)
			return nil
		}
	}
	return common.New(common.ErrorNotFound, "Post not found")
}
