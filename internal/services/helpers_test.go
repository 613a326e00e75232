package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/lacs-verts/internal/common"
	"github.com/sirdesai22/lacs-verts/internal/identity"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

// fakeIDP maps session ids to profiles; unknown ids are rejected.
type fakeIDP struct {
	mu       sync.Mutex
	profiles map[string]identity.Profile
	err      error
	calls    int
}

func (f *fakeIDP) ResolveSession(_ context.Context, sessionID string) (*identity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[sessionID]
	if !ok {
		return nil, common.New(common.ErrorUnauthorized, "Invalid session")
	}
	return &p, nil
}

// tickingClock returns a strictly increasing time on every call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	store  *repository.Store
	idp    *fakeIDP
	users  *UserService
	lakes  *LakeService
	report *ReportService
	posts  *AwarenessService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	idp := &fakeIDP{profiles: map[string]identity.Profile{
		"sess-admin": {Email: "admin@lacs.ci", Name: "Awa Admin", SessionToken: "tok-admin"},
		"sess-user":  {Email: "citizen@lacs.ci", Name: "Yao Citizen", SessionToken: "tok-user"},
	}}
	log := logging.Discard()
	clock := tickingClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	users := NewUserService(store.Users, idp, log)
	users.now = clock
	lakes := NewLakeService(store.Lakes, users, log)
	lakes.now = clock
	reports := NewReportService(store.Reports, users, log)
	reports.now = clock
	posts := NewAwarenessService(store.Posts, users, log)
	posts.now = clock

	return &fixture{store: store, idp: idp, users: users, lakes: lakes, report: reports, posts: posts}
}

// login authenticates both sample identities and promotes the admin.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.users.Authenticate(ctx, "sess-admin")
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "sess-user")
	require.NoError(t, err)
	require.True(t, f.store.Users.(*repository.MemoryUsers).SetAdmin("admin@lacs.ci", true))
}
