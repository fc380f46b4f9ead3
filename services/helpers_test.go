package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"wya-server/models"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

type fakeIdentity struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeIdentity) DeleteIdentity(ctx context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, externalID)
	return nil
}

type testEnv struct {
	mr       *miniredis.Miniredis
	redis    *goredis.Client
	store    *MemoryStore
	identity *fakeIdentity
	users    *UserService
	location *LocationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, client := newMiniRedisClient(t)
	store := NewMemoryStore()
	identity := &fakeIdentity{}
	logger := zaptest.NewLogger(t)
	users := NewUserService(store, client, identity, time.Minute, logger)
	return &testEnv{
		mr:       mr,
		redis:    client,
		store:    store,
		identity: identity,
		users:    users,
		location: NewLocationService(store, users, client, logger),
	}
}

// seedUser signs up a user and applies the optional mutations directly in the store.
func (e *testEnv) seedUser(t *testing.T, externalID string, showLocation bool) models.User {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.Signup(ctx, SignupInput{
		ExternalIdentityID: externalID,
		PhoneNumber:        "+1555" + externalID,
		FirstName:          externalID,
		Email:              externalID + "@example.com",
	}); err != nil {
		t.Fatalf("signup %s: %v", externalID, err)
	}
	if showLocation {
		if err := e.users.SetShowLocation(ctx, externalID, true); err != nil {
			t.Fatalf("show location %s: %v", externalID, err)
		}
	}
	u, err := e.store.GetUser(ctx, externalID)
	if err != nil {
		t.Fatalf("get %s: %v", externalID, err)
	}
	return u
}

func floatPtr(f float64) *float64 { return &f }
