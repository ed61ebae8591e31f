package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/klaape/klaape-api/internal/auth"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/repo/memory"
	"github.com/klaape/klaape-api/internal/security"
	"github.com/klaape/klaape-api/internal/service"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeMedia) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "/media/" + key, nil
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveAuth(op, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[op+":"+result]++
}

type fixture struct {
	store    *memory.Store
	sessions *memory.SessionsRepo
	media    *fakeMedia
	obs      *countingObserver
	auth     *service.AuthService
	profiles *service.ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		sessions: memory.NewSessionsRepo(),
		media:    &fakeMedia{},
		obs:      &countingObserver{},
	}
	tokens := auth.NewManager("test-secret", time.Hour)
	f.auth = service.NewAuthService(f.store.Identities(), f.sessions, tokens, f.obs)
	f.profiles = service.NewProfileService(f.store.Profiles(), f.store.Identities(), f.media)
	return f
}

// addIdentity inserts directly with a cheap fake hash; use register when the
// password matters.
func (f *fixture) addIdentity(t *testing.T, username string, staff bool) identity.Actor {
	t.Helper()

	u, err := f.store.Identities().Create(context.Background(), identity.Identity{
		Username:     username,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	if staff {
		f.store.Identities().SetStaff(u.ID, true)
	}
	return identity.Actor{ID: u.ID, Username: u.Username, IsStaff: staff}
}

func (f *fixture) register(t *testing.T, username, password string) identity.Identity {
	t.Helper()

	u, err := f.auth.Register(context.Background(), identity.CreateIdentityRequest{Username: username, Password: password})
	require.NoError(t, err)
	return u
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

var errBoom = errors.New("boom")

func init() {
	// warm the dummy hash so login timing tests are not skewed by the first call
	security.BurnCompare("")
}
