package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesIdentityWithoutProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "alice", "pw1")
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "pw1", u.PasswordHash)

	items, err := f.store.Profiles().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items, "profiles are created lazily")
	assert.Equal(t, 1, f.obs.counts["register:ok"])
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   identity.CreateIdentityRequest
		field string
		rule  string
	}{
		{"missing username", identity.CreateIdentityRequest{Password: "pw"}, "username", "required"},
		{"bad characters", identity.CreateIdentityRequest{Username: "a b", Password: "pw"}, "username", "username"},
		{"too long", identity.CreateIdentityRequest{Username: strings.Repeat("a", 151), Password: "pw"}, "username", "max"},
		{"missing password", identity.CreateIdentityRequest{Username: "bob"}, "password", "required"},
		{"bad email", identity.CreateIdentityRequest{Username: "bob", Password: "pw", Email: "nope"}, "email", "email"},
		{"password over bcrypt limit", identity.CreateIdentityRequest{Username: "bob", Password: strings.Repeat("p", 100)}, "password", "maxbytes"},
		{"multibyte password over limit", identity.CreateIdentityRequest{Username: "bob", Password: strings.Repeat("é", 40)}, "password", "maxbytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.auth.Register(context.Background(), tt.req)
			verr, ok := apperr.IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)

			found := false
			for _, fe := range verr.Fields {
				if fe.Field == tt.field && fe.Rule == tt.rule {
					found = true
				}
			}
			assert.True(t, found, "missing %s/%s in %+v", tt.field, tt.rule, verr.Fields)
		})
	}
}

func TestRegisterAcceptsPasswordAtBcryptLimit(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), identity.CreateIdentityRequest{
		Username: "bob",
		Password: strings.Repeat("p", 72),
	})
	require.NoError(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw1")

	_, err := f.auth.Register(context.Background(), identity.CreateIdentityRequest{Username: "alice", Password: "other"})
	verr, ok := apperr.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, "username", verr.Fields[0].Field)
	assert.Equal(t, "unique", verr.Fields[0].Rule)
}

func TestLoginSuccessStoresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.register(t, "alice", "pw1")

	u, issued, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, 1, f.sessions.Len())

	actor, err := f.auth.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.Actor{ID: created.ID, Username: "alice"}, actor)
}

func TestLoginWrongPasswordStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw1")

	_, _, err := f.auth.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, 1, f.obs.counts["login:invalid"])
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Login(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "pw1")

	_, issued, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, issued.Token))
	assert.Equal(t, 0, f.sessions.Len())

	_, err = f.auth.Authenticate(ctx, issued.Token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	// idempotent, and garbage is not an error
	require.NoError(t, f.auth.Logout(ctx, issued.Token))
	require.NoError(t, f.auth.Logout(ctx, "not-a-token"))
}

func TestAuthenticateReadsStaffFromIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice", "pw1")

	_, issued, err := f.auth.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	f.store.Identities().SetStaff(u.ID, true)

	actor, err := f.auth.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, actor.IsStaff)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
