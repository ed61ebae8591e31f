package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/auth"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/session"
	"github.com/klaape/klaape-api/internal/security"
)

type IdentityStore interface {
	Create(ctx context.Context, in identity.Identity) (identity.Identity, error)
	GetByUsername(ctx context.Context, username string) (identity.Identity, error)
	GetByID(ctx context.Context, id int64) (identity.Identity, error)
}

type SessionStore interface {
	Create(ctx context.Context, s session.Session) error
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthObserver counts auth outcomes; result is "ok", "invalid" or "error".
type AuthObserver interface {
	ObserveAuth(op, result string)
}

type noopAuthObserver struct{}

func (noopAuthObserver) ObserveAuth(string, string) {}

type AuthService struct {
	identities IdentityStore
	sessions   SessionStore
	tokens     *auth.Manager
	obs        AuthObserver
}

func NewAuthService(identities IdentityStore, sessions SessionStore, tokens *auth.Manager, obs AuthObserver) *AuthService {
	if obs == nil {
		obs = noopAuthObserver{}
	}
	return &AuthService{identities: identities, sessions: sessions, tokens: tokens, obs: obs}
}

// Register creates an identity. No profile is created here; it appears on
// first access.
func (s *AuthService) Register(ctx context.Context, req identity.CreateIdentityRequest) (identity.Identity, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateStruct(req); err != nil {
		s.obs.ObserveAuth("register", "invalid")
		return identity.Identity{}, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			s.obs.ObserveAuth("register", "invalid")
			return identity.Identity{}, apperr.Invalid("password", "maxbytes", "must be at most 72 bytes")
		}
		s.obs.ObserveAuth("register", "error")
		return identity.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.identities.Create(ctx, identity.Identity{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			s.obs.ObserveAuth("register", "invalid")
			return identity.Identity{}, apperr.Invalid("username", "unique", "A user with that username already exists.")
		}
		s.obs.ObserveAuth("register", "error")
		return identity.Identity{}, err
	}

	s.obs.ObserveAuth("register", "ok")
	return u, nil
}

// Login checks credentials and records a session. Nothing is written when the
// credentials are wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (identity.Identity, auth.Issued, error) {
	u, err := s.identities.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			security.BurnCompare(password)
			s.obs.ObserveAuth("login", "invalid")
			return identity.Identity{}, auth.Issued{}, apperr.ErrUnauthorized
		}
		s.obs.ObserveAuth("login", "error")
		return identity.Identity{}, auth.Issued{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		s.obs.ObserveAuth("login", "invalid")
		return identity.Identity{}, auth.Issued{}, apperr.ErrUnauthorized
	}

	issued, err := s.tokens.Issue(u.ID, u.Username, u.IsStaff)
	if err != nil {
		s.obs.ObserveAuth("login", "error")
		return identity.Identity{}, auth.Issued{}, fmt.Errorf("issue token: %w", err)
	}

	err = s.sessions.Create(ctx, session.Session{
		ID:        issued.SessionID,
		UserID:    u.ID,
		CreatedAt: issued.ExpiresAt.Add(-s.tokens.TTL()),
		ExpiresAt: issued.ExpiresAt,
	})
	if err != nil {
		s.obs.ObserveAuth("login", "error")
		return identity.Identity{}, auth.Issued{}, fmt.Errorf("store session: %w", err)
	}

	s.obs.ObserveAuth("login", "ok")
	return u, issued, nil
}

// Logout drops the session behind token. Unknown or invalid tokens are not
// an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}

// Authenticate resolves a token to the acting identity. The staff flag is
// read from the identity record, not from the token, so revoking staff takes
// effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (identity.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return identity.Actor{}, apperr.ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return identity.Actor{}, apperr.ErrUnauthorized
		}
		return identity.Actor{}, err
	}
	if sess.UserID != claims.UserID {
		return identity.Actor{}, apperr.ErrUnauthorized
	}

	u, err := s.identities.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Actor{}, apperr.ErrUnauthorized
		}
		return identity.Actor{}, err
	}

	return identity.Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}, nil
}
