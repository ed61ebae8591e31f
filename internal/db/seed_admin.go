package db

import (
	"context"
	"errors"

	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/security"
)

type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (identity.Identity, error)
	Create(ctx context.Context, in identity.Identity) (identity.Identity, error)
}

// EnsureAdminIdentity creates the configured staff identity if it is missing.
// It never touches an existing account.
func EnsureAdminIdentity(ctx context.Context, store AdminStore, cfg config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the identity exists
	_, err := store.GetByUsername(ctx, cfg.AdminUsername)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, identity.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	_, err = store.Create(ctx, identity.Identity{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		IsStaff:      true,
	})

	if errors.Is(err, identity.ErrUsernameTaken) {
		// another replica won the race
		return false, nil
	}

	return err == nil, err
}
