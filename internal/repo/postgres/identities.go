package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klaape/klaape-api/internal/domain/identity"
)

const identityColumns = `id, username, email, first_name, last_name, password_hash, is_staff, date_joined`

type IdentitiesRepo struct {
	db  DB
	obs Observer
}

func NewIdentitiesRepo(db DB, obs Observer) *IdentitiesRepo {
	return &IdentitiesRepo{db: db, obs: observerOrNoop(obs)}
}

func (r *IdentitiesRepo) Create(ctx context.Context, in identity.Identity) (identity.Identity, error) {
	out := in

	err := r.obs.ObserveDB("identities.create", func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO identities (username, email, first_name, last_name, password_hash, is_staff, date_joined)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING id, date_joined`,
			in.Username, in.Email, in.FirstName, in.LastName, in.PasswordHash, in.IsStaff,
		).Scan(&out.ID, &out.DateJoined)
	})

	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return identity.Identity{}, identity.ErrUsernameTaken
		}
		return identity.Identity{}, fmt.Errorf("create identity: %w", err)
	}

	return out, nil
}

func (r *IdentitiesRepo) GetByUsername(ctx context.Context, username string) (identity.Identity, error) {
	var u identity.Identity

	err := r.obs.ObserveDB("identities.get_by_username", func() error {
		return scanIdentity(r.db.QueryRow(ctx,
			`SELECT `+identityColumns+` FROM identities WHERE username = $1`,
			username,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Identity{}, identity.ErrNotFound
		}
		return identity.Identity{}, err
	}
	return u, nil
}

func (r *IdentitiesRepo) GetByID(ctx context.Context, id int64) (identity.Identity, error) {
	var u identity.Identity

	err := r.obs.ObserveDB("identities.get_by_id", func() error {
		return scanIdentity(r.db.QueryRow(ctx,
			`SELECT `+identityColumns+` FROM identities WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Identity{}, identity.ErrNotFound
		}
		return identity.Identity{}, err
	}
	return u, nil
}

func scanIdentity(row pgx.Row, u *identity.Identity) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsStaff,
		&u.DateJoined,
	)
}
