package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
)

const profileSelect = `SELECT p.id, p.identity_id, p.role, p.bio, p.profile_picture, p.hourly_rate,
	p.is_verified_pro, p.company_name, p.industry, p.created_at, p.updated_at,
	COALESCE((SELECT array_agg(e.category_id ORDER BY e.category_id) FROM profile_expertise e WHERE e.profile_id = p.id), '{}'::bigint[]),
	i.id, i.username, i.email, i.first_name, i.last_name, i.is_staff
FROM profiles p
JOIN identities i ON i.id = p.identity_id`

type ProfilesRepo struct {
	db  DB
	obs Observer
}

func NewProfilesRepo(db DB, obs Observer) *ProfilesRepo {
	return &ProfilesRepo{db: db, obs: observerOrNoop(obs)}
}

// GetOrCreate returns the profile for identityID, inserting a default one
// first when none exists. Lookup and insert share one transaction; the insert
// is ON CONFLICT DO NOTHING so two concurrent first reads converge on a single
// row.
func (r *ProfilesRepo) GetOrCreate(ctx context.Context, identityID int64) (profile.Profile, error) {
	var p profile.Profile

	err := r.obs.ObserveDB("profiles.get_or_create", func() error {
		tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		p, err = getProfile(ctx, tx, "p.identity_id = $1", identityID)
		if err == nil {
			return tx.Commit(ctx)
		}
		if !errors.Is(err, profile.ErrNotFound) {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO profiles (identity_id, role, bio, company_name, industry, is_verified_pro, created_at, updated_at)
			VALUES ($1, $2, '', '', '', FALSE, NOW(), NOW())
			ON CONFLICT (identity_id) DO NOTHING`,
			identityID, string(profile.RoleRegular),
		)
		if err != nil {
			if pgCode(err) == pgForeignKeyViolation {
				return identity.ErrNotFound
			}
			return err
		}

		p, err = getProfile(ctx, tx, "p.identity_id = $1", identityID)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id int64) (profile.Profile, error) {
	var p profile.Profile

	err := r.obs.ObserveDB("profiles.get_by_id", func() error {
		var err error
		p, err = getProfile(ctx, r.db, "p.id = $1", id)
		return err
	})

	return p, err
}

// List returns every profile when ownerID is nil, else only the owner's.
func (r *ProfilesRepo) List(ctx context.Context, ownerID *int64) ([]profile.Profile, error) {
	query := profileSelect
	var args []any

	if ownerID != nil {
		query += " WHERE p.identity_id = $1"
		args = append(args, *ownerID)
	}
	query += " ORDER BY p.id ASC"

	out := make([]profile.Profile, 0)

	err := r.obs.ObserveDB("profiles.list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p profile.Profile
			if err := scanProfile(rows, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update under a row lock. The verified-pro flag is
// not part of the statement.
func (r *ProfilesRepo) Update(ctx context.Context, id int64, req profile.UpdateRequest) (profile.Profile, error) {
	var p profile.Profile

	err := r.obs.ObserveDB("profiles.update", func() error {
		tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		p, err = getProfile(ctx, tx, "p.id = $1 FOR UPDATE OF p", id)
		if err != nil {
			return err
		}

		req.Apply(&p)

		err = tx.QueryRow(ctx,
			`UPDATE profiles
			SET role = $2,
				bio = $3,
				hourly_rate = $4,
				company_name = $5,
				industry = $6,
				updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			id, string(p.Role), p.Bio, p.HourlyRate, p.CompanyName, p.Industry,
		).Scan(&p.UpdatedAt)
		if err != nil {
			return err
		}

		if req.Expertise != nil {
			if err := replaceExpertise(ctx, tx, id, p.Expertise); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func replaceExpertise(ctx context.Context, tx pgx.Tx, profileID int64, categoryIDs []int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM profile_expertise WHERE profile_id = $1`, profileID)
	if err != nil {
		return err
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO profile_expertise (profile_id, category_id)
		SELECT $1, unnest($2::bigint[])`,
		profileID, categoryIDs,
	)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return catalog.ErrUnknownCategory
		}
		return err
	}
	return nil
}

func (r *ProfilesRepo) SetPicture(ctx context.Context, id int64, ref string) (profile.Profile, error) {
	var p profile.Profile

	err := r.obs.ObserveDB("profiles.set_picture", func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE profiles SET profile_picture = $2, updated_at = NOW() WHERE id = $1`,
			id, ref,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return profile.ErrNotFound
		}

		p, err = getProfile(ctx, r.db, "p.id = $1", id)
		return err
	})

	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (r *ProfilesRepo) Delete(ctx context.Context, id int64) error {
	return r.obs.ObserveDB("profiles.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
		if err != nil {
			return err
		}

		// if no rows were deleted return a not found error
		if tag.RowsAffected() == 0 {
			return profile.ErrNotFound
		}
		return nil
	})
}

func getProfile(ctx context.Context, q querier, where string, arg any) (profile.Profile, error) {
	var p profile.Profile

	err := scanProfile(q.QueryRow(ctx, profileSelect+" WHERE "+where, arg), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row, p *profile.Profile) error {
	var role string

	err := row.Scan(
		&p.ID,
		&p.IdentityID,
		&role,
		&p.Bio,
		&p.Picture,
		&p.HourlyRate,
		&p.IsVerifiedPro,
		&p.CompanyName,
		&p.Industry,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Expertise,
		&p.Owner.ID,
		&p.Owner.Username,
		&p.Owner.Email,
		&p.Owner.FirstName,
		&p.Owner.LastName,
		&p.Owner.IsStaff,
	)
	if err != nil {
		return err
	}

	p.Role = profile.Role(role)
	return nil
}
