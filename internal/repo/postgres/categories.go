package postgres

import (
	"context"

	"github.com/klaape/klaape-api/internal/domain/catalog"
)

type CategoriesRepo struct {
	db  DB
	obs Observer
}

func NewCategoriesRepo(db DB, obs Observer) *CategoriesRepo {
	return &CategoriesRepo{db: db, obs: observerOrNoop(obs)}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]catalog.Category, error) {
	out := make([]catalog.Category, 0)

	err := r.obs.ObserveDB("categories.list", func() error {
		rows, err := r.db.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c catalog.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	c := catalog.Category{Name: req.Name, Description: req.Description}

	err := r.obs.ObserveDB("categories.create", func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
			req.Name, req.Description,
		).Scan(&c.ID)
	})

	if err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}
