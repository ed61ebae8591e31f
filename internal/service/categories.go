package service

import (
	"context"
	"time"

	"github.com/klaape/klaape-api/internal/cache"
	"github.com/klaape/klaape-api/internal/domain/catalog"
)

const categoriesCacheKey = "categories:list:v1"

type CategoryStore interface {
	List(ctx context.Context) ([]catalog.Category, error)
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error)
}

// CategoryService serves the category list from a short-lived cache.
type CategoryService struct {
	store CategoryStore
	cache *cache.Cache[[]catalog.Category]
}

func NewCategoryService(store CategoryStore, ttl time.Duration) *CategoryService {
	return &CategoryService{store: store, cache: cache.New[[]catalog.Category](ttl)}
}

func (s *CategoryService) List(ctx context.Context) ([]catalog.Category, error) {
	return s.cache.GetOrLoad(categoriesCacheKey, func() ([]catalog.Category, error) {
		return s.store.List(ctx)
	})
}

func (s *CategoryService) Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	if err := validateStruct(req); err != nil {
		return catalog.Category{}, err
	}

	c, err := s.store.Create(ctx, req)
	if err != nil {
		return catalog.Category{}, err
	}

	s.cache.Delete(categoriesCacheKey)
	return c, nil
}
