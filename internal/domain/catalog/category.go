package catalog

import "errors"

var (
	ErrNotFound        = errors.New("catalog record not found")
	ErrUnknownCategory = errors.New("unknown category")
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}
