// Package repository persists products in PostgreSQL (GORM) or MongoDB.
package repository

import (
	"context"
	"errors"

	"github.com/layerhub/marketplace-backend/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateSlug = errors.New("slug already taken")
)

// ProductFilter narrows a product listing. Empty fields do not filter.
// Limit 0 returns every match.
type ProductFilter struct {
	Category      string
	Subcategory   string
	ProductType   models.ProductType
	CreatorID     string
	Search        string
	IncludeHidden bool
	Sort          models.ProductSort
	Offset        int
	Limit         int
}

// UpdateByID writes only what an edit may change: the creator-facing fields,
// slug and updated_at. Likes, counters, ratings and discounts keep their
// stored values so concurrent likes and views survive an edit.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	UpdateByID(ctx context.Context, product *models.Product) error
	DeleteByID(ctx context.Context, id string) error
	FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	SetLike(ctx context.Context, id, userID string, liked bool) (*models.Product, error)
	IncrementViews(ctx context.Context, id string) error
}
