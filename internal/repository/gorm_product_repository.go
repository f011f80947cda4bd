package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/layerhub/marketplace-backend/internal/models"
)

// GormProductRepository stores products in a relational table. Open the
// *gorm.DB with TranslateError enabled so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *GormProductRepository) findOne(ctx context.Context, query string, arg string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where(query, arg).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *GormProductRepository) Insert(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

var editableColumns = []string{
	"creator_full_name", "name", "description", "images", "downloadable_assets",
	"price", "price_credits", "stock", "product_type", "category", "subcategory",
	"variants", "delivery",
	"dimension_length", "dimension_width", "dimension_height", "dimension_weight",
	"slug", "updated_at",
}

func (r *GormProductRepository) UpdateByID(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select(editableColumns).
		Updates(product)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Subcategory != "" {
		query = query.Where("subcategory = ?", filter.Subcategory)
	}
	if filter.ProductType != "" {
		query = query.Where("product_type = ?", filter.ProductType)
	}
	if filter.CreatorID != "" {
		query = query.Where("creator_user_id = ?", filter.CreatorID)
	}
	if !filter.IncludeHidden {
		query = query.Where("hidden = ?", false)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(gormOrder(filter.Sort)).Order("id")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, total, nil
}

func gormOrder(sort models.ProductSort) string {
	switch sort {
	case models.ProductSortSales:
		return "number_sold DESC"
	case models.ProductSortPriceAsc:
		return "price ASC"
	case models.ProductSortPriceDesc:
		return "price DESC"
	default:
		return "date_released DESC"
	}
}

// SetLike adds or removes userID from the product's likes. The row is locked
// for the read-modify-write since likes are stored as a JSON document.
func (r *GormProductRepository) SetLike(ctx context.Context, id, userID string, liked bool) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		likes := toggleMember(product.Likes, userID, liked)
		if err := tx.Model(&product).Select("Likes").Updates(&models.Product{Likes: likes}).Error; err != nil {
			return err
		}
		product.Likes = likes
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update likes: %w", err)
	}
	return &product, nil
}

func (r *GormProductRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AutoMigrate creates or updates the products table.
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Product{})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func toggleMember(set []string, member string, present bool) []string {
	result := make([]string, 0, len(set)+1)
	found := false
	for _, m := range set {
		if m == member {
			if !present || found {
				continue
			}
			found = true
		}
		result = append(result, m)
	}
	if present && !found {
		result = append(result, member)
	}
	return result
}
