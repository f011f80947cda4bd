package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/layerhub/marketplace-backend/internal/models"
)

// MongoProductRepository stores each product as one document keyed by its id.
type MongoProductRepository struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(coll *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{coll: coll}
}

// EnsureIndexes creates the unique slug index and the listing indexes.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "creatorUserId", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "dateReleased", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (r *MongoProductRepository) findOne(ctx context.Context, filter bson.D) (*models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, filter).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Insert(ctx context.Context, product *models.Product) error {
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) UpdateByID(ctx context.Context, product *models.Product) error {
	set := bson.D{
		{Key: "creatorFullName", Value: product.CreatorFullName},
		{Key: "name", Value: product.Name},
		{Key: "description", Value: product.Description},
		{Key: "images", Value: product.Images},
		{Key: "downloadableAssets", Value: product.DownloadableAssets},
		{Key: "price", Value: product.Price},
		{Key: "priceCredits", Value: product.PriceCredits},
		{Key: "stock", Value: product.Stock},
		{Key: "productType", Value: product.ProductType},
		{Key: "category", Value: product.Category},
		{Key: "subcategory", Value: product.Subcategory},
		{Key: "variants", Value: product.Variants},
		{Key: "delivery", Value: product.Delivery},
		{Key: "dimensions", Value: product.Dimensions},
		{Key: "slug", Value: product.Slug},
		{Key: "updatedAt", Value: product.UpdatedAt},
	}
	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: product.ID}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) FindAll(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := mongoFilter(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().SetSort(mongoSort(filter.Sort))
	if filter.Limit > 0 {
		opts.SetSkip(int64(filter.Offset)).SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

func mongoFilter(filter ProductFilter) bson.D {
	query := bson.D{}
	if filter.Category != "" {
		query = append(query, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.Subcategory != "" {
		query = append(query, bson.E{Key: "subcategory", Value: filter.Subcategory})
	}
	if filter.ProductType != "" {
		query = append(query, bson.E{Key: "productType", Value: filter.ProductType})
	}
	if filter.CreatorID != "" {
		query = append(query, bson.E{Key: "creatorUserId", Value: filter.CreatorID})
	}
	if !filter.IncludeHidden {
		query = append(query, bson.E{Key: "hidden", Value: bson.D{{Key: "$ne", Value: true}}})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(search)},
			{Key: "$options", Value: "i"},
		}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}
	return query
}

func mongoSort(sort models.ProductSort) bson.D {
	switch sort {
	case models.ProductSortSales:
		return bson.D{{Key: "numberSold", Value: -1}, {Key: "_id", Value: 1}}
	case models.ProductSortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.ProductSortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "dateReleased", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func (r *MongoProductRepository) SetLike(ctx context.Context, id, userID string, liked bool) (*models.Product, error) {
	op := "$pull"
	if liked {
		op = "$addToSet"
	}
	update := bson.D{{Key: op, Value: bson.D{{Key: "likes", Value: userID}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logrus.WithError(err).WithField("product_id", id).Error("Failed to update likes")
		return nil, fmt.Errorf("failed to update likes: %w", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) IncrementViews(ctx context.Context, id string) error {
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}}
	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
