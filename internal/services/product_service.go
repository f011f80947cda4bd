// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/layerhub/marketplace-backend/internal/delivery"
	"github.com/layerhub/marketplace-backend/internal/models"
	"github.com/layerhub/marketplace-backend/internal/repository"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

const slugWriteAttempts = 3

type ProductService struct {
	products repository.ProductRepository
	assets   *AssetService
	slugs    *SlugService
	now      func() time.Time
}

// Actor is the authenticated caller.
type Actor struct {
	UserID   string
	FullName string
}

type ProductSearchParams struct {
	utils.PaginationParams
	Category    string
	Subcategory string
	ProductType models.ProductType
	CreatorID   string
	Search      string
	Sort        models.ProductSort
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

func NewProductService(products repository.ProductRepository, assets *AssetService, slugs *SlugService) *ProductService {
	return &ProductService{
		products: products,
		assets:   assets,
		slugs:    slugs,
		now:      time.Now,
	}
}

// preparedAssets are the files of one kind after admission checks.
type preparedAssets struct {
	kept    []string
	pending []PendingFile
}

func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, in *ProductInput) (*models.Product, error) {
	if in.CreatorUserID == "" {
		in.CreatorUserID = actor.UserID
	}
	if in.CreatorFullName == "" {
		in.CreatorFullName = actor.FullName
	}
	if in.CreatorUserID != actor.UserID {
		return nil, ErrForbidden
	}

	finalDelivery := s.finalizeDelivery(in)
	images, modelFiles, err := s.checkForm(in, nil, nil)
	if err != nil {
		return nil, err
	}

	uploadedImages, uploadedModels, err := s.uploadAll(ctx, images, modelFiles)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &models.Product{
		BaseModel:    models.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		DateReleased: now,
		Ratings:      []models.Rating{},
		Discounts:    []models.Discount{},
		Likes:        []string{},
	}
	applyInput(product, in, finalDelivery)
	product.Images = append(images.kept, uploadedImages...)
	product.DownloadableAssets = append(modelFiles.kept, uploadedModels...)

	if err := s.writeWithSlug(ctx, product, slugSource(in), "", "", s.products.Insert); err != nil {
		s.assets.DeleteAll(context.WithoutCancel(ctx), append(uploadedImages, uploadedModels...))
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"slug":       product.Slug,
		"creator_id": product.CreatorUserID,
	}).Info("Product created")
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, in *ProductInput) (*models.Product, error) {
	existing, err := s.getOwned(ctx, actor, in.ID)
	if err != nil {
		return nil, err
	}

	if in.UpdatedAt != nil && existing.UpdatedAt.Truncate(time.Millisecond).After(in.UpdatedAt.Truncate(time.Millisecond)) {
		return nil, ErrStaleProduct
	}
	if in.CreatorUserID != "" && in.CreatorUserID != existing.CreatorUserID {
		return nil, ErrForbidden
	}
	in.CreatorUserID = existing.CreatorUserID
	if in.CreatorFullName == "" {
		in.CreatorFullName = existing.CreatorFullName
	}

	finalDelivery := s.finalizeDelivery(in)
	images, modelFiles, err := s.checkForm(in, existing.Images, existing.DownloadableAssets)
	if err != nil {
		return nil, err
	}

	uploadedImages, uploadedModels, err := s.uploadAll(ctx, images, modelFiles)
	if err != nil {
		return nil, err
	}
	uploaded := append(append([]string{}, uploadedImages...), uploadedModels...)

	updated := *existing
	applyInput(&updated, in, finalDelivery)
	updated.Images = append(images.kept, uploadedImages...)
	updated.DownloadableAssets = append(modelFiles.kept, uploadedModels...)
	updated.UpdatedAt = s.now().UTC()

	keep := ""
	if s.slugs.Matches(slugSource(in), existing.Slug) {
		keep = existing.Slug
	}
	if err := s.writeWithSlug(ctx, &updated, slugSource(in), existing.ID, keep, s.products.UpdateByID); err != nil {
		s.assets.DeleteAll(context.WithoutCancel(ctx), uploaded)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// Likes and counters may have moved while the files uploaded.
	if fresh, err := s.products.FindByID(ctx, updated.ID); err == nil {
		updated = *fresh
	} else {
		logrus.WithError(err).WithField("product_id", updated.ID).Warn("Failed to reload product after update")
	}

	orphans := s.assets.Reconcile(existing.Images, updated.Images).ToDelete
	orphans = append(orphans, s.assets.Reconcile(existing.DownloadableAssets, updated.DownloadableAssets).ToDelete...)
	s.assets.DeleteAll(context.WithoutCancel(ctx), orphans)

	logrus.WithFields(logrus.Fields{
		"product_id": updated.ID,
		"slug":       updated.Slug,
		"uploaded":   len(uploaded),
		"deleted":    len(orphans),
	}).Info("Product updated")
	return &updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	existing, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.products.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	files := append(append([]string{}, existing.Images...), existing.DownloadableAssets...)
	s.assets.DeleteAll(context.WithoutCancel(ctx), files)

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"files":      len(files),
	}).Info("Product deleted")
	return nil
}

// GetProductBySlug returns the product and counts the view in the background.
func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	go func(id string) {
		viewCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.products.IncrementViews(viewCtx, id); err != nil {
			logrus.WithError(err).WithField("product_id", id).Debug("Failed to count product view")
		}
	}(product.ID)

	return product, nil
}

// ListProducts returns matching products. Hidden products are only listed
// when a creator browses their own catalogue.
func (s *ProductService) ListProducts(ctx context.Context, viewerID string, params ProductSearchParams) ([]models.Product, int64, error) {
	sort := params.Sort
	switch sort {
	case models.ProductSortRecent, models.ProductSortSales, models.ProductSortPriceAsc, models.ProductSortPriceDesc:
	default:
		sort = models.ProductSortRecent
	}

	filter := repository.ProductFilter{
		Category:      params.Category,
		Subcategory:   params.Subcategory,
		ProductType:   params.ProductType,
		CreatorID:     params.CreatorID,
		Search:        params.Search,
		IncludeHidden: params.CreatorID != "" && params.CreatorID == viewerID,
		Sort:          sort,
		Offset:        params.Offset(),
		Limit:         params.Limit,
	}

	products, total, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

func (s *ProductService) SetLike(ctx context.Context, actor Actor, productID string, action models.LikeAction) (*LikeResult, error) {
	product, err := s.products.SetLike(ctx, productID, actor.UserID, action == models.LikeActionLike)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update like: %w", err)
	}

	return &LikeResult{
		Liked:     product.LikedBy(actor.UserID),
		LikeCount: len(product.Likes),
	}, nil
}

func (s *ProductService) getOwned(ctx context.Context, actor Actor, id string) (*models.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if existing.CreatorUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return existing, nil
}

// finalizeDelivery rebuilds the submitted delivery options with a SingPost
// fee computed from the dimensions and writes the result back into in.
func (s *ProductService) finalizeDelivery(in *ProductInput) models.Delivery {
	state := delivery.FromSubmission(in.DeliveryTypes, in.SelfCollectLocation, in.Dimensions)
	in.DeliveryTypes = state.Options()
	in.SelfCollectLocation = state.Locations()
	return state.Delivery()
}

// checkForm runs every check that needs no network call and collects all
// problems into one ValidationError.
func (s *ProductService) checkForm(in *ProductInput, persistedImages, persistedModels []string) (preparedAssets, preparedAssets, error) {
	problems := ValidateProduct(in)

	images, imageProblems := s.prepare("Images", AssetKindImage, persistedImages, in.Images)
	modelFiles, modelProblems := s.prepare("Model Files", AssetKindModel, persistedModels, in.Models)
	problems = append(problems, imageProblems...)
	problems = append(problems, modelProblems...)

	if len(problems) > 0 {
		return preparedAssets{}, preparedAssets{}, NewValidationError(problems...)
	}
	return images, modelFiles, nil
}

func (s *ProductService) prepare(label string, kind AssetKind, persisted []string, refs []AssetRef) (preparedAssets, []string) {
	var urls []string
	var files []PendingFile
	for _, ref := range refs {
		if ref.IsPending() {
			files = append(files, *ref.File)
		} else {
			urls = append(urls, ref.URL)
		}
	}

	kept, problems := s.assets.CheckKept(label, persisted, urls)
	accepted, rejected := s.assets.Admit(kind, len(kept), files)
	return preparedAssets{kept: kept, pending: accepted}, append(problems, rejected...)
}

func (s *ProductService) uploadAll(ctx context.Context, images, modelFiles preparedAssets) ([]string, []string, error) {
	uploadedImages, err := s.assets.Upload(ctx, AssetKindImage, images.pending)
	if err != nil {
		return nil, nil, err
	}
	uploadedModels, err := s.assets.Upload(ctx, AssetKindModel, modelFiles.pending)
	if err != nil {
		s.assets.DeleteAll(context.WithoutCancel(ctx), uploadedImages)
		return nil, nil, err
	}
	return uploadedImages, uploadedModels, nil
}

// writeWithSlug assigns a slug and writes the product, assigning again when
// another session claimed the same slug between the probe and the write.
// A non-empty keep is tried first without probing.
func (s *ProductService) writeWithSlug(ctx context.Context, product *models.Product, source, excludeID, keep string, write func(context.Context, *models.Product) error) error {
	for attempt := 1; attempt <= slugWriteAttempts; attempt++ {
		slug := keep
		if attempt > 1 || slug == "" {
			var err error
			if slug, err = s.slugs.Assign(ctx, source, excludeID); err != nil {
				return err
			}
		}
		product.Slug = slug

		err := write(ctx, product)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"slug":    slug,
			"attempt": attempt,
		}).Warn("Slug taken at write time, assigning again")
	}

	logrus.WithField("source", source).Error("Slug collisions on every write attempt")
	return ErrSlugCollisionExhausted
}

func slugSource(in *ProductInput) string {
	if strings.TrimSpace(in.SlugBase) != "" {
		return in.SlugBase
	}
	return in.Name
}

func applyInput(p *models.Product, in *ProductInput, d models.Delivery) {
	p.CreatorUserID = in.CreatorUserID
	p.CreatorFullName = strings.TrimSpace(in.CreatorFullName)
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.Subcategory = strings.TrimSpace(in.Subcategory)
	p.ProductType = in.ProductType
	p.Price = in.Price
	p.PriceCredits = in.PriceCredits
	p.Stock = int(in.Stock)
	p.Variants = cleanVariants(in.Variants)
	p.Delivery = d
	p.Dimensions = in.Dimensions
}

func cleanVariants(variants []string) []string {
	cleaned := []string{}
	for _, v := range variants {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
