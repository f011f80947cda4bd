package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/layerhub/marketplace-backend/internal/models"
	"github.com/layerhub/marketplace-backend/internal/repository"
)

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	args := m.Called(ctx, data, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

func pendingFile(name, content string) PendingFile {
	return PendingFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func dataEquals(content string) interface{} {
	return mock.MatchedBy(func(data []byte) bool { return string(data) == content })
}

// memoryProductRepository is an in-memory repository.ProductRepository.
type memoryProductRepository struct {
	mu       sync.Mutex
	products map[string]models.Product
	lookups  []string
	// failInserts makes the next n inserts report a slug collision.
	failInserts int
}

func newMemoryProductRepository(products ...*models.Product) *memoryProductRepository {
	r := &memoryProductRepository{products: map[string]models.Product{}}
	for _, p := range products {
		r.products[p.ID] = *p
	}
	return r
}

func (r *memoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProductRepository) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, slug)
	for _, p := range r.products {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryProductRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.products {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memoryProductRepository) Insert(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInserts > 0 {
		r.failInserts--
		return repository.ErrDuplicateSlug
	}
	if r.slugTaken(product.Slug, product.ID) {
		return repository.ErrDuplicateSlug
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) UpdateByID(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.slugTaken(product.Slug, product.ID) {
		return repository.ErrDuplicateSlug
	}
	stored.CreatorFullName = product.CreatorFullName
	stored.Name = product.Name
	stored.Description = product.Description
	stored.Images = product.Images
	stored.DownloadableAssets = product.DownloadableAssets
	stored.Price = product.Price
	stored.PriceCredits = product.PriceCredits
	stored.Stock = product.Stock
	stored.ProductType = product.ProductType
	stored.Category = product.Category
	stored.Subcategory = product.Subcategory
	stored.Variants = product.Variants
	stored.Delivery = product.Delivery
	stored.Dimensions = product.Dimensions
	stored.Slug = product.Slug
	stored.UpdatedAt = product.UpdatedAt
	r.products[product.ID] = stored
	return nil
}

func (r *memoryProductRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryProductRepository) FindAll(_ context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if filter.CreatorID != "" && p.CreatorUserID != filter.CreatorID {
			continue
		}
		if p.Hidden && !filter.IncludeHidden {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateReleased.After(out[j].DateReleased) })
	return out, int64(len(out)), nil
}

func (r *memoryProductRepository) SetLike(_ context.Context, id, userID string, liked bool) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	var likes []string
	for _, u := range p.Likes {
		if u != userID {
			likes = append(likes, u)
		}
	}
	if liked {
		likes = append(likes, userID)
	}
	p.Likes = likes
	r.products[id] = p
	return &p, nil
}

func (r *memoryProductRepository) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Views++
	r.products[id] = p
	return nil
}

func (r *memoryProductRepository) get(id string) (models.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	return p, ok
}
