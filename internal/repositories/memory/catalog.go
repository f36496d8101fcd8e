package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// CatalogRepository serves products from memory. It backs local development and tests.
type CatalogRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository seeds the catalog with products.
func NewCatalogRepository(products ...domain.Product) *CatalogRepository {
	repo := &CatalogRepository{products: make(map[string]domain.Product, len(products))}
	for _, product := range products {
		repo.Upsert(product)
	}
	return repo
}

// Upsert stores or replaces a product.
func (r *CatalogRepository) Upsert(product domain.Product) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return
	}
	product.ID = id
	r.mu.Lock()
	r.products[id] = product
	r.mu.Unlock()
}

// Remove deletes a product so later lookups miss.
func (r *CatalogRepository) Remove(productID string) {
	r.mu.Lock()
	delete(r.products, strings.TrimSpace(productID))
	r.mu.Unlock()
}

// GetProduct implements repositories.CatalogRepository.
func (r *CatalogRepository) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[strings.TrimSpace(productID)]
	if !ok {
		return domain.Product{}, notFound("products.get", "product")
	}
	return product, nil
}
