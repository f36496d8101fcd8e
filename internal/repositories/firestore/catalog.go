package firestore

import (
	"context"
	"errors"
	"strings"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// CatalogRepository reads products maintained by the catalog service.
type CatalogRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository constructs a Firestore-backed product reader.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{base: pfirestore.NewBaseRepository[productDocument](provider, productCollection)}, nil
}

// GetProduct implements repositories.CatalogRepository.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, pfirestore.NotFound("products.get", "product")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return fromProductDocument(doc.ID, doc.Data), nil
}
