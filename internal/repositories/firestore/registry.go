package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// Registry bundles the Firestore repositories over one provider.
type Registry struct {
	provider  *pfirestore.Provider
	carts     *CartRepository
	orders    *OrderRepository
	histories *OrderHistoryRepository
	catalog   *CatalogRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry wires every repository to the provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	histories, err := NewOrderHistoryRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	return &Registry{
		provider:  provider,
		carts:     carts,
		orders:    orders,
		histories: histories,
		catalog:   catalog,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) Ping(ctx context.Context) error { return r.provider.Ping(ctx) }

func (r *Registry) Carts() repositories.CartRepository { return r.carts }

func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

func (r *Registry) OrderHistories() repositories.OrderHistoryRepository { return r.histories }

func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }
