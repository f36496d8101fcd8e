package memory

import (
	"context"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// Registry wires the in-memory repositories together.
type Registry struct {
	carts     *CartRepository
	orders    *OrderRepository
	histories *OrderHistoryRepository
	catalog   *CatalogRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry builds an empty store whose catalog is seeded with products.
func NewRegistry(products ...domain.Product) *Registry {
	store := newOrderStore()
	return &Registry{
		carts:     NewCartRepository(),
		orders:    &OrderRepository{store: store},
		histories: &OrderHistoryRepository{store: store},
		catalog:   NewCatalogRepository(products...),
	}
}

func (r *Registry) Close(context.Context) error { return nil }

func (r *Registry) Ping(ctx context.Context) error { return ctx.Err() }

func (r *Registry) Carts() repositories.CartRepository { return r.carts }

func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

func (r *Registry) OrderHistories() repositories.OrderHistoryRepository { return r.histories }

func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }

// Products exposes the concrete catalog for seeding.
func (r *Registry) Products() *CatalogRepository { return r.catalog }
