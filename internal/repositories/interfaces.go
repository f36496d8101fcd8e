package repositories

import (
	"context"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error
	// Ping verifies the backing store is reachable; used by readiness probes.
	Ping(ctx context.Context) error

	Carts() CartRepository
	Orders() OrderRepository
	OrderHistories() OrderHistoryRepository
	Catalog() CatalogRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartMutation edits a cart inside the repository's per-owner critical section. found reports
// whether the cart existed; when it did not, cart carries only the owner. Returning an error
// aborts the write and the error is returned unchanged to the caller.
type CartMutation func(cart *domain.Cart, found bool) error

// CartMergeFunc folds source into target inside a critical section covering both owners.
// targetFound reports whether the account cart existed beforehand.
type CartMergeFunc func(target *domain.Cart, targetFound bool, source domain.Cart) error

// CartRepository stores at most one cart per owner key.
type CartRepository interface {
	Get(ctx context.Context, owner domain.Owner) (domain.Cart, error)
	// Mutate runs fn atomically with respect to other writes for the same owner and persists the result.
	Mutate(ctx context.Context, owner domain.Owner, fn CartMutation) (domain.Cart, error)
	// Merge loads the source and target carts together. When the source cart is absent nothing is
	// written and the target cart (zero when absent) is returned with sourceFound=false. Otherwise fn
	// runs, the target is persisted under the target owner and the source is deleted in the same step.
	Merge(ctx context.Context, source, target domain.Owner, fn CartMergeFunc) (result domain.Cart, sourceFound bool, err error)
	// Delete removes the owner's cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, owner domain.Owner) error
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	AccountID string
	Archived  *bool
	Limit     int
}

// OrderGuard inspects the stored order before a destructive write; returning an error aborts it.
type OrderGuard func(order domain.Order) error

// OrderRepository persists orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// Mutate loads the order, applies fn and saves it atomically.
	Mutate(ctx context.Context, orderID string, fn func(order *domain.Order) error) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	Delete(ctx context.Context, orderID string, guard OrderGuard) error
}

// OrderHistoryListFilter narrows history listings.
type OrderHistoryListFilter struct {
	AccountID string
	Limit     int
}

// OrderHistoryRepository stores purchase history, at most one record per order.
type OrderHistoryRepository interface {
	// Archive inserts the record and flags the referenced order archived in one atomic step.
	// A conflict error is returned when a record for the same order already exists and a not-found
	// error when the order is gone.
	Archive(ctx context.Context, history domain.OrderHistory) error
	FindByID(ctx context.Context, historyID string) (domain.OrderHistory, error)
	FindByOrderID(ctx context.Context, orderID string) (domain.OrderHistory, error)
	List(ctx context.Context, filter OrderHistoryListFilter) ([]domain.OrderHistory, error)
	Delete(ctx context.Context, historyID string) error
}

// CatalogRepository resolves products for pricing.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}
