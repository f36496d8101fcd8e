package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// orderStore holds orders and their history records behind one lock so archival can insert the
// history record and flag the order atomically.
type orderStore struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	histories map[string]domain.OrderHistory
	byOrderID map[string]string
}

func newOrderStore() *orderStore {
	return &orderStore{
		orders:    make(map[string]domain.Order),
		histories: make(map[string]domain.OrderHistory),
		byOrderID: make(map[string]string),
	}
}

// OrderRepository is the in-memory repositories.OrderRepository.
type OrderRepository struct {
	store *orderStore
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert implements repositories.OrderRepository.
func (r *OrderRepository) Insert(_ context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return invalid("orders.insert", "order id is required")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[id]; exists {
		return conflict("orders.insert", "order")
	}
	s.orders[id] = order.Clone()
	return nil
}

// FindByID implements repositories.OrderRepository.
func (r *OrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[strings.TrimSpace(orderID)]
	if !ok {
		return domain.Order{}, notFound("orders.get", "order")
	}
	return order.Clone(), nil
}

// Mutate implements repositories.OrderRepository.
func (r *OrderRepository) Mutate(ctx context.Context, orderID string, fn func(order *domain.Order) error) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	id := strings.TrimSpace(orderID)
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[id]
	if !ok {
		return domain.Order{}, notFound("orders.mutate", "order")
	}
	working := current.Clone()
	if err := fn(&working); err != nil {
		return domain.Order{}, err
	}
	working.ID = id
	s.orders[id] = working.Clone()
	return working, nil
}

// List implements repositories.OrderRepository. Newest orders come first.
func (r *OrderRepository) List(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	s := r.store
	s.mu.Lock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.AccountID != "" && order.AccountID != filter.AccountID {
			continue
		}
		if filter.Archived != nil && order.IsArchived != *filter.Archived {
			continue
		}
		out = append(out, order.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete implements repositories.OrderRepository.
func (r *OrderRepository) Delete(_ context.Context, orderID string, guard repositories.OrderGuard) error {
	id := strings.TrimSpace(orderID)
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return notFound("orders.delete", "order")
	}
	if guard != nil {
		if err := guard(order.Clone()); err != nil {
			return err
		}
	}
	delete(s.orders, id)
	return nil
}

// OrderHistoryRepository is the in-memory repositories.OrderHistoryRepository.
type OrderHistoryRepository struct {
	store *orderStore
}

var _ repositories.OrderHistoryRepository = (*OrderHistoryRepository)(nil)

// Archive implements repositories.OrderHistoryRepository.
func (r *OrderHistoryRepository) Archive(_ context.Context, history domain.OrderHistory) error {
	id := strings.TrimSpace(history.ID)
	orderID := strings.TrimSpace(history.OrderID)
	if id == "" || orderID == "" {
		return invalid("order_histories.archive", "history id and order id are required")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return notFound("order_histories.archive", "order")
	}
	if _, exists := s.byOrderID[orderID]; exists {
		return conflict("order_histories.archive", "history for order")
	}
	if _, exists := s.histories[id]; exists {
		return conflict("order_histories.archive", "history")
	}

	s.histories[id] = history.Clone()
	s.byOrderID[orderID] = id
	order.IsArchived = true
	s.orders[orderID] = order
	return nil
}

// FindByID implements repositories.OrderHistoryRepository.
func (r *OrderHistoryRepository) FindByID(_ context.Context, historyID string) (domain.OrderHistory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.histories[strings.TrimSpace(historyID)]
	if !ok {
		return domain.OrderHistory{}, notFound("order_histories.get", "history")
	}
	return history.Clone(), nil
}

// FindByOrderID implements repositories.OrderHistoryRepository.
func (r *OrderHistoryRepository) FindByOrderID(_ context.Context, orderID string) (domain.OrderHistory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrderID[strings.TrimSpace(orderID)]
	if !ok {
		return domain.OrderHistory{}, notFound("order_histories.get_by_order", "history")
	}
	return s.histories[id].Clone(), nil
}

// List implements repositories.OrderHistoryRepository. Most recently completed records come first.
func (r *OrderHistoryRepository) List(_ context.Context, filter repositories.OrderHistoryListFilter) ([]domain.OrderHistory, error) {
	s := r.store
	s.mu.Lock()
	out := make([]domain.OrderHistory, 0, len(s.histories))
	for _, history := range s.histories {
		if filter.AccountID != "" && history.AccountID != filter.AccountID {
			continue
		}
		out = append(out, history.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete implements repositories.OrderHistoryRepository. The referenced order is left untouched.
func (r *OrderHistoryRepository) Delete(_ context.Context, historyID string) error {
	id := strings.TrimSpace(historyID)
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.histories[id]
	if !ok {
		return notFound("order_histories.delete", "history")
	}
	delete(s.histories, id)
	delete(s.byOrderID, history.OrderID)
	return nil
}
