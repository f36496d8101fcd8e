package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// OrderRepository persists orders keyed by order id.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{base: pfirestore.NewBaseRepository[orderDocument](provider, orderCollection)}, nil
}

// Insert implements repositories.OrderRepository. An existing id is reported as a conflict.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	return r.base.Create(ctx, id, toOrderDocument(order))
}

// FindByID implements repositories.OrderRepository.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return fromOrderDocument(doc.ID, doc.Data), nil
}

// Mutate implements repositories.OrderRepository.
func (r *OrderRepository) Mutate(ctx context.Context, orderID string, fn func(order *domain.Order) error) (domain.Order, error) {
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}

	var result domain.Order
	err = r.base.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, found, err := r.base.GetTx(tx, ref)
		if err != nil {
			return err
		}
		if !found {
			return pfirestore.NotFound("orders.mutate", "order")
		}
		order := fromOrderDocument(doc.ID, doc.Data)
		if err := fn(&order); err != nil {
			return err
		}
		order.ID = doc.ID
		if err := tx.Set(ref, toOrderDocument(order)); err != nil {
			return pfirestore.WrapError("orders.mutate", err)
		}
		result = order
		return nil
	}, pfirestore.WithTxOperation("orders.mutate"))
	if err != nil {
		return domain.Order{}, err
	}
	return result.Clone(), nil
}

// List implements repositories.OrderRepository, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if accountID := strings.TrimSpace(filter.AccountID); accountID != "" {
			q = q.Where("accountId", "==", accountID)
		}
		if filter.Archived != nil {
			q = q.Where("isArchived", "==", *filter.Archived)
		}
		q = q.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromOrderDocument(doc.ID, doc.Data))
	}
	return out, nil
}

// Delete implements repositories.OrderRepository. The guard sees the stored order inside the transaction.
func (r *OrderRepository) Delete(ctx context.Context, orderID string, guard repositories.OrderGuard) error {
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return err
	}
	return r.base.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, found, err := r.base.GetTx(tx, ref)
		if err != nil {
			return err
		}
		if !found {
			return pfirestore.NotFound("orders.delete", "order")
		}
		if guard != nil {
			if err := guard(fromOrderDocument(doc.ID, doc.Data)); err != nil {
				return err
			}
		}
		if err := tx.Delete(ref); err != nil {
			return pfirestore.WrapError("orders.delete", err)
		}
		return nil
	}, pfirestore.WithTxOperation("orders.delete"))
}
