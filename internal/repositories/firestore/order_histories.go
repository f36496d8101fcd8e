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

// OrderHistoryRepository stores purchase history documents under the archived order's id.
type OrderHistoryRepository struct {
	base   *pfirestore.BaseRepository[orderHistoryDocument]
	orders *pfirestore.BaseRepository[orderDocument]
}

var _ repositories.OrderHistoryRepository = (*OrderHistoryRepository)(nil)

// NewOrderHistoryRepository constructs a Firestore-backed history repository.
func NewOrderHistoryRepository(provider *pfirestore.Provider) (*OrderHistoryRepository, error) {
	if provider == nil {
		return nil, errors.New("order history repository requires firestore provider")
	}
	return &OrderHistoryRepository{
		base:   pfirestore.NewBaseRepository[orderHistoryDocument](provider, orderHistoryCollection),
		orders: pfirestore.NewBaseRepository[orderDocument](provider, orderCollection),
	}, nil
}

// Archive implements repositories.OrderHistoryRepository. The history document is created and the
// order flagged archived in the same transaction.
func (r *OrderHistoryRepository) Archive(ctx context.Context, history domain.OrderHistory) error {
	orderID := strings.TrimSpace(history.OrderID)
	if orderID == "" || strings.TrimSpace(history.ID) == "" {
		return errors.New("order history repository: history id and order id are required")
	}
	historyRef, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}
	orderRef, err := r.orders.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}

	return r.base.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, orderFound, err := r.orders.GetTx(tx, orderRef)
		if err != nil {
			return err
		}
		if !orderFound {
			return pfirestore.NotFound("order_histories.archive", "order")
		}
		_, exists, err := r.base.GetTx(tx, historyRef)
		if err != nil {
			return err
		}
		if exists {
			return pfirestore.Conflict("order_histories.archive", "history for order")
		}
		if err := tx.Create(historyRef, toOrderHistoryDocument(history)); err != nil {
			return pfirestore.WrapError("order_histories.archive", err)
		}
		if err := tx.Update(orderRef, []firestore.Update{{Path: "isArchived", Value: true}}); err != nil {
			return pfirestore.WrapError("order_histories.archive", err)
		}
		return nil
	}, pfirestore.WithTxOperation("order_histories.archive"))
}

// FindByID implements repositories.OrderHistoryRepository.
func (r *OrderHistoryRepository) FindByID(ctx context.Context, historyID string) (domain.OrderHistory, error) {
	doc, err := r.findByHistoryID(ctx, historyID)
	if err != nil {
		return domain.OrderHistory{}, err
	}
	return fromOrderHistoryDocument(doc.Data), nil
}

// FindByOrderID implements repositories.OrderHistoryRepository.
func (r *OrderHistoryRepository) FindByOrderID(ctx context.Context, orderID string) (domain.OrderHistory, error) {
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.OrderHistory{}, err
	}
	return fromOrderHistoryDocument(doc.Data), nil
}

// List implements repositories.OrderHistoryRepository, most recently completed first.
func (r *OrderHistoryRepository) List(ctx context.Context, filter repositories.OrderHistoryListFilter) ([]domain.OrderHistory, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if accountID := strings.TrimSpace(filter.AccountID); accountID != "" {
			q = q.Where("accountId", "==", accountID)
		}
		q = q.OrderBy("completedAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.OrderHistory, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromOrderHistoryDocument(doc.Data))
	}
	return out, nil
}

// Delete implements repositories.OrderHistoryRepository. The referenced order is left untouched.
func (r *OrderHistoryRepository) Delete(ctx context.Context, historyID string) error {
	doc, err := r.findByHistoryID(ctx, historyID)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, doc.ID)
}

func (r *OrderHistoryRepository) findByHistoryID(ctx context.Context, historyID string) (pfirestore.Document[orderHistoryDocument], error) {
	id := strings.TrimSpace(historyID)
	if id == "" {
		return pfirestore.Document[orderHistoryDocument]{}, pfirestore.NotFound("order_histories.get", "history")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("id", "==", id).Limit(1)
	})
	if err != nil {
		return pfirestore.Document[orderHistoryDocument]{}, err
	}
	if len(docs) == 0 {
		return pfirestore.Document[orderHistoryDocument]{}, pfirestore.NotFound("order_histories.get", "history")
	}
	return docs[0], nil
}
