package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

var (
	errHistoryOrdersRequired  = errors.New("order history service: order repository is required")
	errHistoryRecordsRequired = errors.New("order history service: history repository is required")
	errHistoryClockRequired   = errors.New("order history service: clock is required")
)

// OrderHistoryServiceDeps wires the archiver.
type OrderHistoryServiceDeps struct {
	Orders       repositories.OrderRepository
	Histories    repositories.OrderHistoryRepository
	Events       EventSink
	Metrics      ArchiveMetrics
	Clock        func() time.Time
	Logger       func(context.Context, string, map[string]any)
	IDGenerator  func() string
	// EventTimeout bounds each analytics publish. Zero means two seconds.
	EventTimeout time.Duration
}

type orderHistoryService struct {
	orders    repositories.OrderRepository
	histories repositories.OrderHistoryRepository
	events    recorder
	metrics   ArchiveMetrics
	newID     func() string
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewOrderHistoryService constructs the archiver and history reader.
func NewOrderHistoryService(deps OrderHistoryServiceDeps) (OrderHistoryService, error) {
	if deps.Orders == nil {
		return nil, errHistoryOrdersRequired
	}
	if deps.Histories == nil {
		return nil, errHistoryRecordsRequired
	}
	if deps.Clock == nil {
		return nil, errHistoryClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopArchiveMetrics{}
	}
	now := func() time.Time { return deps.Clock().UTC() }

	return &orderHistoryService{
		orders:    deps.Orders,
		histories: deps.Histories,
		events:    newRecorder(deps.Events, now, logger, deps.EventTimeout),
		metrics:   metrics,
		newID:     idGen,
		now:       now,
		logger:    logger,
	}, nil
}

// Archive copies a terminal order into purchase history. The order is re-read and re-checked here;
// the repository's uniqueness on the order reference decides races, and the loser sees
// ErrOrderAlreadyArchived.
func (s *orderHistoryService) Archive(ctx context.Context, orderID string) (OrderHistory, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderHistory{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderHistory{}, s.fail(ctx, "lookup", translateOrderRepoError(err))
	}
	if !order.IsTerminal() {
		return OrderHistory{}, s.fail(ctx, "not_terminal", fmt.Errorf("%w: order %s is not paid, delivered and completed", ErrOrderInvalidState, orderID))
	}
	if order.IsArchived {
		return OrderHistory{}, ErrOrderAlreadyArchived
	}
	if _, err := s.histories.FindByOrderID(ctx, orderID); err == nil {
		return OrderHistory{}, ErrOrderAlreadyArchived
	} else if !isRepoNotFound(err) {
		return OrderHistory{}, s.fail(ctx, "lookup", translateOrderRepoError(err))
	}

	history := domain.OrderHistory{
		ID:            s.newID(),
		AccountID:     order.AccountID,
		OrderID:       order.ID,
		Lines:         domain.CloneOrderLines(order.Lines),
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		CompletedAt:   s.now(),
	}
	if err := s.histories.Archive(ctx, history); err != nil {
		switch {
		case isRepoConflict(err):
			return OrderHistory{}, ErrOrderAlreadyArchived
		case isRepoNotFound(err):
			return OrderHistory{}, s.fail(ctx, "lookup", ErrOrderNotFound)
		}
		return OrderHistory{}, s.fail(ctx, "write", translateOrderRepoError(err))
	}

	s.metrics.RecordArchived(ctx)
	s.logger(ctx, "order.archived", map[string]any{
		"order":   order.ID,
		"history": history.ID,
	})
	s.events.record(ctx, AnalyticsEvent{
		Kind:      EventOrderArchived,
		AccountID: history.AccountID,
		OrderID:   history.OrderID,
		Quantity:  totalQuantity(history.Lines),
	})
	return history, nil
}

func (s *orderHistoryService) GetHistory(ctx context.Context, historyID string) (OrderHistory, error) {
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return OrderHistory{}, fmt.Errorf("%w: history id is required", ErrOrderInvalidInput)
	}
	history, err := s.histories.FindByID(ctx, historyID)
	if err != nil {
		return OrderHistory{}, translateHistoryRepoError(err)
	}
	return history, nil
}

func (s *orderHistoryService) ListHistory(ctx context.Context, filter OrderHistoryFilter) ([]OrderHistory, error) {
	records, err := s.histories.List(ctx, repositories.OrderHistoryListFilter{
		AccountID: strings.TrimSpace(filter.AccountID),
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, translateHistoryRepoError(err)
	}
	return records, nil
}

// DeleteHistory removes a history record. The order it references is kept.
func (s *orderHistoryService) DeleteHistory(ctx context.Context, historyID string) error {
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return fmt.Errorf("%w: history id is required", ErrOrderInvalidInput)
	}
	if err := s.histories.Delete(ctx, historyID); err != nil {
		return translateHistoryRepoError(err)
	}
	s.logger(ctx, "order.history.deleted", map[string]any{"history": historyID})
	s.events.record(ctx, AnalyticsEvent{Kind: EventOrderHistoryDeleted})
	return nil
}

func (s *orderHistoryService) fail(ctx context.Context, reason string, err error) error {
	s.metrics.RecordArchiveFailure(ctx, reason)
	return err
}

func translateHistoryRepoError(err error) error {
	if isRepoNotFound(err) {
		return ErrOrderHistoryNotFound
	}
	return translateOrderRepoError(err)
}

// NewArchivalHook returns the post-commit hook that archives an order once it becomes terminal.
// An order that was already archived is a benign outcome: it is logged and reported as success.
func NewArchivalHook(archiver OrderHistoryService, logger func(context.Context, string, map[string]any)) OrderStatusHook {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return OrderStatusHookFunc(func(ctx context.Context, order Order) error {
		if archiver == nil || order.IsArchived || !order.IsTerminal() {
			return nil
		}
		_, err := archiver.Archive(ctx, order.ID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrOrderAlreadyArchived):
			logger(ctx, "order.archive.skipped", map[string]any{"order": order.ID, "reason": "already_archived"})
			return nil
		}
		return fmt.Errorf("archive order %s: %w", order.ID, err)
	})
}

type noopArchiveMetrics struct{}

func (noopArchiveMetrics) RecordArchived(context.Context) {}

func (noopArchiveMetrics) RecordArchiveFailure(context.Context, string) {}
