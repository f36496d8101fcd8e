package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

var (
	errOrderRepositoryRequired = errors.New("order service: order repository is required")
	errOrderCatalogRequired    = errors.New("order service: catalog is required")
	errOrderClockRequired      = errors.New("order service: clock is required")

	errUserCommentAlreadySet = errors.New("order service: user comment already set")
)

const (
	defaultPaymentMethod    = "cash_on_delivery"
	defaultMaxCommentLength = 1000
	hookTimeout             = 10 * time.Second
	maxOrderLines           = 100
)

// OrderServiceDeps wires repositories, collaborators and post-commit hooks for order operations.
type OrderServiceDeps struct {
	Orders               repositories.OrderRepository
	Catalog              repositories.CatalogRepository
	Events               EventSink
	Hooks                []OrderStatusHook
	Clock                func() time.Time
	Logger               func(context.Context, string, map[string]any)
	IDGenerator          func() string
	DefaultPaymentMethod string
	MaxCommentLength     int
	// EventTimeout bounds each analytics publish. Zero means two seconds.
	EventTimeout         time.Duration
}

type orderService struct {
	orders        repositories.OrderRepository
	catalog       repositories.CatalogRepository
	events        recorder
	hooks         []OrderStatusHook
	newID         func() string
	now           func() time.Time
	logger        func(context.Context, string, map[string]any)
	paymentMethod string
	maxComment    int
	policy        *bluemonday.Policy
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errOrderCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	method := normalisePaymentMethod(deps.DefaultPaymentMethod)
	if method == "" {
		method = defaultPaymentMethod
	}
	maxComment := deps.MaxCommentLength
	if maxComment <= 0 {
		maxComment = defaultMaxCommentLength
	}
	hooks := make([]OrderStatusHook, 0, len(deps.Hooks))
	for _, hook := range deps.Hooks {
		if hook != nil {
			hooks = append(hooks, hook)
		}
	}
	now := func() time.Time { return deps.Clock().UTC() }

	return &orderService{
		orders:        deps.Orders,
		catalog:       deps.Catalog,
		events:        newRecorder(deps.Events, now, logger, deps.EventTimeout),
		hooks:         hooks,
		newID:         idGen,
		now:           now,
		logger:        logger,
		paymentMethod: method,
		maxComment:    maxComment,
		policy:        bluemonday.StrictPolicy(),
	}, nil
}

// CreateOrder prices every requested line against the current catalog and stores the snapshot.
// Any missing product aborts the whole order before anything is written.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	accountID, ok := cmd.Owner.AccountID()
	if !ok {
		return Order{}, ErrIdentityRequired
	}
	if len(cmd.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: at least one line is required", ErrOrderInvalidInput)
	}
	if len(cmd.Lines) > maxOrderLines {
		return Order{}, fmt.Errorf("%w: too many lines", ErrOrderInvalidInput)
	}

	requested, err := mergeLineRequests(cmd.Lines)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	lines := make([]domain.OrderLine, 0, len(requested))
	for _, req := range requested {
		key := req.key
		product, err := s.catalog.GetProduct(ctx, key.ProductID)
		if err != nil {
			if isRepoNotFound(err) {
				return Order{}, fmt.Errorf("%w: %s", ErrProductNotFound, key.ProductID)
			}
			return Order{}, s.translateRepoError(err)
		}
		lines = append(lines, domain.OrderLine{
			ProductID:      key.ProductID,
			Title:          product.Title,
			Image:          product.Image,
			Color:          key.Color,
			Size:           key.Size,
			UnitPrice:      product.Price,
			UnitFinalPrice: product.FinalPrice(now),
			Quantity:       req.quantity,
		})
	}

	method := normalisePaymentMethod(cmd.PaymentMethod)
	if method == "" {
		method = s.paymentMethod
	}

	order := domain.Order{
		ID:             s.newID(),
		AccountID:      accountID,
		Lines:          lines,
		TotalPrice:     domain.OrderTotal(lines),
		PaymentMethod:  method,
		Status:         domain.OrderStatusPending,
		DeliveryStatus: domain.DeliveryStatusWarehouse,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		AdminComments:  []domain.AdminComment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.translateRepoError(err)
	}

	s.events.record(ctx, AnalyticsEvent{
		Kind:      EventOrderCreated,
		AccountID: accountID,
		OrderID:   order.ID,
		Quantity:  totalQuantity(lines),
		Status:    string(order.Status),
	})
	return order, nil
}

type lineRequest struct {
	key      domain.LineKey
	quantity int
}

// mergeLineRequests validates the requested lines and folds repeats of the same composite key
// into one line, keeping first-seen order.
func mergeLineRequests(reqs []OrderLineRequest) ([]lineRequest, error) {
	merged := make([]lineRequest, 0, len(reqs))
	for i, req := range reqs {
		key := domain.NewLineKey(req.ProductID, req.Color, req.Size)
		if key.IsZero() {
			return nil, fmt.Errorf("%w: lines[%d].productId is required", ErrOrderInvalidInput, i)
		}
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: lines[%d].quantity must be positive", ErrOrderInvalidInput, i)
		}
		found := false
		for j := range merged {
			if merged[j].key.Matches(key) {
				merged[j].quantity += req.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, lineRequest{key: key, quantity: req.Quantity})
		}
	}
	return merged, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	orders, err := s.orders.List(ctx, repositories.OrderListFilter{
		AccountID: strings.TrimSpace(filter.AccountID),
		Archived:  filter.Archived,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return orders, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	target := domain.OrderStatus(strings.ToLower(strings.TrimSpace(string(cmd.Status))))
	if !target.Valid() {
		return Order{}, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, cmd.Status)
	}
	return s.updateStatus(ctx, cmd.OrderID, cmd.ActorID, "orderStatus", string(target), func(order *domain.Order) error {
		if !order.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: order status cannot move from %s to %s", ErrOrderInvalidState, order.Status, target)
		}
		order.Status = target
		return nil
	})
}

func (s *orderService) UpdateDeliveryStatus(ctx context.Context, cmd UpdateDeliveryStatusCommand) (Order, error) {
	target := domain.DeliveryStatus(strings.ToLower(strings.TrimSpace(string(cmd.Status))))
	if !target.Valid() {
		return Order{}, fmt.Errorf("%w: unknown delivery status %q", ErrOrderInvalidInput, cmd.Status)
	}
	return s.updateStatus(ctx, cmd.OrderID, cmd.ActorID, "deliveryStatus", string(target), func(order *domain.Order) error {
		if !order.DeliveryStatus.CanTransitionTo(target) {
			return fmt.Errorf("%w: delivery status cannot move from %s to %s", ErrOrderInvalidState, order.DeliveryStatus, target)
		}
		order.DeliveryStatus = target
		return nil
	})
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, cmd UpdatePaymentStatusCommand) (Order, error) {
	target := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(string(cmd.Status))))
	if !target.Valid() {
		return Order{}, fmt.Errorf("%w: unknown payment status %q", ErrOrderInvalidInput, cmd.Status)
	}
	return s.updateStatus(ctx, cmd.OrderID, cmd.ActorID, "paymentStatus", string(target), func(order *domain.Order) error {
		if !order.PaymentStatus.CanTransitionTo(target) {
			return fmt.Errorf("%w: payment status cannot move from %s to %s", ErrOrderInvalidState, order.PaymentStatus, target)
		}
		order.PaymentStatus = target
		return nil
	})
}

// updateStatus writes one status axis and, once the write is committed, runs the post-commit hooks.
func (s *orderService) updateStatus(ctx context.Context, orderID, actorID, axis, value string, apply func(*domain.Order) error) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	updated, err := s.orders.Mutate(ctx, orderID, func(order *domain.Order) error {
		if err := apply(order); err != nil {
			return err
		}
		order.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}

	s.logger(ctx, "order.status.updated", map[string]any{
		"order": updated.ID,
		"axis":  axis,
		"value": value,
		"actor": strings.TrimSpace(actorID),
	})
	s.runHooks(ctx, updated)
	s.events.record(ctx, AnalyticsEvent{
		Kind:      EventOrderStatusChanged,
		AccountID: updated.AccountID,
		OrderID:   updated.ID,
		Status:    axis + "=" + value,
	})
	return updated, nil
}

// runHooks runs after the status write is committed. The hooks keep the caller's values
// but not its cancellation, so a client hanging up cannot abort archival halfway.
func (s *orderService) runHooks(ctx context.Context, order Order) {
	if len(s.hooks) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()
	for _, hook := range s.hooks {
		if err := s.runHook(ctx, hook, order); err != nil {
			s.logger(ctx, "order.hook.failed", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
	}
}

func (s *orderService) runHook(ctx context.Context, hook OrderStatusHook, order Order) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("order status hook panicked: %v", rec)
		}
	}()
	return hook.AfterStatusChange(ctx, order.Clone())
}

// SetUserComment stores the buyer's comment once. Later calls leave the order untouched.
func (s *orderService) SetUserComment(ctx context.Context, cmd SetUserCommentCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	author := strings.TrimSpace(cmd.AuthorID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if author == "" {
		return Order{}, ErrIdentityRequired
	}
	text, err := s.sanitizeComment(cmd.Text)
	if err != nil {
		return Order{}, err
	}

	updated, err := s.orders.Mutate(ctx, orderID, func(order *domain.Order) error {
		if order.AccountID != author {
			return ErrOrderForbidden
		}
		if order.UserComment != nil {
			return errUserCommentAlreadySet
		}
		order.UserComment = &text
		order.UpdatedAt = s.now()
		return nil
	})
	if errors.Is(err, errUserCommentAlreadySet) {
		return s.GetOrder(ctx, orderID)
	}
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return updated, nil
}

func (s *orderService) AddAdminComment(ctx context.Context, cmd AddAdminCommentCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	author := strings.TrimSpace(cmd.AuthorID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if author == "" {
		return Order{}, ErrIdentityRequired
	}
	text, err := s.sanitizeComment(cmd.Text)
	if err != nil {
		return Order{}, err
	}

	updated, err := s.orders.Mutate(ctx, orderID, func(order *domain.Order) error {
		now := s.now()
		order.AdminComments = append(order.AdminComments, domain.AdminComment{
			ID:        s.newID(),
			AuthorID:  author,
			Text:      text,
			CreatedAt: now,
		})
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	return updated, nil
}

// DeleteOrder removes an order that has not been archived.
func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	err := s.orders.Delete(ctx, orderID, func(order domain.Order) error {
		if order.IsArchived {
			return fmt.Errorf("%w: archived orders cannot be deleted", ErrOrderInvalidState)
		}
		return nil
	})
	if err != nil {
		return s.translateRepoError(err)
	}
	s.logger(ctx, "order.deleted", map[string]any{"order": orderID})
	return nil
}

func (s *orderService) sanitizeComment(raw string) (string, error) {
	text := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
	if text == "" {
		return "", fmt.Errorf("%w: comment text is required", ErrOrderInvalidInput)
	}
	if utf8.RuneCountInString(text) > s.maxComment {
		return "", fmt.Errorf("%w: comment exceeds %d characters", ErrOrderInvalidInput, s.maxComment)
	}
	return text, nil
}

func (s *orderService) translateRepoError(err error) error {
	return translateOrderRepoError(err)
}

func translateOrderRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrOrderInvalidInput),
		errors.Is(err, ErrOrderInvalidState),
		errors.Is(err, ErrOrderForbidden),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderAlreadyArchived),
		errors.Is(err, ErrProductNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isRepoNotFound(err):
		return ErrOrderNotFound
	case isRepoConflict(err):
		return fmt.Errorf("%w: %v", ErrOrderConflict, err)
	case isRepoUnavailable(err):
		return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
}

func normalisePaymentMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

func totalQuantity(lines []domain.OrderLine) int {
	var qty int
	for _, line := range lines {
		qty += line.Quantity
	}
	return qty
}
