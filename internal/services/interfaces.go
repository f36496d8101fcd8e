package services

import (
	"context"
	"time"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
)

// Domain aliases keep handler code free of a direct domain import.
type (
	Owner          = domain.Owner
	LineKey        = domain.LineKey
	Cart           = domain.Cart
	CartLine       = domain.CartLine
	Order          = domain.Order
	OrderLine      = domain.OrderLine
	AdminComment   = domain.AdminComment
	OrderHistory   = domain.OrderHistory
	OrderStatus    = domain.OrderStatus
	DeliveryStatus = domain.DeliveryStatus
	PaymentStatus  = domain.PaymentStatus
)

// CartService manages one cart per owner and the anonymous-to-account merge.
type CartService interface {
	// GetCart returns the owner's cart. found is false when the owner has no cart yet.
	GetCart(ctx context.Context, owner Owner) (cart Cart, found bool, err error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error)
	UpdateQuantity(ctx context.Context, cmd UpdateCartItemCommand) (Cart, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error)
	DeleteCart(ctx context.Context, owner Owner) error
	// MergeCarts folds the session cart into the account cart. found is false when neither cart exists.
	MergeCarts(ctx context.Context, cmd MergeCartsCommand) (cart Cart, found bool, err error)
}

// AddCartItemCommand adds quantity units of a product variant.
type AddCartItemCommand struct {
	Owner     Owner
	ProductID string
	Color     string
	Size      string
	Quantity  int
}

// UpdateCartItemCommand sets a line quantity; zero or less removes the line.
type UpdateCartItemCommand struct {
	Owner    Owner
	Key      LineKey
	Quantity int
}

// RemoveCartItemCommand removes one line.
type RemoveCartItemCommand struct {
	Owner Owner
	Key   LineKey
}

// MergeCartsCommand names the account that just authenticated and the session it came from.
type MergeCartsCommand struct {
	AccountID  string
	SessionKey string
}

// OrderService creates orders and drives their status axes.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
	UpdateDeliveryStatus(ctx context.Context, cmd UpdateDeliveryStatusCommand) (Order, error)
	UpdatePaymentStatus(ctx context.Context, cmd UpdatePaymentStatusCommand) (Order, error)
	SetUserComment(ctx context.Context, cmd SetUserCommentCommand) (Order, error)
	AddAdminComment(ctx context.Context, cmd AddAdminCommentCommand) (Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

// OrderLineRequest is the client-side description of a line; prices are looked up server-side.
type OrderLineRequest struct {
	ProductID string
	Color     string
	Size      string
	Quantity  int
}

// CreateOrderCommand places an order for an account.
type CreateOrderCommand struct {
	Owner         Owner
	Lines         []OrderLineRequest
	PaymentMethod string
}

// OrderListFilter narrows ListOrders.
type OrderListFilter struct {
	AccountID string
	Archived  *bool
	Limit     int
}

// UpdateOrderStatusCommand moves the commercial status.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  OrderStatus
	ActorID string
}

// UpdateDeliveryStatusCommand moves the delivery status.
type UpdateDeliveryStatusCommand struct {
	OrderID string
	Status  DeliveryStatus
	ActorID string
}

// UpdatePaymentStatusCommand moves the payment status.
type UpdatePaymentStatusCommand struct {
	OrderID string
	Status  PaymentStatus
	ActorID string
}

// SetUserCommentCommand attaches the buyer's single comment.
type SetUserCommentCommand struct {
	OrderID  string
	AuthorID string
	Text     string
}

// AddAdminCommentCommand appends a staff note.
type AddAdminCommentCommand struct {
	OrderID  string
	AuthorID string
	Text     string
}

// OrderHistoryService archives terminal orders and serves purchase history.
type OrderHistoryService interface {
	Archive(ctx context.Context, orderID string) (OrderHistory, error)
	GetHistory(ctx context.Context, historyID string) (OrderHistory, error)
	ListHistory(ctx context.Context, filter OrderHistoryFilter) ([]OrderHistory, error)
	DeleteHistory(ctx context.Context, historyID string) error
}

// OrderHistoryFilter narrows ListHistory.
type OrderHistoryFilter struct {
	AccountID string
	Limit     int
}

// OrderStatusHook runs after a status write has been committed. Its error never fails the write.
type OrderStatusHook interface {
	AfterStatusChange(ctx context.Context, order Order) error
}

// OrderStatusHookFunc adapts a function to OrderStatusHook.
type OrderStatusHookFunc func(ctx context.Context, order Order) error

// AfterStatusChange implements OrderStatusHook.
func (f OrderStatusHookFunc) AfterStatusChange(ctx context.Context, order Order) error {
	return f(ctx, order)
}

// EventSink receives analytics events. Callers ignore its errors beyond logging them.
type EventSink interface {
	Record(ctx context.Context, event AnalyticsEvent) error
}

// AnalyticsEvent is the payload recorded for cart and order activity. Empty fields are omitted.
type AnalyticsEvent struct {
	Kind       string    `json:"kind"`
	AccountID  string    `json:"accountId,omitempty"`
	SessionKey string    `json:"sessionKey,omitempty"`
	ProductID  string    `json:"productId,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ArchiveMetrics counts archival outcomes.
type ArchiveMetrics interface {
	RecordArchived(ctx context.Context)
	RecordArchiveFailure(ctx context.Context, reason string)
}
