package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/memory"
)

func createTestOrder(t *testing.T, f *fixture, accountID string) Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderCommand{
		Owner: domain.AccountOwner(accountID),
		Lines: []OrderLineRequest{
			{ProductID: "prod-a", Color: "red", Size: "M", Quantity: 2},
			{ProductID: "prod-b", Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func TestNewOrderServiceValidatesDeps(t *testing.T) {
	_, err := NewOrderService(OrderServiceDeps{})
	assert.ErrorIs(t, err, errOrderRepositoryRequired)

	registry := memory.NewRegistry()
	_, err = NewOrderService(OrderServiceDeps{Orders: registry.Orders()})
	assert.ErrorIs(t, err, errOrderCatalogRequired)

	_, err = NewOrderService(OrderServiceDeps{Orders: registry.Orders(), Catalog: registry.Catalog()})
	assert.ErrorIs(t, err, errOrderClockRequired)
}

func TestOrderServiceCreateOrderTotalsUndiscountedPrices(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)

	order := createTestOrder(t, f, "uid-1")

	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, "uid-1", order.AccountID)
	assert.Equal(t, int64(250), order.TotalPrice)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.DeliveryStatusWarehouse, order.DeliveryStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, "cash_on_delivery", order.PaymentMethod)
	assert.False(t, order.IsArchived)
	assert.Nil(t, order.UserComment)
	assert.Equal(t, testNow, order.CreatedAt)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, int64(100), order.Lines[0].UnitPrice)
	assert.Equal(t, int64(80), order.Lines[0].UnitFinalPrice)
	assert.Equal(t, "Shirt", order.Lines[0].Title)
	assert.Equal(t, int64(25), order.Lines[1].UnitFinalPrice)

	stored, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalPrice, stored.TotalPrice)
	assert.Contains(t, f.events.kinds(), EventOrderCreated)
}

func TestOrderServiceCreateOrderMergesRepeatedLines(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)

	order, err := f.orders.CreateOrder(context.Background(), CreateOrderCommand{
		Owner: domain.AccountOwner("uid-1"),
		Lines: []OrderLineRequest{
			{ProductID: "prod-a", Color: "red", Size: "M", Quantity: 2},
			{ProductID: "prod-b", Quantity: 1},
			{ProductID: " prod-a ", Color: "red", Size: "M", Quantity: 3},
			{ProductID: "prod-a", Color: "red", Size: "L", Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, order.Lines, 3)
	assert.Equal(t, "prod-a", order.Lines[0].ProductID)
	assert.Equal(t, "M", order.Lines[0].Size)
	assert.Equal(t, 5, order.Lines[0].Quantity)
	assert.Equal(t, "prod-b", order.Lines[1].ProductID)
	assert.Equal(t, "L", order.Lines[2].Size)
	assert.Equal(t, 1, order.Lines[2].Quantity)
	assert.Equal(t, int64(5*100+50+100), order.TotalPrice)
}

func TestOrderServiceCreateOrderPaymentMethod(t *testing.T) {
	registry := memory.NewRegistry(testProducts()...)
	service, err := NewOrderService(OrderServiceDeps{
		Orders:               registry.Orders(),
		Catalog:              registry.Catalog(),
		Clock:                func() time.Time { return testNow },
		DefaultPaymentMethod: " Card ",
	})
	require.NoError(t, err)
	ctx := context.Background()
	lines := []OrderLineRequest{{ProductID: "prod-b", Quantity: 1}}

	order, err := service.CreateOrder(ctx, CreateOrderCommand{Owner: domain.AccountOwner("uid-1"), Lines: lines})
	require.NoError(t, err)
	assert.Equal(t, "card", order.PaymentMethod)

	order, err = service.CreateOrder(ctx, CreateOrderCommand{Owner: domain.AccountOwner("uid-1"), Lines: lines, PaymentMethod: "Transfer"})
	require.NoError(t, err)
	assert.Equal(t, "transfer", order.PaymentMethod)
	assert.NotEmpty(t, order.ID)
}

func TestOrderServiceCreateOrderRejectsInvalidInput(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	owner := domain.AccountOwner("uid-1")

	tests := []struct {
		name string
		cmd  CreateOrderCommand
		want error
	}{
		{name: "session owner", cmd: CreateOrderCommand{Owner: domain.SessionOwner("sess-1"), Lines: []OrderLineRequest{{ProductID: "prod-a", Quantity: 1}}}, want: ErrIdentityRequired},
		{name: "anonymous", cmd: CreateOrderCommand{Lines: []OrderLineRequest{{ProductID: "prod-a", Quantity: 1}}}, want: ErrIdentityRequired},
		{name: "no lines", cmd: CreateOrderCommand{Owner: owner}, want: ErrOrderInvalidInput},
		{name: "blank product", cmd: CreateOrderCommand{Owner: owner, Lines: []OrderLineRequest{{ProductID: "", Quantity: 1}}}, want: ErrOrderInvalidInput},
		{name: "zero quantity", cmd: CreateOrderCommand{Owner: owner, Lines: []OrderLineRequest{{ProductID: "prod-a"}}}, want: ErrOrderInvalidInput},
		{name: "unknown product", cmd: CreateOrderCommand{Owner: owner, Lines: []OrderLineRequest{{ProductID: "prod-a", Quantity: 1}, {ProductID: "ghost", Quantity: 1}}}, want: ErrProductNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	orders, err := f.orders.ListOrders(ctx, OrderListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders, "failed creations must not leave orders behind")
}

func TestOrderServiceStatusTransitions(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	order := createTestOrder(t, f, "uid-1")

	_, err = f.orders.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: order.ID, Status: domain.OrderStatusCompleted})
	assert.ErrorIs(t, err, ErrOrderInvalidState)

	_, err = f.orders.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: order.ID, Status: "shipped"})
	assert.ErrorIs(t, err, ErrOrderInvalidInput)

	updated, err := f.orders.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: order.ID, Status: "PAID", ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, updated.Status)

	updated, err = f.orders.UpdateDeliveryStatus(ctx, UpdateDeliveryStatusCommand{OrderID: order.ID, Status: domain.DeliveryStatusOnTheWay})
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusOnTheWay, updated.DeliveryStatus)

	_, err = f.orders.UpdateDeliveryStatus(ctx, UpdateDeliveryStatusCommand{OrderID: order.ID, Status: domain.DeliveryStatusWarehouse})
	assert.ErrorIs(t, err, ErrOrderInvalidState)

	updated, err = f.orders.UpdatePaymentStatus(ctx, UpdatePaymentStatusCommand{OrderID: order.ID, Status: domain.PaymentStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, updated.PaymentStatus)

	_, err = f.orders.UpdatePaymentStatus(ctx, UpdatePaymentStatusCommand{OrderID: order.ID, Status: domain.PaymentStatusPaid})
	assert.ErrorIs(t, err, ErrOrderInvalidState)

	_, err = f.orders.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: "missing", Status: domain.OrderStatusPaid})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	assert.True(t, f.logs.has("order.status.updated"))
}

func TestOrderServiceUserCommentIsSetOnce(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	order := createTestOrder(t, f, "uid-1")

	_, err = f.orders.SetUserComment(ctx, SetUserCommentCommand{OrderID: order.ID, AuthorID: "uid-2", Text: "hi"})
	assert.ErrorIs(t, err, ErrOrderForbidden)

	_, err = f.orders.SetUserComment(ctx, SetUserCommentCommand{OrderID: order.ID, AuthorID: "uid-1", Text: "<b></b>  "})
	assert.ErrorIs(t, err, ErrOrderInvalidInput)

	updated, err := f.orders.SetUserComment(ctx, SetUserCommentCommand{OrderID: order.ID, AuthorID: "uid-1", Text: "Leave at <script>alert(1)</script>the door & ring"})
	require.NoError(t, err)
	require.NotNil(t, updated.UserComment)
	assert.Equal(t, "Leave at the door & ring", *updated.UserComment)

	again, err := f.orders.SetUserComment(ctx, SetUserCommentCommand{OrderID: order.ID, AuthorID: "uid-1", Text: "changed my mind"})
	require.NoError(t, err)
	require.NotNil(t, again.UserComment)
	assert.Equal(t, "Leave at the door & ring", *again.UserComment)
}

func TestOrderServiceCommentLengthLimit(t *testing.T) {
	registry := memory.NewRegistry(testProducts()...)
	service, err := NewOrderService(OrderServiceDeps{
		Orders:           registry.Orders(),
		Catalog:          registry.Catalog(),
		Clock:            func() time.Time { return testNow },
		MaxCommentLength: 5,
	})
	require.NoError(t, err)
	ctx := context.Background()
	order, err := service.CreateOrder(ctx, CreateOrderCommand{Owner: domain.AccountOwner("uid-1"), Lines: []OrderLineRequest{{ProductID: "prod-b", Quantity: 1}}})
	require.NoError(t, err)

	_, err = service.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: order.ID, AuthorID: "admin", Text: strings.Repeat("x", 6)})
	assert.ErrorIs(t, err, ErrOrderInvalidInput)

	updated, err := service.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: order.ID, AuthorID: "admin", Text: "héllo"})
	require.NoError(t, err)
	require.Len(t, updated.AdminComments, 1)
}

func TestOrderServiceAdminCommentsAppend(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	order := createTestOrder(t, f, "uid-1")

	_, err = f.orders.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: order.ID, Text: "no author"})
	assert.ErrorIs(t, err, ErrIdentityRequired)

	_, err = f.orders.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: order.ID, AuthorID: "admin-1", Text: "called customer"})
	require.NoError(t, err)
	updated, err := f.orders.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: order.ID, AuthorID: "admin-2", Text: "rescheduled"})
	require.NoError(t, err)

	require.Len(t, updated.AdminComments, 2)
	assert.Equal(t, "admin-1", updated.AdminComments[0].AuthorID)
	assert.Equal(t, "called customer", updated.AdminComments[0].Text)
	assert.Equal(t, "rescheduled", updated.AdminComments[1].Text)
	assert.NotEqual(t, updated.AdminComments[0].ID, updated.AdminComments[1].ID)

	_, err = f.orders.AddAdminComment(ctx, AddAdminCommentCommand{OrderID: "missing", AuthorID: "admin-1", Text: "x"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderServiceListOrdersFilters(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	createTestOrder(t, f, "uid-1")
	createTestOrder(t, f, "uid-1")
	createTestOrder(t, f, "uid-2")

	orders, err := f.orders.ListOrders(ctx, OrderListFilter{AccountID: "uid-1"})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.orders.ListOrders(ctx, OrderListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderServiceDeleteOrder(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	order := createTestOrder(t, f, "uid-1")

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID))
	_, err = f.orders.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.ErrorIs(t, f.orders.DeleteOrder(ctx, order.ID), ErrOrderNotFound)
}

func TestOrderServiceDeleteArchivedOrderIsRefused(t *testing.T) {
	f, err := newFixture()
	require.NoError(t, err)
	ctx := context.Background()
	order := driveToTerminal(t, f, createTestOrder(t, f, "uid-1").ID)
	require.True(t, order.IsArchived)

	assert.ErrorIs(t, f.orders.DeleteOrder(ctx, order.ID), ErrOrderInvalidState)
	_, err = f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
}

func TestOrderServiceHookFailureDoesNotFailUpdate(t *testing.T) {
	registry := memory.NewRegistry(testProducts()...)
	logs := &captureLogs{}
	var seen []domain.OrderStatus
	service, err := NewOrderService(OrderServiceDeps{
		Orders:  registry.Orders(),
		Catalog: registry.Catalog(),
		Clock:   func() time.Time { return testNow },
		Logger:  logs.log,
		Hooks: []OrderStatusHook{
			OrderStatusHookFunc(func(context.Context, Order) error { panic("boom") }),
			OrderStatusHookFunc(func(_ context.Context, order Order) error {
				seen = append(seen, order.Status)
				return errSinkDown
			}),
		},
	})
	require.NoError(t, err)
	ctx := context.Background()
	order, err := service.CreateOrder(ctx, CreateOrderCommand{Owner: domain.AccountOwner("uid-1"), Lines: []OrderLineRequest{{ProductID: "prod-b", Quantity: 1}}})
	require.NoError(t, err)

	updated, err := service.UpdateOrderStatus(ctx, UpdateOrderStatusCommand{OrderID: order.ID, Status: domain.OrderStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, updated.Status)
	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusPaid}, seen)
	assert.True(t, logs.has("order.hook.failed"))
}

type stubOrderRepository struct {
	repositories.OrderRepository
	insertFunc func(ctx context.Context, order domain.Order) error
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	return s.insertFunc(ctx, order)
}

func TestOrderServiceTranslatesInsertFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "conflict", err: repositoryErrorStub{conflict: true}, want: ErrOrderConflict},
		{name: "unavailable", err: repositoryErrorStub{unavailable: true}, want: ErrOrderUnavailable},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service, err := NewOrderService(OrderServiceDeps{
				Orders:  &stubOrderRepository{insertFunc: func(context.Context, domain.Order) error { return tc.err }},
				Catalog: memory.NewCatalogRepository(testProducts()...),
				Clock:   func() time.Time { return testNow },
			})
			require.NoError(t, err)
			_, err = service.CreateOrder(context.Background(), CreateOrderCommand{
				Owner: domain.AccountOwner("uid-1"),
				Lines: []OrderLineRequest{{ProductID: "prod-a", Quantity: 1}},
			})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
