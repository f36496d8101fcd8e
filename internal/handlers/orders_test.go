package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, srv *testServer, token string) orderPayload {
	t.Helper()
	rec := srv.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"lines": []map[string]any{
			{"productId": "prod-shirt", "color": "red", "size": "M", "quantity": 1},
			{"productId": "prod-socks", "quantity": 2},
		},
	}, withToken(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeJSON[orderResponse](t, rec)
	assert.Equal(t, "/api/v1/orders/"+resp.Order.ID, rec.Header().Get("Location"))
	return resp.Order
}

func TestOrderHandlersCreateAndRead(t *testing.T) {
	srv := newTestServer(t)
	order := placeOrder(t, srv, buyerToken)

	assert.Equal(t, "buyer-1", order.AccountID)
	assert.EqualValues(t, 120+2*40, order.TotalPrice)
	assert.Equal(t, "cash_on_delivery", order.PaymentMethod)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "warehouse", order.DeliveryStatus)
	assert.Equal(t, "unpaid", order.PaymentStatus)
	require.Len(t, order.Lines, 2)
	assert.EqualValues(t, 20, order.Lines[1].UnitFinalPrice)

	rec := srv.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(buyerToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(otherToken))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_not_found", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/orders", nil, withToken(buyerToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[orderListResponse](t, rec).Orders, 1)

	rec = srv.do(t, http.MethodGet, "/api/v1/orders", nil, withToken(otherToken))
	assert.Empty(t, decodeJSON[orderListResponse](t, rec).Orders)
}

func TestOrderHandlersRequireAccount(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"lines": []map[string]any{{"productId": "prod-shirt", "quantity": 1}}}, withSession(guestSession))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "identity_required", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/history", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderHandlersCreateValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"lines": []map[string]any{}}, withToken(buyerToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", errorCode(t, rec))

	rec = srv.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"lines": []map[string]any{{"productId": "missing", "quantity": 1}}}, withToken(buyerToken))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "product_not_found", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/orders?limit=abc", nil, withToken(buyerToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandlersUserComment(t *testing.T) {
	srv := newTestServer(t)
	order := placeOrder(t, srv, buyerToken)
	path := "/api/v1/orders/" + order.ID + "/comment"

	rec := srv.do(t, http.MethodPut, path, map[string]any{"text": "leave at <b>door</b>"}, withToken(buyerToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeJSON[orderResponse](t, rec).Order
	require.NotNil(t, got.UserComment)
	assert.Equal(t, "leave at door", *got.UserComment)

	rec = srv.do(t, http.MethodPut, path, map[string]any{"text": "changed my mind"}, withToken(buyerToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "leave at door", *decodeJSON[orderResponse](t, rec).Order.UserComment)

	rec = srv.do(t, http.MethodPut, path, map[string]any{"text": "hijack"}, withToken(otherToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))
}

func TestAdminOrderHandlersRequireAdmin(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/admin/orders", nil, withToken(buyerToken))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_role", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders", nil, withSession(guestSession))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOrderHandlersLifecycleArchivesOnce(t *testing.T) {
	srv := newTestServer(t)
	order := placeOrder(t, srv, buyerToken)
	base := "/api/v1/admin/orders/" + order.ID

	rec := srv.do(t, http.MethodPost, base+":archive", nil, withToken(adminToken))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorCode(t, rec))

	rec = srv.do(t, http.MethodPatch, base+"/status", map[string]any{"status": "completed"}, withToken(adminToken))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorCode(t, rec))

	rec = srv.do(t, http.MethodPatch, base+"/status", map[string]any{"status": "bogus"}, withToken(adminToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	steps := []struct{ path, status string }{
		{"/payment-status", "paid"},
		{"/status", "paid"},
		{"/delivery-status", "on_the_way"},
		{"/delivery-status", "delivered"},
		{"/status", "completed"},
	}
	for _, step := range steps {
		rec = srv.do(t, http.MethodPatch, base+step.path, map[string]any{"status": step.status}, withToken(adminToken))
		require.Equal(t, http.StatusOK, rec.Code, "%s -> %s: %s", step.path, step.status, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/history", nil, withToken(buyerToken))
	require.Equal(t, http.StatusOK, rec.Code)
	histories := decodeJSON[historyListResponse](t, rec).Histories
	require.Len(t, histories, 1)
	assert.Equal(t, order.ID, histories[0].OrderID)
	assert.EqualValues(t, order.TotalPrice, histories[0].TotalPrice)

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/history/"+histories[0].ID, nil, withToken(otherToken))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPost, base+":archive", nil, withToken(adminToken))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_archived", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders?archived=true", nil, withToken(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	archived := decodeJSON[orderListResponse](t, rec).Orders
	require.Len(t, archived, 1)
	assert.True(t, archived[0].IsArchived)

	rec = srv.do(t, http.MethodDelete, base, nil, withToken(adminToken))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", errorCode(t, rec))

	rec = srv.do(t, http.MethodDelete, "/api/v1/admin/order-history/"+histories[0].ID, nil, withToken(adminToken))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/admin/order-history", nil, withToken(adminToken))
	assert.Empty(t, decodeJSON[historyListResponse](t, rec).Histories)
}

func TestAdminOrderHandlersCommentsAndDelete(t *testing.T) {
	srv := newTestServer(t)
	order := placeOrder(t, srv, buyerToken)
	base := "/api/v1/admin/orders/" + order.ID

	rec := srv.do(t, http.MethodPost, base+"/comments", map[string]any{"text": "called customer"}, withToken(adminToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = srv.do(t, http.MethodPost, base+"/comments", map[string]any{"text": "rescheduled"}, withToken(adminToken))
	comments := decodeJSON[orderResponse](t, rec).Order.AdminComments
	require.Len(t, comments, 2)
	assert.Equal(t, "staff-1", comments[0].AuthorID)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders?archived=maybe", nil, withToken(adminToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, base, nil, withToken(adminToken))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, withToken(buyerToken))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
