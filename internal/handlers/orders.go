package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/httpx"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

// OrderHandlers exposes order placement and purchase history to signed-in accounts.
type OrderHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	histories services.OrderHistoryService
}

// NewOrderHandlers constructs handlers enforcing account authentication.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, histories services.OrderHistoryService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders, histories: histories}
}

// Routes wires the /orders endpoints onto the API router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/orders", func(rt chi.Router) {
		if h.authn != nil {
			rt.Use(h.authn.RequireAccount())
		}
		rt.Post("/", h.createOrder)
		rt.Get("/", h.listOrders)
		rt.Get("/history", h.listHistory)
		rt.Get("/history/{historyId}", h.getHistory)
		rt.Get("/{orderId}", h.getOrder)
		rt.Put("/{orderId}/comment", h.setComment)
	})
}

type createOrderRequest struct {
	Lines         []orderLineRequest `json:"lines"`
	PaymentMethod string             `json:"paymentMethod"`
}

type orderLineRequest struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	var req createOrderRequest
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return
	}

	lines := make([]services.OrderLineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.OrderLineRequest{
			ProductID: line.ProductID,
			Color:     line.Color,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		Owner:         auth.OwnerFromContext(ctx),
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := accountIdentity(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	orders, err := h.orders.ListOrders(ctx, services.OrderListFilter{AccountID: identity.UID, Limit: limit})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderList(orders))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := accountIdentity(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if !h.canRead(identity, order.AccountID) {
		writeServiceError(ctx, w, services.ErrOrderNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) setComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := accountIdentity(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return
	}

	order, err := h.orders.SetUserComment(ctx, services.SetUserCommentCommand{
		OrderID:  chi.URLParam(r, "orderId"),
		AuthorID: identity.UID,
		Text:     req.Text,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.histories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("history_service_unavailable", "order history is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := accountIdentity(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	records, err := h.histories.ListHistory(ctx, services.OrderHistoryFilter{AccountID: identity.UID, Limit: limit})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildHistoryList(records))
}

func (h *OrderHandlers) getHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.histories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("history_service_unavailable", "order history is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := accountIdentity(w, r)
	if !ok {
		return
	}

	record, err := h.histories.GetHistory(ctx, chi.URLParam(r, "historyId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if !h.canRead(identity, record.AccountID) {
		writeServiceError(ctx, w, services.ErrOrderHistoryNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, historyResponse{History: buildHistoryPayload(record)})
}

// accountIdentity repeats the RequireAccount check so handlers never run an unscoped query.
func accountIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsAccount() {
		writeServiceError(r.Context(), w, services.ErrIdentityRequired)
		return nil, false
	}
	return identity, true
}

// canRead hides other accounts' records behind a not-found response unless the caller is staff.
func (h *OrderHandlers) canRead(identity *auth.Identity, accountID string) bool {
	if identity == nil {
		return false
	}
	if strings.TrimSpace(accountID) == identity.UID {
		return true
	}
	return h.authn != nil && h.authn.IsAdmin(identity)
}
