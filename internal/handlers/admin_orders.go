package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/httpx"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

// AdminOrderHandlers exposes staff order operations under /admin.
type AdminOrderHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	histories services.OrderHistoryService
}

// NewAdminOrderHandlers constructs admin handlers guarded by the configured admin roles.
func NewAdminOrderHandlers(authn *auth.Authenticator, orders services.OrderService, histories services.OrderHistoryService) *AdminOrderHandlers {
	return &AdminOrderHandlers{authn: authn, orders: orders, histories: histories}
}

// Routes wires the admin endpoints onto the /admin router.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAdmin())
	}
	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{orderId}/status", h.updateStatus)
	r.Patch("/orders/{orderId}/delivery-status", h.updateDeliveryStatus)
	r.Patch("/orders/{orderId}/payment-status", h.updatePaymentStatus)
	r.Post("/orders/{orderId}/comments", h.addComment)
	r.Post("/orders/{orderId}:archive", h.archiveOrder)
	r.Delete("/orders/{orderId}", h.deleteOrder)
	r.Get("/order-history", h.listHistory)
	r.Delete("/order-history/{historyId}", h.deleteHistory)
}

type statusRequest struct {
	Status string `json:"status"`
}

func actorID(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return identity.UID
	}
	return ""
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	archived, err := parseOptionalBool(q.Get("archived"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "archived: "+err.Error(), http.StatusBadRequest))
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	orders, err := h.orders.ListOrders(ctx, services.OrderListFilter{
		AccountID: strings.TrimSpace(q.Get("accountId")),
		Archived:  archived,
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderList(orders))
}

func (h *AdminOrderHandlers) decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req statusRequest
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return "", false
	}
	return req.Status, true
}

func (h *AdminOrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	order, err := h.orders.UpdateOrderStatus(r.Context(), services.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "orderId"),
		Status:  services.OrderStatus(status),
		ActorID: actorID(r),
	})
	h.writeOrder(w, r, order, err)
}

func (h *AdminOrderHandlers) updateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	order, err := h.orders.UpdateDeliveryStatus(r.Context(), services.UpdateDeliveryStatusCommand{
		OrderID: chi.URLParam(r, "orderId"),
		Status:  services.DeliveryStatus(status),
		ActorID: actorID(r),
	})
	h.writeOrder(w, r, order, err)
}

func (h *AdminOrderHandlers) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	order, err := h.orders.UpdatePaymentStatus(r.Context(), services.UpdatePaymentStatusCommand{
		OrderID: chi.URLParam(r, "orderId"),
		Status:  services.PaymentStatus(status),
		ActorID: actorID(r),
	})
	h.writeOrder(w, r, order, err)
}

func (h *AdminOrderHandlers) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeBody(w, r, maxOrderBodySize, &req) {
		return
	}
	order, err := h.orders.AddAdminComment(r.Context(), services.AddAdminCommentCommand{
		OrderID:  chi.URLParam(r, "orderId"),
		AuthorID: actorID(r),
		Text:     req.Text,
	})
	h.writeOrder(w, r, order, err)
}

func (h *AdminOrderHandlers) writeOrder(w http.ResponseWriter, r *http.Request, order services.Order, err error) {
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminOrderHandlers) archiveOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	record, err := h.histories.Archive(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, historyResponse{History: buildHistoryPayload(record)})
}

func (h *AdminOrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.orders.DeleteOrder(ctx, chi.URLParam(r, "orderId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminOrderHandlers) listHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	records, err := h.histories.ListHistory(ctx, services.OrderHistoryFilter{
		AccountID: strings.TrimSpace(q.Get("accountId")),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildHistoryList(records))
}

func (h *AdminOrderHandlers) deleteHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.histories.DeleteHistory(ctx, chi.URLParam(r, "historyId")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
