package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/httpx"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

// CartHandlers exposes cart endpoints for account and anonymous session callers.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs cart handlers. Identity resolution happens upstream in auth.Resolve.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{authn: authn, carts: carts}
}

// Routes wires the cart endpoints onto the API router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.deleteCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items", h.updateItem)
	r.Delete("/cart/items", h.removeItem)

	merge := r
	if h.authn != nil {
		merge = r.With(h.authn.RequireAccount())
	}
	merge.Post("/cart:merge", h.mergeCarts)
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

func (h *CartHandlers) available(w http.ResponseWriter, r *http.Request) bool {
	if h.carts == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	cart, found, err := h.carts.GetCart(ctx, auth.OwnerFromContext(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	setNoStore(w)
	if !found {
		writeJSONResponse(w, http.StatusOK, cartResponse{})
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) deleteCart(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.carts.DeleteCart(ctx, auth.OwnerFromContext(ctx)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	var req cartItemRequest
	if !decodeBody(w, r, maxCartBodySize, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		Owner:     auth.OwnerFromContext(ctx),
		ProductID: req.ProductID,
		Color:     req.Color,
		Size:      req.Size,
		Quantity:  quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	setNoStore(w)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	var req cartItemRequest
	if !decodeBody(w, r, maxCartBodySize, &req) {
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity is required", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, services.UpdateCartItemCommand{
		Owner:    auth.OwnerFromContext(ctx),
		Key:      domain.NewLineKey(req.ProductID, req.Color, req.Size),
		Quantity: *req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	setNoStore(w)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	q := r.URL.Query()
	cart, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		Owner: auth.OwnerFromContext(ctx),
		Key:   domain.NewLineKey(q.Get("productId"), q.Get("color"), q.Get("size")),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	setNoStore(w)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) mergeCarts(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || !identity.IsAccount() || identity.SessionKey == "" {
		httpx.WriteError(ctx, w, httpx.NewError("identity_required", "merge requires an account token and a session key", http.StatusUnauthorized))
		return
	}

	cart, found, err := h.carts.MergeCarts(ctx, services.MergeCartsCommand{
		AccountID:  identity.UID,
		SessionKey: identity.SessionKey,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	setNoStore(w)
	if !found {
		writeJSONResponse(w, http.StatusOK, cartResponse{})
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
}
