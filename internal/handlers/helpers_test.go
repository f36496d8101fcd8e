package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/memory"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

const (
	buyerToken   = "token-buyer"
	otherToken   = "token-other"
	adminToken   = "token-admin"
	guestSession = "guest-session-01"
)

var errUnknownToken = errors.New("unknown token")

type stubTokenVerifier map[string]*firebaseauth.Token

func (s stubTokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if token, ok := s[idToken]; ok {
		return token, nil
	}
	return nil, errUnknownToken
}

func testVerifier() stubTokenVerifier {
	return stubTokenVerifier{
		buyerToken: {UID: "buyer-1"},
		otherToken: {UID: "buyer-2"},
		adminToken: {UID: "staff-1", Claims: map[string]any{"role": "admin"}},
	}
}

func seededProducts() []domain.Product {
	discount := 50.0
	return []domain.Product{
		{ID: "prod-shirt", Title: "Shirt", Image: "shirt.png", Price: 120},
		{ID: "prod-socks", Title: "Socks", Image: "socks.png", Price: 40, DiscountPercent: &discount},
	}
}

type testServer struct {
	handler  http.Handler
	registry *memory.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := memory.NewRegistry(seededProducts()...)
	clock := func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	carts, err := services.NewCartService(services.CartServiceDeps{
		Carts:   registry.Carts(),
		Catalog: registry.Catalog(),
		Clock:   clock,
	})
	require.NoError(t, err)
	histories, err := services.NewOrderHistoryService(services.OrderHistoryServiceDeps{
		Orders:    registry.Orders(),
		Histories: registry.OrderHistories(),
		Clock:     clock,
	})
	require.NoError(t, err)
	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:  registry.Orders(),
		Catalog: registry.Catalog(),
		Hooks:   []services.OrderStatusHook{services.NewArchivalHook(histories, nil)},
		Clock:   clock,
	})
	require.NoError(t, err)

	authn := auth.NewAuthenticator(testVerifier())
	router := NewRouter(
		WithMiddlewares(authn.Resolve()),
		WithHealthHandlers(NewHealthHandlers(registry.Ping)),
		WithCartRoutes(NewCartHandlers(authn, carts).Routes),
		WithOrderRoutes(NewOrderHandlers(authn, orders, histories).Routes),
		WithAdminRoutes(NewAdminOrderHandlers(authn, orders, histories).Routes),
	)
	return &testServer{handler: router, registry: registry}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withSession(key string) requestOption {
	return func(r *http.Request) { r.Header.Set("X-Session-Key", key) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeJSON[map[string]any](t, rec)
	code, _ := body["error"].(string)
	return code
}
