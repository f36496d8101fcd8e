package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/memory"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-a", Title: "Shirt", Image: "a.png", Price: 100, DiscountPercent: floatPtr(20), DiscountUntil: timePtr(testNow.Add(24 * time.Hour))},
		{ID: "prod-b", Title: "Socks", Image: "b.png", Price: 50, DiscountPercent: floatPtr(50)},
		{ID: "prod-c", Title: "Hat", Image: "c.png", Price: 300, DiscountPercent: floatPtr(10), DiscountUntil: timePtr(testNow.Add(-time.Hour))},
	}
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

type captureEvents struct {
	mu     sync.Mutex
	events []AnalyticsEvent
	err    error
}

func (c *captureEvents) Record(_ context.Context, event AnalyticsEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *captureEvents) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, event := range c.events {
		out = append(out, event.Kind)
	}
	return out
}

type captureLogs struct {
	mu      sync.Mutex
	entries []string
}

func (c *captureLogs) log(_ context.Context, event string, _ map[string]any) {
	c.mu.Lock()
	c.entries = append(c.entries, event)
	c.mu.Unlock()
}

func (c *captureLogs) has(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry == event {
			return true
		}
	}
	return false
}

type countingMetrics struct {
	archived atomic.Int32
	failures atomic.Int32
}

func (m *countingMetrics) RecordArchived(context.Context) { m.archived.Add(1) }

func (m *countingMetrics) RecordArchiveFailure(context.Context, string) { m.failures.Add(1) }

type repositoryErrorStub struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repositoryErrorStub) Error() string       { return "repository error" }
func (e repositoryErrorStub) IsNotFound() bool    { return e.notFound }
func (e repositoryErrorStub) IsConflict() bool    { return e.conflict }
func (e repositoryErrorStub) IsUnavailable() bool { return e.unavailable }

var errSinkDown = errors.New("sink down")

type fixture struct {
	registry  *memory.Registry
	carts     CartService
	orders    OrderService
	histories OrderHistoryService
	events    *captureEvents
	logs      *captureLogs
	metrics   *countingMetrics
}

func newFixture() (*fixture, error) {
	registry := memory.NewRegistry(testProducts()...)
	events := &captureEvents{}
	logs := &captureLogs{}
	metrics := &countingMetrics{}
	clock := testClock

	carts, err := NewCartService(CartServiceDeps{
		Carts:       registry.Carts(),
		Catalog:     registry.Catalog(),
		Events:      events,
		Clock:       clock,
		Logger:      logs.log,
		IDGenerator: sequentialIDs("cart"),
	})
	if err != nil {
		return nil, err
	}
	histories, err := NewOrderHistoryService(OrderHistoryServiceDeps{
		Orders:      registry.Orders(),
		Histories:   registry.OrderHistories(),
		Events:      events,
		Metrics:     metrics,
		Clock:       clock,
		Logger:      logs.log,
		IDGenerator: sequentialIDs("hist"),
	})
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderService(OrderServiceDeps{
		Orders:      registry.Orders(),
		Catalog:     registry.Catalog(),
		Events:      events,
		Hooks:       []OrderStatusHook{NewArchivalHook(histories, logs.log)},
		Clock:       clock,
		Logger:      logs.log,
		IDGenerator: sequentialIDs("ord"),
	})
	if err != nil {
		return nil, err
	}
	return &fixture{
		registry:  registry,
		carts:     carts,
		orders:    orders,
		histories: histories,
		events:    events,
		logs:      logs,
		metrics:   metrics,
	}, nil
}
