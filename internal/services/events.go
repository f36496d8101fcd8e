package services

import (
	"context"
	"time"
)

// Analytics event kinds.
const (
	EventCartItemAdded       = "cart.item_added"
	EventCartItemUpdated     = "cart.item_updated"
	EventCartItemRemoved     = "cart.item_removed"
	EventCartDeleted         = "cart.deleted"
	EventCartMerged          = "cart.merged"
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderArchived       = "order.archived"
	EventOrderHistoryDeleted = "order.history_deleted"
)

type noopEventSink struct{}

func (noopEventSink) Record(context.Context, AnalyticsEvent) error { return nil }

// NoopEventSink discards every event.
func NoopEventSink() EventSink { return noopEventSink{} }

const defaultEventTimeout = 2 * time.Second

// recorder sends events without letting a sink failure reach the caller.
// The sink runs on a context detached from the caller's cancellation and bounded by timeout,
// so a stalled sink neither consumes the request deadline nor blocks indefinitely.
type recorder struct {
	sink    EventSink
	now     func() time.Time
	logger  func(context.Context, string, map[string]any)
	timeout time.Duration
}

func newRecorder(sink EventSink, now func() time.Time, logger func(context.Context, string, map[string]any), timeout time.Duration) recorder {
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}
	return recorder{sink: sink, now: now, logger: logger, timeout: timeout}
}

func (r recorder) record(ctx context.Context, event AnalyticsEvent) {
	if r.sink == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now()
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger(ctx, "analytics.record.panic", map[string]any{"kind": event.Kind, "panic": rec})
		}
	}()
	timeout := r.timeout
	if timeout <= 0 {
		timeout = defaultEventTimeout
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := r.sink.Record(sinkCtx, event); err != nil {
		r.logger(ctx, "analytics.record.failed", map[string]any{
			"kind":  event.Kind,
			"error": err.Error(),
		})
	}
}

func ownerEvent(kind string, owner Owner) AnalyticsEvent {
	event := AnalyticsEvent{Kind: kind}
	if id, ok := owner.AccountID(); ok {
		event.AccountID = id
	}
	if key, ok := owner.SessionKey(); ok {
		event.SessionKey = key
	}
	return event
}
