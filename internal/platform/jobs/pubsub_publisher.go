package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

// PubSubEventSink publishes cart and order analytics events to a Pub/Sub topic.
type PubSubEventSink struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var _ services.EventSink = (*PubSubEventSink)(nil)

// NewPubSubEventSink constructs a Pub/Sub backed analytics sink.
func NewPubSubEventSink(topic *pubsub.Topic) (*PubSubEventSink, error) {
	if topic == nil {
		return nil, errors.New("pubsub event sink: topic is required")
	}
	return &PubSubEventSink{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// Record publishes the event and waits for the server acknowledgement. Callers bound ctx;
// the services hand it a detached context with a short timeout.
func (s *PubSubEventSink) Record(ctx context.Context, event services.AnalyticsEvent) error {
	if s == nil || s.topic == nil {
		return errors.New("pubsub event sink: not initialised")
	}

	data, err := s.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "kind", event.Kind)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "productId", event.ProductID)
	setAttr(attrs, "status", event.Status)
	switch {
	case strings.TrimSpace(event.AccountID) != "":
		attrs["ownerKind"] = "account"
	case strings.TrimSpace(event.SessionKey) != "":
		attrs["ownerKind"] = "session"
	}

	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish analytics event: %w", err)
	}
	return nil
}

// Stop flushes pending messages and stops the topic's background publishers.
func (s *PubSubEventSink) Stop() {
	if s != nil && s.topic != nil {
		s.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
