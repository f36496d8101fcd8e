package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "github.com/Emirlan007/Cassini-shop-sub001/orders"

// ArchiveMetrics publishes order archival outcomes as OpenTelemetry counters.
type ArchiveMetrics struct {
	archived metric.Int64Counter
	failures metric.Int64Counter
}

// NewArchiveMetrics registers the archival counters on meter, falling back to the global
// meter provider. Registration failures are logged and leave the counter disabled.
func NewArchiveMetrics(meter metric.Meter, logger *zap.Logger) *ArchiveMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	archived, err := meter.Int64Counter(
		"storefront.orders.archived",
		metric.WithDescription("Count of orders moved into history"),
	)
	if err != nil {
		logger.Warn("metrics: unable to register archived counter", zap.Error(err))
	}
	failures, err := meter.Int64Counter(
		"storefront.orders.archive_failures",
		metric.WithDescription("Count of archival attempts that failed"),
	)
	if err != nil {
		logger.Warn("metrics: unable to register archive failure counter", zap.Error(err))
	}
	return &ArchiveMetrics{archived: archived, failures: failures}
}

// RecordArchived counts a successful archival.
func (m *ArchiveMetrics) RecordArchived(ctx context.Context) {
	if m == nil || m.archived == nil {
		return
	}
	m.archived.Add(ctx, 1)
}

// RecordArchiveFailure counts a failed archival tagged with reason.
func (m *ArchiveMetrics) RecordArchiveFailure(ctx context.Context, reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
