package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/handlers"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/auth"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/config"
	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/jobs"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/observability"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
	fsrepo "github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/memory"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Cart    services.CartService
	Orders  services.OrderService
	History services.OrderHistoryService
}

// Container wires repositories, services and transport for runtime use.
type Container struct {
	Config        config.Config
	Logger        *zap.Logger
	Repositories  repositories.Registry
	Services      Services
	Authenticator *auth.Authenticator

	closers []func(context.Context) error
}

// Option customises container construction, mostly for tests.
type Option func(*options)

type options struct {
	registry repositories.Registry
	verifier auth.TokenVerifier
	sink     services.EventSink
	meter    metric.Meter
	clock    func() time.Time
}

// WithRegistry supplies a prebuilt repository registry instead of the configured driver.
func WithRegistry(reg repositories.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithTokenVerifier overrides the Firebase ID token verifier.
func WithTokenVerifier(v auth.TokenVerifier) Option {
	return func(o *options) { o.verifier = v }
}

// WithEventSink overrides the analytics sink.
func WithEventSink(sink services.EventSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithMeter overrides the meter used for archival counters.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithClock overrides the service clock.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// NewContainer constructs the runtime dependencies for cfg.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	c := &Container{Config: cfg, Logger: logger}

	reg := o.registry
	if reg == nil {
		built, err := buildRegistry(cfg)
		if err != nil {
			return nil, err
		}
		reg = built
	}
	c.Repositories = reg
	c.closers = append(c.closers, reg.Close)

	sink := o.sink
	if sink == nil && cfg.Analytics.Enabled {
		pubsubSink, closeSink, err := buildPubSubSink(ctx, cfg)
		if err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		sink = pubsubSink
		c.closers = append(c.closers, closeSink)
	}

	verifier := o.verifier
	if verifier == nil && cfg.Firebase.ProjectID != "" {
		firebase, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("build firebase verifier: %w", err)
		}
		verifier = firebase
	}
	if verifier == nil {
		logger.Warn("firebase project not configured; bearer tokens will be rejected")
	}
	c.Authenticator = auth.NewAuthenticator(verifier,
		auth.WithSessionHeader(cfg.Auth.SessionHeader),
		auth.WithAdminRoles(cfg.Auth.AdminRoles...),
	)

	svc, err := buildServices(reg, cfg, logger, sink, observability.NewArchiveMetrics(o.meter, logger), o.clock)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	return c, nil
}

func buildRegistry(cfg config.Config) (repositories.Registry, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory, "":
		return memory.NewRegistry(sampleProducts()...), nil
	case config.StorageDriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		reg, err := fsrepo.NewRegistry(provider)
		if err != nil {
			return nil, fmt.Errorf("build firestore registry: %w", err)
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func buildPubSubSink(ctx context.Context, cfg config.Config) (*jobs.PubSubEventSink, func(context.Context) error, error) {
	var clientOpts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.Analytics.ProjectID, clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build pubsub client: %w", err)
	}
	sink, err := jobs.NewPubSubEventSink(client.Topic(cfg.Analytics.Topic))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return sink, func(context.Context) error {
		sink.Stop()
		return client.Close()
	}, nil
}

func buildServices(reg repositories.Registry, cfg config.Config, logger *zap.Logger, sink services.EventSink, metrics services.ArchiveMetrics, clock func() time.Time) (Services, error) {
	carts, err := services.NewCartService(services.CartServiceDeps{
		Carts:   reg.Carts(),
		Catalog: reg.Catalog(),
		Events:  sink,
		Clock:   clock,
		Logger:  observability.ServiceLogger(logger, "cart"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}

	historyLogger := observability.ServiceLogger(logger, "order_history")
	history, err := services.NewOrderHistoryService(services.OrderHistoryServiceDeps{
		Orders:    reg.Orders(),
		Histories: reg.OrderHistories(),
		Events:    sink,
		Metrics:   metrics,
		Clock:     clock,
		Logger:    historyLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order history service: %w", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:               reg.Orders(),
		Catalog:              reg.Catalog(),
		Events:               sink,
		Hooks:                []services.OrderStatusHook{services.NewArchivalHook(history, historyLogger)},
		Clock:                clock,
		Logger:               observability.ServiceLogger(logger, "orders"),
		DefaultPaymentMethod: cfg.Orders.DefaultPaymentMethod,
		MaxCommentLength:     cfg.Orders.CommentMaxLength,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}

	return Services{Cart: carts, Orders: orders, History: history}, nil
}

// Handler assembles the HTTP router with the observability and identity middleware chain.
func (c *Container) Handler() http.Handler {
	projectID := c.Config.Firebase.ProjectID
	return handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(projectID),
			observability.InjectLoggerMiddleware(c.Logger),
			observability.RecoveryMiddleware(c.Logger),
			c.Authenticator.Resolve(),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(c.Repositories.Ping)),
		handlers.WithCartRoutes(handlers.NewCartHandlers(c.Authenticator, c.Services.Cart).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(c.Authenticator, c.Services.Orders, c.Services.History).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminOrderHandlers(c.Authenticator, c.Services.Orders, c.Services.History).Routes),
	)
}

// Close releases clients in reverse construction order.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
