package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultTxAttempts  = 5
	defaultTxTimeout   = 15 * time.Second
	defaultTxOperation = "transaction"
)

// TxFunc runs inside a Firestore transaction. Firestore re-invokes it when a concurrent writer
// touches the same documents, so it must only act through tx and captured result variables.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// TxOption customises a single RunTransaction call.
type TxOption func(*txConfig)

type txConfig struct {
	attempts  int
	timeout   time.Duration
	operation string
}

// WithTxAttempts caps how often Firestore retries the body on contention.
func WithTxAttempts(attempts int) TxOption {
	return func(cfg *txConfig) {
		if attempts > 0 {
			cfg.attempts = attempts
		}
	}
}

// WithTxTimeout bounds the whole transaction, retries included.
func WithTxTimeout(timeout time.Duration) TxOption {
	return func(cfg *txConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithTxOperation names the repository operation in returned errors, e.g. "carts.mutate".
func WithTxOperation(op string) TxOption {
	return func(cfg *txConfig) {
		if op != "" {
			cfg.operation = op
		}
	}
}

func resolveTxConfig(opts []TxOption) txConfig {
	cfg := txConfig{attempts: defaultTxAttempts, timeout: defaultTxTimeout, operation: defaultTxOperation}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// boundContext applies the transaction timeout unless the caller's deadline is already tighter.
func (cfg txConfig) boundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.timeout <= 0 {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= cfg.timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cfg.timeout)
}

// RunTransaction executes fn within a transaction on the provided client. When every attempt
// loses to a concurrent writer the result is a conflict error naming the attempt count.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc, opts ...TxOption) error {
	cfg := resolveTxConfig(opts)
	if client == nil {
		return &Error{op: cfg.operation, err: errors.New("firestore: client is nil")}
	}
	if fn == nil {
		return &Error{op: cfg.operation, err: errors.New("firestore: transaction function is nil")}
	}

	ctx, cancel := cfg.boundContext(ctx)
	defer cancel()

	attempts := 0
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		attempts++
		return fn(ctx, tx)
	}, firestore.MaxAttempts(cfg.attempts))

	return txError(cfg, attempts, err)
}

func txError(cfg txConfig, attempts int, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Aborted && attempts >= cfg.attempts {
		return &Error{
			op:       cfg.operation,
			err:      fmt.Errorf("contention persisted after %d attempts: %w", attempts, err),
			conflict: true,
		}
	}
	return WrapError(cfg.operation, err)
}
