//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/config"
	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
	repofirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/repositories/firestore"
)

func newEmulatorRegistry(t *testing.T) *repofirestore.Registry {
	t.Helper()
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	provider := pfirestore.NewProvider(config.FirestoreConfig{
		ProjectID:    fmt.Sprintf("test-%d", time.Now().UnixNano()),
		EmulatorHost: host,
	})
	t.Cleanup(func() { _ = provider.Close(context.Background()) })

	registry, err := repofirestore.NewRegistry(provider)
	require.NoError(t, err)
	require.NoError(t, registry.Ping(context.Background()))
	return registry
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func TestCartMutateSerialisesConcurrentWriters(t *testing.T) {
	registry := newEmulatorRegistry(t)
	ctx := context.Background()
	owner := domain.SessionOwner("sess-concurrent")
	carts := registry.Carts()

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := carts.Mutate(ctx, owner, func(cart *domain.Cart, found bool) error {
				if !found {
					cart.ID = "cart-1"
				}
				cart.AddLine(domain.CartLine{ProductID: "p1", Quantity: 1, UnitPrice: 10, UnitFinalPrice: 10})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := carts.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, writers, cart.TotalQuantity)
}

func TestCartMergeMovesSessionCart(t *testing.T) {
	registry := newEmulatorRegistry(t)
	ctx := context.Background()
	carts := registry.Carts()
	session := domain.SessionOwner("sess-merge")
	account := domain.AccountOwner("uid-merge")

	_, err := carts.Mutate(ctx, session, func(cart *domain.Cart, _ bool) error {
		cart.ID = "cart-s"
		cart.AddLine(domain.CartLine{ProductID: "p1", Quantity: 2, UnitPrice: 10, UnitFinalPrice: 10})
		return nil
	})
	require.NoError(t, err)

	merged, found, err := carts.Merge(ctx, session, account, func(target *domain.Cart, targetFound bool, source domain.Cart) error {
		require.False(t, targetFound)
		*target = source.Clone()
		return nil
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cart-s", merged.ID)
	assert.Equal(t, account, merged.Owner)

	_, err = carts.Get(ctx, session)
	assert.True(t, isNotFound(err))

	_, found, err = carts.Merge(ctx, session, account, func(*domain.Cart, bool, domain.Cart) error {
		t.Fatal("merge callback must not run without a source cart")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestArchiveIsUniquePerOrder(t *testing.T) {
	registry := newEmulatorRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	order := domain.Order{
		ID:             "ord-archive",
		AccountID:      "uid-1",
		Lines:          []domain.OrderLine{{ProductID: "p1", UnitPrice: 100, UnitFinalPrice: 100, Quantity: 1}},
		TotalPrice:     100,
		Status:         domain.OrderStatusCompleted,
		DeliveryStatus: domain.DeliveryStatusDelivered,
		PaymentStatus:  domain.PaymentStatusPaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, registry.Orders().Insert(ctx, order))
	assert.True(t, isConflict(registry.Orders().Insert(ctx, order)))

	const archivers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	wg.Add(archivers)
	for i := 0; i < archivers; i++ {
		go func(i int) {
			defer wg.Done()
			err := registry.OrderHistories().Archive(ctx, domain.OrderHistory{
				ID:          fmt.Sprintf("hist-%d", i),
				AccountID:   order.AccountID,
				OrderID:     order.ID,
				Lines:       order.Lines,
				TotalPrice:  order.TotalPrice,
				CompletedAt: now,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, isConflict(err), "unexpected error %v", err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, successes)

	stored, err := registry.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsArchived)

	history, err := registry.OrderHistories().FindByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, registry.OrderHistories().Delete(ctx, history.ID))

	_, err = registry.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	_, err = registry.OrderHistories().FindByID(ctx, history.ID)
	assert.True(t, isNotFound(err))
}
