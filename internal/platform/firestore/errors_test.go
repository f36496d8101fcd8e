package firestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/config"
)

func TestWrapErrorClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		code        codes.Code
		notFound    bool
		conflict    bool
		unavailable bool
	}{
		{code: codes.NotFound, notFound: true},
		{code: codes.AlreadyExists, conflict: true},
		{code: codes.Aborted, conflict: true},
		{code: codes.FailedPrecondition, conflict: true},
		{code: codes.Unavailable, unavailable: true},
		{code: codes.ResourceExhausted, unavailable: true},
		{code: codes.PermissionDenied},
	}
	for _, tc := range tests {
		t.Run(tc.code.String(), func(t *testing.T) {
			err := WrapError("carts.get", status.Error(tc.code, "boom"))
			var repoErr *Error
			require.True(t, errors.As(err, &repoErr))
			assert.Equal(t, tc.notFound, repoErr.IsNotFound())
			assert.Equal(t, tc.conflict, repoErr.IsConflict())
			assert.Equal(t, tc.unavailable, repoErr.IsUnavailable())
			assert.Contains(t, err.Error(), "carts.get")
		})
	}
}

func TestWrapErrorPassesThroughCallerErrors(t *testing.T) {
	sentinel := errors.New("cart line not found")
	assert.Same(t, sentinel, WrapError("transaction", sentinel))
	assert.Nil(t, WrapError("transaction", nil))
	assert.ErrorIs(t, WrapError("tx", status.Error(codes.Canceled, "gone")), context.Canceled)
	assert.ErrorIs(t, WrapError("tx", status.Error(codes.DeadlineExceeded, "slow")), context.DeadlineExceeded)
	assert.ErrorIs(t, WrapError("tx", context.Canceled), context.Canceled)
}

func TestNotFoundAndConflictHelpers(t *testing.T) {
	var repoErr *Error
	require.True(t, errors.As(NotFound("orders.get", "order"), &repoErr))
	assert.True(t, repoErr.IsNotFound())

	require.True(t, errors.As(WrapError("order_histories.archive", Conflict("", "history")), &repoErr))
	assert.True(t, repoErr.IsConflict())
	assert.Contains(t, repoErr.Error(), "order_histories.archive")
}

func TestProviderRequiresProjectID(t *testing.T) {
	t.Setenv(envGoogleProjectID, "")
	t.Setenv(envEmulatorHost, "")
	provider := NewProvider(config.FirestoreConfig{})
	_, err := provider.Client(context.Background())
	require.Error(t, err)

	require.NoError(t, provider.Close(context.Background()))
	_, err = provider.Client(context.Background())
	assert.ErrorIs(t, err, ErrProviderClosed)
}

