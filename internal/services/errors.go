package services

import (
	"errors"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// ErrIdentityRequired indicates neither an account nor an anonymous session was supplied.
var ErrIdentityRequired = errors.New("identity required")

// ErrProductNotFound indicates a referenced product is no longer in the catalog.
var ErrProductNotFound = errors.New("catalog: product not found")

var (
	// ErrCartInvalidInput indicates the caller supplied invalid input.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartNotFound indicates the owner has no cart.
	ErrCartNotFound = errors.New("cart service: not found")
	// ErrCartLineNotFound indicates the cart has no line with the requested key.
	ErrCartLineNotFound = errors.New("cart service: line not found")
	// ErrCartUnavailable indicates the backing store failed.
	ErrCartUnavailable = errors.New("cart service: unavailable")
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid input.
	ErrOrderInvalidInput = errors.New("order service: invalid input")
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.New("order service: order not found")
	// ErrOrderInvalidState indicates a transition or archival precondition does not hold.
	ErrOrderInvalidState = errors.New("order service: invalid state")
	// ErrOrderForbidden indicates the caller may not act on the order.
	ErrOrderForbidden = errors.New("order service: forbidden")
	// ErrOrderConflict indicates a concurrent write won.
	ErrOrderConflict = errors.New("order service: conflict")
	// ErrOrderUnavailable indicates the backing store failed.
	ErrOrderUnavailable = errors.New("order service: unavailable")
	// ErrOrderAlreadyArchived indicates a history record already exists for the order.
	ErrOrderAlreadyArchived = errors.New("order history: already archived")
	// ErrOrderHistoryNotFound indicates the history record does not exist.
	ErrOrderHistoryNotFound = errors.New("order history: not found")
)

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func isRepoUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
