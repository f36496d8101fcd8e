package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// CartServiceDeps wires the repositories and collaborators for cart operations.
type CartServiceDeps struct {
	Carts        repositories.CartRepository
	Catalog      repositories.CatalogRepository
	Events       EventSink
	Clock        func() time.Time
	Logger       func(context.Context, string, map[string]any)
	IDGenerator  func() string
	// EventTimeout bounds each analytics publish. Zero means two seconds.
	EventTimeout time.Duration
}

type cartService struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
	events  recorder
	newID   func() string
	now     func() time.Time
	logger  func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	now := func() time.Time { return deps.Clock().UTC() }

	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		events:  newRecorder(deps.Events, now, logger, deps.EventTimeout),
		newID:   idGen,
		now:     now,
		logger:  logger,
	}, nil
}

// GetCart is read-tolerant: a caller without an owner simply has no cart.
func (s *cartService) GetCart(ctx context.Context, owner Owner) (Cart, bool, error) {
	if owner.IsZero() {
		return Cart{}, false, nil
	}
	cart, err := s.carts.Get(ctx, owner)
	if err != nil {
		if isRepoNotFound(err) {
			return Cart{}, false, nil
		}
		return Cart{}, false, s.translateRepoError(err)
	}
	return cart, true, nil
}

func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error) {
	if cmd.Owner.IsZero() {
		return Cart{}, ErrIdentityRequired
	}
	key := domain.NewLineKey(cmd.ProductID, cmd.Color, cmd.Size)
	if key.IsZero() {
		return Cart{}, fmt.Errorf("%w: productId is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, key.ProductID)
	if err != nil {
		if isRepoNotFound(err) {
			return Cart{}, fmt.Errorf("%w: %s", ErrProductNotFound, key.ProductID)
		}
		return Cart{}, s.translateRepoError(err)
	}

	now := s.now()
	line := domain.CartLine{
		ProductID:      key.ProductID,
		Color:          key.Color,
		Size:           key.Size,
		Quantity:       cmd.Quantity,
		UnitPrice:      product.Price,
		UnitFinalPrice: product.FinalPrice(now),
		Title:          product.Title,
		Image:          product.Image,
		AddedAt:        now,
	}

	cart, err := s.carts.Mutate(ctx, cmd.Owner, func(cart *domain.Cart, found bool) error {
		if !found {
			cart.ID = s.newID()
			cart.CreatedAt = now
		}
		cart.AddLine(line)
		cart.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	event := ownerEvent(EventCartItemAdded, cmd.Owner)
	event.ProductID = key.ProductID
	event.Quantity = cmd.Quantity
	s.events.record(ctx, event)
	return cart, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, cmd UpdateCartItemCommand) (Cart, error) {
	if cmd.Owner.IsZero() {
		return Cart{}, ErrIdentityRequired
	}
	key := domain.NewLineKey(cmd.Key.ProductID, cmd.Key.Color, cmd.Key.Size)
	if key.IsZero() {
		return Cart{}, fmt.Errorf("%w: productId is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.Mutate(ctx, cmd.Owner, func(cart *domain.Cart, found bool) error {
		if !found {
			return ErrCartNotFound
		}
		if !cart.SetQuantity(key, cmd.Quantity) {
			return ErrCartLineNotFound
		}
		cart.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	kind := EventCartItemUpdated
	if cmd.Quantity <= 0 {
		kind = EventCartItemRemoved
	}
	event := ownerEvent(kind, cmd.Owner)
	event.ProductID = key.ProductID
	event.Quantity = max(cmd.Quantity, 0)
	s.events.record(ctx, event)
	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (Cart, error) {
	if cmd.Owner.IsZero() {
		return Cart{}, ErrIdentityRequired
	}
	key := domain.NewLineKey(cmd.Key.ProductID, cmd.Key.Color, cmd.Key.Size)
	if key.IsZero() {
		return Cart{}, fmt.Errorf("%w: productId is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.Mutate(ctx, cmd.Owner, func(cart *domain.Cart, found bool) error {
		if !found {
			return ErrCartNotFound
		}
		if !cart.RemoveLine(key) {
			return ErrCartLineNotFound
		}
		cart.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Cart{}, s.translateRepoError(err)
	}

	event := ownerEvent(EventCartItemRemoved, cmd.Owner)
	event.ProductID = key.ProductID
	s.events.record(ctx, event)
	return cart, nil
}

func (s *cartService) DeleteCart(ctx context.Context, owner Owner) error {
	if owner.IsZero() {
		return ErrIdentityRequired
	}
	if err := s.carts.Delete(ctx, owner); err != nil && !isRepoNotFound(err) {
		return s.translateRepoError(err)
	}
	s.events.record(ctx, ownerEvent(EventCartDeleted, owner))
	return nil
}

func (s *cartService) MergeCarts(ctx context.Context, cmd MergeCartsCommand) (Cart, bool, error) {
	account := domain.AccountOwner(cmd.AccountID)
	session := domain.SessionOwner(cmd.SessionKey)
	if account.IsZero() || session.IsZero() {
		return Cart{}, false, ErrIdentityRequired
	}

	var reassigned bool
	cart, merged, err := s.carts.Merge(ctx, session, account, func(target *domain.Cart, targetFound bool, source domain.Cart) error {
		now := s.now()
		reassigned = !targetFound
		if !targetFound {
			*target = source.Clone()
			target.Owner = account
			target.RecomputeTotals()
			target.UpdatedAt = now
			return nil
		}
		target.Absorb(source)
		target.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Cart{}, false, s.translateRepoError(err)
	}
	if !merged {
		return cart, cart.ID != "", nil
	}

	s.logger(ctx, "cart.merged", map[string]any{
		"cart":       cart.ID,
		"account":    cmd.AccountID,
		"reassigned": reassigned,
		"quantity":   cart.TotalQuantity,
	})
	event := ownerEvent(EventCartMerged, account)
	event.SessionKey = session.Ref()
	event.Quantity = cart.TotalQuantity
	s.events.record(ctx, event)
	return cart, true, nil
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrCartNotFound), errors.Is(err, ErrCartLineNotFound), errors.Is(err, ErrCartInvalidInput):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isRepoNotFound(err):
		return ErrCartNotFound
	case isRepoConflict(err), isRepoUnavailable(err):
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}
