package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// CartRepository keeps carts in memory. Writes for one owner key are serialised by a per-key lock
// so concurrent read-modify-write cycles never interleave.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	locks map[string]*sync.Mutex
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs an empty cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts: make(map[string]domain.Cart),
		locks: make(map[string]*sync.Mutex),
	}
}

// Get implements repositories.CartRepository.
func (r *CartRepository) Get(_ context.Context, owner domain.Owner) (domain.Cart, error) {
	key := owner.Key()
	if key == "" {
		return domain.Cart{}, invalid("carts.get", "owner is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[key]
	if !ok {
		return domain.Cart{}, notFound("carts.get", "cart")
	}
	return cart.Clone(), nil
}

// Mutate implements repositories.CartRepository.
func (r *CartRepository) Mutate(ctx context.Context, owner domain.Owner, fn repositories.CartMutation) (domain.Cart, error) {
	key := owner.Key()
	if key == "" {
		return domain.Cart{}, invalid("carts.mutate", "owner is required")
	}
	unlock := r.lockKeys(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}

	cart, found := r.load(key)
	if !found {
		cart = domain.Cart{Owner: owner}
	}
	if err := fn(&cart, found); err != nil {
		return domain.Cart{}, err
	}
	cart.Owner = owner
	r.store(key, cart)
	return cart.Clone(), nil
}

// Merge implements repositories.CartRepository.
func (r *CartRepository) Merge(ctx context.Context, source, target domain.Owner, fn repositories.CartMergeFunc) (domain.Cart, bool, error) {
	sourceKey, targetKey := source.Key(), target.Key()
	if sourceKey == "" || targetKey == "" {
		return domain.Cart{}, false, invalid("carts.merge", "source and target owners are required")
	}
	unlock := r.lockKeys(sourceKey, targetKey)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return domain.Cart{}, false, err
	}

	targetCart, targetFound := r.load(targetKey)
	sourceCart, sourceFound := r.load(sourceKey)
	if !sourceFound {
		return targetCart, false, nil
	}
	if !targetFound {
		targetCart = domain.Cart{Owner: target}
	}
	if err := fn(&targetCart, targetFound, sourceCart); err != nil {
		return domain.Cart{}, true, err
	}
	targetCart.Owner = target

	r.mu.Lock()
	r.carts[targetKey] = targetCart.Clone()
	delete(r.carts, sourceKey)
	r.mu.Unlock()
	return targetCart.Clone(), true, nil
}

// Delete implements repositories.CartRepository.
func (r *CartRepository) Delete(_ context.Context, owner domain.Owner) error {
	key := owner.Key()
	if key == "" {
		return invalid("carts.delete", "owner is required")
	}
	unlock := r.lockKeys(key)
	defer unlock()

	r.mu.Lock()
	delete(r.carts, key)
	r.mu.Unlock()
	return nil
}

func (r *CartRepository) load(key string) (domain.Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[key]
	if !ok {
		return domain.Cart{}, false
	}
	return cart.Clone(), true
}

func (r *CartRepository) store(key string, cart domain.Cart) {
	r.mu.Lock()
	r.carts[key] = cart.Clone()
	r.mu.Unlock()
}

// lockKeys acquires the owner locks in sorted order to avoid deadlocks between merges.
func (r *CartRepository) lockKeys(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	r.mu.Lock()
	locks := make([]*sync.Mutex, 0, len(sorted))
	var prev string
	for i, key := range sorted {
		if i > 0 && key == prev {
			continue
		}
		prev = key
		lock, ok := r.locks[key]
		if !ok {
			lock = &sync.Mutex{}
			r.locks[key] = lock
		}
		locks = append(locks, lock)
	}
	r.mu.Unlock()

	for _, lock := range locks {
		lock.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
