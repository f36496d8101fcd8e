package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
	pfirestore "github.com/Emirlan007/Cassini-shop-sub001/internal/platform/firestore"
	"github.com/Emirlan007/Cassini-shop-sub001/internal/repositories"
)

// CartRepository stores one cart document per owner, keyed by the owner key. Mutations run
// inside Firestore transactions so concurrent writers for one owner serialise.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection)}, nil
}

// Get implements repositories.CartRepository.
func (r *CartRepository) Get(ctx context.Context, owner domain.Owner) (domain.Cart, error) {
	if owner.IsZero() {
		return domain.Cart{}, errors.New("cart repository: owner is required")
	}
	doc, err := r.base.Get(ctx, owner.Key())
	if err != nil {
		return domain.Cart{}, err
	}
	return fromCartDocument(owner, doc.Data), nil
}

// Mutate implements repositories.CartRepository.
func (r *CartRepository) Mutate(ctx context.Context, owner domain.Owner, fn repositories.CartMutation) (domain.Cart, error) {
	if owner.IsZero() {
		return domain.Cart{}, errors.New("cart repository: owner is required")
	}
	ref, err := r.base.DocumentRef(ctx, owner.Key())
	if err != nil {
		return domain.Cart{}, err
	}

	var result domain.Cart
	err = r.base.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, found, err := r.base.GetTx(tx, ref)
		if err != nil {
			return err
		}
		cart := domain.Cart{Owner: owner}
		if found {
			cart = fromCartDocument(owner, doc.Data)
		}
		if err := fn(&cart, found); err != nil {
			return err
		}
		cart.Owner = owner
		if err := tx.Set(ref, toCartDocument(cart)); err != nil {
			return pfirestore.WrapError("carts.mutate", err)
		}
		result = cart
		return nil
	}, pfirestore.WithTxOperation("carts.mutate"))
	if err != nil {
		return domain.Cart{}, err
	}
	return result.Clone(), nil
}

// Merge implements repositories.CartRepository. Both documents are read and written in one transaction.
func (r *CartRepository) Merge(ctx context.Context, source, target domain.Owner, fn repositories.CartMergeFunc) (domain.Cart, bool, error) {
	if source.IsZero() || target.IsZero() {
		return domain.Cart{}, false, errors.New("cart repository: source and target owners are required")
	}
	sourceRef, err := r.base.DocumentRef(ctx, source.Key())
	if err != nil {
		return domain.Cart{}, false, err
	}
	targetRef, err := r.base.DocumentRef(ctx, target.Key())
	if err != nil {
		return domain.Cart{}, false, err
	}

	var (
		result      domain.Cart
		sourceFound bool
	)
	err = r.base.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		targetDoc, targetFound, err := r.base.GetTx(tx, targetRef)
		if err != nil {
			return err
		}
		sourceDoc, found, err := r.base.GetTx(tx, sourceRef)
		if err != nil {
			return err
		}
		sourceFound = found

		targetCart := domain.Cart{Owner: target}
		if targetFound {
			targetCart = fromCartDocument(target, targetDoc.Data)
		}
		if !found {
			result = targetCart
			return nil
		}

		if err := fn(&targetCart, targetFound, fromCartDocument(source, sourceDoc.Data)); err != nil {
			return err
		}
		targetCart.Owner = target
		if err := tx.Set(targetRef, toCartDocument(targetCart)); err != nil {
			return pfirestore.WrapError("carts.merge", err)
		}
		if err := tx.Delete(sourceRef); err != nil {
			return pfirestore.WrapError("carts.merge", err)
		}
		result = targetCart
		return nil
	}, pfirestore.WithTxOperation("carts.merge"))
	if err != nil {
		return domain.Cart{}, sourceFound, err
	}
	return result.Clone(), sourceFound, nil
}

// Delete implements repositories.CartRepository.
func (r *CartRepository) Delete(ctx context.Context, owner domain.Owner) error {
	if owner.IsZero() {
		return errors.New("cart repository: owner is required")
	}
	return r.base.Delete(ctx, owner.Key())
}
