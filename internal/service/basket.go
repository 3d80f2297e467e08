package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/auth"
	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/metrics"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// BasketService moves single items between the shared shopping list and the
// current user's basket. A move is two store operations — write the
// destination, delete the source — and the store offers no transaction
// spanning them, so the second step failing is surfaced as a PartialError:
// the item now exists in both collections until the caller reconciles.
type BasketService struct {
	store    store.Store
	identity auth.Identity
	logger   *logrus.Logger
}

func NewBasketService(st store.Store, identity auth.Identity, logger *logrus.Logger) *BasketService {
	return &BasketService{store: st, identity: identity, logger: logger}
}

// MoveToBasket stages a shopping-list item in the current user's basket.
func (s *BasketService) MoveToBasket(ctx context.Context, item domain.ShoppingItem) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		metrics.BasketMoves.WithLabelValues("to_basket", metrics.ResultFailure).Inc()
		return err
	}

	err = s.move(ctx, "move item to basket",
		store.BasketItemPath(userID, item.ID), store.ItemPath(item.ID), item)
	metrics.BasketMoves.WithLabelValues("to_basket", resultLabel(err)).Inc()
	return err
}

// MoveToShoppingList puts a basket item back on the shared shopping list.
func (s *BasketService) MoveToShoppingList(ctx context.Context, item domain.ShoppingItem) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		metrics.BasketMoves.WithLabelValues("to_list", metrics.ResultFailure).Inc()
		return err
	}

	err = s.move(ctx, "move item to shopping list",
		store.ItemPath(item.ID), store.BasketItemPath(userID, item.ID), item)
	metrics.BasketMoves.WithLabelValues("to_list", resultLabel(err)).Inc()
	return err
}

// ListBasket returns the current user's staged items, ordered by insertion.
func (s *BasketService) ListBasket(ctx context.Context) ([]domain.ShoppingItem, error) {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return loadItems(ctx, s.store, store.BasketPrefix(userID))
}

// move writes the item at dst, then deletes src. A retried half-completed
// move finds the item already at dst, skips the write and only performs the
// missing delete, so retrying after a PartialError converges.
func (s *BasketService) move(ctx context.Context, op, dst, src string, item domain.ShoppingItem) error {
	var existing domain.ShoppingItem
	err := s.store.ReadOnce(ctx, dst, &existing)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.store.Write(ctx, dst, item); err != nil {
			return fmt.Errorf("%s: write destination: %w", op, err)
		}
	case err != nil:
		return fmt.Errorf("%s: check destination: %w", op, err)
	default:
		s.logger.Warnf("Item %s already present at %s, finishing interrupted move", item.ID, dst)
	}

	if err := s.store.Delete(ctx, src); err != nil {
		return &PartialError{Op: op, Step: "delete source copy", Err: err}
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case IsPartial(err):
		return metrics.ResultPartial
	default:
		return metrics.ResultFailure
	}
}
