package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// Feed exposes live views of the three collections. Every emission is a
// complete snapshot of the watched collection: changes arriving from other
// devices replace the in-memory view wholesale, so a missed delta can never
// leave a stale item behind.
type Feed struct {
	store  store.Store
	logger *logrus.Logger
}

func NewFeed(st store.Store, logger *logrus.Logger) *Feed {
	return &Feed{store: st, logger: logger}
}

// WatchShoppingList streams the open shopping list (unpurchased items,
// insertion order) until ctx is done.
func (f *Feed) WatchShoppingList(ctx context.Context) (<-chan []domain.ShoppingItem, error) {
	snapshots, err := f.store.Watch(ctx, store.ItemsPrefix())
	if err != nil {
		return nil, fmt.Errorf("watch shopping list: %w", err)
	}

	out := make(chan []domain.ShoppingItem, 1)
	go func() {
		defer close(out)
		for snap := range snapshots {
			items := decodeItems(snap.Entries)
			open := items[:0]
			for _, item := range items {
				if !item.Purchased {
					open = append(open, item)
				}
			}
			sortItems(open)
			forward(ctx, out, open)
		}
	}()
	return out, nil
}

// WatchBasket streams the given user's basket contents.
func (f *Feed) WatchBasket(ctx context.Context, userID string) (<-chan []domain.ShoppingItem, error) {
	snapshots, err := f.store.Watch(ctx, store.BasketPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("watch basket: %w", err)
	}

	out := make(chan []domain.ShoppingItem, 1)
	go func() {
		defer close(out)
		for snap := range snapshots {
			items := decodeItems(snap.Entries)
			sortItems(items)
			forward(ctx, out, items)
		}
	}()
	return out, nil
}

// WatchPurchases streams the purchase ledger, newest first.
func (f *Feed) WatchPurchases(ctx context.Context) (<-chan []domain.Purchase, error) {
	snapshots, err := f.store.Watch(ctx, store.PurchasesPrefix())
	if err != nil {
		return nil, fmt.Errorf("watch purchases: %w", err)
	}

	out := make(chan []domain.Purchase, 1)
	go func() {
		defer close(out)
		for snap := range snapshots {
			purchases := decodePurchases(snap.Entries)
			sortPurchases(purchases)
			forward(ctx, out, purchases)
		}
	}()
	return out, nil
}

// Purchases returns a one-shot snapshot of the ledger, newest first.
func (f *Feed) Purchases(ctx context.Context) ([]domain.Purchase, error) {
	entries, err := f.store.List(ctx, store.PurchasesPrefix())
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	purchases := decodePurchases(entries)
	sortPurchases(purchases)
	return purchases, nil
}

// GetPurchase reads a single purchase record.
func (f *Feed) GetPurchase(ctx context.Context, purchaseID string) (*domain.Purchase, error) {
	var purchase domain.Purchase
	if err := f.store.ReadOnce(ctx, store.PurchasePath(purchaseID), &purchase); err != nil {
		return nil, err
	}
	purchase.ID = purchaseID
	return &purchase, nil
}

// forward pushes the latest snapshot, replacing a pending one the consumer
// has not collected yet. Consumers always see the freshest full view.
func forward[T any](ctx context.Context, out chan []T, value []T) {
	for {
		select {
		case out <- value:
			return
		case <-ctx.Done():
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
