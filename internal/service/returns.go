package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/metrics"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// ReturnService un-purchases items from a purchase record. Returned items
// re-enter the shopping list; the purchase shrinks to the remaining items or
// is deleted entirely when none remain.
//
// TotalAmount is deliberately left untouched on a partial return: the record
// keeps the original group cost. Only PriceService changes the amount.
type ReturnService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewReturnService(st store.Store, logger *logrus.Logger) *ReturnService {
	return &ReturnService{store: st, logger: logger}
}

// ReturnItems restores the selected items to the shopping list and shrinks
// or deletes the purchase. The returned record is the persisted remainder,
// or nil when the purchase was deleted. Selection state is the caller's to
// clear after success.
func (s *ReturnService) ReturnItems(ctx context.Context, purchase domain.Purchase, selectedIDs []string) (*domain.Purchase, error) {
	remaining, err := s.returnItems(ctx, purchase, selectedIDs)
	metrics.Returns.WithLabelValues(resultLabel(err)).Inc()
	return remaining, err
}

func (s *ReturnService) returnItems(ctx context.Context, purchase domain.Purchase, selectedIDs []string) (*domain.Purchase, error) {
	if len(selectedIDs) == 0 {
		return nil, ErrEmptySelection
	}
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	// Restore the selected items and compute the remainder in one pass,
	// preserving the relative order of the untouched entries.
	var (
		merr           *multierror.Error
		restored       int
		remainingIDs   []string
		remainingNames []string
	)
	for i, id := range purchase.ItemIDs {
		name := ""
		if i < len(purchase.ItemNames) {
			name = purchase.ItemNames[i]
		}
		if !selected[id] {
			remainingIDs = append(remainingIDs, id)
			remainingNames = append(remainingNames, name)
			continue
		}
		if err := s.restoreItem(ctx, id, name); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		restored++
	}

	if err := merr.ErrorOrNil(); err != nil {
		// Do not shrink the record while some selected items are still
		// marked purchased; the next load reconciles against it.
		if restored == 0 {
			return nil, fmt.Errorf("return items: %w", err)
		}
		return nil, &PartialError{Op: "return items", Step: "restore items to shopping list", Err: err}
	}

	if len(remainingIDs) == 0 {
		if err := s.store.Delete(ctx, store.PurchasePath(purchase.ID)); err != nil {
			return nil, &PartialError{Op: "return items", Step: "delete emptied purchase", Err: err}
		}
		s.logger.Infof("Purchase %s fully returned and deleted", purchase.ID)
		return nil, nil
	}

	purchase.ItemIDs = remainingIDs
	purchase.ItemNames = remainingNames
	// TotalAmount stays as charged at checkout.
	if err := s.store.Write(ctx, store.PurchasePath(purchase.ID), purchase); err != nil {
		return nil, &PartialError{Op: "return items", Step: "persist shrunken purchase", Err: err}
	}
	return &purchase, nil
}

// restoreItem flips the stored item back to unpurchased. If the item record
// vanished it is rebuilt from what the purchase knows about it, so the
// shopping list never loses a returned item.
func (s *ReturnService) restoreItem(ctx context.Context, itemID, name string) error {
	var item domain.ShoppingItem
	err := s.store.ReadOnce(ctx, store.ItemPath(itemID), &item)
	switch {
	case errors.Is(err, store.ErrNotFound):
		item = domain.ShoppingItem{ID: itemID, Name: name, Quantity: 1, CreatedAt: time.Now()}
	case err != nil:
		return fmt.Errorf("read item %s: %w", itemID, err)
	}

	item.Purchased = false
	item.PurchasedBy = ""
	item.PurchasedAt = nil
	if err := s.store.Write(ctx, store.ItemPath(itemID), item); err != nil {
		return fmt.Errorf("restore item %s: %w", itemID, err)
	}
	return nil
}
