package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/skycole768/RoommateShopping/internal/auth"
	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/metrics"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// ErrInvalidTaxRate rejects a negative tax rate before any write.
var ErrInvalidTaxRate = errors.New("tax rate must not be negative")

// CheckoutService converts the current basket contents into one purchase
// record. The write sequence is: mark every item purchased (concurrently,
// all awaited), record the purchase, clear the basket entries. A failure
// after the first successful write leaves the ledger and the item records
// disagreeing and is reported as a PartialError.
type CheckoutService struct {
	store    store.Store
	identity auth.Identity
	logger   *logrus.Logger
}

func NewCheckoutService(st store.Store, identity auth.Identity, logger *logrus.Logger) *CheckoutService {
	return &CheckoutService{store: st, identity: identity, logger: logger}
}

// Checkout purchases the given basket items at the given tax rate and
// returns the new purchase record.
//
// Items sharing an id collapse to a single purchase entry (first occurrence
// wins); every occurrence still contributes its line cost to the total.
func (s *CheckoutService) Checkout(ctx context.Context, items []domain.ShoppingItem, taxRate decimal.Decimal) (*domain.Purchase, error) {
	purchase, err := s.checkout(ctx, items, taxRate)
	metrics.Checkouts.WithLabelValues(resultLabel(err)).Inc()
	return purchase, err
}

func (s *CheckoutService) checkout(ctx context.Context, items []domain.ShoppingItem, taxRate decimal.Decimal) (*domain.Purchase, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBasket
	}
	if taxRate.IsNegative() {
		return nil, ErrInvalidTaxRate
	}
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	unique := make([]domain.ShoppingItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		unique = append(unique, item)
	}
	total := subtotal.Mul(decimal.NewFromInt(1).Add(taxRate))
	now := time.Now()

	// Mark every item purchased. The writes run concurrently but are all
	// awaited before the purchase record is written.
	var (
		mu    sync.Mutex
		merr  *multierror.Error
		wrote int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range unique {
		marked := item
		g.Go(func() error {
			marked.Purchased = true
			marked.PurchasedBy = userID
			at := now
			marked.PurchasedAt = &at
			err := s.store.Write(gctx, store.ItemPath(marked.ID), marked)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("mark item %s purchased: %w", marked.ID, err))
			} else {
				wrote++
			}
			return nil
		})
	}
	// Goroutines report through merr so every write is attempted.
	_ = g.Wait()

	if err := merr.ErrorOrNil(); err != nil {
		if wrote == 0 {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		return nil, &PartialError{Op: "checkout", Step: "mark items purchased", Err: err}
	}

	purchase := &domain.Purchase{
		ID:           store.NewID(),
		ItemIDs:      make([]string, 0, len(unique)),
		ItemNames:    make([]string, 0, len(unique)),
		TotalAmount:  total,
		PurchasedBy:  userID,
		PurchaseDate: now,
	}
	for _, item := range unique {
		purchase.ItemIDs = append(purchase.ItemIDs, item.ID)
		purchase.ItemNames = append(purchase.ItemNames, item.Name)
	}

	if err := s.store.Write(ctx, store.PurchasePath(purchase.ID), purchase); err != nil {
		return nil, &PartialError{Op: "checkout", Step: "record purchase", Err: err}
	}
	s.logger.Infof("Recorded purchase %s: %d items, total %s", purchase.ID, len(purchase.ItemIDs), total)

	// Clear the checked-out entries from the basket. The purchase is
	// already recorded, so any failure here is partial by definition.
	var clearErr *multierror.Error
	for _, item := range unique {
		if err := s.store.Delete(ctx, store.BasketItemPath(userID, item.ID)); err != nil {
			clearErr = multierror.Append(clearErr, fmt.Errorf("clear basket entry %s: %w", item.ID, err))
		}
	}
	if err := clearErr.ErrorOrNil(); err != nil {
		return purchase, &PartialError{Op: "checkout", Step: "clear basket", Err: err}
	}
	return purchase, nil
}
