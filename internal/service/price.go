package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/metrics"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// PriceService corrects a purchase's total amount by hand. This is the only
// path that changes TotalAmount after checkout.
type PriceService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewPriceService(st store.Store, logger *logrus.Logger) *PriceService {
	return &PriceService{store: st, logger: logger}
}

// EditAmount overwrites the purchase's total and persists the record. The
// item records are untouched.
func (s *PriceService) EditAmount(ctx context.Context, purchase domain.Purchase, newAmount decimal.Decimal) (*domain.Purchase, error) {
	if newAmount.Sign() <= 0 {
		metrics.PriceEdits.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, ErrInvalidAmount
	}

	old := purchase.TotalAmount
	purchase.TotalAmount = newAmount
	if err := s.store.Write(ctx, store.PurchasePath(purchase.ID), purchase); err != nil {
		metrics.PriceEdits.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("persist purchase %s: %w", purchase.ID, err)
	}

	metrics.PriceEdits.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Infof("Purchase %s amount corrected %s -> %s", purchase.ID, old, newAmount)
	return &purchase, nil
}
