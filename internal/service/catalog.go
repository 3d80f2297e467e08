package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/metrics"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// ErrInvalidItem rejects catalog writes with a blank name, negative
// quantity or negative price before anything reaches the store.
var ErrInvalidItem = errors.New("item needs a name, a non-negative quantity and a non-negative price")

// CatalogService manages the open shopping list: the set of items nobody
// has purchased yet.
type CatalogService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewCatalogService(st store.Store, logger *logrus.Logger) *CatalogService {
	return &CatalogService{store: st, logger: logger}
}

// AddItem creates a new shopping-list item with a fresh id.
func (s *CatalogService) AddItem(ctx context.Context, name string, quantity int, price decimal.Decimal) (*domain.ShoppingItem, error) {
	name = strings.TrimSpace(name)
	if name == "" || quantity < 0 || price.IsNegative() {
		metrics.CatalogOps.WithLabelValues("add", metrics.ResultFailure).Inc()
		return nil, ErrInvalidItem
	}

	item := domain.ShoppingItem{
		ID:        store.NewID(),
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: time.Now(),
	}
	if err := s.store.Write(ctx, store.ItemPath(item.ID), item); err != nil {
		metrics.CatalogOps.WithLabelValues("add", metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("add item to shopping list: %w", err)
	}

	metrics.CatalogOps.WithLabelValues("add", metrics.ResultSuccess).Inc()
	s.logger.Infof("Added shopping item %q (id=%s)", item.Name, item.ID)
	return &item, nil
}

// UpdateItem overwrites an existing item record.
func (s *CatalogService) UpdateItem(ctx context.Context, item domain.ShoppingItem) error {
	if strings.TrimSpace(item.Name) == "" || item.Quantity < 0 || item.Price.IsNegative() {
		metrics.CatalogOps.WithLabelValues("update", metrics.ResultFailure).Inc()
		return ErrInvalidItem
	}

	var existing domain.ShoppingItem
	if err := s.store.ReadOnce(ctx, store.ItemPath(item.ID), &existing); err != nil {
		metrics.CatalogOps.WithLabelValues("update", metrics.ResultFailure).Inc()
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("check item %s: %w", item.ID, err)
	}
	// Creation time and purchase state stay with the stored record; an
	// update only touches the user-editable fields.
	existing.Name = strings.TrimSpace(item.Name)
	existing.Quantity = item.Quantity
	existing.Price = item.Price

	if err := s.store.Write(ctx, store.ItemPath(item.ID), existing); err != nil {
		metrics.CatalogOps.WithLabelValues("update", metrics.ResultFailure).Inc()
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	metrics.CatalogOps.WithLabelValues("update", metrics.ResultSuccess).Inc()
	return nil
}

// RemoveItem deletes an item from the shopping list.
func (s *CatalogService) RemoveItem(ctx context.Context, itemID string) error {
	if err := s.store.Delete(ctx, store.ItemPath(itemID)); err != nil {
		metrics.CatalogOps.WithLabelValues("remove", metrics.ResultFailure).Inc()
		return fmt.Errorf("remove item %s: %w", itemID, err)
	}
	metrics.CatalogOps.WithLabelValues("remove", metrics.ResultSuccess).Inc()
	return nil
}

// ListItems returns the unpurchased items, ordered by insertion. Items that
// have been purchased keep their record under items/ until returned, so they
// are filtered out of the open list here.
func (s *CatalogService) ListItems(ctx context.Context) ([]domain.ShoppingItem, error) {
	items, err := loadItems(ctx, s.store, store.ItemsPrefix())
	if err != nil {
		return nil, err
	}
	open := items[:0]
	for _, item := range items {
		if !item.Purchased {
			open = append(open, item)
		}
	}
	return open, nil
}
