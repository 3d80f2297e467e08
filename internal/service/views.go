package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/store"
)

// decodeItems turns a store snapshot into shopping items. Entries that fail
// to decode are skipped; the store holds only values this engine wrote, so a
// bad entry means foreign data, not a recoverable condition.
func decodeItems(entries map[string]json.RawMessage) []domain.ShoppingItem {
	items := make([]domain.ShoppingItem, 0, len(entries))
	for _, data := range entries {
		var item domain.ShoppingItem
		if err := json.Unmarshal(data, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func decodePurchases(entries map[string]json.RawMessage) []domain.Purchase {
	purchases := make([]domain.Purchase, 0, len(entries))
	for _, data := range entries {
		var p domain.Purchase
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		purchases = append(purchases, p)
	}
	return purchases
}

// sortItems orders by insertion time, oldest first; ties break on id so the
// order is stable across devices.
func sortItems(items []domain.ShoppingItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func sortPurchases(purchases []domain.Purchase) {
	sort.Slice(purchases, func(i, j int) bool {
		if !purchases[i].PurchaseDate.Equal(purchases[j].PurchaseDate) {
			return purchases[i].PurchaseDate.After(purchases[j].PurchaseDate)
		}
		return purchases[i].ID < purchases[j].ID
	})
}

func loadItems(ctx context.Context, st store.Store, prefix string) ([]domain.ShoppingItem, error) {
	entries, err := st.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	items := decodeItems(entries)
	sortItems(items)
	return items, nil
}
