package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/store"
)

func TestAddItem_Success(t *testing.T) {
	fs := newFakeStore()

	sut := NewCatalogService(fs, testLogger())
	item, err := sut.AddItem(context.Background(), "  Apples ", 3, decimal.RequireFromString("2.00"))
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Apples", item.Name)
	assert.False(t, item.Purchased)
	assert.False(t, item.CreatedAt.IsZero())
	assert.True(t, fs.has(store.ItemPath(item.ID)))
}

func TestAddItem_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		quantity int
		price    string
	}{
		{"blank name", "   ", 1, "1.00"},
		{"negative quantity", "Apples", -1, "1.00"},
		{"negative price", "Apples", 1, "-1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			sut := NewCatalogService(fs, testLogger())
			_, err := sut.AddItem(context.Background(), tt.itemName, tt.quantity, decimal.RequireFromString(tt.price))
			require.ErrorIs(t, err, ErrInvalidItem)
			assert.Equal(t, 0, fs.writes)
		})
	}
}

func TestUpdateItem_KeepsPurchaseStateAndCreation(t *testing.T) {
	fs := newFakeStore()
	original := testItem("a", "Apples")
	fs.seed(store.ItemPath("a"), original)

	update := original
	update.Name = "Green apples"
	update.Quantity = 5
	update.CreatedAt = time.Now() // callers cannot rewrite creation time

	sut := NewCatalogService(fs, testLogger())
	require.NoError(t, sut.UpdateItem(context.Background(), update))

	var stored domain.ShoppingItem
	require.True(t, fs.get(store.ItemPath("a"), &stored))
	assert.Equal(t, "Green apples", stored.Name)
	assert.Equal(t, 5, stored.Quantity)
	assert.True(t, stored.CreatedAt.Equal(original.CreatedAt))
}

func TestUpdateItem_NotFound(t *testing.T) {
	fs := newFakeStore()
	sut := NewCatalogService(fs, testLogger())
	err := sut.UpdateItem(context.Background(), testItem("missing", "Ghost"))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListItems_FiltersPurchasedAndSorts(t *testing.T) {
	fs := newFakeStore()
	first := testItem("b", "Bread")
	first.CreatedAt = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	second := testItem("a", "Apples")
	bought := purchasedItem("c", "Cheese")
	fs.seed(store.ItemPath("a"), second)
	fs.seed(store.ItemPath("b"), first)
	fs.seed(store.ItemPath("c"), bought)

	sut := NewCatalogService(fs, testLogger())
	items, err := sut.ListItems(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestRemoveItem(t *testing.T) {
	fs := newFakeStore()
	fs.seed(store.ItemPath("a"), testItem("a", "Apples"))

	sut := NewCatalogService(fs, testLogger())
	require.NoError(t, sut.RemoveItem(context.Background(), "a"))
	assert.False(t, fs.has(store.ItemPath("a")))
}
