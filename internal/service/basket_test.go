package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycole768/RoommateShopping/internal/auth"
	"github.com/skycole768/RoommateShopping/internal/domain"
	"github.com/skycole768/RoommateShopping/internal/store"
)

const testUser = "roommate-1"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testItem(id, name string) domain.ShoppingItem {
	return domain.ShoppingItem{
		ID:        id,
		Name:      name,
		Quantity:  2,
		Price:     decimal.RequireFromString("3.50"),
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMoveToBasket_Success(t *testing.T) {
	fs := newFakeStore()
	item := testItem("a", "Apples")
	fs.seed(store.ItemPath("a"), item)

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	err := sut.MoveToBasket(context.Background(), item)
	require.NoError(t, err)

	assert.True(t, fs.has(store.BasketItemPath(testUser, "a")))
	assert.False(t, fs.has(store.ItemPath("a")))
}

func TestMoveRoundTrip(t *testing.T) {
	fs := newFakeStore()
	item := testItem("a", "Apples")
	fs.seed(store.ItemPath("a"), item)

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	ctx := context.Background()

	require.NoError(t, sut.MoveToBasket(ctx, item))
	// Between the two completed moves the item is in exactly one collection.
	assert.True(t, fs.has(store.BasketItemPath(testUser, "a")))
	assert.False(t, fs.has(store.ItemPath("a")))

	require.NoError(t, sut.MoveToShoppingList(ctx, item))
	assert.False(t, fs.has(store.BasketItemPath(testUser, "a")))

	var restored domain.ShoppingItem
	require.True(t, fs.get(store.ItemPath("a"), &restored))
	assert.Equal(t, item, restored)
}

func TestMoveToBasket_DeleteFails_ReportsPartial(t *testing.T) {
	fs := newFakeStore()
	item := testItem("a", "Apples")
	fs.seed(store.ItemPath("a"), item)
	fs.failDeletes["items/"] = fmt.Errorf("connection reset")

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	err := sut.MoveToBasket(context.Background(), item)

	require.Error(t, err)
	assert.True(t, IsPartial(err))
	// The item is now duplicated in both collections; that is exactly what
	// the partial error tells the caller to reconcile.
	assert.True(t, fs.has(store.ItemPath("a")))
	assert.True(t, fs.has(store.BasketItemPath(testUser, "a")))
}

func TestMoveToBasket_WriteFails_NotPartial(t *testing.T) {
	fs := newFakeStore()
	item := testItem("a", "Apples")
	fs.seed(store.ItemPath("a"), item)
	fs.failWrites["users/"] = fmt.Errorf("connection reset")

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	err := sut.MoveToBasket(context.Background(), item)

	require.Error(t, err)
	assert.False(t, IsPartial(err))
	// Nothing moved; the source copy is untouched.
	assert.True(t, fs.has(store.ItemPath("a")))
	assert.False(t, fs.has(store.BasketItemPath(testUser, "a")))
}

func TestMoveToBasket_RetryAfterPartial_SkipsWriteAndDeletes(t *testing.T) {
	fs := newFakeStore()
	item := testItem("a", "Apples")
	// A half-completed move: the item already sits at the destination.
	fs.seed(store.ItemPath("a"), item)
	fs.seed(store.BasketItemPath(testUser, "a"), item)

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	err := sut.MoveToBasket(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, 0, fs.writes, "retry must not rewrite the destination")
	assert.Equal(t, 1, fs.deletes)
	assert.False(t, fs.has(store.ItemPath("a")))
}

func TestMoveToBasket_NotAuthenticated(t *testing.T) {
	fs := newFakeStore()

	sut := NewBasketService(fs, auth.Static{}, testLogger())
	err := sut.MoveToBasket(context.Background(), testItem("a", "Apples"))

	require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.Equal(t, 0, fs.writes)
}

func TestListBasket_SortedByInsertion(t *testing.T) {
	fs := newFakeStore()
	older := testItem("b", "Bread")
	older.CreatedAt = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	newer := testItem("a", "Apples")
	fs.seed(store.BasketItemPath(testUser, "a"), newer)
	fs.seed(store.BasketItemPath(testUser, "b"), older)

	sut := NewBasketService(fs, auth.Static{UserID: testUser}, testLogger())
	items, err := sut.ListBasket(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}
