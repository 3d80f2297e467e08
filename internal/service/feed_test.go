package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycole768/RoommateShopping/internal/store"
)

func latest[T any](t *testing.T, ch <-chan []T, want int) []T {
	t.Helper()
	var snapshot []T
	require.Eventually(t, func() bool {
		for {
			select {
			case s, ok := <-ch:
				if !ok {
					return len(snapshot) == want
				}
				snapshot = s
			default:
				return len(snapshot) == want
			}
		}
	}, time.Second, 10*time.Millisecond, "never saw a snapshot with %d entries", want)
	return snapshot
}

func TestWatchShoppingList_FullReplaceSnapshots(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sut := NewFeed(ms, testLogger())
	ch, err := sut.WatchShoppingList(ctx)
	require.NoError(t, err)

	// Initial snapshot is empty.
	assert.Empty(t, latest(t, ch, 0))

	item := testItem("a", "Apples")
	require.NoError(t, ms.Write(ctx, store.ItemPath("a"), item))
	items := latest(t, ch, 1)
	assert.Equal(t, "a", items[0].ID)

	// A purchased item drops out of the open list.
	bought := purchasedItem("a", "Apples")
	require.NoError(t, ms.Write(ctx, store.ItemPath("a"), bought))
	assert.Empty(t, latest(t, ch, 0))
}

func TestWatchBasket_ScopedToUser(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sut := NewFeed(ms, testLogger())
	ch, err := sut.WatchBasket(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, latest(t, ch, 0))

	require.NoError(t, ms.Write(ctx, store.BasketItemPath(testUser, "a"), testItem("a", "Apples")))
	require.NoError(t, ms.Write(ctx, store.BasketItemPath("someone-else", "b"), testItem("b", "Bread")))

	items := latest(t, ch, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestWatchPurchases_NewestFirst(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	older := testPurchase([]string{"a"}, []string{"Apples"}, "2.14")
	older.ID = "p-old"
	newer := testPurchase([]string{"b"}, []string{"Bread"}, "5.35")
	newer.ID = "p-new"
	newer.PurchaseDate = older.PurchaseDate.Add(time.Hour)

	require.NoError(t, ms.Write(ctx, store.PurchasePath(older.ID), older))
	require.NoError(t, ms.Write(ctx, store.PurchasePath(newer.ID), newer))

	sut := NewFeed(ms, testLogger())
	ch, err := sut.WatchPurchases(ctx)
	require.NoError(t, err)

	purchases := latest(t, ch, 2)
	assert.Equal(t, "p-new", purchases[0].ID)
	assert.Equal(t, "p-old", purchases[1].ID)
}

func TestPurchasesSnapshot(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	p := testPurchase([]string{"a"}, []string{"Apples"}, "2.14")
	require.NoError(t, ms.Write(ctx, store.PurchasePath(p.ID), p))

	sut := NewFeed(ms, testLogger())
	purchases, err := sut.Purchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, p.ID, purchases[0].ID)

	got, err := sut.GetPurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.ItemIDs)

	_, err = sut.GetPurchase(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
