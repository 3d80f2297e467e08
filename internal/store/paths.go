package store

import (
	"strings"

	"github.com/google/uuid"
)

// Path layout mirrors the backing database: the open shopping list lives
// under items/, each user's basket under users/{uid}/basket/, and the
// purchase ledger under purchases/.
const (
	itemsRoot     = "items"
	usersRoot     = "users"
	basketSegment = "basket"
	purchasesRoot = "purchases"
)

// NewID returns a fresh identifier. Ids are assigned once and never reused.
func NewID() string {
	return uuid.New().String()
}

// ItemPath addresses a shopping-list item record.
func ItemPath(itemID string) string {
	return itemsRoot + "/" + itemID
}

// ItemsPrefix addresses the whole shopping list.
func ItemsPrefix() string {
	return itemsRoot
}

// BasketItemPath addresses an item staged in a user's basket.
func BasketItemPath(userID, itemID string) string {
	return strings.Join([]string{usersRoot, userID, basketSegment, itemID}, "/")
}

// BasketPrefix addresses a user's whole basket.
func BasketPrefix(userID string) string {
	return strings.Join([]string{usersRoot, userID, basketSegment}, "/")
}

// PurchasePath addresses one purchase record.
func PurchasePath(purchaseID string) string {
	return purchasesRoot + "/" + purchaseID
}

// PurchasesPrefix addresses the whole purchase ledger.
func PurchasesPrefix() string {
	return purchasesRoot
}

// LastSegment returns the trailing path segment, the record id.
func LastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// rootOf returns the first path segment, used to scope change fan-out.
func rootOf(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
