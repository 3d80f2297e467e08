package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShoppingItem is a single household shopping entry. While unpurchased it
// lives in exactly one of the shopping list or a user's basket; once
// purchased it is referenced by exactly one Purchase.
type ShoppingItem struct {
	ID          string          `json:"id" bson:"id"`
	Name        string          `json:"name" bson:"name"`
	Quantity    int             `json:"quantity" bson:"quantity"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Purchased   bool            `json:"purchased" bson:"purchased"`
	PurchasedBy string          `json:"purchased_by,omitempty" bson:"purchased_by,omitempty"`
	PurchasedAt *time.Time      `json:"purchased_at,omitempty" bson:"purchased_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

// Subtotal is the line cost of the item, price times quantity.
func (i ShoppingItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Purchase records one completed checkout. ItemIDs and ItemNames are
// parallel lists; ItemIDs holds no duplicates and is never empty for a
// persisted record (a purchase that loses its last item is deleted).
//
// TotalAmount reflects the original group cost at checkout time. It is not
// recomputed when items are returned; only an explicit price edit changes it.
type Purchase struct {
	ID           string          `json:"id" bson:"id"`
	ItemIDs      []string        `json:"item_ids" bson:"item_ids"`
	ItemNames    []string        `json:"item_names" bson:"item_names"`
	TotalAmount  decimal.Decimal `json:"total_amount" bson:"total_amount"`
	PurchasedBy  string          `json:"purchased_by" bson:"purchased_by"`
	PurchaseDate time.Time       `json:"purchase_date" bson:"purchase_date"`
}

// Contains reports whether the purchase references the given item id.
func (p Purchase) Contains(itemID string) bool {
	for _, id := range p.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}
