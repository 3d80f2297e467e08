package service

import (
	"errors"
	"fmt"
)

// Validation errors are rejected before any write reaches the store; the
// operation has no side effects and may be retried freely.
var (
	ErrEmptyBasket    = errors.New("basket is empty, nothing to check out")
	ErrEmptySelection = errors.New("no items selected for return")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
)

// PartialError reports a multi-step operation that failed after at least one
// write succeeded. The collections are now inconsistent (for example an item
// present in both the shopping list and a basket); the caller should reload
// and reconcile rather than retry blindly.
type PartialError struct {
	Op   string // operation that failed, e.g. "move item to basket"
	Step string // step that failed, e.g. "remove item from shopping list"
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: %s failed after earlier writes succeeded: %v", e.Op, e.Step, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// IsPartial reports whether err carries a PartialError anywhere in its chain.
func IsPartial(err error) bool {
	var pe *PartialError
	return errors.As(err, &pe)
}
