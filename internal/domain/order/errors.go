package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order validation.
var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrNegativePrice     = errors.New("unit price must not be negative")
)

// InvalidQuantityError indicates a line item has a quantity below one or
// above MaxQuantity.
type InvalidQuantityError struct {
	MenuItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for menu item %s", MaxQuantity, e.MenuItemID)
}

// MenuItemNotFoundError indicates an order references a missing menu item.
type MenuItemNotFoundError struct {
	MenuItemID string
}

func (e *MenuItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.MenuItemID)
}

// UnavailableItemError indicates an order references a menu item that is
// currently switched off.
type UnavailableItemError struct {
	MenuItemID string
}

func (e *UnavailableItemError) Error() string {
	return fmt.Sprintf("menu item %s is not available", e.MenuItemID)
}

// InvalidTransitionError indicates a status change the lifecycle forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// PersistenceError wraps a store failure unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
