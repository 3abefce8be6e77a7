package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Topic is the change-feed topic signalled whenever menu items change.
const Topic = "menu_items"

var (
	// ErrNotFound is returned when a requested menu item does not exist.
	ErrNotFound = errors.New("menu item not found")
	// ErrNegativePrice is returned when a price below zero is supplied.
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrInvalidItem is returned when a menu item misses its id or name.
	ErrInvalidItem = errors.New("menu item requires id and name")
)

// Item is a sellable menu entry. Only Available and Price change after
// creation, and only through administrative actions.
type Item struct {
	ID              string
	Name            string
	Description     string
	Price           decimal.Decimal
	Category        string
	ImageURL        string
	Available       bool
	PreparationTime int // minutes
}

// Validate checks the invariants every stored menu item must satisfy.
func (i Item) Validate() error {
	if i.ID == "" || i.Name == "" {
		return ErrInvalidItem
	}
	if i.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	OnlyAvailable bool
	Category      string
}

// Repository defines persistence operations for the menu.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
	Upsert(ctx context.Context, item Item) error
	SetAvailability(ctx context.Context, id string, available bool) error
	SetPrice(ctx context.Context, id string, price decimal.Decimal) error
}
