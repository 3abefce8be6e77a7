package order

import (
	"context"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Topic is the change-feed topic signalled whenever orders change.
const Topic = "orders"

// MaxQuantity is the largest quantity a single line may carry; it is the
// range of the stored column.
const MaxQuantity = math.MaxInt32

func validQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// ErrUnknownStatus is returned when parsing a status that does not exist.
var ErrUnknownStatus = errors.New("unknown order status")

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// ParseStatus converts s to a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
}

// CanTransition reports whether an order in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item is a line of an order. Menu fields are copied at order time so that
// later menu edits never rewrite history.
type Item struct {
	ID          int64
	MenuItemID  string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Quantity    int
	Notes       string
	Subtotal    decimal.Decimal
}

// Order is a customer's purchase transaction.
type Order struct {
	ID            string
	TableNumber   string
	Items         []Item
	TotalPrice    decimal.Decimal
	TaxPercentage decimal.Decimal
	TaxAmount     decimal.Decimal
	Discount      decimal.Decimal
	FinalPrice    decimal.Decimal
	Status        Status
	MemberID      *string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// Transition moves the order to next, stamping UpdatedAt and, for
// COMPLETED, CompletedAt.
func (o *Order) Transition(next Status, now time.Time) error {
	if !o.Status.CanTransition(next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	o.UpdatedAt = now
	if next == StatusCompleted {
		o.CompletedAt = &now
	}
	return nil
}

// Query selects orders for range reads and subscriptions. Zero values mean
// "no constraint".
type Query struct {
	Statuses []Status
	From     time.Time
	To       time.Time
	MemberID string
	Limit    int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order and its items, and when MemberID is set adds
	// FinalPrice to the member's total spent and one to its order count.
	// All of it commits in a single transaction or not at all.
	Create(ctx context.Context, o *Order) error
	// Get returns ErrOrderNotFound when id does not resolve.
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, q Query) ([]Order, error)
	// Update locks the order row, calls fn on the current state and writes
	// back status, updated_at and completed_at when fn returns nil.
	Update(ctx context.Context, id string, fn func(o *Order) error) (*Order, error)
}
