// Package member describes loyalty-program customers.
package member

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Topic is the change-feed topic signalled whenever members change.
const Topic = "members"

var (
	// ErrNotFound is returned when a requested member does not exist.
	ErrNotFound = errors.New("member not found")
	// ErrInvalidDiscount is returned when a discount tier is outside [0, 100].
	ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100")
	// ErrInvalidMember is returned when a member misses its name.
	ErrInvalidMember = errors.New("member requires a name")
)

var hundred = decimal.NewFromInt(100)

// Member is a loyalty customer. TotalSpent and TotalOrders are only ever
// changed by order submission, in the same transaction as the order itself.
type Member struct {
	ID                 string
	Name               string
	Phone              string
	Email              *string
	JoinDate           time.Time
	TotalSpent         decimal.Decimal
	TotalOrders        int
	DiscountPercentage decimal.Decimal
}

// Validate checks the fields settable at creation time.
func (m Member) Validate() error {
	if m.Name == "" {
		return ErrInvalidMember
	}
	if m.DiscountPercentage.IsNegative() || m.DiscountPercentage.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}

// Repository defines persistence operations for members. There is no method
// to change statistics: the order store updates them inside its transaction.
type Repository interface {
	List(ctx context.Context) ([]Member, error)
	GetByID(ctx context.Context, id string) (*Member, error)
	Create(ctx context.Context, m *Member) error
}
