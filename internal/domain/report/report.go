// Package report aggregates completed orders for the back office.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultTopItems is the number of rows TopItems returns when no limit is given.
const DefaultTopItems = 10

// ErrInvalidRange is returned when a report period ends before it starts.
var ErrInvalidRange = errors.New("report period must end after it starts")

// Period is a half-open interval [From, To) over order completion time.
// A zero bound leaves that side open.
type Period struct {
	From time.Time
	To   time.Time
}

// Validate rejects periods whose end does not follow the start.
func (p Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && !p.To.After(p.From) {
		return ErrInvalidRange
	}
	return nil
}

// SalesSummary totals all completed orders in a period.
type SalesSummary struct {
	Period   Period
	Orders   int
	Gross    decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
}

// DailySales is one day of completed orders, bucketed in UTC.
type DailySales struct {
	Date   time.Time
	Orders int
	Net    decimal.Decimal
}

// ItemSales is the quantity and revenue sold for one menu item.
type ItemSales struct {
	MenuItemID string
	Name       string
	Quantity   int
	Revenue    decimal.Decimal
}

// Repository computes aggregates over COMPLETED orders.
type Repository interface {
	Sales(ctx context.Context, p Period) (SalesSummary, error)
	Daily(ctx context.Context, p Period) ([]DailySales, error)
	TopItems(ctx context.Context, p Period, limit int) ([]ItemSales, error)
}

// Service validates report requests before delegating to the Repository.
type Service struct {
	repo Repository
}

// NewService creates a report Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sales returns the totals of the period.
func (s *Service) Sales(ctx context.Context, p Period) (SalesSummary, error) {
	if err := p.Validate(); err != nil {
		return SalesSummary{}, err
	}
	summary, err := s.repo.Sales(ctx, p)
	if err != nil {
		return SalesSummary{}, errors.Wrap(err, "sales report")
	}
	summary.Period = p
	return summary, nil
}

// Daily returns one row per day with at least one completed order.
func (s *Service) Daily(ctx context.Context, p Period) ([]DailySales, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	days, err := s.repo.Daily(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "daily report")
	}
	return days, nil
}

// TopItems returns the best selling items by quantity. A non-positive limit
// falls back to DefaultTopItems.
func (s *Service) TopItems(ctx context.Context, p Period, limit int) ([]ItemSales, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopItems
	}
	items, err := s.repo.TopItems(ctx, p, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top items report")
	}
	return items, nil
}
