package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/order"
	"github.com/xenking/kasir/internal/domain/report"
)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository over the orders tables.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// completedIn restricts o.* rows to orders completed within p.
func completedIn(p report.Period) sq.And {
	cond := sq.And{sq.Eq{"o.status": string(order.StatusCompleted)}}
	if !p.From.IsZero() {
		cond = append(cond, sq.GtOrEq{"o.completed_at": p.From})
	}
	if !p.To.IsZero() {
		cond = append(cond, sq.Lt{"o.completed_at": p.To})
	}
	return cond
}

// Sales sums the monetary columns of completed orders.
func (r *ReportRepository) Sales(ctx context.Context, p report.Period) (report.SalesSummary, error) {
	query, args, err := psql.Select(
		"COUNT(*)",
		"COALESCE(SUM(o.total_price), 0)",
		"COALESCE(SUM(o.tax_amount), 0)",
		"COALESCE(SUM(o.discount), 0)",
		"COALESCE(SUM(o.final_price), 0)",
	).From("orders o").Where(completedIn(p)).ToSql()
	if err != nil {
		return report.SalesSummary{}, fmt.Errorf("building sales query: %w", err)
	}

	var (
		s      report.SalesSummary
		orders int64
	)
	err = r.pool.QueryRow(ctx, query, args...).Scan(&orders, &s.Gross, &s.Tax, &s.Discount, &s.Net)
	if err != nil {
		return report.SalesSummary{}, fmt.Errorf("querying sales: %w", err)
	}
	s.Orders = int(orders)
	return s, nil
}

// Daily groups completed orders by UTC calendar day.
func (r *ReportRepository) Daily(ctx context.Context, p report.Period) ([]report.DailySales, error) {
	query, args, err := psql.Select(
		"date_trunc('day', o.completed_at AT TIME ZONE 'UTC') AS day",
		"COUNT(*)",
		"SUM(o.final_price)",
	).From("orders o").Where(completedIn(p)).GroupBy("day").OrderBy("day").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building daily sales query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying daily sales: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.DailySales, error) {
		var (
			d      report.DailySales
			orders int64
		)
		err := row.Scan(&d.Date, &orders, &d.Net)
		d.Orders = int(orders)
		return d, err
	})
}

// TopItems ranks menu items by quantity sold, then by identifier.
func (r *ReportRepository) TopItems(ctx context.Context, p report.Period, limit int) ([]report.ItemSales, error) {
	query, args, err := psql.Select(
		"oi.menu_item_id",
		"MIN(oi.name)",
		"SUM(oi.quantity) AS qty",
		"SUM(oi.subtotal)",
	).From("order_items oi").
		Join("orders o ON o.order_id = oi.order_id").
		Where(completedIn(p)).
		GroupBy("oi.menu_item_id").
		OrderBy("qty DESC", "oi.menu_item_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building top items query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.ItemSales, error) {
		var (
			it  report.ItemSales
			qty int64
		)
		err := row.Scan(&it.MenuItemID, &it.Name, &qty, &it.Revenue)
		it.Quantity = int(qty)
		return it, err
	})
}
