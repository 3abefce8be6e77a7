package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/order"
)

const (
	orderColumns = `order_id, table_number, total_price, tax_percentage, tax_amount, discount,
		final_price, status, customer_id, created_by, created_at, updated_at, completed_at`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	lockOrderSQL = getOrderSQL + ` FOR UPDATE`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3, completed_at = $4
		WHERE order_id = $1`

	listOrderItemsSQL = `SELECT id, order_id, menu_item_id, name, description, price, category,
		image_url, quantity, notes, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`
)

var orderItemColumns = []string{
	"order_id", "menu_item_id", "name", "description", "price",
	"category", "image_url", "quantity", "notes", "subtotal",
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items and the member statistics in one
// transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.TableNumber, o.TotalPrice, o.TaxPercentage, o.TaxAmount, o.Discount,
			o.FinalPrice, string(o.Status), o.MemberID, o.CreatedBy, o.CreatedAt, o.UpdatedAt, o.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting order %q: %w", o.ID, err)
		}

		rows := make([][]any, len(o.Items))
		for i, it := range o.Items {
			rows[i] = []any{
				o.ID, it.MenuItemID, it.Name, it.Description, it.Price,
				it.Category, it.ImageURL, int32(it.Quantity), it.Notes, it.Subtotal,
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderItemColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("inserting items of order %q: %w", o.ID, err)
		}

		if o.MemberID == nil {
			return nil
		}
		tag, err := tx.Exec(ctx, applyMemberOrderSQL, *o.MemberID, o.FinalPrice)
		if err != nil {
			return fmt.Errorf("updating member %q statistics: %w", *o.MemberID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("member %q: %w", *o.MemberID, member.ErrNotFound)
		}
		return nil
	})
}

// Get returns an order with its items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, r.pool, getOrderSQL, id)
}

// List returns orders matching q, newest first, with their items.
func (r *OrderRepository) List(ctx context.Context, q order.Query) ([]order.Order, error) {
	b := psql.Select(orderColumns).From("orders").OrderBy("created_at DESC", "order_id")
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if !q.From.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": q.From})
	}
	if !q.To.IsZero() {
		b = b.Where(sq.Lt{"created_at": q.To})
	}
	if q.MemberID != "" {
		b = b.Where(sq.Eq{"customer_id": q.MemberID})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building orders query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Update locks the order row for the duration of fn and persists the new
// status when fn succeeds.
func (r *OrderRepository) Update(ctx context.Context, id string, fn func(o *order.Order) error) (*order.Order, error) {
	var updated *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := getOrder(ctx, tx, lockOrderSQL, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, updateOrderStatusSQL, o.ID, string(o.Status), o.UpdatedAt, o.CompletedAt); err != nil {
			return fmt.Errorf("updating order %q: %w", id, err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getOrder(ctx context.Context, q querier, query, id string) (*order.Order, error) {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachItems loads the items of all given orders in a single query.
func attachItems(ctx context.Context, q querier, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := q.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	var (
		orderID string
		item    order.Item
		qty     int32
	)
	_, err = pgx.ForEachRow(rows, []any{
		&item.ID, &orderID, &item.MenuItemID, &item.Name, &item.Description, &item.Price,
		&item.Category, &item.ImageURL, &qty, &item.Notes, &item.Subtotal,
	}, func() error {
		item.Quantity = int(qty)
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning order items: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.TableNumber, &o.TotalPrice, &o.TaxPercentage, &o.TaxAmount, &o.Discount,
		&o.FinalPrice, &status, &o.MemberID, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
