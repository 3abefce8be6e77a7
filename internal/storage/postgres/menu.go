package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/menu"
)

const (
	menuColumns = `item_id, name, description, price, category, image_url, is_available, preparation_time`

	getMenuItemByIDSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE item_id = $1`

	getMenuItemsByIDsSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE item_id = ANY($1)`

	upsertMenuItemSQL = `INSERT INTO menu_items (` + menuColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (item_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			is_available = EXCLUDED.is_available,
			preparation_time = EXCLUDED.preparation_time`

	setMenuItemAvailabilitySQL = `UPDATE menu_items SET is_available = $2 WHERE item_id = $1`

	setMenuItemPriceSQL = `UPDATE menu_items SET price = $2 WHERE item_id = $1`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the menu ordered by category and name.
func (r *MenuRepository) List(ctx context.Context, f menu.Filter) ([]menu.Item, error) {
	b := psql.Select(menuColumns).From("menu_items").OrderBy("category", "name", "item_id")
	if f.OnlyAvailable {
		b = b.Where("is_available")
	}
	if f.Category != "" {
		b = b.Where("category = ?", f.Category)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building menu query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item by its identifier.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &item, nil
}

// GetByIDs returns menu items matching any of the given IDs.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Upsert inserts the item or replaces every field of an existing one.
func (r *MenuRepository) Upsert(ctx context.Context, item menu.Item) error {
	_, err := r.pool.Exec(ctx, upsertMenuItemSQL,
		item.ID, item.Name, item.Description, item.Price,
		item.Category, item.ImageURL, item.Available, item.PreparationTime,
	)
	if err != nil {
		return fmt.Errorf("upserting menu item %q: %w", item.ID, err)
	}
	return nil
}

// SetAvailability toggles whether the item can be ordered.
func (r *MenuRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	tag, err := r.pool.Exec(ctx, setMenuItemAvailabilitySQL, id, available)
	if err != nil {
		return fmt.Errorf("setting availability of menu item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

// SetPrice changes the price used for future orders.
func (r *MenuRepository) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, setMenuItemPriceSQL, id, price)
	if err != nil {
		return fmt.Errorf("setting price of menu item %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		item     menu.Item
		prepTime int32
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Category, &item.ImageURL, &item.Available, &prepTime,
	)
	item.PreparationTime = int(prepTime)
	return item, err
}
