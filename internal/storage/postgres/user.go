package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/auth"
)

const (
	findUserByKeyHashSQL = `SELECT user_id, name, role, key_hash
		FROM users WHERE key_hash = $1 AND active = TRUE`

	upsertUserSQL = `INSERT INTO users (user_id, name, role, key_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name, role = EXCLUDED.role, key_hash = EXCLUDED.key_hash, active = TRUE`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository provides staff lookups backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByKeyHash looks up an active user by the HMAC-SHA256 hash of their API key.
func (r *UserRepository) FindByKeyHash(ctx context.Context, hash string) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := r.pool.QueryRow(ctx, findUserByKeyHashSQL, hash).Scan(&u.ID, &u.Name, &role, &u.KeyHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user by key hash: %w", err)
	}
	if u.Role, err = auth.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %q: %w", u.ID, err)
	}
	return &u, nil
}

// Upsert creates or replaces a user and re-activates it.
func (r *UserRepository) Upsert(ctx context.Context, u auth.User) error {
	if _, err := r.pool.Exec(ctx, upsertUserSQL, u.ID, u.Name, string(u.Role), u.KeyHash); err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}
