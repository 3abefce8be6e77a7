package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/member"
)

const (
	memberColumns = `member_id, name, phone, email, join_date, total_spent, total_orders, discount_percentage`

	listMembersSQL = `SELECT ` + memberColumns + ` FROM members ORDER BY name, member_id`

	getMemberByIDSQL = `SELECT ` + memberColumns + ` FROM members WHERE member_id = $1`

	createMemberSQL = `INSERT INTO members (member_id, name, phone, email, join_date, discount_percentage)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Applied by OrderRepository.Create inside the order transaction.
	applyMemberOrderSQL = `UPDATE members
		SET total_spent = total_spent + $2, total_orders = total_orders + 1
		WHERE member_id = $1`
)

var _ member.Repository = (*MemberRepository)(nil)

// MemberRepository implements member.Repository backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// List returns all members ordered by name.
func (r *MemberRepository) List(ctx context.Context) ([]member.Member, error) {
	rows, err := r.pool.Query(ctx, listMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return pgx.CollectRows(rows, scanMember)
}

// GetByID returns a single member by its identifier.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	rows, err := r.pool.Query(ctx, getMemberByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting member %q: %w", id, err)
	}

	m, err := pgx.CollectExactlyOneRow(rows, scanMember)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, fmt.Errorf("getting member %q: %w", id, err)
	}
	return &m, nil
}

// Create inserts a new member with zeroed statistics.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	_, err := r.pool.Exec(ctx, createMemberSQL,
		m.ID, m.Name, m.Phone, m.Email, m.JoinDate, m.DiscountPercentage,
	)
	if err != nil {
		return fmt.Errorf("creating member %q: %w", m.ID, err)
	}
	return nil
}

func scanMember(row pgx.CollectableRow) (member.Member, error) {
	var (
		m           member.Member
		totalOrders int32
	)
	err := row.Scan(
		&m.ID, &m.Name, &m.Phone, &m.Email, &m.JoinDate,
		&m.TotalSpent, &totalOrders, &m.DiscountPercentage,
	)
	m.TotalOrders = int(totalOrders)
	return m, err
}
