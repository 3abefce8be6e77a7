package auth

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrUnknownRole is returned when a stored role is not one of the known roles.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUserNotFound is returned when no active user holds the key hash.
	ErrUserNotFound = errors.New("user not found")
)

// Role is the job a user performs at the counter.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
	RoleKitchen Role = "KITCHEN"
)

// ParseRole converts a stored role string to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleCashier, RoleKitchen:
		return r, nil
	default:
		return "", errors.Wrapf(ErrUnknownRole, "%q", s)
	}
}

// Permission is a single guarded action.
type Permission int

const (
	PermReadMenu Permission = iota
	PermManageMenu
	PermReadMembers
	PermManageMembers
	PermSubmitOrder
	PermReadOrders
	PermUpdateOrderStatus
	PermReadReports
)

// Allows reports whether the role grants p. Unknown roles are denied.
func (r Role) Allows(p Permission) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleCashier:
		switch p {
		case PermReadMenu, PermReadMembers, PermManageMembers,
			PermSubmitOrder, PermReadOrders, PermUpdateOrderStatus:
			return true
		default:
			return false
		}
	case RoleKitchen:
		switch p {
		case PermReadMenu, PermReadOrders, PermUpdateOrderStatus:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// User is an authenticated operator of the point of sale.
type User struct {
	ID      string
	Name    string
	Role    Role
	KeyHash string
}

// Repository provides lookup of users by the HMAC hash of their API key.
// FindByKeyHash returns ErrUserNotFound for unknown or inactive keys.
type Repository interface {
	FindByKeyHash(ctx context.Context, hash string) (*User, error)
}

type userKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
