package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Allows(t *testing.T) {
	all := []Permission{
		PermReadMenu, PermManageMenu, PermReadMembers, PermManageMembers,
		PermSubmitOrder, PermReadOrders, PermUpdateOrderStatus, PermReadReports,
	}

	tests := []struct {
		role    Role
		allowed []Permission
	}{
		{role: RoleAdmin, allowed: all},
		{
			role: RoleCashier,
			allowed: []Permission{
				PermReadMenu, PermReadMembers, PermManageMembers,
				PermSubmitOrder, PermReadOrders, PermUpdateOrderStatus,
			},
		},
		{
			role:    RoleKitchen,
			allowed: []Permission{PermReadMenu, PermReadOrders, PermUpdateOrderStatus},
		},
		{role: Role("GUEST")},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			granted := make(map[Permission]bool, len(tt.allowed))
			for _, p := range tt.allowed {
				granted[p] = true
			}
			for _, p := range all {
				assert.Equal(t, granted[p], tt.role.Allows(p), "permission %d", p)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("CASHIER")
	require.NoError(t, err)
	assert.Equal(t, RoleCashier, r)

	_, err = ParseRole("cashier")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))

	u := &User{ID: "u1", Role: RoleKitchen}
	ctx := WithUser(context.Background(), u)
	assert.Same(t, u, UserFromContext(ctx))
}
