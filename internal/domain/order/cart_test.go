package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart(t *testing.T) {
	c := NewCart("7")

	require.NoError(t, c.Add("coffee", 1, ""))
	require.NoError(t, c.Add("coffee", 2, ""))
	require.NoError(t, c.Add("coffee", 1, "no sugar"))
	require.NoError(t, c.Add("cake", 1, ""))

	assert.Equal(t, []Line{
		{MenuItemID: "coffee", Quantity: 3},
		{MenuItemID: "coffee", Quantity: 1, Notes: "no sugar"},
		{MenuItemID: "cake", Quantity: 1},
	}, c.Lines())

	assert.True(t, c.SetQuantity("cake", "", 4))
	assert.True(t, c.Remove("coffee", "no sugar"))
	assert.False(t, c.Remove("tea", ""))
	assert.Equal(t, 2, c.Len())

	assert.True(t, c.SetQuantity("coffee", "", 0))
	assert.Equal(t, []Line{{MenuItemID: "cake", Quantity: 4}}, c.Lines())
}

func TestCart_AddRejectsNonPositive(t *testing.T) {
	c := NewCart("1")

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, c.Add("coffee", 0, ""), &iqErr)
	assert.Equal(t, "coffee", iqErr.MenuItemID)
	assert.Equal(t, 0, c.Len())
}

func TestCart_AddRejectsOutOfRange(t *testing.T) {
	c := NewCart("1")

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, c.Add("coffee", MaxQuantity+1, ""), &iqErr)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Add("coffee", MaxQuantity, ""))
	require.ErrorAs(t, c.Add("coffee", 1, ""), &iqErr)
	assert.Equal(t, []Line{{MenuItemID: "coffee", Quantity: MaxQuantity}}, c.Lines())
}

func TestCart_Request(t *testing.T) {
	c := NewCart("12")
	c.MemberID = "m1"
	require.NoError(t, c.Add("coffee", 2, ""))

	req := c.Request("cashier-1", true)
	assert.Equal(t, "12", req.TableNumber)
	assert.Equal(t, "m1", req.MemberID)
	assert.Equal(t, "cashier-1", req.CreatedBy)
	assert.True(t, req.PayNow)
	assert.Equal(t, []Line{{MenuItemID: "coffee", Quantity: 2}}, req.Items)

	// The request must not alias cart storage.
	req.Items[0].Quantity = 99
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}
