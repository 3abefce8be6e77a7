package order

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals_Scenarios(t *testing.T) {
	items := []Item{
		{MenuItemID: "a", Price: money("10.00"), Quantity: 2},
		{MenuItemID: "b", Price: money("5.50"), Quantity: 1},
	}

	tests := []struct {
		name         string
		tax          string
		discount     string
		wantTotal    string
		wantTax      string
		wantDiscount string
		wantFinal    string
	}{
		{
			name:         "no discount",
			tax:          "10",
			discount:     "0",
			wantTotal:    "25.50",
			wantTax:      "2.55",
			wantDiscount: "0",
			wantFinal:    "28.05",
		},
		{
			name:         "member discount rounds half up",
			tax:          "10",
			discount:     "5",
			wantTotal:    "25.50",
			wantTax:      "2.55",
			wantDiscount: "1.28",
			wantFinal:    "26.77",
		},
		{
			name:         "no tax",
			tax:          "0",
			discount:     "0",
			wantTotal:    "25.50",
			wantTax:      "0",
			wantDiscount: "0",
			wantFinal:    "25.50",
		},
		{
			name:         "full discount keeps tax",
			tax:          "10",
			discount:     "100",
			wantTotal:    "25.50",
			wantTax:      "2.55",
			wantDiscount: "25.50",
			wantFinal:    "2.55",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(items, money(tt.tax), money(tt.discount))
			require.NoError(t, err)

			assert.True(t, money(tt.wantTotal).Equal(got.Total), "total %s", got.Total)
			assert.True(t, money(tt.wantTax).Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, money(tt.wantDiscount).Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, money(tt.wantFinal).Equal(got.Final), "final %s", got.Final)
		})
	}
}

func TestComputeTotals_ExactSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		n := 1 + rng.IntN(20)
		items := make([]Item, n)
		var wantCents int64
		for i := range items {
			cents := rng.Int64N(100_000)
			if rng.IntN(5) == 0 {
				cents = 0
			}
			qty := 1 + rng.IntN(10_000)
			items[i] = Item{Price: decimal.New(cents, -2), Quantity: qty}
			wantCents += cents * int64(qty)
		}

		got, err := ComputeTotals(items, DefaultTaxPercentage, decimal.Zero)
		require.NoError(t, err)
		require.True(t, decimal.New(wantCents, -2).Equal(got.Total),
			"want %d cents, got %s", wantCents, got.Total)
	}
}

func TestComputeTotals_FinalNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for range 500 {
		items := []Item{{Price: decimal.New(rng.Int64N(10_000), -2), Quantity: 1 + rng.IntN(50)}}
		tax := decimal.New(rng.Int64N(10_001), -2)
		discount := decimal.New(rng.Int64N(10_001), -2)

		got, err := ComputeTotals(items, tax, discount)
		require.NoError(t, err)
		require.False(t, got.Final.IsNegative(), "final %s", got.Final)
	}
}

func TestComputeTotals_Validation(t *testing.T) {
	ok := []Item{{MenuItemID: "a", Price: money("1.00"), Quantity: 1}}

	_, err := ComputeTotals(ok, money("-1"), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidPercentage)

	_, err = ComputeTotals(ok, DefaultTaxPercentage, money("100.01"))
	require.ErrorIs(t, err, ErrInvalidPercentage)

	_, err = ComputeTotals([]Item{{MenuItemID: "a", Price: money("-0.01"), Quantity: 1}}, DefaultTaxPercentage, decimal.Zero)
	require.ErrorIs(t, err, ErrNegativePrice)

	_, err = ComputeTotals([]Item{{MenuItemID: "z", Price: money("1"), Quantity: 0}}, DefaultTaxPercentage, decimal.Zero)
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "z", iqErr.MenuItemID)

	_, err = ComputeTotals([]Item{{MenuItemID: "big", Price: money("1"), Quantity: MaxQuantity + 1}}, DefaultTaxPercentage, decimal.Zero)
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "big", iqErr.MenuItemID)
}

func TestComputeTotals_Deterministic(t *testing.T) {
	items := []Item{{Price: money("3.33"), Quantity: 3}}

	first, err := ComputeTotals(items, money("11"), money("7"))
	require.NoError(t, err)
	second, err := ComputeTotals(items, money("11"), money("7"))
	require.NoError(t, err)

	assert.True(t, first.Final.Equal(second.Final))
	assert.True(t, first.Tax.Equal(second.Tax))
}
