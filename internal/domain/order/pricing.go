package order

import "github.com/shopspring/decimal"

// moneyPlaces is the minor-unit precision of the currency.
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Totals holds the derived amounts of an order.
type Totals struct {
	Total    decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// ComputeTotals derives the order amounts from its items. The total is the
// exact sum of price × quantity; tax and discount are rounded half-up to the
// currency precision once, on the total. The final price never drops below
// zero.
func ComputeTotals(items []Item, taxPercentage, discountPercentage decimal.Decimal) (Totals, error) {
	if !validPercentage(taxPercentage) || !validPercentage(discountPercentage) {
		return Totals{}, ErrInvalidPercentage
	}

	total := decimal.Zero
	for _, item := range items {
		if !validQuantity(item.Quantity) {
			return Totals{}, &InvalidQuantityError{MenuItemID: item.MenuItemID}
		}
		if item.Price.IsNegative() {
			return Totals{}, ErrNegativePrice
		}
		total = total.Add(lineSubtotal(item.Price, item.Quantity))
	}

	tax := percentOf(total, taxPercentage)
	discount := percentOf(total, discountPercentage)

	final := total.Add(tax).Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return Totals{
		Total:    total,
		Tax:      tax,
		Discount: discount,
		Final:    final,
	}, nil
}

func lineSubtotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// percentOf rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(pct).Div(hundred).Round(moneyPlaces)
}

func validPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && !p.GreaterThan(hundred)
}
