package domain

import "math"

// DefaultTaxRate is the flat storefront tax rate applied to the subtotal.
const DefaultTaxRate = 0.10

// Totals captures the derived read-only cart aggregates. They are always
// recomputed from the current item snapshot; nothing caches them.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals derives subtotal, tax and total from the given line items.
// Lines with non-positive quantity or negative price contribute nothing;
// the store never holds such lines, but recomputation stays total over any
// input.
func ComputeTotals(items []LineItem, taxRate float64) Totals {
	if taxRate < 0 {
		taxRate = 0
	}
	var subtotal float64
	for _, item := range items {
		if item.Quantity <= 0 || item.Price < 0 {
			continue
		}
		subtotal += item.Price * float64(item.Quantity)
	}
	tax := subtotal * taxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// RoundDisplay rounds a monetary amount to two decimals for presentation.
// The model itself keeps full precision.
func RoundDisplay(amount float64) float64 {
	return math.Round(amount*100) / 100
}
