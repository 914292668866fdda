package core

// Totals is the pair of derived money fields on an invoice.
type Totals struct {
	Subtotal float64
	Total    float64
}

// ComputeTotals derives subtotal and total from the line items and the
// tax/discount percentages. This is the single source of truth for invoice
// arithmetic; no other package re-derives these numbers.
//
// No rounding happens here. Currency formatting to two decimals is a display
// concern and is never written back to storage. Negative percentages are
// accepted as given; whether those model credits or are a form bug is a
// product decision, not enforced here.
func ComputeTotals(items []LineItem, taxPercent, discountPercent float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPrice
	}
	return Totals{
		Subtotal: subtotal,
		Total:    subtotal + subtotal*taxPercent/100 - subtotal*discountPercent/100,
	}
}
