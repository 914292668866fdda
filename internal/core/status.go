package core

import "time"

// EffectiveStatus resolves the lifecycle state used for display and
// aggregation, as opposed to the persisted status field.
//
// Paid is sticky and wins over any date comparison. Otherwise the due date is
// compared to asOf at calendar-day granularity: strictly past due resolves to
// overdue, due today or later stays pending. The stored status is never
// rewritten; callers that need overdue baked in take a copy.
func EffectiveStatus(inv Invoice, asOf time.Time) Status {
	if inv.Status == StatusPaid {
		return StatusPaid
	}
	if inv.DueDate.Before(DateOf(asOf)) {
		return StatusOverdue
	}
	return StatusPending
}

// WithEffectiveStatus returns a copy of the invoice with its status replaced
// by the effective status. The input is not mutated.
func WithEffectiveStatus(inv Invoice, asOf time.Time) Invoice {
	out := inv.Clone()
	out.Status = EffectiveStatus(inv, asOf)
	return out
}

// ComputedView maps a collection to copies carrying effective statuses. All
// read paths (listing, filtering, aggregation) consume this view rather than
// the raw stored statuses.
func ComputedView(invoices []Invoice, asOf time.Time) []Invoice {
	out := make([]Invoice, len(invoices))
	for i, inv := range invoices {
		out[i] = WithEffectiveStatus(inv, asOf)
	}
	return out
}
