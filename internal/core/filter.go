package core

import (
	"strings"
	"time"
)

// StatusAll is the filter value matching every effective status.
const StatusAll = "all"

// Filters narrows a listing. The zero value of each dimension is a
// pass-through: empty or "all" status, zero dates, blank search.
type Filters struct {
	Status   string `json:"status"`
	DateFrom Date   `json:"dateFrom"`
	DateTo   Date   `json:"dateTo"`
	Search   string `json:"search"`
}

// IsZero reports whether every dimension passes everything through.
func (f Filters) IsZero() bool {
	return (f.Status == "" || f.Status == StatusAll) &&
		f.DateFrom.IsZero() && f.DateTo.IsZero() &&
		strings.TrimSpace(f.Search) == ""
}

// ApplyFilters returns the invoices matching every set dimension of f,
// with statuses resolved as of the given instant. Dimensions are conjunctive
// and the input's relative order is preserved. An empty result is a valid
// outcome, not an error.
//
// Status matching is against the effective status, so an unpaid invoice past
// its due date is found under "overdue" even though it is stored as pending.
// The search matches the client name case-insensitively as a substring.
func ApplyFilters(invoices []Invoice, f Filters, asOf time.Time) []Invoice {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	byStatus := f.Status != "" && f.Status != StatusAll

	result := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		view := WithEffectiveStatus(inv, asOf)
		if byStatus && string(view.Status) != f.Status {
			continue
		}
		if !f.DateFrom.IsZero() && view.IssueDate.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && f.DateTo.Before(view.IssueDate) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(view.ClientName), search) {
			continue
		}
		result = append(result, view)
	}
	return result
}
