package core

import (
	"math"
	"time"
)

// Chart colors for the status distribution, one per lifecycle state.
const (
	colorPaid    = "#10b981"
	colorPending = "#f59e0b"
	colorOverdue = "#ef4444"
)

// monthlyWindow is how many calendar months the revenue series covers,
// ending at the current month inclusive.
const monthlyWindow = 6

type (
	// MonthlyRevenue is one bucket of the revenue series, keyed by short
	// month plus two-digit year ("Jan 25").
	MonthlyRevenue struct {
		Month   string  `json:"month"`
		Revenue float64 `json:"revenue"`
		Paid    float64 `json:"paid"`
	}

	// StatusSlice is one entry of the status distribution.
	StatusSlice struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
		Color string `json:"color"`
	}

	// DashboardMetrics aggregates a whole invoice collection. All amounts and
	// counts are over the computed view, never the raw stored statuses.
	DashboardMetrics struct {
		TotalRevenue       float64          `json:"totalRevenue"`
		TotalPaid          float64          `json:"totalPaid"`
		PendingAmount      float64          `json:"pendingAmount"`
		OverdueAmount      float64          `json:"overdueAmount"`
		InvoiceCount       int              `json:"invoiceCount"`
		PaidCount          int              `json:"paidCount"`
		PendingCount       int              `json:"pendingCount"`
		OverdueCount       int              `json:"overdueCount"`
		MonthlyRevenue     []MonthlyRevenue `json:"monthlyRevenue"`
		StatusDistribution []StatusSlice    `json:"statusDistribution"`
	}
)

// BuildDashboardMetrics aggregates invoices into dashboard metrics as of the
// given instant. The instant is injectable so aggregation is deterministic
// under test: same collection plus same asOf means identical output.
func BuildDashboardMetrics(invoices []Invoice, asOf time.Time) DashboardMetrics {
	m := DashboardMetrics{InvoiceCount: len(invoices)}

	type bucket struct {
		revenue float64
		paid    float64
	}
	keys := make([]string, 0, monthlyWindow)
	buckets := make(map[string]*bucket, monthlyWindow)
	for i := monthlyWindow - 1; i >= 0; i-- {
		key := monthKey(asOf.AddDate(0, -i, -asOf.Day()+1))
		keys = append(keys, key)
		buckets[key] = &bucket{}
	}

	for _, inv := range invoices {
		status := EffectiveStatus(inv, asOf)
		m.TotalRevenue += inv.Total
		switch status {
		case StatusPaid:
			m.TotalPaid += inv.Total
			m.PaidCount++
		case StatusPending:
			m.PendingAmount += inv.Total
			m.PendingCount++
		case StatusOverdue:
			m.OverdueAmount += inv.Total
			m.OverdueCount++
		}

		// Invoices issued outside the window stay in the totals above but
		// are excluded from the monthly series.
		if b, ok := buckets[monthKey(inv.IssueDate.Time)]; ok {
			b.revenue += inv.Total
			if status == StatusPaid {
				b.paid += inv.Total
			}
		}
	}

	m.MonthlyRevenue = make([]MonthlyRevenue, 0, monthlyWindow)
	for _, key := range keys {
		b := buckets[key]
		m.MonthlyRevenue = append(m.MonthlyRevenue, MonthlyRevenue{
			Month:   key,
			Revenue: round2(b.revenue),
			Paid:    round2(b.paid),
		})
	}

	m.StatusDistribution = []StatusSlice{
		{Name: "Paid", Value: m.PaidCount, Color: colorPaid},
		{Name: "Pending", Value: m.PendingCount, Color: colorPending},
		{Name: "Overdue", Value: m.OverdueCount, Color: colorOverdue},
	}
	return m
}

// monthKey formats a time as the series bucket key, e.g. "Jan 25".
func monthKey(t time.Time) string {
	return t.Format("Jan 06")
}

// round2 rounds to two decimal places. Used only for the monthly series;
// the headline totals are kept un-rounded.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
