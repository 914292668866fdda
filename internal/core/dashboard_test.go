package core

import (
	"testing"
	"time"
)

func invoiceWith(status Status, issue, due Date, total float64) Invoice {
	return Invoice{
		ID:        NewInvoiceID(),
		Status:    status,
		IssueDate: issue,
		DueDate:   due,
		Total:     total,
		Items:     []LineItem{{ID: "i", Quantity: 1, UnitPrice: total, Total: total}},
	}
}

func TestBuildDashboardMetricsBuckets(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	invoices := []Invoice{
		// paid, issued this month
		invoiceWith(StatusPaid, NewDate(2025, 6, 1), NewDate(2025, 6, 30), 100),
		// pending, due later this month
		invoiceWith(StatusPending, NewDate(2025, 5, 10), NewDate(2025, 6, 20), 50),
		// stored pending but past due: counts as overdue
		invoiceWith(StatusPending, NewDate(2025, 4, 2), NewDate(2025, 5, 1), 30),
		// issued outside the six-month window: in the totals, not the series
		invoiceWith(StatusPaid, NewDate(2024, 11, 20), NewDate(2024, 12, 20), 7),
	}

	m := BuildDashboardMetrics(invoices, asOf)

	if !almostEqual(m.TotalRevenue, 187) {
		t.Errorf("TotalRevenue = %v, want 187", m.TotalRevenue)
	}
	if !almostEqual(m.TotalPaid, 107) {
		t.Errorf("TotalPaid = %v, want 107", m.TotalPaid)
	}
	if !almostEqual(m.PendingAmount, 50) {
		t.Errorf("PendingAmount = %v, want 50", m.PendingAmount)
	}
	if !almostEqual(m.OverdueAmount, 30) {
		t.Errorf("OverdueAmount = %v, want 30", m.OverdueAmount)
	}
	if m.PaidCount != 2 || m.PendingCount != 1 || m.OverdueCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", m.PaidCount, m.PendingCount, m.OverdueCount)
	}

	wantMonths := []string{"Jan 25", "Feb 25", "Mar 25", "Apr 25", "May 25", "Jun 25"}
	if len(m.MonthlyRevenue) != 6 {
		t.Fatalf("len(MonthlyRevenue) = %d, want 6", len(m.MonthlyRevenue))
	}
	for i, b := range m.MonthlyRevenue {
		if b.Month != wantMonths[i] {
			t.Errorf("bucket[%d].Month = %q, want %q", i, b.Month, wantMonths[i])
		}
	}
	if m.MonthlyRevenue[5].Revenue != 100 || m.MonthlyRevenue[5].Paid != 100 {
		t.Errorf("Jun bucket = %+v, want revenue 100 paid 100", m.MonthlyRevenue[5])
	}
	if m.MonthlyRevenue[4].Revenue != 50 || m.MonthlyRevenue[4].Paid != 0 {
		t.Errorf("May bucket = %+v, want revenue 50 paid 0", m.MonthlyRevenue[4])
	}
	if m.MonthlyRevenue[3].Revenue != 30 {
		t.Errorf("Apr bucket = %+v, want revenue 30", m.MonthlyRevenue[3])
	}
}

func TestBuildDashboardMetricsEmptyCollection(t *testing.T) {
	asOf := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	m := BuildDashboardMetrics(nil, asOf)

	if len(m.MonthlyRevenue) != 6 {
		t.Fatalf("len(MonthlyRevenue) = %d, want 6 even with no invoices", len(m.MonthlyRevenue))
	}
	// Window crosses a year boundary: Aug 24 .. Jan 25.
	if m.MonthlyRevenue[0].Month != "Aug 24" {
		t.Errorf("first bucket = %q, want Aug 24", m.MonthlyRevenue[0].Month)
	}
	if m.MonthlyRevenue[5].Month != "Jan 25" {
		t.Errorf("last bucket = %q, want Jan 25", m.MonthlyRevenue[5].Month)
	}

	if len(m.StatusDistribution) != 3 {
		t.Fatalf("len(StatusDistribution) = %d, want 3", len(m.StatusDistribution))
	}
	wantNames := []string{"Paid", "Pending", "Overdue"}
	for i, s := range m.StatusDistribution {
		if s.Name != wantNames[i] {
			t.Errorf("distribution[%d].Name = %q, want %q", i, s.Name, wantNames[i])
		}
		if s.Value != 0 {
			t.Errorf("distribution[%d].Value = %d, want 0", i, s.Value)
		}
		if s.Color == "" {
			t.Errorf("distribution[%d] has no color", i)
		}
	}
}

func TestBuildDashboardMetricsInvariants(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		invoiceWith(StatusPaid, NewDate(2025, 3, 1), NewDate(2025, 3, 20), 12.34),
		invoiceWith(StatusPending, NewDate(2025, 2, 1), NewDate(2025, 2, 5), 56.78),
		invoiceWith(StatusPending, NewDate(2025, 3, 5), NewDate(2025, 4, 1), 90.12),
		invoiceWith(StatusPaid, NewDate(2024, 12, 1), NewDate(2025, 1, 1), 3.45),
	}

	m := BuildDashboardMetrics(invoices, asOf)

	if sum := m.TotalPaid + m.PendingAmount + m.OverdueAmount; !almostEqual(sum, m.TotalRevenue) {
		t.Errorf("paid+pending+overdue = %v, want TotalRevenue %v", sum, m.TotalRevenue)
	}
	if n := m.PaidCount + m.PendingCount + m.OverdueCount; n != m.InvoiceCount {
		t.Errorf("count sum = %d, want InvoiceCount %d", n, m.InvoiceCount)
	}
}

func TestBuildDashboardMetricsRoundsSeries(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		invoiceWith(StatusPending, NewDate(2025, 6, 1), NewDate(2025, 7, 1), 0.1),
		invoiceWith(StatusPending, NewDate(2025, 6, 2), NewDate(2025, 7, 1), 0.2),
	}

	m := BuildDashboardMetrics(invoices, asOf)
	if got := m.MonthlyRevenue[5].Revenue; got != 0.3 {
		t.Errorf("series bucket = %v, want exactly 0.3 after rounding", got)
	}
	// The headline total keeps the raw floating-point sum.
	if m.TotalRevenue != 0.1+0.2 {
		t.Errorf("TotalRevenue = %v, want un-rounded %v", m.TotalRevenue, 0.1+0.2)
	}
}

func TestBuildDashboardMetricsDeterminism(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	invoices := []Invoice{
		invoiceWith(StatusPaid, NewDate(2025, 6, 1), NewDate(2025, 6, 30), 11.11),
		invoiceWith(StatusPending, NewDate(2025, 5, 1), NewDate(2025, 5, 2), 22.22),
	}

	a := BuildDashboardMetrics(invoices, asOf)
	b := BuildDashboardMetrics(invoices, asOf)
	if a.TotalRevenue != b.TotalRevenue || a.OverdueCount != b.OverdueCount {
		t.Errorf("same input produced different metrics: %+v vs %+v", a, b)
	}
	for i := range a.MonthlyRevenue {
		if a.MonthlyRevenue[i] != b.MonthlyRevenue[i] {
			t.Errorf("bucket %d differs: %+v vs %+v", i, a.MonthlyRevenue[i], b.MonthlyRevenue[i])
		}
	}
}
