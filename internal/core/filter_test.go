package core

import (
	"testing"
	"time"
)

func filterFixture() []Invoice {
	return []Invoice{
		{
			ID:         "1",
			ClientName: "Acme Corp",
			Status:     StatusPaid,
			IssueDate:  NewDate(2025, 6, 1),
			DueDate:    NewDate(2025, 6, 30),
		},
		{
			ID:         "2",
			ClientName: "Globex",
			Status:     StatusPending,
			IssueDate:  NewDate(2025, 5, 10),
			DueDate:    NewDate(2025, 5, 20), // past due as of mid June
		},
		{
			ID:         "3",
			ClientName: "Stark Industries",
			Status:     StatusPending,
			IssueDate:  NewDate(2025, 6, 10),
			DueDate:    NewDate(2025, 7, 10),
		},
	}
}

func ids(invoices []Invoice) []string {
	out := make([]string, len(invoices))
	for i, inv := range invoices {
		out[i] = inv.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilters(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "empty filters pass everything through in order",
			filters: Filters{Status: StatusAll},
			want:    []string{"1", "2", "3"},
		},
		{
			name:    "status matches effective status not stored status",
			filters: Filters{Status: "overdue"},
			want:    []string{"2"},
		},
		{
			name:    "pending excludes the past-due invoice",
			filters: Filters{Status: "pending"},
			want:    []string{"3"},
		},
		{
			name:    "date from is inclusive",
			filters: Filters{DateFrom: NewDate(2025, 6, 1)},
			want:    []string{"1", "3"},
		},
		{
			name:    "date to is inclusive",
			filters: Filters{DateTo: NewDate(2025, 6, 1)},
			want:    []string{"1", "2"},
		},
		{
			name:    "search is case-insensitive substring on client name",
			filters: Filters{Search: "acme"},
			want:    []string{"1"},
		},
		{
			name:    "whitespace-only search passes through",
			filters: Filters{Search: "   "},
			want:    []string{"1", "2", "3"},
		},
		{
			name:    "dimensions are conjunctive",
			filters: Filters{Status: "pending", Search: "stark", DateFrom: NewDate(2025, 6, 1)},
			want:    []string{"3"},
		},
		{
			name:    "no match is an empty result not an error",
			filters: Filters{Search: "wayne"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(filterFixture(), tt.filters, asOf)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("ApplyFilters() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestApplyFiltersIdempotent(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	f := Filters{Status: "overdue", Search: "glo"}

	once := ApplyFilters(filterFixture(), f, asOf)
	twice := ApplyFilters(once, f, asOf)
	if !equalIDs(ids(once), ids(twice)) {
		t.Errorf("second application changed the result: %v vs %v", ids(once), ids(twice))
	}
}

func TestFiltersIsZero(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"zero value", Filters{}, true},
		{"explicit all", Filters{Status: StatusAll}, true},
		{"blank search", Filters{Search: "  "}, true},
		{"status set", Filters{Status: "paid"}, false},
		{"date set", Filters{DateFrom: NewDate(2025, 1, 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}
