package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fatture/internal/core"
	"fatture/internal/storage"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestService() *InvoiceService {
	return NewInvoiceService(storage.NewMemoryRepository(0), nil).
		WithClock(func() time.Time { return testNow })
}

func draft(client string) core.Invoice {
	return core.Invoice{
		ClientName: client,
		IssueDate:  core.NewDate(2025, 6, 1),
		DueDate:    core.NewDate(2025, 6, 30),
		Tax:        10,
		Discount:   5,
		Items: []core.LineItem{
			{ID: "li-1", Description: "Design", Quantity: 2, UnitPrice: 10},
			{ID: "li-2", Description: "Hosting", Quantity: 1, UnitPrice: 5},
		},
	}
}

func TestCreateAssignsDefaultsAndRecomputes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.Create(ctx, draft("Acme Corp"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.ID == "" {
		t.Error("id not assigned")
	}
	if created.InvoiceNumber == "" {
		t.Error("invoice number not assigned")
	}
	if created.Status != core.StatusPending {
		t.Errorf("status = %v, want pending", created.Status)
	}
	if !created.CreatedAt.Equal(testNow) || !created.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v/%v, want both %v", created.CreatedAt, created.UpdatedAt, testNow)
	}
	if created.Subtotal != 25 || created.Total != 26.25 {
		t.Errorf("totals = %v/%v, want 25/26.25", created.Subtotal, created.Total)
	}

	// Round-trip: fetching by id returns what was stored.
	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.InvoiceNumber != created.InvoiceNumber || got.Total != created.Total ||
		got.ClientName != created.ClientName || len(got.Items) != 2 {
		t.Errorf("round trip mismatch: %+v vs %+v", got, created)
	}
}

func TestCreateRejectsInvalidDraftBeforeStorage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	bad := draft("")
	if _, err := svc.Create(ctx, bad); !errors.Is(err, core.ErrEmptyClientName) {
		t.Fatalf("Create = %v, want ErrEmptyClientName", err)
	}

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n := len(svc.Invoices()); n != 0 {
		t.Errorf("invalid draft reached the repository, %d stored", n)
	}
}

func TestUpdatePreservesNumberAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.Create(ctx, draft("Acme Corp"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	edited := created.Clone()
	edited.ClientName = "Acme Corporation"
	edited.InvoiceNumber = "INV-FORGED" // must be ignored
	edited.Items[0].UnitPrice = 100

	updated, err := svc.Update(ctx, edited)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.InvoiceNumber != created.InvoiceNumber {
		t.Errorf("invoice number regenerated: %q vs %q", updated.InvoiceNumber, created.InvoiceNumber)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("createdAt changed: %v vs %v", updated.CreatedAt, created.CreatedAt)
	}
	// 2×100 + 1×5 = 205; +10% −5% = 215.25
	if updated.Subtotal != 205 || updated.Total != 215.25 {
		t.Errorf("totals not recomputed on edit: %v/%v", updated.Subtotal, updated.Total)
	}
}

func TestUpdateKeepsStoredStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("editing a paid invoice keeps it paid", func(t *testing.T) {
		svc := newTestService()
		created, err := svc.Create(ctx, draft("Acme Corp"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := svc.MarkPaid(ctx, created.ID); err != nil {
			t.Fatalf("MarkPaid: %v", err)
		}

		edited := created.Clone()
		edited.ClientName = "Acme Corporation"
		edited.Status = core.StatusPending // must be ignored

		updated, err := svc.Update(ctx, edited)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Status != core.StatusPaid {
			t.Errorf("status after edit = %q, want paid", updated.Status)
		}
		stored, err := svc.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored.Status != core.StatusPaid {
			t.Errorf("stored status after edit = %q, want paid", stored.Status)
		}
	})

	t.Run("overdue is never written to the repository", func(t *testing.T) {
		svc := newTestService()
		created, err := svc.Create(ctx, draft("Acme Corp"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		edited := created.Clone()
		edited.Status = core.StatusOverdue

		updated, err := svc.Update(ctx, edited)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.Status != core.StatusPending {
			t.Errorf("status after edit = %q, want pending", updated.Status)
		}
		stored, err := svc.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored.Status != core.StatusPending {
			t.Errorf("stored status = %q: overdue must stay a derived view", stored.Status)
		}
	})
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	ghost := draft("Ghost")
	ghost.ID = "missing"
	ghost.Status = core.StatusPending
	if _, err := svc.Update(ctx, ghost); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
}

func TestMarkPaidIsSticky(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	d := draft("Acme Corp")
	d.DueDate = core.NewDate(2025, 1, 1) // long past due
	created, err := svc.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	paid, err := svc.MarkPaid(ctx, created.ID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != core.StatusPaid {
		t.Fatalf("status = %v, want paid", paid.Status)
	}
	if got := core.EffectiveStatus(paid, testNow); got != core.StatusPaid {
		t.Errorf("effective status = %v, want paid despite past due date", got)
	}
}

func TestDeleteThenListExcludesInvoice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.Create(ctx, draft("Acme Corp"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if n := len(svc.Invoices()); n != 0 {
		t.Errorf("collection has %d invoices after delete, want 0", n)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}

func TestCollectionSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository(0)
	clock := testNow
	svc := NewInvoiceService(repo, nil).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	for _, client := range []string{"First", "Second", "Third"} {
		if _, err := svc.Create(ctx, draft(client)); err != nil {
			t.Fatalf("Create %s: %v", client, err)
		}
	}

	invoices := svc.Invoices()
	if len(invoices) != 3 {
		t.Fatalf("len = %d, want 3", len(invoices))
	}
	want := []string{"Third", "Second", "First"}
	for i, inv := range invoices {
		if inv.ClientName != want[i] {
			t.Errorf("invoices[%d] = %q, want %q", i, inv.ClientName, want[i])
		}
	}
}

func TestFilteredAndDashboardUseCachedCollection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	overdue := draft("Late Client")
	overdue.DueDate = core.NewDate(2025, 5, 1)
	if _, err := svc.Create(ctx, overdue); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, draft("Prompt Client")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := svc.Filtered(core.Filters{Status: "overdue"}, testNow)
	if len(got) != 1 || got[0].ClientName != "Late Client" {
		t.Errorf("Filtered = %+v, want only Late Client", got)
	}

	m := svc.Dashboard(testNow)
	if m.InvoiceCount != 2 || m.OverdueCount != 1 || m.PendingCount != 1 {
		t.Errorf("Dashboard counts = %d/%d/%d", m.InvoiceCount, m.OverdueCount, m.PendingCount)
	}
}

func TestVersionBumpsOnMutation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	v0 := svc.Version()
	if _, err := svc.Create(ctx, draft("Acme")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if svc.Version() == v0 {
		t.Error("version did not change after create")
	}
}

func TestBusyFlagClearsAfterOperation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if svc.Busy() {
		t.Fatal("busy before any operation")
	}
	if _, err := svc.Create(ctx, draft("Acme")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if svc.Busy() {
		t.Error("busy flag stuck after operation completed")
	}
}

func TestSetFilters(t *testing.T) {
	svc := newTestService()
	f := core.Filters{Status: "paid", Search: "acme"}
	svc.SetFilters(f)
	if got := svc.Filters(); got != f {
		t.Errorf("Filters() = %+v, want %+v", got, f)
	}
}
