package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fatture/internal/amqp"
	"fatture/internal/core"
	"fatture/internal/storage"
)

// ErrBusy is returned when a mutating operation is attempted while another
// one is still in flight. Mutations are cooperative: one at a time, each
// running to completion including its follow-up re-fetch.
var ErrBusy = errors.New("another operation is in flight")

// InvoiceService owns the in-memory invoice collection, the current filters
// and the busy flag, and funnels every mutation through the repository
// followed by a full re-fetch. It is the single state container the rest of
// the application talks to.
//
// The pure core functions do the actual deriving; the service only decides
// when to call them and keeps the collection fresh.
type InvoiceService struct {
	repo   storage.Repository
	events *amqp.Client // nil disables eventing
	now    func() time.Time

	mu       sync.Mutex
	busy     bool
	invoices []core.Invoice
	filters  core.Filters
	version  uint64
}

func NewInvoiceService(repo storage.Repository, events *amqp.Client) *InvoiceService {
	return &InvoiceService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

// begin claims the busy flag or fails with ErrBusy.
func (s *InvoiceService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *InvoiceService) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Busy reports whether a mutating operation is in flight. The HTTP layer
// surfaces this as a conflict instead of queueing a second writer.
func (s *InvoiceService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Version increments on every successful re-fetch. Cache keys derive from it
// so stale aggregates die with the collection that produced them.
func (s *InvoiceService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// refetch replaces the cached collection with the repository's view, newest
// first by creation time.
func (s *InvoiceService) refetch(ctx context.Context) error {
	invoices, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})

	s.mu.Lock()
	s.invoices = invoices
	s.version++
	s.mu.Unlock()
	return nil
}

// Refresh re-reads the whole collection from the repository.
func (s *InvoiceService) Refresh(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()
	return s.refetch(ctx)
}

// NewInvoice assembles a creation draft into a storable invoice: fresh id,
// timestamp-derived display number, pending status, both timestamps set to
// now, all derived money fields recomputed. The draft's client name, dates,
// items, tax, discount and attachments are kept as given.
func (s *InvoiceService) NewInvoice(draft core.Invoice) core.Invoice {
	now := s.now()
	inv := draft.Clone()
	inv.ID = core.NewInvoiceID()
	inv.InvoiceNumber = core.NewInvoiceNumber(now)
	inv.Status = core.StatusPending
	inv.CreatedAt = now
	inv.UpdatedAt = now
	inv.Recompute()
	return inv
}

// Create validates and stores a new invoice, then re-fetches the collection.
// Validation failures never reach the repository.
func (s *InvoiceService) Create(ctx context.Context, draft core.Invoice) (core.Invoice, error) {
	inv := s.NewInvoice(draft)
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	if err := s.begin(); err != nil {
		return core.Invoice{}, err
	}
	defer s.end()

	created, err := s.repo.Create(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	if err := s.refetch(ctx); err != nil {
		return core.Invoice{}, err
	}
	s.publish(ctx, created.ID, amqp.ActionUpserted)
	return created, nil
}

// Update replaces a stored invoice. Derived totals are recomputed and
// updatedAt refreshed before the write; the invoice number, createdAt and
// stored status are carried over from the stored record. Editing never
// changes the status: paid stays paid, and overdue is a derived view that
// must not be written back.
func (s *InvoiceService) Update(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if err := s.begin(); err != nil {
		return core.Invoice{}, err
	}
	defer s.end()

	stored, err := s.repo.GetByID(ctx, inv.ID)
	if err != nil {
		return core.Invoice{}, err
	}
	inv = inv.Clone()
	inv.InvoiceNumber = stored.InvoiceNumber
	inv.CreatedAt = stored.CreatedAt
	inv.Status = stored.Status
	inv.UpdatedAt = s.now()
	inv.Recompute()
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	updated, err := s.repo.Update(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	if err := s.refetch(ctx); err != nil {
		return core.Invoice{}, err
	}
	s.publish(ctx, updated.ID, amqp.ActionUpserted)
	return updated, nil
}

// MarkPaid flips the stored status to paid. The only stored-status
// transition besides creation; overdue is never written back.
func (s *InvoiceService) MarkPaid(ctx context.Context, id string) (core.Invoice, error) {
	if err := s.begin(); err != nil {
		return core.Invoice{}, err
	}
	defer s.end()

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.MarkPaid(s.now())

	updated, err := s.repo.Update(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("mark invoice paid: %w", err)
	}
	if err := s.refetch(ctx); err != nil {
		return core.Invoice{}, err
	}
	s.publish(ctx, updated.ID, amqp.ActionUpserted)
	return updated, nil
}

// Delete removes an invoice for good. Hard delete, no tombstone, no undo.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if err := s.refetch(ctx); err != nil {
		return err
	}
	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

// GetByID reads straight through to the repository.
func (s *InvoiceService) GetByID(ctx context.Context, id string) (core.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

// SetFilters replaces the current filters.
func (s *InvoiceService) SetFilters(f core.Filters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Filters returns the current filters.
func (s *InvoiceService) Filters() core.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Invoices returns a copy of the cached collection, newest first.
func (s *InvoiceService) Invoices() []core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Invoice, len(s.invoices))
	for i, inv := range s.invoices {
		out[i] = inv.Clone()
	}
	return out
}

// Filtered applies the given filters to the cached collection as of now.
func (s *InvoiceService) Filtered(f core.Filters, asOf time.Time) []core.Invoice {
	s.mu.Lock()
	invoices := s.invoices
	s.mu.Unlock()
	return core.ApplyFilters(invoices, f, asOf)
}

// Dashboard aggregates the cached collection as of now.
func (s *InvoiceService) Dashboard(asOf time.Time) core.DashboardMetrics {
	s.mu.Lock()
	invoices := s.invoices
	s.mu.Unlock()
	return core.BuildDashboardMetrics(invoices, asOf)
}

// publish emits a best-effort event. A publish failure is logged and
// swallowed: the invoice is already stored, eventing never fails a mutation.
func (s *InvoiceService) publish(ctx context.Context, id, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishInvoiceEvent(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish invoice event",
			"invoice_id", id, "action", action, "error", err)
	}
}

// Close releases the repository and the event client.
func (s *InvoiceService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close invoice service: %v", errs)
	}
	return nil
}
