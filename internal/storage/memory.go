package storage

import (
	"context"
	"sync"
	"time"

	"fatture/internal/core"
)

// MemoryRepository keeps the collection in process memory. It is the default
// backend and the test double. An optional fixed latency per call simulates a
// slow store, which is how the busy-flag behavior gets exercised end to end.
type MemoryRepository struct {
	mu       sync.Mutex
	latency  time.Duration
	invoices []core.Invoice
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(latency time.Duration) *MemoryRepository {
	return &MemoryRepository{latency: latency}
}

// NewMemoryRepositorySeeded pre-populates the store, mainly for tests.
func NewMemoryRepositorySeeded(invoices []core.Invoice) *MemoryRepository {
	r := &MemoryRepository{}
	for _, inv := range invoices {
		r.invoices = append(r.invoices, inv.Clone())
	}
	return r
}

// wait blocks for the configured latency. A caller that abandons interest
// simply cancels its context; the store stays consistent either way.
func (r *MemoryRepository) wait(ctx context.Context) error {
	if r.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(r.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *MemoryRepository) ListAll(ctx context.Context) ([]core.Invoice, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Invoice, len(r.invoices))
	for i, inv := range r.invoices {
		out[i] = inv.Clone()
	}
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (core.Invoice, error) {
	if err := r.wait(ctx); err != nil {
		return core.Invoice{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv.Clone(), nil
		}
	}
	return core.Invoice{}, ErrNotFound
}

func (r *MemoryRepository) Create(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if err := r.wait(ctx); err != nil {
		return core.Invoice{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = append(r.invoices, inv.Clone())
	return inv, nil
}

func (r *MemoryRepository) Update(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if err := r.wait(ctx); err != nil {
		return core.Invoice{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.invoices {
		if r.invoices[i].ID == inv.ID {
			r.invoices[i] = inv.Clone()
			break
		}
	}
	return inv, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.invoices {
		if r.invoices[i].ID == id {
			r.invoices = append(r.invoices[:i], r.invoices[i+1:]...)
			break
		}
	}
	return id, nil
}

func (r *MemoryRepository) Close() error { return nil }
