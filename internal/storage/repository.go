package storage

import (
	"context"
	"errors"

	"fatture/internal/core"
)

// ErrNotFound is returned by GetByID for an unknown id. Consumers branch on
// it; it is never a hard failure.
var ErrNotFound = errors.New("invoice not found")

// Repository is durable keyed storage for invoice records. The whole
// collection is a single serialized document rewritten wholesale on every
// mutation; there are no transactional guarantees across calls. Callers are
// expected to serialize mutating operations (see services.InvoiceService).
type Repository interface {
	// ListAll returns every stored invoice. An empty collection is normal,
	// including after storage corruption: backends degrade to empty rather
	// than surface read failures to the core.
	ListAll(ctx context.Context) ([]core.Invoice, error)

	// GetByID returns the invoice with the given id or ErrNotFound.
	GetByID(ctx context.Context, id string) (core.Invoice, error)

	// Create appends the invoice. The id is caller-assigned and assumed
	// unique.
	Create(ctx context.Context, inv core.Invoice) (core.Invoice, error)

	// Update replaces the record matching the invoice's id. Unknown id is a
	// no-op, not an error.
	Update(ctx context.Context, inv core.Invoice) (core.Invoice, error)

	// Delete removes the record with the given id and returns the id.
	// Unknown id is a no-op.
	Delete(ctx context.Context, id string) (string, error)

	Close() error
}
