package sheets

import (
	"context"

	"fatture/internal/core"
)

// Ports for outbound export adapters.
type (
	// InvoiceExporter appends one bookkeeping row per invoice to an external
	// ledger. Export is a side-car concern: core correctness never depends
	// on it.
	InvoiceExporter interface {
		ExportInvoice(ctx context.Context, inv core.Invoice) error
	}

	// DeletionMarker records that an invoice was hard-deleted locally, so the
	// external ledger keeps an audit trail the local store does not.
	DeletionMarker interface {
		MarkDeleted(ctx context.Context, invoiceID string) error
	}
)
