package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fatture/internal/amqp"
	"fatture/internal/sheets"
	"fatture/internal/storage"
)

// SyncWorker mirrors invoice mutations into an external ledger. It consumes
// the events published by the service layer, resolves each invoice through
// the repository and hands it to the exporter.
type SyncWorker struct {
	repo     storage.Repository
	exporter sheets.InvoiceExporter
	marker   sheets.DeletionMarker
}

func NewSyncWorker(repo storage.Repository, exporter sheets.InvoiceExporter, marker sheets.DeletionMarker) *SyncWorker {
	return &SyncWorker{
		repo:     repo,
		exporter: exporter,
		marker:   marker,
	}
}

// HandleEvent processes a single invoice event.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.InvoiceEventMessage) error {
	slog.InfoContext(ctx, "Processing invoice event",
		"invoice_id", msg.InvoiceID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionUpserted:
		return w.handleUpserted(ctx, msg.InvoiceID)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, msg.InvoiceID)
	default:
		// Unknown action: drop rather than requeue forever.
		slog.WarnContext(ctx, "Ignoring invoice event with unknown action",
			"invoice_id", msg.InvoiceID, "action", msg.Action)
		return nil
	}
}

func (w *SyncWorker) handleUpserted(ctx context.Context, id string) error {
	inv, err := w.repo.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and consume. Nothing left to export.
		slog.WarnContext(ctx, "Invoice vanished before export", "invoice_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get invoice: %w", err)
	}

	if err := w.exporter.ExportInvoice(ctx, inv); err != nil {
		return fmt.Errorf("export invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice exported",
		"invoice_id", inv.ID,
		"number", inv.InvoiceNumber)
	return nil
}

func (w *SyncWorker) handleDeleted(ctx context.Context, id string) error {
	if w.marker == nil {
		slog.WarnContext(ctx, "No deletion marker configured, skipping", "invoice_id", id)
		return nil
	}
	if err := w.marker.MarkDeleted(ctx, id); err != nil {
		return fmt.Errorf("mark invoice deleted: %w", err)
	}
	return nil
}
