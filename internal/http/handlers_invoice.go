package http

import (
	"log/slog"
	"net/http"

	"fatture/internal/core"
	"fatture/internal/middleware/trace"
)

// handleListInvoices returns invoices matching the query filters, newest
// first, with effective statuses resolved as of today.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	asOf := s.now()
	key := s.listCacheKey(f, asOf)
	if cached, ok := s.listCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Listing cache hit", "count", len(cached))
		writeJSON(w, r, http.StatusOK, cached)
		return
	}

	invoices := s.svc.Filtered(f, asOf)
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	s.listCache.Set(key, invoices)
	writeJSON(w, r, http.StatusOK, invoices)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeInvoicePayload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.svc.Create(r.Context(), payload.toInvoice())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Invoice created",
		"request_id", trace.RequestID(r.Context()),
		"id", created.ID, "number", created.InvoiceNumber, "client", created.ClientName)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeInvoicePayload(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inv := payload.toInvoice()
	inv.ID = r.PathValue("id")

	updated, err := s.svc.Update(r.Context(), inv)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Invoice updated",
		"request_id", trace.RequestID(r.Context()), "id", updated.ID)
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Invoice deleted",
		"request_id", trace.RequestID(r.Context()), "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handlePayInvoice marks the invoice paid. Paying an already paid invoice
// is a no-op that still returns the invoice.
func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	paid, err := s.svc.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Invoice paid",
		"request_id", trace.RequestID(r.Context()), "id", paid.ID)
	writeJSON(w, r, http.StatusOK, paid)
}
