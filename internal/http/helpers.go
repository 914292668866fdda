package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"fatture/internal/core"
	"fatture/internal/middleware/trace"
	"fatture/internal/services"
	"fatture/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Response encoding failed", "error", err, "url", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeServiceError maps service and storage errors onto HTTP statuses.
// Validation failures are 422, a busy collection is 409, unknown ids are 404.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrBusy):
		writeError(w, r, http.StatusConflict, "another operation is in progress")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "invoice not found")
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"request_id", trace.RequestID(r.Context()), "error", err, "url", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyClientName) ||
		errors.Is(err, core.ErrMissingIssueDate) ||
		errors.Is(err, core.ErrMissingDueDate) ||
		errors.Is(err, core.ErrNoItems) ||
		errors.Is(err, core.ErrInvalidStatus)
}

// parseFilters reads the listing filters from the query string. Absent or
// blank parameters leave their dimension as a pass-through.
func parseFilters(query url.Values) (core.Filters, error) {
	f := core.Filters{
		Status: strings.TrimSpace(query.Get("status")),
		Search: strings.TrimSpace(query.Get("search")),
	}

	var err error
	if f.DateFrom, err = parseDateParam(query.Get("from")); err != nil {
		return core.Filters{}, err
	}
	if f.DateTo, err = parseDateParam(query.Get("to")); err != nil {
		return core.Filters{}, err
	}
	return f, nil
}

func parseDateParam(v string) (core.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.Date{}, nil
	}
	var d core.Date
	if err := d.UnmarshalJSON([]byte(`"` + v + `"`)); err != nil {
		return core.Date{}, err
	}
	return d, nil
}
