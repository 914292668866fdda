package http

import (
	"log/slog"
	"net/http"
)

// handleDashboard returns the aggregated metrics for the whole collection.
// Metrics only change with the collection or the calendar day, so the cache
// key carries both.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf := s.now()
	key := s.dashCacheKey(asOf)
	if cached, ok := s.dashCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit")
		writeJSON(w, r, http.StatusOK, cached)
		return
	}

	metrics := s.svc.Dashboard(asOf)
	s.dashCache.Set(key, metrics)
	writeJSON(w, r, http.StatusOK, metrics)
}
