// Package http exposes the invoice API over JSON.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fatture/internal/cache"
	"fatture/internal/core"
	"fatture/internal/middleware/trace"
)

// Server wires the invoice service to the JSON API. Listing and dashboard
// responses are cached; cache keys carry the collection version, so any
// mutation makes every stale entry unreachable.
type Server struct {
	http.Server
	svc         invoiceService
	rateLimiter *rateLimiter

	listCache *cache.TTLCache[[]core.Invoice]
	dashCache *cache.TTLCache[core.DashboardMetrics]
	sweeper   *cache.Sweeper

	now func() time.Time

	shutdownOnce sync.Once
}

// invoiceService is the surface the handlers need from the service layer.
type invoiceService interface {
	Create(ctx context.Context, draft core.Invoice) (core.Invoice, error)
	Update(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	MarkPaid(ctx context.Context, id string) (core.Invoice, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (core.Invoice, error)
	Filtered(f core.Filters, asOf time.Time) []core.Invoice
	Dashboard(asOf time.Time) core.DashboardMetrics
	Version() uint64
	Busy() bool
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, svc invoiceService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:         svc,
		rateLimiter: newRateLimiter(),
		listCache:   cache.New[[]core.Invoice](200, 5*time.Minute),
		dashCache:   cache.New[core.DashboardMetrics](50, 5*time.Minute),
		now:         time.Now,
	}
	s.sweeper = cache.NewSweeper(s.listCache, s.dashCache)
	s.sweeper.Start(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/invoices", s.guard(s.handleListInvoices))
	mux.HandleFunc("POST /api/invoices", s.guard(s.handleCreateInvoice))
	mux.HandleFunc("GET /api/invoices/{id}", s.guard(s.handleGetInvoice))
	mux.HandleFunc("PUT /api/invoices/{id}", s.guard(s.handleUpdateInvoice))
	mux.HandleFunc("DELETE /api/invoices/{id}", s.guard(s.handleDeleteInvoice))
	mux.HandleFunc("POST /api/invoices/{id}/pay", s.guard(s.handlePayInvoice))
	mux.HandleFunc("GET /api/dashboard", s.guard(s.handleDashboard))

	s.Handler = trace.Middleware(mux)
	return s
}

// guard applies rate limiting to mutating requests and sets the common
// response headers.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isMutation(r.Method) {
			ip := clientIP(r)
			if !s.rateLimiter.allow(ip) {
				w.Header().Set("Retry-After", "60")
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		next(w, r)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown stops the cache sweeper and rate limiter before draining the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.sweeper.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// listCacheKey identifies a filtered listing for one calendar day of one
// collection version. Effective statuses depend on the day, so the key must
// roll over at midnight even when nothing was mutated.
func (s *Server) listCacheKey(f core.Filters, asOf time.Time) string {
	return strconv.FormatUint(s.svc.Version(), 10) + "|" +
		asOf.Format("2006-01-02") + "|" +
		f.Status + "|" + f.DateFrom.Format("2006-01-02") + "|" +
		f.DateTo.Format("2006-01-02") + "|" + f.Search
}

func (s *Server) dashCacheKey(asOf time.Time) string {
	return strconv.FormatUint(s.svc.Version(), 10) + "|" + asOf.Format("2006-01-02")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
