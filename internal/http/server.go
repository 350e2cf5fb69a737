package http

import (
	"context"
	"net/http"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/log"

	"github.com/gorilla/mux"
)

// Server is the JSON API in front of the ledger store.
type Server struct {
	http.Server
	store    *ledger.Store
	logger   *log.Logger
	clock    func() time.Time
	limiter  *rateLimiter
	started  time.Time
	exporter SheetsExporter
}

// Options configures optional server collaborators.
type Options struct {
	Logger *log.Logger

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// Sheets enables POST /api/export/sheets when set.
	Sheets SheetsExporter

	// RequestsPerMinute caps requests per client IP. Zero disables limiting.
	RequestsPerMinute int

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewServer builds the router and wires middleware. The returned server is
// ready for ListenAndServe.
func NewServer(addr string, store *ledger.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		store:    store,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		clock:    opts.Clock,
		started:  opts.Clock(),
		exporter: opts.Sheets,
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = newRateLimiter(opts.RequestsPerMinute)
	}

	r := mux.NewRouter()
	r.Use(
		log.Middleware(s.logger),
		log.RequestIDMiddleware(),
		log.AccessLogMiddleware(),
		s.withSecurityHeaders,
	)
	if s.limiter != nil {
		r.Use(s.withRateLimit)
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.handleGetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id:[0-9]+}", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{type}/{name:.+}", s.handleDeleteCategory).Methods(http.MethodDelete)
	api.HandleFunc("/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	if s.exporter != nil {
		api.HandleFunc("/export/sheets", s.handleExportSheets).Methods(http.MethodPost)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Handler = r
	return s
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.Server.Shutdown(ctx)
}

func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.limiter.allow(clientIP, s.clock()) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path,
			)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
