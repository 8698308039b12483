package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "defter/internal/log"
	"defter/internal/middleware/ratelimit"
	"defter/internal/middleware/security"
	"defter/internal/middleware/trace"
	"defter/internal/services"
)

// Server is the JSON API in front of the ledger service.
type Server struct {
	http.Server
	ledger      *services.LedgerService
	ping        func(ctx context.Context) error
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	logger      *applog.Logger
	started     time.Time
}

// NewServer wires routes and middleware. ping backs /healthz and may be nil.
func NewServer(addr string, ledger *services.LedgerService, ping func(ctx context.Context) error) *Server {
	logger := applog.Default(applog.ComponentHTTP)
	ipResolver := security.NewClientIPResolver()

	s := &Server{
		ledger:      ledger,
		ping:        ping,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:      trace.NewMiddleware(logger, ipResolver.ExtractClientIP),
		logger:      logger,
		started:     time.Now(),
	}

	limit := s.rateLimiter.Middleware(ipResolver.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	r := chi.NewRouter()
	// Outermost first: every response, including 429s and recovered panics,
	// carries a request ID and the security headers.
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(middleware.Recoverer)
	r.Use(limit)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/entities", func(r chi.Router) {
		r.Get("/", s.handleListEntities)
		r.Post("/", s.handleCreateEntity)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEntity)
			r.Delete("/", s.handleDeleteEntity)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleRecordTransaction)
			r.Get("/clear/{token}", s.handleClear)
			r.Post("/settle", s.handleSettle)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Shutdown stops the background limiter cleanup before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
