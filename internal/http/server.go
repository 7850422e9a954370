// Package http exposes the projection engine as a JSON API: entry CRUD,
// scenario management and the projection, summary and timeline views.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/core"
	applog "cashflow/internal/log"
	"cashflow/internal/services"
)

// Options tune the server beyond its listen address.
type Options struct {
	HorizonDays int // default projection window length
	CacheSize   int
	CacheTTL    time.Duration
}

// Server wraps http.Server with the projection service, a response cache
// for the read endpoints and a per-client rate limiter for mutations.
type Server struct {
	http.Server

	service *services.ProjectionService
	horizon int
	httpLog *applog.StructuredLogger

	rateLimiter     *rateLimiter
	projectionCache *cache.LRUCache[[]byte]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, service *services.ProjectionService, opts Options) *Server {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 90
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:         service,
		horizon:         opts.HorizonDays,
		httpLog:         applog.NewStructuredLogger(applog.Default()),
		rateLimiter:     newRateLimiter(),
		projectionCache: cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.projectionCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/entries", s.withMiddleware(s.handleListEntries))
	mux.HandleFunc("POST /api/entries", s.withMiddleware(s.handleCreateEntry))
	mux.HandleFunc("GET /api/entries/{id}", s.withMiddleware(s.handleGetEntry))
	mux.HandleFunc("PUT /api/entries/{id}", s.withMiddleware(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.withMiddleware(s.handleDeleteEntry))

	mux.HandleFunc("GET /api/scenarios", s.withMiddleware(s.handleListScenarios))
	mux.HandleFunc("POST /api/scenarios", s.withMiddleware(s.handleCreateScenario))
	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("GET /api/debts", s.withMiddleware(s.handleListDebts))

	mux.HandleFunc("GET /api/projection", s.withMiddleware(s.handleProjection))
	mux.HandleFunc("GET /api/summary/categories", s.withMiddleware(s.handleCategorySummary))
	mux.HandleFunc("GET /api/timeline", s.withMiddleware(s.handleTimeline))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, clientIP, requestID)

		// Rate limit mutations only; reads are cached anyway.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, core.ErrDuplicateReconciliation):
		status = http.StatusConflict
	case errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrInvalidRule),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrUnknownEntryType):
		status = http.StatusUnprocessableEntity
	}

	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
