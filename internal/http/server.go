// Package http exposes the JSON API for expenses, funds, reports and the
// receipt pipeline.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dailyboard/internal/auth"
	"dailyboard/internal/ocr"
	"dailyboard/internal/report"
	"dailyboard/internal/storage"
)

// ScanPublisher enqueues receipt scan jobs for the worker.
type ScanPublisher interface {
	PublishReceiptScan(ctx context.Context, scanID int64) error
}

// ReceiptStore uploads receipt images, hands out time-limited links and
// removes images once their expense is gone.
type ReceiptStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	ShareURL(ctx context.Context, fileID string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// Extractor runs OCR on a receipt image.
type Extractor interface {
	Extract(ctx context.Context, imageDataURL string) (ocr.Result, error)
}

type Server struct {
	http.Server

	repo     *storage.Repository
	composer *report.Composer
	tokens   *auth.JWTManager

	// optional integrations, nil when not configured
	publisher ScanPublisher
	receipts  ReceiptStore
	extractor Extractor

	receiptTTL  time.Duration
	rateLimiter *rateLimiter
	metrics     *metrics

	shutdownOnce sync.Once
}

// Options carries the optional integrations of the server.
type Options struct {
	Publisher     ScanPublisher
	Receipts      ReceiptStore
	Extractor     Extractor
	ReceiptURLTTL time.Duration
	Registry      *prometheus.Registry
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, repo *storage.Repository, composer *report.Composer, tokens *auth.JWTManager, opts Options) *Server {
	mux := http.NewServeMux()

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:        repo,
		composer:    composer,
		tokens:      tokens,
		publisher:   opts.Publisher,
		receipts:    opts.Receipts,
		extractor:   opts.Extractor,
		receiptTTL:  opts.ReceiptURLTTL,
		rateLimiter: newRateLimiter(),
		metrics:     newMetrics(registry),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// reports
	s.route(mux, "GET /api/reports/daily", s.handleDailyReport)
	s.route(mux, "GET /api/reports/monthly", s.handleMonthlyReport)
	s.route(mux, "GET /api/reports/custom", s.handleCustomReport)
	s.route(mux, "GET /api/reports/last", s.handleLastReport)
	s.route(mux, "GET /api/reports/export", s.handleExportCSV)
	s.route(mux, "GET /api/backup", s.handleBackup)

	// expenses
	s.route(mux, "POST /api/expenses", s.handleCreateExpense)
	s.route(mux, "GET /api/expenses", s.handleListExpenses)
	s.route(mux, "POST /api/expenses/batch", s.handleCreateExpenseBatch)
	s.route(mux, "GET /api/expenses/batch/{batchID}", s.handleGetExpenseBatch)
	s.route(mux, "DELETE /api/expenses/batch/{batchID}", s.handleDeleteExpenseBatch)
	s.route(mux, "GET /api/expenses/{id}", s.handleGetExpense)
	s.route(mux, "PUT /api/expenses/{id}", s.handleUpdateExpense)
	s.route(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense)
	s.route(mux, "GET /api/expenses/{id}/tags", s.handleListExpenseTags)
	s.route(mux, "POST /api/expenses/{id}/tags/{tagID}", s.handleTagExpense)
	s.route(mux, "DELETE /api/expenses/{id}/tags/{tagID}", s.handleUntagExpense)

	// funds
	s.route(mux, "POST /api/funds", s.handleCreateFund)
	s.route(mux, "GET /api/funds", s.handleListFunds)
	s.route(mux, "PUT /api/funds/{id}", s.handleUpdateFund)
	s.route(mux, "DELETE /api/funds/{id}", s.handleDeleteFund)

	// lookups
	s.route(mux, "GET /api/lookups", s.handleAllLookups)
	s.route(mux, "POST /api/categories", s.handleCreateCategory)
	s.route(mux, "GET /api/categories", s.handleListCategories)
	s.route(mux, "DELETE /api/categories/{id}", s.handleDeleteCategory)
	s.route(mux, "POST /api/units", s.handleCreateUnit)
	s.route(mux, "GET /api/units", s.handleListUnits)
	s.route(mux, "DELETE /api/units/{id}", s.handleDeleteUnit)
	s.route(mux, "POST /api/tags", s.handleCreateTag)
	s.route(mux, "GET /api/tags", s.handleListTags)
	s.route(mux, "DELETE /api/tags/{id}", s.handleDeleteTag)

	// favorites
	s.route(mux, "POST /api/favorites", s.handleCreateFavorite)
	s.route(mux, "GET /api/favorites", s.handleListFavorites)
	s.route(mux, "DELETE /api/favorites/{id}", s.handleDeleteFavorite)

	// budgets
	s.route(mux, "PUT /api/budgets", s.handleUpsertBudget)
	s.route(mux, "GET /api/budgets", s.handleListBudgets)
	s.route(mux, "DELETE /api/budgets/{id}", s.handleDeleteBudget)

	// settings and families
	s.route(mux, "GET /api/settings", s.handleGetSettings)
	s.route(mux, "PUT /api/settings/edit-mode", s.handleSetEditMode)
	s.route(mux, "POST /api/families", s.handleCreateFamily)
	s.route(mux, "GET /api/families", s.handleGetFamily)
	s.route(mux, "POST /api/families/join", s.handleJoinFamily)
	s.route(mux, "GET /api/families/members", s.handleListFamilyMembers)
	s.route(mux, "PUT /api/families/members/{userID}/can-add", s.handleSetMemberCanAdd)
	s.route(mux, "DELETE /api/families/members/{userID}", s.handleRemoveFamilyMember)

	// receipts and OCR
	s.route(mux, "POST /api/receipts", s.handleUploadReceipt)
	s.route(mux, "GET /api/receipts/scans/{id}", s.handleGetReceiptScan)
	s.route(mux, "POST /api/ocr/receipt", s.handleOCRReceipt)

	return s
}

// route registers an authenticated API handler under the full middleware
// chain.
func (s *Server) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, s.withMiddleware(pattern, s.requireAuth(handler)))
}

// withMiddleware adds security headers, request ids, rate limiting on
// mutating requests, structured request logging and metrics.
func (s *Server) withMiddleware(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

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

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.metrics.requestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.statusCode)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, pattern).Observe(duration.Seconds())

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// requireAuth resolves the bearer token into a user id and stores it in the
// request context. Missing or invalid tokens get 401 before any handler
// code runs.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.tokens.FromAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "missing or invalid credentials")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

// userID returns the authenticated caller id. Handlers run behind
// requireAuth, so the value is always present.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.repo.GetSettings(ctx, "readiness-probe"); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the HTTP server and the cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
