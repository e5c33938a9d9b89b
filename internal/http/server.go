// Package http serves the JSON API consumed by the dashboard SPA.
package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/cache"
	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	"github.com/Tcordeir0/vpsurge-fin/internal/dashboard"
	applog "github.com/Tcordeir0/vpsurge-fin/internal/log"
	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
	"github.com/Tcordeir0/vpsurge-fin/internal/vps"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

type Server struct {
	http.Server

	dash        *dashboard.Controller
	vps         *vps.Manager
	ring        *notify.Ring
	authToken   string
	rateLimiter *rateLimiter
	logger      *applog.Logger

	// Chart series caches, purged on every successful mutation.
	monthlyCache  *cache.LRU[[]core.MonthlyPoint]
	categoryCache *cache.LRU[[]core.CategoryTotal]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// An empty authToken disables the bearer check (local development).
func NewServer(addr string, dash *dashboard.Controller, vpsManager *vps.Manager, ring *notify.Ring, authToken string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dash:          dash,
		vps:           vpsManager,
		ring:          ring,
		authToken:     authToken,
		rateLimiter:   newRateLimiter(),
		logger:        applog.New(applog.Config{Component: applog.ComponentHTTP}),
		monthlyCache:  cache.NewLRU[[]core.MonthlyPoint](50, 5*time.Minute),
		categoryCache: cache.NewLRU[[]core.CategoryTotal](50, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withCommon(s.withAuth(h)))
	}

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("GET /api/metrics", s.handleMetrics)
	api("GET /api/charts/monthly", s.handleMonthlyChart)
	api("GET /api/charts/categories", s.handleCategoryChart)
	api("GET /api/notifications", s.handleNotifications)

	api("GET /api/vps", s.handleListVPS)
	api("POST /api/vps", s.handleCreateVPS)
	api("PUT /api/vps/{id}", s.handleUpdateVPS)
	api("DELETE /api/vps/{id}", s.handleDeleteVPS)
	api("POST /api/vps/{id}/test", s.handleTestVPS)
	api("POST /api/vps/{id}/restart", s.handleRestartVPS)
	api("POST /api/vps/{id}/toggle", s.handleToggleVPS)
	api("POST /api/vps/refresh", s.handleRefreshVPS)

	return s
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withCommon adds security headers, request tracing, rate limiting on
// mutations, and request logging.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
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

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

// withAuth enforces the bearer token when one is configured.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
			return
		}
		next(w, r)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the dashboard controller has left the
// loading state for the configured owner.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.dash.State() == dashboard.StateLoading {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateCharts drops memoized series after any transaction mutation.
func (s *Server) invalidateCharts() {
	s.monthlyCache.Purge()
	s.categoryCache.Purge()
}
