// Package http exposes the JSON API. Every data route is scoped to the
// authenticated user; admin routes re-check the role on each request.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"dietario/internal/services"
	"dietario/internal/storage"
)

type Server struct {
	http.Server

	users        *storage.UserStore
	meals        *services.MealService
	measurements *services.MeasurementService
	reports      *services.ReportService
	sessions     *sessionManager

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// Options carries what NewServer needs beyond the services themselves.
type Options struct {
	Addr          string
	SessionSecret string
	SessionTTL    time.Duration
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(opts Options, users *storage.UserStore, meals *services.MealService, measurements *services.MeasurementService, reports *services.ReportService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		users:        users,
		meals:        meals,
		measurements: measurements,
		reports:      reports,
		sessions:     newSessionManager(opts.SessionSecret, opts.SessionTTL),
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("GET /api/profile", s.withSecurityHeaders(s.requireAuth(s.handleGetProfile)))
	mux.HandleFunc("PUT /api/profile", s.withSecurityHeaders(s.requireAuth(s.handleUpdateProfile)))
	mux.HandleFunc("DELETE /api/profile", s.withSecurityHeaders(s.requireAuth(s.handleDeleteAccount)))

	mux.HandleFunc("GET /api/meals", s.withSecurityHeaders(s.requireAuth(s.handleListMeals)))
	mux.HandleFunc("POST /api/meals", s.withSecurityHeaders(s.requireAuth(s.handleCreateMeal)))
	mux.HandleFunc("PUT /api/meals/{index}", s.withSecurityHeaders(s.requireAuth(s.handleUpdateMeal)))
	mux.HandleFunc("DELETE /api/meals/{index}", s.withSecurityHeaders(s.requireAuth(s.handleDeleteMeal)))

	mux.HandleFunc("GET /api/measurements", s.withSecurityHeaders(s.requireAuth(s.handleListMeasurements)))
	mux.HandleFunc("GET /api/measurements/latest", s.withSecurityHeaders(s.requireAuth(s.handleLatestMeasurement)))
	mux.HandleFunc("POST /api/measurements", s.withSecurityHeaders(s.requireAuth(s.handleCreateMeasurement)))
	mux.HandleFunc("PUT /api/measurements/{index}", s.withSecurityHeaders(s.requireAuth(s.handleUpdateMeasurement)))
	mux.HandleFunc("DELETE /api/measurements/{index}", s.withSecurityHeaders(s.requireAuth(s.handleDeleteMeasurement)))

	mux.HandleFunc("GET /api/reports/meals", s.withSecurityHeaders(s.requireAuth(s.handleMealReport)))
	mux.HandleFunc("GET /api/reports/measurements", s.withSecurityHeaders(s.requireAuth(s.handleMeasurementReport)))

	mux.HandleFunc("GET /api/admin/users", s.withSecurityHeaders(s.requireAdmin(s.handleAdminListUsers)))
	mux.HandleFunc("DELETE /api/admin/users/{username}", s.withSecurityHeaders(s.requireAdmin(s.handleAdminDeleteUser)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
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

type contextKey string

const requestIDKey contextKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
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

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Apply rate limiting to mutating requests
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "troppe richieste, riprova più tardi")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
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

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
