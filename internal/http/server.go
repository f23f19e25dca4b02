package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/auth"
	"spendtrack/internal/cache"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
	appweb "spendtrack/web"
)

// UserStore is the account surface of the repository.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error)
	GetUserByLogin(ctx context.Context, identifier string) (*storage.User, error)
	GetOrCreateGoogleUser(ctx context.Context, email string) (*storage.User, error)
}

// Config holds the server tunables.
type Config struct {
	Addr            string
	ReportCacheTTL  time.Duration
	ReportCacheSize int
}

type Server struct {
	http.Server
	templates *template.Template

	users    UserStore
	ledger   *services.LedgerService
	reports  *services.ReportService
	sessions *auth.SessionStore
	google   *auth.GoogleVerifier

	rateLimiter *rateLimiter
	metrics     securityMetrics
	slogger     *applog.StructuredLogger

	// Rendered report payloads, keyed per user and view. Appending an
	// expense drops every cached view for that user.
	reportCache *cache.LRUCache[[]byte]
	cacheMgr    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(
	cfg Config,
	users UserStore,
	ledger *services.LedgerService,
	reports *services.ReportService,
	sessions *auth.SessionStore,
	google *auth.GoogleVerifier,
) *Server {
	mux := http.NewServeMux()

	ttl := cfg.ReportCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	size := cfg.ReportCacheSize
	if size <= 0 {
		size = 256
	}

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		users:       users,
		ledger:      ledger,
		reports:     reports,
		sessions:    sessions,
		google:      google,
		rateLimiter: newRateLimiter(),
		reportCache: cache.NewLRUCache[[]byte](size, ttl),
		cacheMgr:    cache.NewManager(),
		slogger: applog.NewStructuredLogger(applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		})),
	}

	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/api/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/api/auth/google", s.withSecurityHeaders(s.handleGoogleLogin))

	mux.HandleFunc("/api/expenses", s.withSecurityHeaders(s.handleAppendExpense))
	mux.HandleFunc("/api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/api/entries", s.withSecurityHeaders(s.handleEntries))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.slogger.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, &s.metrics) {
			slog.WarnContext(ctx, "Suspicious request blocked",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		// Apply rate limiting to mutating requests
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://cdn.jsdelivr.net https://accounts.google.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; frame-src https://accounts.google.com")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.slogger.LogHTTPEnd(ctx, r, requestID, rw.statusCode, duration.Milliseconds(), clientIP)
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		GoogleEnabled bool
	}{
		GoogleEnabled: s.google != nil,
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// requireSession resolves the session cookie, writing a 401 on failure.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Session{}, false
	}
	sess, err := s.sessions.Get(cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "session expired")
		return auth.Session{}, false
	}
	return sess, true
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
