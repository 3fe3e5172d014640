package tracker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Server handles HTTP requests for drivers and their shifts
type Server struct {
	service    *Service
	mux        *http.ServeMux
	authLimit  RateLimit
	authLimits *cache.Cache
	httpServer *http.Server
}

// RateLimit bounds login and registration attempts per client address
type RateLimit struct {
	Every time.Duration
	Burst int
}

// DefaultAuthRateLimit allows a burst of 10 attempts, then one every 6 seconds
var DefaultAuthRateLimit = RateLimit{Every: 6 * time.Second, Burst: 10}

type sessionContextKey struct{}

// NewServer creates a new Server with default mux
func NewServer(service *Service) *Server {
	return NewServerWithMux(service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux) *Server {
	s := &Server{
		service:    service,
		mux:        mux,
		authLimit:  DefaultAuthRateLimit,
		authLimits: cache.New(10*time.Minute, 10*time.Minute),
	}
	s.registerRoutes()
	return s
}

// SetAuthRateLimit replaces the login and registration limit
func (s *Server) SetAuthRateLimit(limit RateLimit) {
	s.authLimit = limit
	s.authLimits.Flush()
}

// sessionFromContext returns the session attached by requireAuth
func sessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// bearerToken extracts the session token from the Authorization header
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.service.Session(bearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="TaxiShift"`)
			s.writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess)))
	}
}

// clientAddress returns the remote IP without the port
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limitAuth middleware throttles credential attempts per client address
func (s *Server) limitAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddress(r)
		limiter := rate.NewLimiter(rate.Every(s.authLimit.Every), s.authLimit.Burst)
		if err := s.authLimits.Add(addr, limiter, cache.DefaultExpiration); err != nil {
			// Another request already created this address's limiter
			if v, ok := s.authLimits.Get(addr); ok {
				limiter = v.(*rate.Limiter)
			}
		}

		if !limiter.Allow() {
			slog.Warn("Rate limit exceeded", "path", r.URL.Path, "client", addr)
			writeJSON(w, http.StatusTooManyRequests, apiError{"Too many attempts. Please wait a minute and try again.", "rate_limited"})
			return
		}
		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsMiddleware adds CORS headers to every response and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	// Accounts
	s.mux.HandleFunc("POST /api/register", s.limitAuth(s.handleRegister))
	s.mux.HandleFunc("POST /api/login", s.limitAuth(s.handleLogin))
	s.mux.HandleFunc("POST /api/logout", s.requireAuth(s.handleLogout))
	s.mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleProfile))

	// Shifts
	s.mux.HandleFunc("GET /api/dashboard", s.requireAuth(s.handleDashboard))
	s.mux.HandleFunc("GET /api/extraction", s.requireAuth(s.handleExtractionStatus))
	s.mux.HandleFunc("GET /api/shifts/export", s.requireAuth(s.handleExportShifts))
	s.mux.HandleFunc("GET /api/shifts/{id}/receipt", s.requireAuth(s.handleGetShiftReceipt))
	s.mux.HandleFunc("GET /api/shifts/{id}", s.requireAuth(s.handleGetShift))
	s.mux.HandleFunc("DELETE /api/shifts/{id}", s.requireAuth(s.handleDeleteShift))
	s.mux.HandleFunc("POST /api/shifts/manual", s.requireAuth(s.handleAddShift))
	s.mux.HandleFunc("GET /api/shifts", s.requireAuth(s.handleListShifts))
	s.mux.HandleFunc("POST /api/shifts", s.requireAuth(s.handleSubmitReceipt))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops a started server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsMiddleware(s.mux).ServeHTTP(w, r)
}
