package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/config"
	"github.com/patrickwarner/lpdash/internal/observability"
	"github.com/patrickwarner/lpdash/internal/reporting"
	"github.com/patrickwarner/lpdash/internal/session"
)

// Dashboard builds the dashboard payload for a token and window.
type Dashboard interface {
	Aggregate(ctx context.Context, token string, w reporting.Window) (*reporting.Payload, error)
}

// Sessions is the sign-in flow and session lookup used by the handlers.
type Sessions interface {
	LoginURL(returnTo string) (string, error)
	Complete(ctx context.Context, code, state string) (*session.Session, string, error)
	Resolve(ctx context.Context, id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
	SessionTTL() time.Duration
}

// Limiter decides whether a session may load the dashboard again.
type Limiter interface {
	Allow(key string) bool
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger    *zap.Logger
	Dashboard Dashboard
	Sessions  Sessions
	Limiter   Limiter // optional; nil disables throttling
	Metrics   observability.MetricsRegistry
	Config    config.Config
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, dashboard Dashboard, sessions Sessions, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:    logger,
		Dashboard: dashboard,
		Sessions:  sessions,
		Metrics:   metrics,
		Config:    cfg,
		Now:       time.Now,
	}
}

// Routes registers every handler on a new router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/ga4", s.DashboardHandler).Methods("GET")
	r.HandleFunc("/api/ga4/demo", s.DemoHandler).Methods("GET")
	r.HandleFunc("/auth/login", s.LoginHandler).Methods("GET")
	r.HandleFunc("/auth/callback", s.CallbackHandler).Methods("GET")
	r.HandleFunc("/auth/logout", s.LogoutHandler).Methods("POST")
	r.HandleFunc("/auth/session", s.SessionHandler).Methods("GET")
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	return r
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// observe records the request count and latency for an endpoint.
func (s *Server) observe(endpoint, method string, status int, start time.Time) {
	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
