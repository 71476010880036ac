package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/ga4"
	"github.com/patrickwarner/lpdash/internal/middleware"
	"github.com/patrickwarner/lpdash/internal/reporting"
	"github.com/patrickwarner/lpdash/internal/session"
)

// Messages returned with 401 responses.
const (
	MsgNotAuthenticated = "Not authenticated - please sign in"
	MsgNoAccessToken    = "No access token - please reconnect with Google"
	MsgInvalidToken     = "Invalid access token format"
	MsgRateLimited      = "Too many requests - please wait before refreshing"
)

// DashboardHandler handles GET /api/ga4?startDate=&endDate=.
func (s *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "dashboard"
	const method = "GET"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	status, body := s.dashboard(r, logger)
	writeJSON(w, status, body)
	s.observe(endpoint, method, status, start)
}

func (s *Server) dashboard(r *http.Request, logger *zap.Logger) (int, any) {
	sess, status, msg := s.currentSession(r)
	if sess == nil {
		return status, errorBody{Error: msg}
	}
	if sess.AccessToken == "" {
		return http.StatusUnauthorized, errorBody{Error: MsgNoAccessToken}
	}
	if err := ga4.ValidateToken(sess.AccessToken); err != nil {
		logger.Warn("rejecting malformed access token", zap.Int("token_length", len(sess.AccessToken)))
		return http.StatusUnauthorized, errorBody{Error: MsgInvalidToken}
	}
	if s.Limiter != nil && !s.Limiter.Allow(sess.ID) {
		logger.Info("dashboard load rate limited", zap.String("session_id", sess.ID))
		return http.StatusTooManyRequests, errorBody{Error: MsgRateLimited}
	}

	q := r.URL.Query()
	window, err := reporting.ParseWindow(q.Get("startDate"), q.Get("endDate"), s.now())
	if err != nil {
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	}

	payload, err := s.Dashboard.Aggregate(r.Context(), sess.AccessToken, window)
	if err != nil {
		return dashboardError(err)
	}
	return http.StatusOK, payload
}

// dashboardError maps an aggregation failure to a status and body.
func dashboardError(err error) (int, any) {
	switch {
	case errors.Is(err, ga4.ErrInvalidToken):
		return http.StatusUnauthorized, errorBody{Error: MsgInvalidToken}
	case errors.Is(err, ga4.ErrTokenExpired):
		return http.StatusUnauthorized, errorBody{Error: ga4.ExpiredTokenMessage}
	case errors.Is(err, reporting.ErrInvalidWindow):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: ga4.UserMessage(err)}
	}
}

// currentSession resolves the session cookie. On failure it returns the
// status and message to answer with.
func (s *Server) currentSession(r *http.Request) (*session.Session, int, string) {
	c, err := r.Cookie(s.Config.SessionCookieName)
	if err != nil || c.Value == "" || s.Sessions == nil {
		return nil, http.StatusUnauthorized, MsgNotAuthenticated
	}
	sess, err := s.Sessions.Resolve(r.Context(), c.Value)
	if errors.Is(err, session.ErrNotFound) {
		return nil, http.StatusUnauthorized, MsgNotAuthenticated
	}
	if err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Error("session lookup failed", zap.Error(err))
		return nil, http.StatusInternalServerError, "session lookup failed"
	}
	return sess, http.StatusOK, ""
}

// DemoHandler handles GET /api/ga4/demo.
func (s *Server) DemoHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "demo"
	const method = "GET"

	writeJSON(w, http.StatusOK, reporting.DemoPayload(s.now()))
	s.observe(endpoint, method, http.StatusOK, start)
}
