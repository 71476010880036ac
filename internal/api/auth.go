package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/middleware"
	"github.com/patrickwarner/lpdash/internal/session"
)

// SessionInfo is the body of GET /auth/session.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name,omitempty"`
	Expires       *time.Time `json:"expires,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// LoginHandler redirects to Google's consent screen.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "auth_login"
	const method = "GET"

	target, err := s.Sessions.LoginURL(r.URL.Query().Get("returnTo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.observe(endpoint, method, http.StatusBadRequest, start)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
	s.observe(endpoint, method, http.StatusFound, start)
}

// CallbackHandler finishes the OAuth flow and sets the session cookie.
func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "auth_callback"
	const method = "GET"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		logger.Warn("oauth consent declined", zap.String("error", e))
		writeError(w, http.StatusUnauthorized, MsgNotAuthenticated)
		s.observe(endpoint, method, http.StatusUnauthorized, start)
		return
	}

	sess, returnTo, err := s.Sessions.Complete(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, session.ErrInvalidState) {
			status = http.StatusBadRequest
		}
		logger.Warn("oauth callback failed", zap.Error(err))
		writeError(w, status, "sign-in failed")
		s.observe(endpoint, method, status, start)
		return
	}

	http.SetCookie(w, s.sessionCookie(sess.ID, s.Sessions.SessionTTL()))
	http.Redirect(w, r, returnTo, http.StatusFound)
	s.observe(endpoint, method, http.StatusFound, start)
}

// LogoutHandler deletes the session and clears the cookie.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "auth_logout"
	const method = "POST"

	if c, err := r.Cookie(s.Config.SessionCookieName); err == nil && c.Value != "" {
		if err := s.Sessions.Logout(r.Context(), c.Value); err != nil {
			middleware.LoggerFromRequest(r, s.Logger).Error("logout failed", zap.Error(err))
		}
	}
	http.SetCookie(w, s.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
	s.observe(endpoint, method, http.StatusNoContent, start)
}

// SessionHandler reports who is signed in.
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "auth_session"
	const method = "GET"

	info := SessionInfo{}
	sess, status, _ := s.currentSession(r)
	if sess != nil {
		info = SessionInfo{
			Authenticated: true,
			Email:         sess.Email,
			Name:          sess.Name,
			Error:         sess.RefreshError,
		}
		if !sess.Expiry.IsZero() {
			exp := sess.Expiry
			info.Expires = &exp
		}
	}
	if status == http.StatusUnauthorized {
		status = http.StatusOK
	}
	writeJSON(w, status, info)
	s.observe(endpoint, method, status, start)
}

// sessionCookie builds the session cookie. A negative ttl deletes it.
func (s *Server) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     s.Config.SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}
