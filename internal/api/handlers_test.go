package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/config"
	"github.com/patrickwarner/lpdash/internal/ga4"
	"github.com/patrickwarner/lpdash/internal/observability"
	"github.com/patrickwarner/lpdash/internal/ratelimit"
	"github.com/patrickwarner/lpdash/internal/reporting"
	"github.com/patrickwarner/lpdash/internal/session"
)

const (
	testToken  = "ya29.a0AfH6SMBx-test-token-value"
	cookieName = "lpdash_session"
)

var testNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type fakeDashboard struct {
	gotToken  string
	gotWindow reporting.Window
	payload   *reporting.Payload
	err       error
}

func (f *fakeDashboard) Aggregate(ctx context.Context, token string, w reporting.Window) (*reporting.Payload, error) {
	f.gotToken = token
	f.gotWindow = w
	return f.payload, f.err
}

type fakeSessions struct {
	sessions  map[string]*session.Session
	loggedOut []string
	err       error
}

func (f *fakeSessions) LoginURL(returnTo string) (string, error) {
	if returnTo == "//bad" {
		return "", errors.New("bad return path")
	}
	return "https://accounts.example/auth?state=s&return=" + returnTo, nil
}

func (f *fakeSessions) Complete(ctx context.Context, code, state string) (*session.Session, string, error) {
	if state != "good" {
		return nil, "", session.ErrInvalidState
	}
	if code != "code" {
		return nil, "", errors.New("exchange failed")
	}
	return &session.Session{ID: "new-session"}, "/ga4", nil
}

func (f *fakeSessions) Resolve(ctx context.Context, id string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, session.ErrNotFound
}

func (f *fakeSessions) Logout(ctx context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	return nil
}

func (f *fakeSessions) SessionTTL() time.Duration { return time.Hour }

func newTestServer(dash *fakeDashboard) (*Server, *fakeSessions, *observability.MockMetricsRegistry) {
	sessions := &fakeSessions{sessions: map[string]*session.Session{
		"good":     {ID: "good", Email: "marie@example.com", AccessToken: testToken},
		"no-token": {ID: "no-token", Email: "a@example.com"},
		"short":    {ID: "short", AccessToken: "0123456789"},
	}}
	metrics := observability.NewMockMetricsRegistry()
	srv := NewServer(zap.NewNop(), dash, sessions, metrics, config.Config{SessionCookieName: cookieName})
	srv.Now = func() time.Time { return testNow }
	return srv, sessions, metrics
}

func get(t *testing.T, srv *Server, target, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestDashboardUnauthenticated(t *testing.T) {
	srv, _, metrics := newTestServer(&fakeDashboard{})

	rec := get(t, srv, "/api/ga4", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgNotAuthenticated, errorOf(t, rec))

	rec = get(t, srv, "/api/ga4", "unknown")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgNotAuthenticated, errorOf(t, rec))
	assert.Equal(t, 2, metrics.Requests["dashboard GET 401"])
}

func TestDashboardMissingAndShortToken(t *testing.T) {
	dash := &fakeDashboard{}
	srv, _, _ := newTestServer(dash)

	rec := get(t, srv, "/api/ga4", "no-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgNoAccessToken, errorOf(t, rec))

	rec = get(t, srv, "/api/ga4", "short")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgInvalidToken, errorOf(t, rec))
	assert.Empty(t, dash.gotToken)
}

func TestDashboardSuccess(t *testing.T) {
	dash := &fakeDashboard{payload: &reporting.Payload{KPIs: reporting.KPISet{Sessions: 1234, AvgTimeOnPage: "2:34"}}}
	srv, _, _ := newTestServer(dash)

	rec := get(t, srv, "/api/ga4?startDate=2025-01-01&endDate=2025-01-07", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, testToken, dash.gotToken)
	assert.Equal(t, reporting.DateRange{Start: "2025-01-01", End: "2025-01-07"}, dash.gotWindow.Range())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	kpis := body["kpis"].(map[string]any)
	assert.Equal(t, float64(1234), kpis["sessions"])
}

func TestDashboardDefaultWindow(t *testing.T) {
	dash := &fakeDashboard{payload: &reporting.Payload{}}
	srv, _, _ := newTestServer(dash)

	rec := get(t, srv, "/api/ga4", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reporting.DateRange{Start: "2025-01-08", End: "2025-01-15"}, dash.gotWindow.Range())
}

func TestDashboardBadDates(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	rec := get(t, srv, "/api/ga4?startDate=01/02/2025", "good")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid date range")

	rec = get(t, srv, "/api/ga4?startDate=2025-02-01&endDate=2025-01-01", "good")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardRateLimited(t *testing.T) {
	dash := &fakeDashboard{payload: &reporting.Payload{}}
	srv, _, metrics := newTestServer(dash)
	srv.Limiter = ratelimit.NewSessionLimiter(ratelimit.Config{Capacity: 2, PerMinute: 1, Enabled: true}, "dashboard", metrics)

	assert.Equal(t, http.StatusOK, get(t, srv, "/api/ga4", "good").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/ga4", "good").Code)

	rec := get(t, srv, "/api/ga4", "good")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, MsgRateLimited, errorOf(t, rec))
	assert.Equal(t, 1, metrics.RateLimited["dashboard"])

	// unauthenticated requests are rejected before the limiter is consulted
	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/ga4", "").Code)
	assert.Equal(t, 1, metrics.RateLimited["dashboard"])
}

type denyAll struct{ calls int }

func (d *denyAll) Allow(string) bool {
	d.calls++
	return false
}

func TestDashboardTokenFormatCheckedBeforeRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})
	limiter := &denyAll{}
	srv.Limiter = limiter

	rec := get(t, srv, "/api/ga4", "short")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgInvalidToken, errorOf(t, rec))
	assert.Zero(t, limiter.calls)

	rec = get(t, srv, "/api/ga4", "good")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, limiter.calls)
}

func TestDashboardErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "expired token",
			err:    &reporting.PipelineError{Facet: reporting.FacetKPIs, Err: &ga4.APIError{StatusCode: 401, Message: "Request had invalid authentication credentials."}},
			status: http.StatusUnauthorized,
			msg:    ga4.ExpiredTokenMessage,
		},
		{
			name:   "upstream failure",
			err:    &reporting.PipelineError{Facet: reporting.FacetCTAClicks, Err: &ga4.APIError{StatusCode: 403, Message: "User does not have sufficient permissions for this property."}},
			status: http.StatusInternalServerError,
			msg:    "User does not have sufficient permissions for this property.",
		},
		{
			name:   "invalid token",
			err:    ga4.ErrInvalidToken,
			status: http.StatusUnauthorized,
			msg:    MsgInvalidToken,
		},
		{
			name:   "transport failure",
			err:    &reporting.PipelineError{Facet: reporting.FacetKPIs, Err: errors.New("dial tcp: connection refused")},
			status: http.StatusInternalServerError,
			msg:    "fetch kpis: dial tcp: connection refused",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv, _, _ := newTestServer(&fakeDashboard{err: c.err})
			rec := get(t, srv, "/api/ga4", "good")
			assert.Equal(t, c.status, rec.Code)
			assert.Equal(t, c.msg, errorOf(t, rec))
		})
	}
}

func TestDashboardSessionStoreFailure(t *testing.T) {
	srv, sessions, _ := newTestServer(&fakeDashboard{})
	sessions.err = errors.New("redis down")

	rec := get(t, srv, "/api/ga4", "good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDemoHandler(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	rec := get(t, srv, "/api/ga4/demo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p reporting.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(2847), p.KPIs.Sessions)
	assert.NotEmpty(t, p.CTAAnalysis)
	assert.Equal(t, reporting.Fallback, p.Debug.DataSources[reporting.FacetKPIs])
}

func TestLoginRedirects(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	rec := get(t, srv, "/auth/login?returnTo=/ga4", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example/auth?state=s&return=/ga4", rec.Header().Get("Location"))

	rec = get(t, srv, "/auth/login?returnTo=//bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackSetsCookie(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	rec := get(t, srv, "/auth/callback?code=code&state=good", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ga4", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, "new-session", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestCallbackFailures(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/auth/callback?code=code&state=forged", "").Code)
	assert.Equal(t, http.StatusBadGateway, get(t, srv, "/auth/callback?code=nope&state=good", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/auth/callback?error=access_denied", "").Code)
}

func TestLogout(t *testing.T) {
	srv, sessions, _ := newTestServer(&fakeDashboard{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "good"})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"good"}, sessions.loggedOut)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionInfo(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})

	var info SessionInfo
	rec := get(t, srv, "/auth/session", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Authenticated)
	assert.Equal(t, "marie@example.com", info.Email)

	info = SessionInfo{}
	rec = get(t, srv, "/auth/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.False(t, info.Authenticated)
}

func TestHealthHandler(t *testing.T) {
	srv, _, _ := newTestServer(&fakeDashboard{})
	assert.Equal(t, http.StatusOK, get(t, srv, "/health", "").Code)

	srv.Ready = func(context.Context) error { return errors.New("redis: connection refused") }
	rec := get(t, srv, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
