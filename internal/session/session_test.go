package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/patrickwarner/lpdash/internal/db"
	"github.com/patrickwarner/lpdash/internal/observability"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(db.NewRedisStore(client)), mr
}

// fakeGoogle serves the token and userinfo endpoints.
type fakeGoogle struct {
	srv         *httptest.Server
	refreshes   atomic.Int32
	failRefresh bool
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	fg := &fakeGoogle{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			if r.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"ya29.initial-access-token-value","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`))
		case "refresh_token":
			fg.refreshes.Add(1)
			if fg.failRefresh {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"ya29.refreshed-access-token-value","token_type":"Bearer","expires_in":3600}`))
		}
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.initial-access-token-value" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "marie@example.com", "name": "Marie"})
	})
	fg.srv = httptest.NewServer(mux)
	t.Cleanup(fg.srv.Close)
	return fg
}

func newTestManager(store Store, fg *fakeGoogle, metrics observability.MetricsRegistry) *Manager {
	return NewManager(store, Options{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		RedirectURL:   "http://localhost:3000/auth/callback",
		StateSecret:   []byte("state-secret"),
		StateTTL:      time.Minute,
		SessionTTL:    time.Hour,
		RefreshWindow: 5 * time.Minute,
		Endpoint: &oauth2.Endpoint{
			AuthURL:   fg.srv.URL + "/auth",
			TokenURL:  fg.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: fg.srv.URL + "/userinfo",
		HTTPClient:  fg.srv.Client(),
		Logger:      zap.NewNop(),
		Metrics:     metrics,
	})
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	sess := &Session{ID: "abc", Email: "a@example.com", AccessToken: "tok", Expiry: time.Unix(1700000000, 0).UTC()}

	require.NoError(t, store.Save(ctx, sess, time.Hour))
	assert.True(t, mr.Exists("session:abc"))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess.Email, got.Email)
	assert.True(t, sess.Expiry.Equal(got.Expiry))

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Save(ctx, &Session{}, time.Hour))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Session{ID: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginURL(t *testing.T) {
	store, _ := newTestStore(t)
	m := newTestManager(store, newFakeGoogle(t), nil)

	raw, err := m.LoginURL("/ga4")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "analytics.readonly")
	assert.NotEmpty(t, q.Get("state"))

	_, err = m.LoginURL("https://elsewhere.example")
	assert.Error(t, err)
}

func TestCompleteCreatesSession(t *testing.T) {
	store, _ := newTestStore(t)
	m := newTestManager(store, newFakeGoogle(t), nil)
	ctx := context.Background()

	raw, err := m.LoginURL("/ga4")
	require.NoError(t, err)
	u, _ := url.Parse(raw)

	sess, returnTo, err := m.Complete(ctx, "good-code", u.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "/ga4", returnTo)
	assert.Equal(t, "marie@example.com", sess.Email)
	assert.Equal(t, "ya29.initial-access-token-value", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)

	stored, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, stored.AccessToken)
}

func TestCompleteRejectsBadState(t *testing.T) {
	store, _ := newTestStore(t)
	m := newTestManager(store, newFakeGoogle(t), nil)
	_, _, err := m.Complete(context.Background(), "good-code", "forged.state")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteRejectsBadCode(t *testing.T) {
	store, _ := newTestStore(t)
	m := newTestManager(store, newFakeGoogle(t), nil)
	raw, _ := m.LoginURL("/")
	u, _ := url.Parse(raw)
	_, _, err := m.Complete(context.Background(), "bad-code", u.Query().Get("state"))
	assert.Error(t, err)
}

func TestResolveRefreshesNearExpiry(t *testing.T) {
	store, _ := newTestStore(t)
	fg := newFakeGoogle(t)
	metrics := observability.NewMockMetricsRegistry()
	m := newTestManager(store, fg, metrics)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{
		ID:           "s1",
		AccessToken:  "ya29.initial-access-token-value",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(2 * time.Minute),
		CreatedAt:    time.Now(),
	}, time.Hour))

	sess, err := m.Resolve(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.refreshed-access-token-value", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.True(t, sess.Expiry.After(time.Now().Add(30*time.Minute)))
	assert.Equal(t, int32(1), fg.refreshes.Load())
	assert.Equal(t, 1, metrics.Refreshes["success"])

	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.refreshed-access-token-value", stored.AccessToken)
}

func TestResolveKeepsFreshToken(t *testing.T) {
	store, _ := newTestStore(t)
	fg := newFakeGoogle(t)
	m := newTestManager(store, fg, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{
		ID:           "s2",
		AccessToken:  "ya29.initial-access-token-value",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
	}, time.Hour))

	sess, err := m.Resolve(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "ya29.initial-access-token-value", sess.AccessToken)
	assert.Zero(t, fg.refreshes.Load())
}

func TestResolveRefreshFailureKeepsSession(t *testing.T) {
	store, _ := newTestStore(t)
	fg := newFakeGoogle(t)
	fg.failRefresh = true
	metrics := observability.NewMockMetricsRegistry()
	m := newTestManager(store, fg, metrics)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{
		ID:           "s3",
		AccessToken:  "ya29.initial-access-token-value",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Minute),
		CreatedAt:    time.Now(),
	}, time.Hour))

	sess, err := m.Resolve(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, "ya29.initial-access-token-value", sess.AccessToken)
	assert.Equal(t, RefreshError, sess.RefreshError)
	assert.Equal(t, 1, metrics.Refreshes["failure"])
}

func TestResolveUnknownAndLogout(t *testing.T) {
	store, _ := newTestStore(t)
	m := newTestManager(store, newFakeGoogle(t), nil)
	ctx := context.Background()

	_, err := m.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, &Session{ID: "s4", AccessToken: "t"}, time.Hour))
	require.NoError(t, m.Logout(ctx, "s4"))
	_, err = m.Resolve(ctx, "s4")
	assert.ErrorIs(t, err, ErrNotFound)
}
