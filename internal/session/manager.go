package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/patrickwarner/lpdash/internal/observability"
	"github.com/patrickwarner/lpdash/internal/token"
)

// Scopes requested at sign-in.
var Scopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/analytics.readonly",
}

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// RefreshError is recorded on a session whose token could not be renewed.
const RefreshError = "RefreshAccessTokenError"

// ErrInvalidState is returned when the OAuth callback state does not verify.
var ErrInvalidState = errors.New("invalid oauth state")

// Options configures a Manager.
type Options struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	StateSecret   []byte
	StateTTL      time.Duration
	SessionTTL    time.Duration
	RefreshWindow time.Duration
	// Endpoint overrides google.Endpoint.
	Endpoint    *oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Metrics     observability.MetricsRegistry
}

// Manager runs the OAuth flow and keeps session tokens fresh.
type Manager struct {
	oauth         *oauth2.Config
	store         Store
	stateSecret   []byte
	stateTTL      time.Duration
	sessionTTL    time.Duration
	refreshWindow time.Duration
	userInfoURL   string
	httpClient    *http.Client
	logger        *zap.Logger
	metrics       observability.MetricsRegistry
	now           func() time.Time
}

// NewManager builds a Manager over store.
func NewManager(store Store, opts Options) *Manager {
	endpoint := google.Endpoint
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	if opts.UserInfoURL == "" {
		opts.UserInfoURL = DefaultUserInfoURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewNoOpRegistry()
	}
	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		store:         store,
		stateSecret:   opts.StateSecret,
		stateTTL:      opts.StateTTL,
		sessionTTL:    opts.SessionTTL,
		refreshWindow: opts.RefreshWindow,
		userInfoURL:   opts.UserInfoURL,
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		now:           time.Now,
	}
}

// SessionTTL is the lifetime of a new session.
func (m *Manager) SessionTTL() time.Duration { return m.sessionTTL }

func (m *Manager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// LoginURL returns the Google consent URL. Offline access with forced
// consent makes Google issue a refresh token on every sign-in.
func (m *Manager) LoginURL(returnTo string) (string, error) {
	state, err := token.Generate(returnTo, m.stateSecret)
	if err != nil {
		return "", err
	}
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

type userInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Complete verifies the callback state, exchanges the code and stores a new
// session. It returns the session and the path to send the user to.
func (m *Manager) Complete(ctx context.Context, code, state string) (*Session, string, error) {
	st, err := token.Verify(state, m.stateSecret, m.stateTTL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	ctx = m.clientContext(ctx)
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("exchange code: %w", err)
	}
	info, err := m.fetchUserInfo(ctx, tok)
	if err != nil {
		return nil, "", err
	}

	sess := &Session{
		ID:           uuid.NewString(),
		Email:        info.Email,
		Name:         info.Name,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		CreatedAt:    m.now(),
	}
	if err := m.store.Save(ctx, sess, m.sessionTTL); err != nil {
		return nil, "", err
	}
	m.logger.Info("session created", zap.String("session_id", sess.ID), zap.String("email", sess.Email))
	return sess, st.ReturnTo, nil
}

func (m *Manager) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (userInfo, error) {
	var info userInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return info, err
	}
	resp, err := m.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return info, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode userinfo: %w", err)
	}
	return info, nil
}

// Resolve loads a session and renews its access token when it expires within
// the refresh window. A failed refresh keeps the old token and marks the
// session; the next upstream call then reports the expiry to the user.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	sess, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.RefreshToken == "" || sess.AccessToken == "" {
		return sess, nil
	}

	current := &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.Expiry,
		TokenType:    "Bearer",
	}
	base := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: sess.RefreshToken})
	tok, err := oauth2.ReuseTokenSourceWithExpiry(current, base, m.refreshWindow).Token()
	if err != nil {
		m.metrics.IncrementSessionRefreshes("failure")
		m.logger.Warn("token refresh failed", zap.String("session_id", sess.ID), zap.Error(err))
		sess.RefreshError = RefreshError
		m.persist(ctx, sess)
		return sess, nil
	}
	if tok.AccessToken == sess.AccessToken {
		return sess, nil
	}

	m.metrics.IncrementSessionRefreshes("success")
	sess.AccessToken = tok.AccessToken
	sess.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		sess.RefreshToken = tok.RefreshToken
	}
	sess.RefreshError = ""
	m.persist(ctx, sess)
	return sess, nil
}

// persist rewrites a session for the rest of its original lifetime.
func (m *Manager) persist(ctx context.Context, sess *Session) {
	ttl := m.sessionTTL
	if ttl > 0 {
		ttl -= m.now().Sub(sess.CreatedAt)
		if ttl <= 0 {
			return
		}
	}
	if err := m.store.Save(ctx, sess, ttl); err != nil {
		m.logger.Error("session save failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// Logout removes the session.
func (m *Manager) Logout(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
