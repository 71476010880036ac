package config

import (
	"os"
	"strconv"
	"time"
)

// Source conversion modes accepted by SOURCE_CONVERSION_MODE.
const (
	SourceConversionComputed    = "computed"
	SourceConversionPlaceholder = "placeholder"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	Environment  string
	BaseURL      string
	// GA4 Data API
	GA4PropertyID     string
	GA4APIBaseURL     string
	GA4RequestTimeout time.Duration
	// SourceConversionMode selects how traffic-source conversion rates are derived.
	SourceConversionMode string
	// Session and OAuth configuration
	RedisAddr          string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	StateSecret        string
	StateTTL           time.Duration
	SessionCookieName  string
	SessionTTL         time.Duration
	CookieSecure       bool
	TokenRefreshWindow time.Duration
	// Per-session dashboard rate limiting
	RateLimitEnabled   bool
	RateLimitCapacity  int
	RateLimitPerMinute int
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "3000")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	// the dashboard endpoint waits on up to nine upstream calls
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 30*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "lpdash")
	cfg.Environment = getenv("ENV", "production")
	cfg.BaseURL = getenv("BASE_URL", "http://localhost:"+cfg.Port)

	cfg.GA4PropertyID = getenv("GA4_PROPERTY_ID", "properties/456789123")
	cfg.GA4APIBaseURL = getenv("GA4_API_BASE_URL", "https://analyticsdata.googleapis.com")
	cfg.GA4RequestTimeout = envDuration("GA4_REQUEST_TIMEOUT", 10*time.Second)
	cfg.SourceConversionMode = envOneOf("SOURCE_CONVERSION_MODE", SourceConversionComputed,
		SourceConversionComputed, SourceConversionPlaceholder)

	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.GoogleClientID = getenv("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = getenv("GOOGLE_CLIENT_SECRET", "")
	cfg.OAuthRedirectURL = getenv("OAUTH_REDIRECT_URL", cfg.BaseURL+"/auth/callback")
	cfg.StateSecret = getenv("STATE_SECRET", "")
	cfg.StateTTL = envDuration("STATE_TTL", 10*time.Minute)
	cfg.SessionCookieName = getenv("SESSION_COOKIE_NAME", "lpdash_session")
	cfg.SessionTTL = envDuration("SESSION_TTL", 30*24*time.Hour)
	cfg.CookieSecure = envBool("COOKIE_SECURE", false)
	// refresh Google access tokens that expire within this window
	cfg.TokenRefreshWindow = envDuration("TOKEN_REFRESH_WINDOW", 5*time.Minute)

	cfg.RateLimitEnabled = envBool("RATE_LIMIT_ENABLED", true)
	cfg.RateLimitCapacity = envInt("RATE_LIMIT_CAPACITY", 10)
	cfg.RateLimitPerMinute = envInt("RATE_LIMIT_PER_MINUTE", 6)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envOneOf returns the environment value when it is one of allowed, otherwise def.
func envOneOf(key, def string, allowed ...string) string {
	v := os.Getenv(key)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
