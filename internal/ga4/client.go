package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/observability"
)

// DefaultBaseURL is the public Data API endpoint.
const DefaultBaseURL = "https://analyticsdata.googleapis.com"

// Runner issues a single report query. *Client implements it.
type Runner interface {
	RunReport(ctx context.Context, token string, query ReportQuery) (*ReportResult, error)
}

// Options configures a Client.
type Options struct {
	// PropertyID accepts either "properties/123" or "123".
	PropertyID string
	BaseURL    string
	// Timeout bounds each runReport call. Zero means 10 seconds.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    observability.MetricsRegistry
}

// Client calls the runReport method for one GA4 property.
type Client struct {
	propertyID string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

var _ Runner = (*Client)(nil)

// NewClient creates a Data API client. Outbound requests are traced with otelhttp
// unless a custom HTTPClient is supplied.
func NewClient(opts Options) *Client {
	c := &Client{
		propertyID: strings.TrimPrefix(opts.PropertyID, "properties/"),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = observability.NewNoOpRegistry()
	}
	return c
}

// PropertyID returns the numeric property identifier.
func (c *Client) PropertyID() string {
	return c.propertyID
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/properties/%s:runReport", c.baseURL, c.propertyID)
}

// RunReport executes query against the property using token as bearer
// credentials. Non-success responses are returned as *APIError. The call is
// never retried.
func (c *Client) RunReport(ctx context.Context, token string, query ReportQuery) (*ReportResult, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordGA4Latency(time.Since(start))
		c.metrics.IncrementGA4Requests(outcome)
	}()

	body, err := json.Marshal(query)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("marshal report query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("run report: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "error_status"
		raw, _ := io.ReadAll(resp.Body)
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.Error("ga4 api error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
			zap.String("property_id", c.propertyID),
			zap.Int("token_length", len(token)),
		)
		return nil, apiErr
	}

	var result ReportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &result, nil
}

// remoteError is the error envelope returned by Google APIs.
type remoteError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newAPIError(code int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: code, Status: http.StatusText(code)}

	apiErr.Message = fmt.Sprintf("GA4 API error: %d %s", code, apiErr.Status)

	var env remoteError
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error.Message != "" {
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	// not JSON: surface the body as-is
	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}
