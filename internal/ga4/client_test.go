package ga4

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/observability"
)

const testToken = "ya29.a0AfH6SMBx-test-token-value"

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *observability.MockMetricsRegistry) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	metrics := observability.NewMockMetricsRegistry()
	client := NewClient(Options{
		PropertyID: "properties/456789123",
		BaseURL:    server.URL,
		Timeout:    500 * time.Millisecond,
		HTTPClient: server.Client(),
		Logger:     zap.NewNop(),
		Metrics:    metrics,
	})
	return client, metrics
}

func TestRunReport_Success(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/properties/456789123:runReport", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var q ReportQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "deviceCategory", q.Dimensions[0].Name)
		assert.Equal(t, "eventName", q.DimensionFilter.Filter.FieldName)
		assert.Equal(t, "cta_click", q.DimensionFilter.Filter.StringFilter.Value)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows":[{"dimensionValues":[{"value":"mobile"}],"metricValues":[{"value":"120"},{"value":"0.45"}]}],"rowCount":1}`))
	})

	res, err := client.RunReport(context.Background(), testToken, ReportQuery{
		DateRanges:      []DateRange{{StartDate: "2025-01-07", EndDate: "2025-01-14"}},
		Dimensions:      Dimensions("deviceCategory"),
		Metrics:         Metrics("sessions", "bounceRate"),
		DimensionFilter: EventNameIs("cta_click"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
	assert.Equal(t, "mobile", FirstDimension(res, 0))
	assert.InDelta(t, 0.45, FirstMetric(res, 1), 1e-9)
	assert.Equal(t, 1, metrics.GA4Count("success"))
}

func TestRunReport_InvalidToken(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	for _, tok := range []string{"", "short-token"} {
		_, err := client.RunReport(context.Background(), tok, ReportQuery{})
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
	assert.False(t, called, "upstream must not be called with a malformed token")
}

func TestRunReport_RemoteErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		expired bool
	}{
		{"structured", http.StatusForbidden, `{"error":{"code":403,"message":"User does not have sufficient permissions","status":"PERMISSION_DENIED"}}`, "User does not have sufficient permissions", false},
		{"raw body", http.StatusBadGateway, "upstream exploded", "upstream exploded", false},
		{"empty body", http.StatusInternalServerError, "", "GA4 API error: 500 Internal Server Error", false},
		{"json without message", http.StatusBadRequest, `{}`, "GA4 API error: 400 Bad Request", false},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Request had invalid credentials."}}`, "Request had invalid credentials.", true},
		{"authentication text", http.StatusForbidden, `{"error":{"message":"Request is missing required authentication credential."}}`, "Request is missing required authentication credential.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.RunReport(context.Background(), testToken, ReportQuery{})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.expired, errors.Is(err, ErrTokenExpired))
			if tt.expired {
				assert.Equal(t, ExpiredTokenMessage, UserMessage(err))
			} else {
				assert.Equal(t, tt.message, UserMessage(err))
			}
			assert.Equal(t, 1, metrics.GA4Count("error_status"))
		})
	}
}

func TestRunReport_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, err := client.RunReport(context.Background(), testToken, ReportQuery{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, metrics.GA4Count("failure"))
}

func TestRunReport_MalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows": [`))
	})
	_, err := client.RunReport(context.Background(), testToken, ReportQuery{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode report"))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{PropertyID: "123"})
	assert.Equal(t, "123", c.PropertyID())
	assert.Equal(t, DefaultBaseURL+"/v1beta/properties/123:runReport", c.endpoint())
	assert.Equal(t, 10*time.Second, c.timeout)
}
