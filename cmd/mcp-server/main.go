package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/config"
	"github.com/patrickwarner/lpdash/internal/ga4"
	"github.com/patrickwarner/lpdash/internal/observability"
	"github.com/patrickwarner/lpdash/internal/reporting"
)

// DashboardInput selects the reporting window. Dates are YYYY-MM-DD.
type DashboardInput struct {
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

type DemoInput struct{}

type aggregator interface {
	Aggregate(ctx context.Context, token string, w reporting.Window) (*reporting.Payload, error)
}

// DashboardServer exposes the dashboard pipeline as MCP tools.
type DashboardServer struct {
	dashboard aggregator
	// token is used when a call carries no access_token
	token  string
	logger *zap.Logger
	now    func() time.Time
}

// Dashboard runs the full aggregation for the requested window.
func (s *DashboardServer) Dashboard(ctx context.Context, req *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, reporting.Payload, error) {
	tok := input.AccessToken
	if tok == "" {
		tok = s.token
	}
	if tok == "" {
		return nil, reporting.Payload{}, errors.New("access_token is required (or set GA4_ACCESS_TOKEN)")
	}

	w, err := reporting.ParseWindow(input.StartDate, input.EndDate, s.now())
	if err != nil {
		return nil, reporting.Payload{}, err
	}

	s.logger.Info("Running dashboard aggregation",
		zap.String("start_date", w.Range().Start),
		zap.String("end_date", w.Range().End))

	p, err := s.dashboard.Aggregate(ctx, tok, w)
	if err != nil {
		s.logger.Error("Dashboard aggregation failed", zap.Error(err))
		if errors.Is(err, ga4.ErrInvalidToken) {
			return nil, reporting.Payload{}, errors.New("Invalid access token format")
		}
		return nil, reporting.Payload{}, errors.New(ga4.UserMessage(err))
	}
	return nil, *p, nil
}

// Demo returns the static demo dataset.
func (s *DashboardServer) Demo(ctx context.Context, req *mcp.CallToolRequest, input DemoInput) (*mcp.CallToolResult, reporting.Payload, error) {
	return nil, *reporting.DemoPayload(s.now()), nil
}

func newMCPServer(ds *DashboardServer) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lpdash",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ga4_dashboard",
		Description: "Landing-page dashboard from GA4: KPIs with period-over-period change, traffic sources, devices, daily trend, CTA positions and insights, scroll depth, time on page and section views",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"start_date": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "Window start (YYYY-MM-DD, optional, defaults to 7 days before end_date)",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "Window end (YYYY-MM-DD, optional, defaults to today)",
				},
				"access_token": map[string]interface{}{
					"type":        "string",
					"description": "Google OAuth access token with analytics.readonly scope (optional when GA4_ACCESS_TOKEN is set)",
				},
			},
		},
	}, ds.Dashboard)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ga4_demo",
		Description: "Static demo dataset with the same shape as ga4_dashboard",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, ds.Demo)

	return server
}

func main() {
	cfg := config.Load()

	// stdout carries the protocol, so logs go to stderr
	logger, err := observability.InitStderrLogger(cfg.ServiceName + "-mcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	client := ga4.NewClient(ga4.Options{
		PropertyID: cfg.GA4PropertyID,
		BaseURL:    cfg.GA4APIBaseURL,
		Timeout:    cfg.GA4RequestTimeout,
		Logger:     logger,
	})
	ds := &DashboardServer{
		dashboard: reporting.NewAggregator(client, logger, nil, reporting.Options{
			Conversion: conversionFor(cfg.SourceConversionMode),
		}),
		token:  os.Getenv("GA4_ACCESS_TOKEN"),
		logger: logger,
		now:    time.Now,
	}

	server := newMCPServer(ds)

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP Server running via stdio", zap.String("property_id", client.PropertyID()))

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}

// conversionFor maps SOURCE_CONVERSION_MODE onto a conversion strategy.
func conversionFor(mode string) reporting.ConversionFunc {
	if mode == config.SourceConversionPlaceholder {
		return reporting.PlaceholderConversion(nil)
	}
	return reporting.ComputedConversion
}
