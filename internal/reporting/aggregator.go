package reporting

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/patrickwarner/lpdash/internal/ga4"
	"github.com/patrickwarner/lpdash/internal/observability"
)

// Options tunes an Aggregator.
type Options struct {
	// Conversion renders traffic-source conversion rates. Nil means ComputedConversion.
	Conversion ConversionFunc
}

// Aggregator runs the dashboard queries for one window and merges them into a Payload.
type Aggregator struct {
	runner     ga4.Runner
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
	tracer     trace.Tracer
	conversion ConversionFunc
}

// NewAggregator wires an Aggregator. Nil logger and metrics are replaced with no-ops.
func NewAggregator(runner ga4.Runner, logger *zap.Logger, metrics observability.MetricsRegistry, opts Options) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	conversion := opts.Conversion
	if conversion == nil {
		conversion = ComputedConversion
	}
	return &Aggregator{
		runner:     runner,
		logger:     logger,
		metrics:    metrics,
		tracer:     observability.Tracer("reporting"),
		conversion: conversion,
	}
}

type facetResult struct {
	res *ga4.ReportResult
	err error
}

// Aggregate fetches every facet concurrently. A failure of the KPI or CTA
// total query aborts the run with a *PipelineError; any other facet failure
// is replaced by that facet's fallback.
func (a *Aggregator) Aggregate(ctx context.Context, token string, w Window) (*Payload, error) {
	if err := ga4.ValidateToken(token); err != nil {
		return nil, err
	}
	cmp := w.Comparison()
	logger := observability.LoggerFromContext(ctx, a.logger)

	ctx, span := a.tracer.Start(ctx, "reporting.Aggregate", trace.WithAttributes(
		attribute.String("window.start", w.Range().Start),
		attribute.String("window.end", w.Range().End),
	))
	defer span.End()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	var kpiRes, ctaRes *ga4.ReportResult
	g.Go(func() error {
		res, err := a.fetch(gctx, token, FacetKPIs, kpiQuery(w, cmp))
		if err != nil {
			return &PipelineError{Facet: FacetKPIs, Err: err}
		}
		kpiRes = res
		return nil
	})
	g.Go(func() error {
		res, err := a.fetch(gctx, token, FacetCTAClicks, ctaTotalQuery(w, cmp))
		if err != nil {
			return &PipelineError{Facet: FacetCTAClicks, Err: err}
		}
		ctaRes = res
		return nil
	})

	results := make([]facetResult, len(facetTable))
	for i, f := range facetTable {
		g.Go(func() error {
			res, err := a.fetch(gctx, token, f.facetName(), f.buildQuery(w))
			results[i] = facetResult{res: res, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("dashboard aggregation failed", zap.Error(err))
		return nil, err
	}

	kpis := buildKPIs(kpiRes, ctaRes)
	env := facetEnv{
		Totals:     Totals{Sessions: kpis.Sessions, CTAClicks: kpis.CTAClicks},
		conversion: a.conversion,
	}
	p := &Payload{
		KPIs: kpis,
		Debug: Debug{
			DataSources: map[Facet]DataSource{
				FacetKPIs:      Live,
				FacetCTAClicks: Live,
			},
			DateRange:       w.Range(),
			ComparisonRange: cmp.Range(),
		},
	}
	fallbacks := 0
	for i, f := range facetTable {
		src, reason := f.resolve(results[i].res, results[i].err, env, p)
		p.Debug.DataSources[f.facetName()] = src
		if src == Fallback {
			fallbacks++
			a.metrics.IncrementFacetFallbacks(string(f.facetName()))
			logger.Warn("facet fell back",
				zap.String("facet", string(f.facetName())),
				zap.Error(reason))
		}
	}
	p.CTAAnalysis = GenerateCTAInsights(p.CTAPositions)

	span.SetAttributes(attribute.Int("facets.fallback", fallbacks))
	logger.Debug("dashboard aggregated",
		zap.Int64("sessions", kpis.Sessions),
		zap.Int("fallbacks", fallbacks),
		zap.Duration("took", time.Since(start)))
	return p, nil
}

func (a *Aggregator) fetch(ctx context.Context, token string, name Facet, q ga4.ReportQuery) (*ga4.ReportResult, error) {
	ctx, span := a.tracer.Start(ctx, "reporting.facet", trace.WithAttributes(attribute.String("facet", string(name))))
	defer span.End()
	res, err := a.runner.RunReport(ctx, token, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
