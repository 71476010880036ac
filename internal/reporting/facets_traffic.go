package reporting

import (
	"math/rand/v2"

	"github.com/patrickwarner/lpdash/internal/ga4"
)

// estimatedCTARatio approximates CTA clicks from total events where no CTA
// breakdown is queried.
const estimatedCTARatio = 0.1

// ConversionFunc renders a traffic source's conversion rate.
type ConversionFunc func(ctaClicks, sessions int64) string

// ComputedConversion derives the rate from the source's own figures.
func ComputedConversion(ctaClicks, sessions int64) string {
	return formatPercent1(PercentOfTotal1(float64(ctaClicks), float64(sessions)))
}

// PlaceholderConversion returns a ConversionFunc yielding a uniform value in
// [5, 15). A nil rnd uses the shared generator.
func PlaceholderConversion(rnd func() float64) ConversionFunc {
	if rnd == nil {
		rnd = rand.Float64
	}
	return func(int64, int64) string {
		return formatPercent1(rnd()*10 + 5)
	}
}

var sourcesFacet = facet[SourceRecord]{
	name: FacetSources,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges: []ga4.DateRange{w.GA4()},
			Dimensions: ga4.Dimensions("sessionSourceMedium"),
			Metrics:    ga4.Metrics("sessions", "activeUsers", "eventCount"),
			OrderBys:   []ga4.OrderBy{ga4.ByMetric("sessions", true)},
			Limit:      10,
		}
	},
	live: func(res *ga4.ReportResult, env facetEnv) ([]SourceRecord, bool) {
		out := make([]SourceRecord, 0, res.Len())
		for _, row := range res.Rows {
			sessions := row.MetricInt(0)
			clicks := scale(row.MetricInt(2), estimatedCTARatio)
			out = append(out, SourceRecord{
				Source:         row.Dimension(0),
				Sessions:       sessions,
				Users:          row.MetricInt(1),
				CTAClicks:      clicks,
				ConversionRate: env.conversion(clicks, sessions),
			})
		}
		return out, len(out) > 0
	},
	fallback: emptyFallback[SourceRecord],
	assign:   func(p *Payload, recs []SourceRecord) { p.Sources = recs },
}

var devicesFacet = facet[DeviceRecord]{
	name: FacetDevices,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges: []ga4.DateRange{w.GA4()},
			Dimensions: ga4.Dimensions("deviceCategory"),
			Metrics:    ga4.Metrics("sessions", "bounceRate"),
			OrderBys:   []ga4.OrderBy{ga4.ByMetric("sessions", true)},
		}
	},
	live: func(res *ga4.ReportResult, _ facetEnv) ([]DeviceRecord, bool) {
		var total int64
		for _, row := range res.Rows {
			total += row.MetricInt(0)
		}
		out := make([]DeviceRecord, 0, res.Len())
		for _, row := range res.Rows {
			sessions := row.MetricInt(0)
			out = append(out, DeviceRecord{
				Device:     row.Dimension(0),
				Sessions:   sessions,
				Percentage: formatPercent(PercentOfTotal(float64(sessions), float64(total))),
				BounceRate: formatPercent(int64(roundHalfUp(row.Metric(1) * 100))),
			})
		}
		return out, len(out) > 0
	},
	fallback: emptyFallback[DeviceRecord],
	assign:   func(p *Payload, recs []DeviceRecord) { p.Devices = recs },
}

var dailyFacet = facet[DailyRecord]{
	name: FacetDailyData,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges: []ga4.DateRange{w.GA4()},
			Dimensions: ga4.Dimensions("date"),
			Metrics:    ga4.Metrics("sessions", "eventCount"),
			OrderBys:   []ga4.OrderBy{ga4.ByDimension("date", false)},
		}
	},
	live: func(res *ga4.ReportResult, _ facetEnv) ([]DailyRecord, bool) {
		out := make([]DailyRecord, 0, res.Len())
		for _, row := range res.Rows {
			out = append(out, DailyRecord{
				Date:      dayMonth(row.Dimension(0)),
				Sessions:  row.MetricInt(0),
				CTAClicks: scale(row.MetricInt(1), estimatedCTARatio),
			})
		}
		return out, len(out) > 0
	},
	fallback: emptyFallback[DailyRecord],
	assign:   func(p *Payload, recs []DailyRecord) { p.DailyData = recs },
}

// dayMonth converts a GA4 YYYYMMDD date to dd/mm. Other shapes pass through.
func dayMonth(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[6:8] + "/" + d[4:6]
}
