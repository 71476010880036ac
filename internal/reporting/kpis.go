package reporting

import "github.com/patrickwarner/lpdash/internal/ga4"

// Event names emitted by the landing page.
const (
	EventCTAClick    = "cta_click"
	EventScrollDepth = "scroll_depth"
	EventTimeOnPage  = "time_on_page"
	EventSectionView = "section_view"
)

func kpiQuery(w, cmp Window) ga4.ReportQuery {
	return ga4.ReportQuery{
		DateRanges: []ga4.DateRange{w.GA4(), cmp.GA4()},
		Metrics:    ga4.Metrics("sessions", "bounceRate", "averageSessionDuration", "activeUsers"),
	}
}

func ctaTotalQuery(w, cmp Window) ga4.ReportQuery {
	return ga4.ReportQuery{
		DateRanges:      []ga4.DateRange{w.GA4(), cmp.GA4()},
		Metrics:         ga4.Metrics("eventCount"),
		DimensionFilter: ga4.EventNameIs(EventCTAClick),
	}
}

// buildKPIs derives the headline set from the two mandatory reports. Missing
// rows count as zero.
func buildKPIs(kpis, cta *ga4.ReportResult) KPISet {
	cur, prev := kpis.DateRangeRow(0), kpis.DateRangeRow(1)

	sessions, sessionsPrev := cur.MetricInt(0), prev.MetricInt(0)
	bounce, bouncePrev := cur.Metric(1)*100, prev.Metric(1)*100
	avg, avgPrev := cur.Metric(2), prev.Metric(2)
	clicks, clicksPrev := cta.DateRangeRow(0).MetricInt(0), cta.DateRangeRow(1).MetricInt(0)

	return KPISet{
		Sessions:         sessions,
		SessionsChange:   PercentChange(float64(sessions), float64(sessionsPrev)),
		CTAClicks:        clicks,
		CTAClicksChange:  PercentChange(float64(clicks), float64(clicksPrev)),
		AvgTimeOnPage:    FormatDuration(avg),
		AvgTimeChange:    PercentChange(avg, avgPrev),
		BounceRate:       int64(roundHalfUp(bounce)),
		BounceRateChange: PercentChange(bounce, bouncePrev),
	}
}
