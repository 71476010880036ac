package reporting

import (
	"strings"

	"github.com/patrickwarner/lpdash/internal/ga4"
)

// UntaggedLabel is shown for CTA clicks that carry no location.
const UntaggedLabel = "Autre (non tagué)"

var ctaFallbackShares = []struct {
	share
	conversion string
}{
	{share{"Hero", 0.45}, "8.2%"},
	{share{"Sticky CTA", 0.28}, "7.1%"},
	{share{"Nav", 0.19}, "5.4%"},
}

var ctaPositionsFacet = facet[CTAPosition]{
	name: FacetCTAPositions,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges:      []ga4.DateRange{w.GA4()},
			Dimensions:      ga4.Dimensions("customEvent:cta_location"),
			Metrics:         ga4.Metrics("eventCount"),
			DimensionFilter: ga4.EventNameIs(EventCTAClick),
			OrderBys:        []ga4.OrderBy{ga4.ByMetric("eventCount", true)},
			Limit:           10,
		}
	},
	live: func(res *ga4.ReportResult, env facetEnv) ([]CTAPosition, bool) {
		var total int64
		for _, row := range res.Rows {
			total += row.MetricInt(0)
		}
		// an all-untagged breakdown says nothing about placement
		if total == 0 || len(validRows(res)) == 0 {
			return nil, false
		}
		out := make([]CTAPosition, 0, res.Len())
		for _, row := range res.Rows {
			clicks := row.MetricInt(0)
			out = append(out, CTAPosition{
				Position:       ctaLabel(row.Dimension(0)),
				Clicks:         clicks,
				Percentage:     formatPercent(PercentOfTotal(float64(clicks), float64(total))),
				ConversionRate: formatPercent1(PercentOfTotal1(float64(clicks), float64(env.Sessions))),
			})
		}
		return out, true
	},
	fallback: func(env facetEnv) []CTAPosition {
		out := make([]CTAPosition, 0, len(ctaFallbackShares))
		for _, s := range ctaFallbackShares {
			out = append(out, CTAPosition{
				Position:       s.label,
				Clicks:         scale(env.CTAClicks, s.ratio),
				Percentage:     s.percentage(),
				ConversionRate: s.conversion,
			})
		}
		return out
	},
	assign: func(p *Payload, recs []CTAPosition) { p.CTAPositions = recs },
}

func ctaLabel(location string) string {
	if location == "" || location == ga4.NotSet {
		return UntaggedLabel
	}
	return TitleCase(location)
}

var scrollFallbackShares = []share{
	{"25%", 0.86}, {"50%", 0.70}, {"75%", 0.43}, {"100%", 0.24},
}

var scrollDepthFacet = facet[ScrollDepthRecord]{
	name: FacetScrollDepth,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges:      []ga4.DateRange{w.GA4()},
			Dimensions:      ga4.Dimensions("customEvent:percent"),
			Metrics:         ga4.Metrics("eventCount"),
			DimensionFilter: ga4.EventNameIs(EventScrollDepth),
			OrderBys:        []ga4.OrderBy{ga4.ByDimension("customEvent:percent", false)},
		}
	},
	live: func(res *ga4.ReportResult, env facetEnv) ([]ScrollDepthRecord, bool) {
		rows := validRows(res)
		var total int64
		for _, row := range rows {
			total += row.MetricInt(0)
		}
		if len(rows) == 0 || total == 0 {
			return nil, false
		}
		out := make([]ScrollDepthRecord, 0, len(rows))
		for _, row := range rows {
			depth := row.Dimension(0)
			if !strings.HasSuffix(depth, "%") {
				depth += "%"
			}
			users := row.MetricInt(0)
			out = append(out, ScrollDepthRecord{
				Depth:      depth,
				Users:      users,
				Percentage: formatPercent(PercentOfTotal(float64(users), float64(env.Sessions))),
			})
		}
		return out, true
	},
	fallback: func(env facetEnv) []ScrollDepthRecord {
		out := make([]ScrollDepthRecord, 0, len(scrollFallbackShares))
		for _, s := range scrollFallbackShares {
			out = append(out, ScrollDepthRecord{Depth: s.label, Users: scale(env.Sessions, s.ratio), Percentage: s.percentage()})
		}
		return out
	},
	assign: func(p *Payload, recs []ScrollDepthRecord) { p.ScrollDepth = recs },
}

// timeBucket is an upper bound in seconds, exclusive. The last bucket is open.
type timeBucket struct {
	label string
	below int64
}

var timeBuckets = []timeBucket{
	{"0-30s", 30}, {"30s-1m", 60}, {"1-2m", 120}, {"2-5m", 300}, {"5m+", -1},
}

var timeFallbackShares = []share{
	{"0-30s", 0.20}, {"30s-1m", 0.29}, {"1-2m", 0.33}, {"2-5m", 0.14}, {"5m+", 0.04},
}

func bucketFor(seconds int64) int {
	for i, b := range timeBuckets {
		if b.below > 0 && seconds < b.below {
			return i
		}
	}
	return len(timeBuckets) - 1
}

var timeOnPageFacet = facet[TimeOnPageRecord]{
	name: FacetTimeOnPage,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges:      []ga4.DateRange{w.GA4()},
			Dimensions:      ga4.Dimensions("customEvent:seconds"),
			Metrics:         ga4.Metrics("eventCount"),
			DimensionFilter: ga4.EventNameIs(EventTimeOnPage),
		}
	},
	live: func(res *ga4.ReportResult, _ facetEnv) ([]TimeOnPageRecord, bool) {
		counts := make([]int64, len(timeBuckets))
		var total int64
		for _, row := range validRows(res) {
			n := row.MetricInt(0)
			counts[bucketFor(ga4.ParseInt(row.Dimension(0)))] += n
			total += n
		}
		if total == 0 {
			return nil, false
		}
		out := make([]TimeOnPageRecord, 0, len(timeBuckets))
		for i, b := range timeBuckets {
			out = append(out, TimeOnPageRecord{
				Range:      b.label,
				Users:      counts[i],
				Percentage: formatPercent(PercentOfTotal(float64(counts[i]), float64(total))),
			})
		}
		return out, true
	},
	fallback: func(env facetEnv) []TimeOnPageRecord {
		out := make([]TimeOnPageRecord, 0, len(timeFallbackShares))
		for _, s := range timeFallbackShares {
			out = append(out, TimeOnPageRecord{Range: s.label, Users: scale(env.Sessions, s.ratio), Percentage: s.percentage()})
		}
		return out
	},
	assign: func(p *Payload, recs []TimeOnPageRecord) { p.TimeOnPage = recs },
}

var sectionFallbackShares = []share{
	{"Hero", 1.00},
	{"Bénéfices", 0.81},
	{"Comment ça marche", 0.59},
	{"Témoignages", 0.40},
	{"Tarifs", 0.31},
	{"FAQ", 0.22},
}

var sectionViewsFacet = facet[SectionViewRecord]{
	name: FacetSectionViews,
	query: func(w Window) ga4.ReportQuery {
		return ga4.ReportQuery{
			DateRanges:      []ga4.DateRange{w.GA4()},
			Dimensions:      ga4.Dimensions("customEvent:section_name"),
			Metrics:         ga4.Metrics("eventCount"),
			DimensionFilter: ga4.EventNameIs(EventSectionView),
			OrderBys:        []ga4.OrderBy{ga4.ByMetric("eventCount", true)},
			Limit:           10,
		}
	},
	live: func(res *ga4.ReportResult, _ facetEnv) ([]SectionViewRecord, bool) {
		rows := validRows(res)
		if len(rows) == 0 {
			return nil, false
		}
		var top int64
		for _, row := range rows {
			if v := row.MetricInt(0); v > top {
				top = v
			}
		}
		out := make([]SectionViewRecord, 0, len(rows))
		for _, row := range rows {
			views := row.MetricInt(0)
			out = append(out, SectionViewRecord{
				Section:    TitleCase(row.Dimension(0)),
				Views:      views,
				Percentage: formatPercent(PercentOfTotal(float64(views), float64(top))),
			})
		}
		return out, true
	},
	fallback: func(env facetEnv) []SectionViewRecord {
		out := make([]SectionViewRecord, 0, len(sectionFallbackShares))
		for _, s := range sectionFallbackShares {
			out = append(out, SectionViewRecord{Section: s.label, Views: scale(env.Sessions, s.ratio), Percentage: s.percentage()})
		}
		return out
	},
	assign: func(p *Payload, recs []SectionViewRecord) { p.SectionViews = recs },
}
