package reporting

// Facet names one query of the dashboard pipeline.
type Facet string

const (
	FacetKPIs         Facet = "kpis"
	FacetCTAClicks    Facet = "ctaClicks"
	FacetSources      Facet = "sources"
	FacetDevices      Facet = "devices"
	FacetDailyData    Facet = "dailyData"
	FacetCTAPositions Facet = "ctaPositions"
	FacetScrollDepth  Facet = "scrollDepth"
	FacetTimeOnPage   Facet = "timeOnPage"
	FacetSectionViews Facet = "sectionViews"
)

// DataSource records whether a facet came from live data or a fallback.
type DataSource string

const (
	Live     DataSource = "live"
	Fallback DataSource = "fallback"
)

// KPISet holds the headline figures and their change against the comparison window.
type KPISet struct {
	Sessions         int64   `json:"sessions"`
	SessionsChange   float64 `json:"sessionsChange"`
	CTAClicks        int64   `json:"ctaClicks"`
	CTAClicksChange  float64 `json:"ctaClicksChange"`
	AvgTimeOnPage    string  `json:"avgTimeOnPage"`
	AvgTimeChange    float64 `json:"avgTimeChange"`
	BounceRate       int64   `json:"bounceRate"`
	BounceRateChange float64 `json:"bounceRateChange"`
}

type SourceRecord struct {
	Source         string `json:"source"`
	Sessions       int64  `json:"sessions"`
	Users          int64  `json:"users"`
	CTAClicks      int64  `json:"ctaClicks"`
	ConversionRate string `json:"conversionRate"`
}

type DeviceRecord struct {
	Device     string `json:"device"`
	Sessions   int64  `json:"sessions"`
	Percentage string `json:"percentage"`
	BounceRate string `json:"bounceRate"`
}

// DailyRecord uses dd/mm dates.
type DailyRecord struct {
	Date      string `json:"date"`
	Sessions  int64  `json:"sessions"`
	CTAClicks int64  `json:"ctaClicks"`
}

type CTAPosition struct {
	Position       string `json:"position"`
	Clicks         int64  `json:"clicks"`
	Percentage     string `json:"percentage"`
	ConversionRate string `json:"conversionRate"`
}

type ScrollDepthRecord struct {
	Depth      string `json:"depth"`
	Users      int64  `json:"users"`
	Percentage string `json:"percentage"`
}

type TimeOnPageRecord struct {
	Range      string `json:"range"`
	Users      int64  `json:"users"`
	Percentage string `json:"percentage"`
}

type SectionViewRecord struct {
	Section    string `json:"section"`
	Views      int64  `json:"views"`
	Percentage string `json:"percentage"`
}

// Debug describes how a payload was assembled.
type Debug struct {
	DataSources     map[Facet]DataSource `json:"dataSources"`
	DateRange       DateRange            `json:"dateRange"`
	ComparisonRange DateRange            `json:"comparisonRange"`
}

// Payload is the full dashboard response.
type Payload struct {
	KPIs         KPISet              `json:"kpis"`
	Sources      []SourceRecord      `json:"sources"`
	Devices      []DeviceRecord      `json:"devices"`
	DailyData    []DailyRecord       `json:"dailyData"`
	CTAPositions []CTAPosition       `json:"ctaPositions"`
	CTAAnalysis  []Insight           `json:"ctaAnalysis"`
	ScrollDepth  []ScrollDepthRecord `json:"scrollDepth"`
	TimeOnPage   []TimeOnPageRecord  `json:"timeOnPage"`
	SectionViews []SectionViewRecord `json:"sectionViews"`
	Debug        Debug               `json:"_debug"`
}

// Totals carries the mandatory figures facets scale their fallbacks against.
type Totals struct {
	Sessions  int64
	CTAClicks int64
}
