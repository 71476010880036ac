// Package ga4 is a minimal client for the Google Analytics 4 Data API
// runReport method. It models the request body as ReportQuery and the
// response as ReportResult, whose accessors never fail on missing data.
package ga4

// DateLayout is the calendar date format used by the Data API.
const DateLayout = "2006-01-02"

// NotSet is the value GA4 reports for a dimension that was never populated.
const NotSet = "(not set)"

// DateRange is an inclusive calendar window in YYYY-MM-DD form.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Dimension names a report dimension such as "deviceCategory".
type Dimension struct {
	Name string `json:"name"`
}

// Metric names a report metric such as "sessions".
type Metric struct {
	Name string `json:"name"`
}

// StringFilter matches a dimension value.
type StringFilter struct {
	MatchType string `json:"matchType,omitempty"`
	Value     string `json:"value"`
}

// Filter is a single-field filter expression.
type Filter struct {
	FieldName    string       `json:"fieldName"`
	StringFilter StringFilter `json:"stringFilter"`
}

// FilterExpression wraps a Filter the way the API expects it.
type FilterExpression struct {
	Filter Filter `json:"filter"`
}

// MetricOrderBy orders rows by a metric value.
type MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

// DimensionOrderBy orders rows by a dimension value.
type DimensionOrderBy struct {
	DimensionName string `json:"dimensionName"`
}

// OrderBy sorts report rows. Exactly one of Metric or Dimension is set.
type OrderBy struct {
	Metric    *MetricOrderBy    `json:"metric,omitempty"`
	Dimension *DimensionOrderBy `json:"dimension,omitempty"`
	Desc      bool              `json:"desc"`
}

// ReportQuery is the runReport request body.
type ReportQuery struct {
	DateRanges      []DateRange       `json:"dateRanges"`
	Dimensions      []Dimension       `json:"dimensions,omitempty"`
	Metrics         []Metric          `json:"metrics"`
	DimensionFilter *FilterExpression `json:"dimensionFilter,omitempty"`
	OrderBys        []OrderBy         `json:"orderBys,omitempty"`
	Limit           int               `json:"limit,omitempty"`
}

// Dimensions builds a dimension list from names.
func Dimensions(names ...string) []Dimension {
	out := make([]Dimension, len(names))
	for i, n := range names {
		out[i] = Dimension{Name: n}
	}
	return out
}

// Metrics builds a metric list from names.
func Metrics(names ...string) []Metric {
	out := make([]Metric, len(names))
	for i, n := range names {
		out[i] = Metric{Name: n}
	}
	return out
}

// EventNameIs filters rows to a single event name.
func EventNameIs(event string) *FilterExpression {
	return &FilterExpression{Filter: Filter{
		FieldName:    "eventName",
		StringFilter: StringFilter{Value: event},
	}}
}

// ByMetric orders by a metric.
func ByMetric(name string, desc bool) OrderBy {
	return OrderBy{Metric: &MetricOrderBy{MetricName: name}, Desc: desc}
}

// ByDimension orders by a dimension.
func ByDimension(name string, desc bool) OrderBy {
	return OrderBy{Dimension: &DimensionOrderBy{DimensionName: name}, Desc: desc}
}
