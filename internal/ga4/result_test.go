package ga4

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorsOnMissingData(t *testing.T) {
	var nilResult *ReportResult
	assert.Equal(t, 0.0, FirstMetric(nilResult, 0))
	assert.Equal(t, "", FirstDimension(nilResult, 0))
	assert.Equal(t, 0, nilResult.Len())

	empty := &ReportResult{}
	assert.Equal(t, 0.0, FirstMetric(empty, 3))
	assert.Equal(t, "", FirstDimension(empty, 3))

	row := Row{MetricValues: []Value{{Value: "abc"}}}
	assert.Equal(t, 0.0, row.Metric(0))
	assert.Equal(t, 0.0, row.Metric(5))
	assert.Equal(t, int64(0), row.MetricInt(-1))
	assert.Equal(t, "", row.Dimension(0))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, int64(42), ParseInt("42"))
	assert.Equal(t, int64(12), ParseInt("12.9"))
	assert.Equal(t, int64(-3), ParseInt("-3.5"))
	assert.Equal(t, int64(10), ParseInt("10s"))
	assert.Equal(t, int64(0), ParseInt("(not set)"))
	assert.Equal(t, int64(0), ParseInt(""))
}

func TestDateRangeRow(t *testing.T) {
	var tagged ReportResult
	require.NoError(t, json.Unmarshal([]byte(`{"rows":[
		{"dimensionValues":[{"value":"date_range_1"}],"metricValues":[{"value":"80"}]},
		{"dimensionValues":[{"value":"date_range_0"}],"metricValues":[{"value":"100"}]}
	]}`), &tagged))
	assert.Equal(t, int64(100), tagged.DateRangeRow(0).MetricInt(0))
	assert.Equal(t, int64(80), tagged.DateRangeRow(1).MetricInt(0))

	onlyComparison := &ReportResult{Rows: []Row{
		{DimensionValues: []Value{{Value: "date_range_1"}}, MetricValues: []Value{{Value: "42"}}},
	}}
	assert.Equal(t, int64(0), onlyComparison.DateRangeRow(0).MetricInt(0))
	assert.Equal(t, int64(42), onlyComparison.DateRangeRow(1).MetricInt(0))

	positional := &ReportResult{Rows: []Row{
		{MetricValues: []Value{{Value: "7"}}},
		{MetricValues: []Value{{Value: "5"}}},
	}}
	assert.Equal(t, int64(7), positional.DateRangeRow(0).MetricInt(0))
	assert.Equal(t, int64(5), positional.DateRangeRow(1).MetricInt(0))
	assert.Equal(t, int64(0), positional.DateRangeRow(2).MetricInt(0))
}

func TestQueryJSONShape(t *testing.T) {
	q := ReportQuery{
		DateRanges: []DateRange{{StartDate: "2025-01-01", EndDate: "2025-01-07"}},
		Dimensions: Dimensions("date"),
		Metrics:    Metrics("sessions"),
		OrderBys:   []OrderBy{ByDimension("date", false), ByMetric("sessions", true)},
	}
	raw, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dateRanges":[{"startDate":"2025-01-01","endDate":"2025-01-07"}],
		"dimensions":[{"name":"date"}],
		"metrics":[{"name":"sessions"}],
		"orderBys":[{"dimension":{"dimensionName":"date"},"desc":false},{"metric":{"metricName":"sessions"},"desc":true}]
	}`, string(raw))
}
