package ga4

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a single dimension or metric cell. Metric values are decimal text.
type Value struct {
	Value string `json:"value"`
}

// Row holds values positionally aligned with the query's dimensions and metrics.
type Row struct {
	DimensionValues []Value `json:"dimensionValues"`
	MetricValues    []Value `json:"metricValues"`
}

// ReportResult is the decoded runReport response. A result without rows
// means no data matched.
type ReportResult struct {
	Rows     []Row `json:"rows"`
	RowCount int   `json:"rowCount"`
}

// Dimension returns the i-th dimension value or "" when absent.
func (r Row) Dimension(i int) string {
	if i < 0 || i >= len(r.DimensionValues) {
		return ""
	}
	return r.DimensionValues[i].Value
}

// Metric returns the i-th metric value as a float, or 0 when absent or malformed.
func (r Row) Metric(i int) float64 {
	if i < 0 || i >= len(r.MetricValues) {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(r.MetricValues[i].Value), 64)
	if err != nil {
		return 0
	}
	return f
}

// MetricInt returns the i-th metric value truncated to an integer.
func (r Row) MetricInt(i int) int64 {
	if i < 0 || i >= len(r.MetricValues) {
		return 0
	}
	return ParseInt(r.MetricValues[i].Value)
}

// ParseInt reads the leading integer of s, ignoring any fractional part or
// trailing text. It returns 0 when s has no leading digits.
func ParseInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Len reports the number of rows; it is safe on a nil result.
func (res *ReportResult) Len() int {
	if res == nil {
		return 0
	}
	return len(res.Rows)
}

// Row returns the i-th row or an empty row.
func (res *ReportResult) Row(i int) Row {
	if res == nil || i < 0 || i >= len(res.Rows) {
		return Row{}
	}
	return res.Rows[i]
}

// DateRangeRow returns the row for the i-th requested date range. Multi-range
// reports tag each row with a trailing "date_range_N" dimension; untagged
// results are matched by position. A tagged result without the range yields
// an empty row.
func (res *ReportResult) DateRangeRow(i int) Row {
	if res == nil {
		return Row{}
	}
	tag := fmt.Sprintf("date_range_%d", i)
	tagged := false
	for _, row := range res.Rows {
		n := len(row.DimensionValues)
		if n == 0 {
			continue
		}
		last := row.DimensionValues[n-1].Value
		if last == tag {
			return row
		}
		if strings.HasPrefix(last, "date_range_") {
			tagged = true
		}
	}
	if tagged {
		return Row{}
	}
	return res.Row(i)
}

// FirstMetric returns metric i of the first row, defaulting to 0.
func FirstMetric(res *ReportResult, i int) float64 {
	return res.Row(0).Metric(i)
}

// FirstDimension returns dimension i of the first row, defaulting to "".
func FirstDimension(res *ReportResult, i int) string {
	return res.Row(0).Dimension(i)
}
