package reporting

import (
	"errors"

	"github.com/patrickwarner/lpdash/internal/ga4"
)

var errNoUsableRows = errors.New("no usable rows")

// facetEnv is what a facet needs besides its own report.
type facetEnv struct {
	Totals
	conversion ConversionFunc
}

// facet describes one optional query: how to ask for it, how to read it,
// what to show when it cannot be read, and where the records go.
type facet[T any] struct {
	name     Facet
	query    func(Window) ga4.ReportQuery
	live     func(*ga4.ReportResult, facetEnv) ([]T, bool)
	fallback func(facetEnv) []T
	assign   func(*Payload, []T)
}

// facetRunner erases the record type so facets can share one table.
type facetRunner interface {
	facetName() Facet
	buildQuery(Window) ga4.ReportQuery
	// resolve writes the facet into p and reports where the data came from.
	// The returned error explains a fallback.
	resolve(res *ga4.ReportResult, err error, env facetEnv, p *Payload) (DataSource, error)
}

func (f facet[T]) facetName() Facet { return f.name }

func (f facet[T]) buildQuery(w Window) ga4.ReportQuery { return f.query(w) }

func (f facet[T]) resolve(res *ga4.ReportResult, err error, env facetEnv, p *Payload) (DataSource, error) {
	if err == nil {
		if recs, ok := f.live(res, env); ok {
			f.assign(p, nonNil(recs))
			return Live, nil
		}
		err = errNoUsableRows
	}
	f.assign(p, nonNil(f.fallback(env)))
	return Fallback, err
}

// facetTable lists the optional facets in payload order.
var facetTable = []facetRunner{
	sourcesFacet,
	devicesFacet,
	dailyFacet,
	ctaPositionsFacet,
	scrollDepthFacet,
	timeOnPageFacet,
	sectionViewsFacet,
}

func nonNil[T any](recs []T) []T {
	if recs == nil {
		return []T{}
	}
	return recs
}

func emptyFallback[T any](facetEnv) []T { return []T{} }

// validRows returns the rows whose first dimension is set.
func validRows(res *ga4.ReportResult) []ga4.Row {
	if res == nil {
		return nil
	}
	out := make([]ga4.Row, 0, len(res.Rows))
	for _, row := range res.Rows {
		if d := row.Dimension(0); d != "" && d != ga4.NotSet {
			out = append(out, row)
		}
	}
	return out
}

// share is a label and the fraction of a total it represents in a fallback.
type share struct {
	label string
	ratio float64
}

func (s share) percentage() string {
	return formatPercent(int64(roundHalfUp(s.ratio * 100)))
}
