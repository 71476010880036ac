package reporting

import "time"

// DemoPayload returns the static dataset shown to visitors who are not signed
// in. The window only labels the debug block.
func DemoPayload(now time.Time) *Payload {
	w := DefaultWindow(now)
	p := &Payload{
		KPIs: KPISet{
			Sessions:         2847,
			SessionsChange:   12.4,
			CTAClicks:        347,
			CTAClicksChange:  24.6,
			AvgTimeOnPage:    "2:34",
			AvgTimeChange:    8.2,
			BounceRate:       42,
			BounceRateChange: -5.3,
		},
		Sources: []SourceRecord{
			{Source: "google / organic", Sessions: 1234, Users: 987, CTAClicks: 89, ConversionRate: "7.2%"},
			{Source: "facebook / paid", Sessions: 567, Users: 456, CTAClicks: 67, ConversionRate: "11.8%"},
			{Source: "direct / (none)", Sessions: 423, Users: 345, CTAClicks: 45, ConversionRate: "10.6%"},
			{Source: "linkedin / social", Sessions: 234, Users: 189, CTAClicks: 23, ConversionRate: "9.8%"},
			{Source: "google / cpc", Sessions: 189, Users: 156, CTAClicks: 18, ConversionRate: "9.5%"},
		},
		CTAPositions: []CTAPosition{
			{Position: "Hero", Clicks: 156, Percentage: "45%", ConversionRate: "8.2%"},
			{Position: "Sticky Bottom", Clicks: 98, Percentage: "28%", ConversionRate: "7.1%"},
			{Position: "Section CTA", Clicks: 67, Percentage: "19%", ConversionRate: "5.4%"},
			{Position: "Nav", Clicks: 26, Percentage: "8%", ConversionRate: "3.2%"},
		},
		Devices: []DeviceRecord{
			{Device: "Mobile", Sessions: 1594, Percentage: "56%", BounceRate: "45%"},
			{Device: "Desktop", Sessions: 1064, Percentage: "37%", BounceRate: "38%"},
			{Device: "Tablet", Sessions: 189, Percentage: "7%", BounceRate: "41%"},
		},
		DailyData: []DailyRecord{
			{Date: "07/01", Sessions: 378, CTAClicks: 42},
			{Date: "08/01", Sessions: 412, CTAClicks: 48},
			{Date: "09/01", Sessions: 389, CTAClicks: 51},
			{Date: "10/01", Sessions: 456, CTAClicks: 58},
			{Date: "11/01", Sessions: 423, CTAClicks: 52},
			{Date: "12/01", Sessions: 398, CTAClicks: 47},
			{Date: "13/01", Sessions: 391, CTAClicks: 49},
		},
		ScrollDepth: []ScrollDepthRecord{
			{Depth: "25%", Users: 2456, Percentage: "86%"},
			{Depth: "50%", Users: 1987, Percentage: "70%"},
			{Depth: "75%", Users: 1234, Percentage: "43%"},
			{Depth: "100%", Users: 678, Percentage: "24%"},
		},
		TimeOnPage: []TimeOnPageRecord{
			{Range: "0-30s", Users: 567, Percentage: "20%"},
			{Range: "30s-1m", Users: 823, Percentage: "29%"},
			{Range: "1-2m", Users: 945, Percentage: "33%"},
			{Range: "2-5m", Users: 398, Percentage: "14%"},
			{Range: "5m+", Users: 114, Percentage: "4%"},
		},
		SectionViews: []SectionViewRecord{
			{Section: "Hero", Views: 2456, Percentage: "100%"},
			{Section: "Bénéfices", Views: 1987, Percentage: "81%"},
			{Section: "Comment ça marche", Views: 1456, Percentage: "59%"},
			{Section: "Témoignages", Views: 987, Percentage: "40%"},
			{Section: "Tarifs", Views: 756, Percentage: "31%"},
			{Section: "FAQ", Views: 534, Percentage: "22%"},
		},
		Debug: Debug{
			DataSources:     make(map[Facet]DataSource),
			DateRange:       w.Range(),
			ComparisonRange: w.Comparison().Range(),
		},
	}
	for _, f := range allFacets() {
		p.Debug.DataSources[f] = Fallback
	}
	p.CTAAnalysis = GenerateCTAInsights(p.CTAPositions)
	return p
}

// allFacets lists every facet name, mandatory ones first.
func allFacets() []Facet {
	out := []Facet{FacetKPIs, FacetCTAClicks}
	for _, f := range facetTable {
		out = append(out, f.facetName())
	}
	return out
}
