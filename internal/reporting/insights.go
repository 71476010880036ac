package reporting

import (
	"fmt"
	"sort"
	"strings"
)

// Severity grades an insight.
type Severity string

const (
	SeveritySuccess  Severity = "success"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Color is the legacy presentation hint paired with each severity.
func (s Severity) Color() string {
	switch s {
	case SeveritySuccess:
		return "green"
	case SeverityInfo:
		return "blue"
	case SeverityCritical:
		return "red"
	default:
		return "yellow"
	}
}

// Insight is a short finding about CTA performance.
type Insight struct {
	Severity    Severity `json:"severity"`
	Color       string   `json:"color"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

func newInsight(sev Severity, title, description string) Insight {
	return Insight{Severity: sev, Color: sev.Color(), Title: title, Description: description}
}

// Thresholds for the CTA rules, in percent.
const (
	stickyHealthyConversion = 5.0
	untaggedCriticalShare   = 50.0
	navWeakConversion       = 3.0
)

// GenerateCTAInsights derives findings from the CTA breakdown. It never
// returns an empty list.
func GenerateCTAInsights(positions []CTAPosition) []Insight {
	if len(positions) == 0 {
		return []Insight{newInsight(SeverityWarning, "Pas de données", "Aucun clic CTA enregistré")}
	}

	sorted := make([]CTAPosition, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Clicks > sorted[j].Clicks })

	var out []Insight
	if top := sorted[0]; top.Position != UntaggedLabel {
		out = append(out, newInsight(SeveritySuccess,
			fmt.Sprintf("%s = %s des clics", top.Position, top.Percentage),
			"Position la plus performante"))
	} else if len(sorted) > 1 {
		next := sorted[1]
		out = append(out, newInsight(SeveritySuccess,
			fmt.Sprintf("%s = %s des clics", next.Position, next.Percentage),
			"Position la plus performante (hors non-tagués)"))
	}

	if sticky, ok := findPosition(positions, func(l string) bool { return strings.Contains(l, "sticky") }); ok {
		if parsePercent(sticky.ConversionRate) > stickyHealthyConversion {
			out = append(out, newInsight(SeverityInfo, "Sticky CTA efficace",
				fmt.Sprintf("%s des clics, %s de conversion", sticky.Percentage, sticky.ConversionRate)))
		} else {
			out = append(out, newInsight(SeverityWarning, "Sticky CTA à optimiser",
				fmt.Sprintf("Seulement %s de conversion", sticky.ConversionRate)))
		}
	}

	if untagged, ok := findPosition(positions, func(l string) bool { return strings.Contains(l, "non tagué") }); ok &&
		parsePercent(untagged.Percentage) > untaggedCriticalShare {
		out = append(out, newInsight(SeverityCritical, "Tracking incomplet",
			fmt.Sprintf("%s des clics non identifiés - vérifier le tagging", untagged.Percentage)))
	}

	if nav, ok := findPosition(positions, func(l string) bool { return l == "nav" || l == "navbar" }); ok &&
		parsePercent(nav.ConversionRate) < navWeakConversion {
		out = append(out, newInsight(SeverityWarning, "Navigation sous-performe",
			fmt.Sprintf("Seulement %s de conversion", nav.ConversionRate)))
	}

	if hero, ok := findPosition(positions, func(l string) bool { return l == "hero" }); ok {
		out = append(out, newInsight(SeverityInfo,
			fmt.Sprintf("Hero : %d clics", hero.Clicks),
			fmt.Sprintf("%s de conversion", hero.ConversionRate)))
	}

	if len(out) == 0 {
		return []Insight{newInsight(SeverityWarning, "Analyse en cours", "Collecte de données insuffisante")}
	}
	return out
}

// findPosition returns the first position whose lower-cased label matches.
func findPosition(positions []CTAPosition, match func(string) bool) (CTAPosition, bool) {
	for _, p := range positions {
		if match(strings.ToLower(p.Position)) {
			return p, true
		}
	}
	return CTAPosition{}, false
}
