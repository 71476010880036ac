package reporting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// roundHalfUp rounds to the nearest integer with halves going up, which is
// how the dashboard has always rounded (-2.5 becomes -2).
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// PercentChange returns the change from previous to current in percent with
// one decimal. A zero previous value yields 100 for growth and 0 otherwise.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return roundHalfUp((current-previous)/previous*100*10) / 10
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(totalSeconds float64) string {
	if totalSeconds < 0 || math.IsNaN(totalSeconds) {
		totalSeconds = 0
	}
	mins := int64(math.Floor(totalSeconds / 60))
	secs := int64(math.Floor(math.Mod(totalSeconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// TitleCase turns a snake_case or kebab-case token into space separated words
// with an upper-case first letter each.
func TitleCase(token string) string {
	if token == "" {
		return ""
	}
	segments := strings.Split(strings.ReplaceAll(token, "-", "_"), "_")
	for i, seg := range segments {
		r, size := utf8.DecodeRuneInString(seg)
		if size == 0 {
			continue
		}
		segments[i] = string(unicode.ToUpper(r)) + seg[size:]
	}
	return strings.Join(segments, " ")
}

// PercentOfTotal returns value as a whole-number percentage of total, or 0
// when total is zero.
func PercentOfTotal(value, total float64) int64 {
	if total == 0 {
		return 0
	}
	return int64(roundHalfUp(value / total * 100))
}

// PercentOfTotal1 is PercentOfTotal with one decimal, used for conversion rates.
func PercentOfTotal1(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return roundHalfUp(value/total*100*10) / 10
}

// formatPercent renders a whole-number percentage such as "45%".
func formatPercent(p int64) string {
	return strconv.FormatInt(p, 10) + "%"
}

// formatPercent1 renders a percentage with one decimal such as "8.2%".
func formatPercent1(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// parsePercent reads the numeric part of a string like "7.1%". Garbage yields 0.
func parsePercent(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return 0
	}
	return f
}

// scale multiplies a count by a ratio and rounds to a whole number.
func scale(n int64, ratio float64) int64 {
	return int64(roundHalfUp(float64(n) * ratio))
}
