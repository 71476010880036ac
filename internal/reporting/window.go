package reporting

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickwarner/lpdash/internal/ga4"
)

// DefaultLookbackDays is the span of the window used when no dates are given.
const DefaultLookbackDays = 7

// ErrInvalidWindow is returned for unparseable or inverted date ranges.
var ErrInvalidWindow = errors.New("invalid date range")

const day = 24 * time.Hour

// Window is an inclusive pair of calendar dates at UTC midnight.
type Window struct {
	Start time.Time
	End   time.Time
}

// DateRange is the JSON form of a Window.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DefaultWindow returns the window ending today and starting seven days earlier.
func DefaultWindow(now time.Time) Window {
	end := truncateDay(now)
	return Window{Start: end.AddDate(0, 0, -DefaultLookbackDays), End: end}
}

// ParseWindow builds a Window from optional YYYY-MM-DD strings. A missing end
// defaults to today and a missing start to seven days before the end.
func ParseWindow(start, end string, now time.Time) (Window, error) {
	w := DefaultWindow(now)
	if end != "" {
		t, err := time.Parse(ga4.DateLayout, end)
		if err != nil {
			return Window{}, fmt.Errorf("%w: endDate %q", ErrInvalidWindow, end)
		}
		w.End = t
		w.Start = t.AddDate(0, 0, -DefaultLookbackDays)
	}
	if start != "" {
		t, err := time.Parse(ga4.DateLayout, start)
		if err != nil {
			return Window{}, fmt.Errorf("%w: startDate %q", ErrInvalidWindow, start)
		}
		w.Start = t
	}
	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: startDate %s is after endDate %s", ErrInvalidWindow,
			w.Start.Format(ga4.DateLayout), w.End.Format(ga4.DateLayout))
	}
	return w, nil
}

// Days returns the number of days between Start and End.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start) / day)
}

// Comparison returns the window of equal length that ends the day before Start.
func (w Window) Comparison() Window {
	prevEnd := w.Start.AddDate(0, 0, -1)
	return Window{Start: prevEnd.AddDate(0, 0, -w.Days()), End: prevEnd}
}

// Range returns the window formatted for JSON output.
func (w Window) Range() DateRange {
	return DateRange{Start: w.Start.Format(ga4.DateLayout), End: w.End.Format(ga4.DateLayout)}
}

// GA4 returns the window as a Data API date range.
func (w Window) GA4() ga4.DateRange {
	r := w.Range()
	return ga4.DateRange{StartDate: r.Start, EndDate: r.End}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
