// Package extract parses dates and times of day out of free-form booking
// requests. Both sides are independent: text may carry a date, a time, both,
// or neither, and a miss is a normal outcome rather than an error.
package extract

import (
	"strings"
	"time"
)

// Result combines whichever of the date and time sides resolved.
type Result struct {
	Date    time.Time
	HasDate bool
	Clock   Clock
	HasTime bool
}

// DateTime runs date and time extraction over the same text.
func DateTime(text string, now time.Time) Result {
	var res Result
	if d, ok := Date(text, now); ok {
		res.Date = d
		res.HasDate = true
	}
	if c, ok := TimeOfDay(text); ok {
		res.Clock = c
		res.HasTime = true
	}
	return res
}

// Display renders the resolved parts for confirmation messages, e.g.
// "Friday, 30 Jan 2026 at 2:30 PM". Empty when nothing resolved.
func (r Result) Display() string {
	var parts []string
	if r.HasDate {
		parts = append(parts, r.Date.Format("Monday, 2 Jan 2006"))
	}
	if r.HasTime {
		parts = append(parts, r.Clock.Display())
	}
	return strings.Join(parts, " at ")
}
