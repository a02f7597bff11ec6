package schedule

import (
	"time"

	"github.com/pawbook/pawbook/internal/extract"
)

// Slot is one bookable start time on the grid.
type Slot struct {
	Time    string `json:"time"`
	Display string `json:"display"`
}

// Grid returns the ordered bookable start times for a date. Non-operating
// days and dates before today yield an empty grid.
func (h Hours) Grid(date, now time.Time) []Slot {
	if !h.IsOperatingDay(date) {
		return nil
	}
	if beforeDay(date, now) {
		return nil
	}

	interval := h.SlotIntervalMins
	if interval <= 0 {
		interval = 30
	}

	var slots []Slot
	for mins := h.Open * 60; mins < h.Close*60; mins += interval {
		hour, minute := mins/60, mins%60
		if h.InLunchWindow(hour) {
			continue
		}
		c := extract.Clock{Hour: hour, Minute: minute}
		slots = append(slots, Slot{Time: c.String(), Display: c.Display()})
	}
	return slots
}

// OnGrid reports whether an "HH:MM" slot is one of the grid's start times for
// any operating day: inside opening hours, outside lunch, aligned to the
// interval. It does not consider the date.
func (h Hours) OnGrid(slot string) bool {
	hour, minute, ok := ParseSlot(slot)
	if !ok {
		return false
	}
	if hour < h.Open || hour >= h.Close {
		return false
	}
	if h.InLunchWindow(hour) {
		return false
	}
	interval := h.SlotIntervalMins
	if interval <= 0 {
		interval = 30
	}
	sinceOpen := (hour*60 + minute) - h.Open*60
	return sinceOpen%interval == 0
}

// NearestSlot returns the first grid start time at or after the given clock
// time. Times before opening clamp to the first slot and times inside lunch
// roll to the end of the break. A time past the last start has no slot.
func (h Hours) NearestSlot(hour, minute int) (string, bool) {
	interval := h.SlotIntervalMins
	if interval <= 0 {
		interval = 30
	}

	mins := hour*60 + minute
	if mins < h.Open*60 {
		mins = h.Open * 60
	}
	if rem := (mins - h.Open*60) % interval; rem != 0 {
		mins += interval - rem
	}
	if h.InLunchWindow(mins / 60) {
		mins = h.LunchEnd * 60
	}
	if mins >= h.Close*60 {
		return "", false
	}
	return extract.Clock{Hour: mins / 60, Minute: mins % 60}.String(), true
}

// beforeDay reports whether a falls on an earlier calendar day than b,
// ignoring time of day.
func beforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
