// Package schedule knows the clinic's operating hours and turns them into the
// bookable slot grid plus availability answers for specific dates.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/pawbook/pawbook/internal/extract"
)

// Hours describes the clinic's bookable schedule. Open and Close are hours of
// the day; the last slot starts before Close. The lunch window [LunchStart,
// LunchEnd) is never bookable.
type Hours struct {
	Open             int
	Close            int
	LunchStart       int
	LunchEnd         int
	SlotIntervalMins int
	OpenDays         map[time.Weekday]bool
	MaxAdvanceDays   int
	SameDayLeadTime  time.Duration
}

// DefaultHours is Monday through Saturday, 9 to 5, lunch 1 to 2, half-hour
// slots, bookable up to 90 days out with a 30 minute same-day lead time.
func DefaultHours() Hours {
	return Hours{
		Open:             9,
		Close:            17,
		LunchStart:       13,
		LunchEnd:         14,
		SlotIntervalMins: 30,
		OpenDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
			time.Saturday:  true,
		},
		MaxAdvanceDays:  90,
		SameDayLeadTime: 30 * time.Minute,
	}
}

// IsOperatingDay reports whether the clinic takes bookings on that weekday.
func (h Hours) IsOperatingDay(d time.Time) bool {
	return h.OpenDays[d.Weekday()]
}

// InLunchWindow reports whether an hour falls inside the lunch break.
func (h Hours) InLunchWindow(hour int) bool {
	return hour >= h.LunchStart && hour < h.LunchEnd
}

// ParseSlot validates and splits an "HH:MM" slot string.
func ParseSlot(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// DisplaySlot renders an "HH:MM" slot as its 12-hour label. Unparseable
// input is returned unchanged.
func DisplaySlot(s string) string {
	hour, minute, ok := ParseSlot(s)
	if !ok {
		return s
	}
	return extract.Clock{Hour: hour, Minute: minute}.Display()
}
