package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Clock is a time of day. The zero value is midnight.
type Clock struct {
	Hour   int
	Minute int
}

// String returns the 24-hour "HH:MM" form used by the slot grid.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Display returns the 12-hour form shown to users, e.g. "2:30 PM".
func (c Clock) Display() string {
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	meridiem := "AM"
	if c.Hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, meridiem)
}

var (
	daypartRE     = regexp.MustCompile(`\b(morning|noon|midday|afternoon|evening)s?\b`)
	numericTimeRE = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

	daypartClocks = map[string]Clock{
		"morning":   {Hour: 9},
		"noon":      {Hour: 12},
		"midday":    {Hour: 12},
		"afternoon": {Hour: 14},
		"evening":   {Hour: 17},
	}
)

// TimeOfDay resolves a time of day mentioned in text. Daypart words win over
// numeric forms. Only the first numeric candidate is considered: if it is not
// a plausible clock value (hour over 24), the text is treated as containing
// no time at all rather than scanning on, so date fragments like "25/12" are
// not misread as times.
func TimeOfDay(text string) (Clock, bool) {
	text = strings.ToLower(text)

	if m := daypartRE.FindStringSubmatch(text); m != nil {
		return daypartClocks[m[1]], true
	}

	m := numericTimeRE.FindStringSubmatch(text)
	if m == nil {
		return Clock{}, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := m[3]

	if hour > 24 || minute > 59 {
		return Clock{}, false
	}
	if hour == 24 {
		if minute != 0 {
			return Clock{}, false
		}
		hour = 0
	}

	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		} else if hour > 12 {
			return Clock{}, false
		}
	default:
		// No meridiem: hours below 12 read as morning, 12 and above as 24-hour.
	}

	return Clock{Hour: hour, Minute: minute}, true
}
