package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dayNames maps weekday words and common abbreviations to weekdays.
var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tues":      time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thurs":     time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

var monthNames = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sep":       time.September,
	"sept":      time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

const monthPattern = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	weekdayRE = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday|tues|thurs|sun|mon|tue|wed|thu|fri|sat)\b`)

	// Day-first: 5/3 is the 5th of March.
	slashDateRE = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)

	// Dash or dot separated; the 4-digit group decides which side is the year.
	dashDateRE = regexp.MustCompile(`\b(\d{1,4})[-.](\d{1,2})[-.](\d{1,4})\b`)

	monthDayRE = regexp.MustCompile(`\b(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthRE = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthPattern + `)(?:,?\s+(\d{4}))?\b`)
)

// Date resolves a calendar date mentioned in text relative to now. Rules are
// tried in a fixed order; the first match wins. A false result is the normal
// outcome for text that simply contains no date.
func Date(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(text)
	today := midnight(now)

	if strings.Contains(text, "day after tomorrow") {
		return today.AddDate(0, 0, 2), true
	}
	if strings.Contains(text, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}
	if strings.Contains(text, "today") {
		return today, true
	}
	if strings.Contains(text, "next week") {
		return today.AddDate(0, 0, 7), true
	}

	if m := weekdayRE.FindStringSubmatch(text); m != nil {
		target := dayNames[m[1]]
		delta := (int(target) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta), true
	}

	if m := slashDateRE.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year = parseYear(m[3])
		}
		if d, ok := buildDate(year, month, day, now.Location()); ok {
			return d, true
		}
	}

	if m := dashDateRE.FindStringSubmatch(text); m != nil {
		first, mid, last := m[1], m[2], m[3]
		month, _ := strconv.Atoi(mid)
		switch {
		case len(first) == 4:
			year, _ := strconv.Atoi(first)
			day, _ := strconv.Atoi(last)
			if d, ok := buildDate(year, month, day, now.Location()); ok {
				return d, true
			}
		case len(last) == 4:
			day, _ := strconv.Atoi(first)
			year, _ := strconv.Atoi(last)
			if d, ok := buildDate(year, month, day, now.Location()); ok {
				return d, true
			}
		}
	}

	if m := monthDayRE.FindStringSubmatch(text); m != nil {
		month := monthNames[m[1]]
		day, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if d, ok := buildDate(year, int(month), day, now.Location()); ok {
			return d, true
		}
	}

	if m := dayMonthRE.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[m[2]]
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if d, ok := buildDate(year, int(month), day, now.Location()); ok {
			return d, true
		}
	}

	return time.Time{}, false
}

// buildDate constructs a date and rejects impossible combinations such as
// February 31st, which time.Date would silently roll over.
func buildDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func parseYear(s string) int {
	y, _ := strconv.Atoi(s)
	if y < 100 {
		y += 2000
	}
	return y
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
