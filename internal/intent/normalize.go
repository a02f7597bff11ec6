package intent

import (
	"strings"
	"unicode"
)

// misspellings maps common misspelled words to their corrected form.
// Applied as exact-word substitution after punctuation stripping.
var misspellings = map[string]string{
	"apointment":  "appointment",
	"appoinment":  "appointment",
	"appointmet":  "appointment",
	"appointmnet": "appointment",
	"apointments": "appointments",
	"shedule":     "schedule",
	"schedual":    "schedule",
	"scedule":     "schedule",
	"scheduel":    "schedule",
	"tomorow":     "tomorrow",
	"tommorow":    "tomorrow",
	"tommorrow":   "tomorrow",
	"vetinary":    "veterinary",
	"veterinery":  "veterinary",
	"checkp":      "checkup",
	"vacination":  "vaccination",
}

// abbreviations maps shorthand to expanded words. Applied after the
// misspelling pass so corrected words can still expand.
var abbreviations = map[string]string{
	"appt":    "appointment",
	"appts":   "appointments",
	"tmrw":    "tomorrow",
	"tmr":     "tomorrow",
	"2moro":   "tomorrow",
	"2morrow": "tomorrow",
	"asap":    "as soon as possible",
	"mon":     "monday",
	"tue":     "tuesday",
	"tues":    "tuesday",
	"wed":     "wednesday",
	"thu":     "thursday",
	"thurs":   "thursday",
	"fri":     "friday",
	"sat":     "saturday",
	"sun":     "sunday",
	"dr":      "doctor",
	"doc":     "doctor",
}

// Normalize lowercases text, collapses whitespace, strips punctuation except
// hyphens and apostrophes, then applies the misspelling and abbreviation
// tables word by word.
func Normalize(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if fixed, ok := misspellings[w]; ok {
			w = fixed
		}
		if expanded, ok := abbreviations[w]; ok {
			w = expanded
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}
