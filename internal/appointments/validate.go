package appointments

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pawbook/pawbook/internal/schedule"
)

// Codes carried by field validation errors.
const (
	CodeRequired      = "REQUIRED"
	CodeTooShort      = "TOO_SHORT"
	CodeTooLong       = "TOO_LONG"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeInvalidChars  = "INVALID_CHARS"
	CodeInvalidValue  = "INVALID_VALUE"
	CodePastDate      = "PAST_DATE"
	CodeTooFarAhead   = "TOO_FAR_AHEAD"
	CodeClosedDay     = "CLOSED_DAY"
	CodeOutsideHours  = "OUTSIDE_HOURS"
	CodeBreakTime     = "BREAK_TIME"
	CodeOffGrid       = "OFF_GRID"
	CodeTooSoon       = "TOO_SOON"
)

// FieldError describes one invalid field. Expected invalid input is reported
// this way, never as a panic or a plain error string.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors aggregates every failed rule from one validation pass.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// First returns the first failed rule. Only call when len > 0.
func (v ValidationErrors) First() FieldError {
	return v[0]
}

// Mode selects which fields a validation pass enforces.
type Mode int

const (
	// ModeFull enforces all required fields. Used for direct creation.
	ModeFull Mode = iota
	// ModePartial validates only the fields present. Used for updates.
	ModePartial
)

// BookingInput is the raw field set a validation pass inspects. Dates and
// slots stay strings here so format errors are reportable per field.
type BookingInput struct {
	OwnerName         string
	PetName           string
	PetType           string
	Phone             string
	Email             string
	ServiceType       string
	Reason            string
	Notes             string
	ScheduledDate     string
	TimeSlot          string
	PreferredDateTime string
}

var (
	ownerNameRE  = regexp.MustCompile(`^[\p{L}][\p{L} .'-]*$`)
	phoneStripRE = regexp.MustCompile(`[\s\-.()]+`)
	phoneRE      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailRE      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidOwnerName is the single-field owner name predicate the dialogue uses
// between turns. It applies the same rule as the full validator.
func ValidOwnerName(name string) bool {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	return n >= 2 && n <= 100 && ownerNameRE.MatchString(name)
}

// ValidPhone is the single-field phone predicate the dialogue uses between
// turns.
func ValidPhone(phone string) bool {
	return phoneRE.MatchString(NormalizePhone(phone))
}

// NormalizePhone strips spaces, hyphens, dots and parentheses. The result is
// digits with an optional leading plus and is the stored canonical form.
func NormalizePhone(phone string) string {
	return phoneStripRE.ReplaceAllString(strings.TrimSpace(phone), "")
}

// Validator checks booking fields against the clinic schedule. All rules are
// evaluated; errors aggregate rather than short-circuit.
type Validator struct {
	hours schedule.Hours
	now   func() time.Time
}

// NewValidator creates a validator bound to the clinic's hours.
func NewValidator(hours schedule.Hours) *Validator {
	return &Validator{hours: hours, now: time.Now}
}

// WithClock overrides the validator's clock. Tests use this to pin "today".
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs every applicable rule and returns all failures. A nil result
// means the input passed.
func (v *Validator) Validate(in BookingInput, mode Mode) ValidationErrors {
	var errs ValidationErrors
	full := mode == ModeFull

	v.checkOwnerName(in.OwnerName, full, &errs)
	v.checkPetName(in.PetName, full, &errs)
	v.checkPetType(in.PetType, &errs)
	v.checkPhone(in.Phone, full, &errs)
	v.checkEmail(in.Email, &errs)
	v.checkService(in.ServiceType, &errs)
	date, haveDate := v.checkScheduledDate(in.ScheduledDate, full, &errs)
	v.checkTimeSlot(in.TimeSlot, date, haveDate, full, &errs)
	v.checkText("preferred_datetime", in.PreferredDateTime, 5, 200, &errs)
	v.checkText("reason", in.Reason, 0, 500, &errs)
	v.checkText("notes", in.Notes, 0, 1000, &errs)

	return errs
}

func (v *Validator) checkOwnerName(name string, required bool, errs *ValidationErrors) {
	name = strings.TrimSpace(name)
	if name == "" {
		if required {
			*errs = append(*errs, FieldError{"owner_name", "owner name is required", CodeRequired})
		}
		return
	}
	switch n := utf8.RuneCountInString(name); {
	case n < 2:
		*errs = append(*errs, FieldError{"owner_name", "owner name must be at least 2 characters", CodeTooShort})
	case n > 100:
		*errs = append(*errs, FieldError{"owner_name", "owner name must be at most 100 characters", CodeTooLong})
	case !ownerNameRE.MatchString(name):
		*errs = append(*errs, FieldError{"owner_name", "owner name may only contain letters, spaces, hyphens, apostrophes and periods", CodeInvalidChars})
	}
}

func (v *Validator) checkPetName(name string, required bool, errs *ValidationErrors) {
	name = strings.TrimSpace(name)
	if name == "" {
		if required {
			*errs = append(*errs, FieldError{"pet_name", "pet name is required", CodeRequired})
		}
		return
	}
	if utf8.RuneCountInString(name) > 50 {
		*errs = append(*errs, FieldError{"pet_name", "pet name must be at most 50 characters", CodeTooLong})
	}
}

func (v *Validator) checkPetType(petType string, errs *ValidationErrors) {
	if petType == "" {
		return
	}
	if !ValidPetType(PetType(petType)) {
		*errs = append(*errs, FieldError{"pet_type", fmt.Sprintf("unknown pet type %q", petType), CodeInvalidValue})
	}
}

func (v *Validator) checkPhone(phone string, required bool, errs *ValidationErrors) {
	if strings.TrimSpace(phone) == "" {
		if required {
			*errs = append(*errs, FieldError{"phone", "phone number is required", CodeRequired})
		}
		return
	}
	stripped := NormalizePhone(phone)
	digits := strings.TrimPrefix(stripped, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			*errs = append(*errs, FieldError{"phone", "phone number may only contain digits and an optional leading +", CodeInvalidFormat})
			return
		}
	}
	switch {
	case len(digits) < 10:
		*errs = append(*errs, FieldError{"phone", "phone number must have at least 10 digits", CodeTooShort})
	case len(digits) > 15:
		*errs = append(*errs, FieldError{"phone", "phone number must have at most 15 digits", CodeTooLong})
	}
}

func (v *Validator) checkEmail(email string, errs *ValidationErrors) {
	if email == "" {
		return
	}
	if utf8.RuneCountInString(email) > 100 {
		*errs = append(*errs, FieldError{"email", "email must be at most 100 characters", CodeTooLong})
		return
	}
	if !emailRE.MatchString(email) {
		*errs = append(*errs, FieldError{"email", "email address is not valid", CodeInvalidFormat})
	}
}

func (v *Validator) checkService(id string, errs *ValidationErrors) {
	if id == "" {
		return
	}
	if _, ok := ServiceByID(id); !ok {
		*errs = append(*errs, FieldError{"service_type", fmt.Sprintf("unknown service %q", id), CodeInvalidValue})
	}
}

func (v *Validator) checkScheduledDate(date string, required bool, errs *ValidationErrors) (time.Time, bool) {
	if date == "" {
		if required {
			*errs = append(*errs, FieldError{"scheduled_date", "scheduled date is required", CodeRequired})
		}
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		*errs = append(*errs, FieldError{"scheduled_date", "scheduled date must be a real date in YYYY-MM-DD form", CodeInvalidFormat})
		return time.Time{}, false
	}

	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case parsed.Before(today):
		*errs = append(*errs, FieldError{"scheduled_date", "scheduled date is in the past", CodePastDate})
	case parsed.After(today.AddDate(0, 0, v.hours.MaxAdvanceDays)):
		*errs = append(*errs, FieldError{"scheduled_date", fmt.Sprintf("bookings open at most %d days ahead", v.hours.MaxAdvanceDays), CodeTooFarAhead})
	case !v.hours.IsOperatingDay(parsed):
		*errs = append(*errs, FieldError{"scheduled_date", fmt.Sprintf("the clinic is closed on %ss", parsed.Weekday()), CodeClosedDay})
	}
	return parsed, true
}

func (v *Validator) checkTimeSlot(slot string, date time.Time, haveDate, required bool, errs *ValidationErrors) {
	if slot == "" {
		if required {
			*errs = append(*errs, FieldError{"time_slot", "time slot is required", CodeRequired})
		}
		return
	}
	hour, minute, ok := schedule.ParseSlot(slot)
	if !ok {
		*errs = append(*errs, FieldError{"time_slot", "time slot must be in HH:MM form", CodeInvalidFormat})
		return
	}
	switch {
	case hour < v.hours.Open || hour >= v.hours.Close:
		*errs = append(*errs, FieldError{"time_slot", fmt.Sprintf("slots run from %s to %s", schedule.DisplaySlot(fmt.Sprintf("%02d:00", v.hours.Open)), schedule.DisplaySlot(fmt.Sprintf("%02d:00", v.hours.Close))), CodeOutsideHours})
		return
	case v.hours.InLunchWindow(hour):
		*errs = append(*errs, FieldError{"time_slot", "that time falls in the lunch break", CodeBreakTime})
		return
	case (hour*60+minute-v.hours.Open*60)%v.hours.SlotIntervalMins != 0:
		*errs = append(*errs, FieldError{"time_slot", fmt.Sprintf("slots start every %d minutes", v.hours.SlotIntervalMins), CodeOffGrid})
		return
	}

	if !haveDate {
		return
	}
	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !date.Equal(today) {
		return
	}
	slotTime := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	if slotTime.Before(now.Add(v.hours.SameDayLeadTime)) {
		*errs = append(*errs, FieldError{"time_slot", fmt.Sprintf("same-day bookings need at least %d minutes notice", int(v.hours.SameDayLeadTime.Minutes())), CodeTooSoon})
	}
}

func (v *Validator) checkText(field, value string, minLen, maxLen int, errs *ValidationErrors) {
	if value == "" {
		return
	}
	switch n := utf8.RuneCountInString(value); {
	case minLen > 0 && n < minLen:
		*errs = append(*errs, FieldError{field, fmt.Sprintf("%s must be at least %d characters", field, minLen), CodeTooShort})
	case n > maxLen:
		*errs = append(*errs, FieldError{field, fmt.Sprintf("%s must be at most %d characters", field, maxLen), CodeTooLong})
	}
}
