package intent

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "BOOK An APPOINTMENT", "book an appointment"},
		{"collapses whitespace", "book   an \t appointment", "book an appointment"},
		{"strips punctuation", "book, an appointment!!", "book an appointment"},
		{"keeps hyphens", "check-up for my dog", "check-up for my dog"},
		{"keeps apostrophes", "my dog's check-up", "my dog's check-up"},
		{"corrects misspellings", "need an apointment", "need an appointment"},
		{"corrects schedule misspelling", "can i shedule a visit", "can i schedule a visit"},
		{"expands abbreviations", "appt for tmrw", "appointment for tomorrow"},
		{"expands asap", "need a vet asap", "need a vet as soon as possible"},
		{"misspelling then expansion untouched", "tommorow appt", "tomorrow appointment"},
		{"empty input", "", ""},
		{"punctuation only", "?!.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
