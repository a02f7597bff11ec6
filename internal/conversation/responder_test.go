package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/pawbook/pawbook/internal/schedule"
)

func TestRuleBasedResponder(t *testing.T) {
	responder := NewRuleBasedResponder(schedule.DefaultHours())
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"opening hours", "What are your opening hours?", "9:00 AM"},
		{"closed days", "when do you close", "closed on Sundays"},
		{"services", "What services do you offer?", "Vaccination"},
		{"service durations", "do you do grooming", "45 min"},
		{"thanks", "thanks a lot!", "You're very welcome"},
		{"goodbye", "ok bye", "Take good care"},
		{"greeting", "Hello!", "How can I help"},
		{"unknown", "what's the weather like", replyNudgeBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responder.Respond(ctx, nil, tt.text)
			if err != nil {
				t.Fatalf("Respond() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Respond(%q) = %q, want it to contain %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestRuleBasedResponderWholeWords(t *testing.T) {
	responder := NewRuleBasedResponder(schedule.DefaultHours())

	// "history" contains "hi" but is not a greeting.
	got, err := responder.Respond(context.Background(), nil, "history")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got != replyNudgeBooking {
		t.Errorf("partial-word match should not trigger a rule, got %q", got)
	}
}
