package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/extract"
	"github.com/pawbook/pawbook/internal/intent"
	"github.com/pawbook/pawbook/internal/schedule"
)

// Responder produces the reply for turns the booking dialogue does not
// claim: greetings, questions, small talk.
type Responder interface {
	Respond(ctx context.Context, sess *Session, text string) (string, error)
}

// replyNudgeBooking is the answer of last resort, shared with the service's
// responder-failure fallback.
const replyNudgeBooking = "I'm best at booking vet appointments. Say something like \"I'd like to book an appointment\" and I'll take it from there."

// RuleBasedResponder answers common questions from keyword rules. It is the
// default when no LLM is configured and the fallback when one fails.
type RuleBasedResponder struct {
	hours schedule.Hours
}

var _ Responder = (*RuleBasedResponder)(nil)

// NewRuleBasedResponder creates a responder that answers from the clinic's
// configured hours and service catalogue.
func NewRuleBasedResponder(hours schedule.Hours) *RuleBasedResponder {
	return &RuleBasedResponder{hours: hours}
}

var (
	hoursWords    = []string{"hours", "open", "close", "closing", "opening"}
	serviceWords  = []string{"services", "service", "offer", "treatments", "vaccination", "grooming", "dental", "surgery", "checkup"}
	thanksWords   = []string{"thank", "thanks", "cheers"}
	byeWords      = []string{"bye", "goodbye"}
	greetingWords = []string{"hello", "hi", "hey", "howdy", "good morning", "good afternoon", "good evening"}
)

func (r *RuleBasedResponder) Respond(_ context.Context, _ *Session, text string) (string, error) {
	padded := " " + intent.Normalize(text) + " "

	switch {
	case matchesAny(padded, hoursWords):
		return r.hoursReply(), nil
	case matchesAny(padded, serviceWords):
		return servicesReply(), nil
	case matchesAny(padded, thanksWords):
		return "You're very welcome! Give me a shout if you need anything else.", nil
	case matchesAny(padded, byeWords):
		return "Bye for now! Take good care of your pet.", nil
	case matchesAny(padded, greetingWords):
		return "Hi there! I'm the PawBook assistant. I can answer questions about the clinic or book a visit for your pet. How can I help?", nil
	}
	return replyNudgeBooking, nil
}

// matchesAny reports whether any term appears as whole words in the padded,
// normalized text.
func matchesAny(padded string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(padded, " "+term+" ") {
			return true
		}
	}
	return false
}

func (r *RuleBasedResponder) hoursReply() string {
	open := extract.Clock{Hour: r.hours.Open}.Display()
	closeAt := extract.Clock{Hour: r.hours.Close}.Display()
	lunchFrom := extract.Clock{Hour: r.hours.LunchStart}.Display()
	lunchTo := extract.Clock{Hour: r.hours.LunchEnd}.Display()

	reply := fmt.Sprintf("We're open from %s to %s, with a lunch break from %s to %s.", open, closeAt, lunchFrom, lunchTo)
	if closed := closedDays(r.hours); len(closed) > 0 {
		reply += fmt.Sprintf(" We're closed on %s.", strings.Join(closed, " and "))
	}
	return reply + " Want me to book you a slot?"
}

func closedDays(hours schedule.Hours) []string {
	var closed []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !hours.OpenDays[d] {
			closed = append(closed, d.String()+"s")
		}
	}
	return closed
}

func servicesReply() string {
	names := make([]string, 0, len(appointments.Services))
	for _, svc := range appointments.Services {
		names = append(names, fmt.Sprintf("%s (%d min)", svc.Name, svc.DurationMins))
	}
	return "We offer: " + strings.Join(names, ", ") + ". Want me to book one for your pet?"
}
