package conversation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/extract"
	"github.com/pawbook/pawbook/internal/intent"
	"github.com/pawbook/pawbook/internal/schedule"
)

// Fixed replies of the slot-filling dialogue. The confirmation summary and
// the post-commit messages are built per turn.
const (
	replyAskOwnerName = "Great, let's get your visit booked! What's your name?"
	replyAskPetName   = "And what's your pet's name?"
	replyAskPhone     = "What's the best phone number to reach you on?"
	replyAskDateTime  = "When would you like to come in? Something like \"tomorrow afternoon\" or \"Friday at 2pm\" works."
	replyBadOwnerName = "That name doesn't look quite right. It needs 2 to 100 letters; spaces, dots, hyphens and apostrophes are fine."
	replyBadPetName   = "Sorry, I didn't catch that. What's your pet's name?"
	replyBadPhone     = "That phone number doesn't look right. I need 10 to 15 digits, for example +1 555 123 4567."
	replyBadDateTime  = "Could you give me a bit more detail? Something like \"tomorrow afternoon\" or \"Friday at 2pm\" works."
	replyConfirmNudge = "Please reply yes to book it or no to cancel."
	replyCancelled    = "No problem, I've dropped that request. Just say the word when you'd like to book."
)

// Transition is the outcome of one dialogue turn: the state to persist, what
// to say, and whether the collected answers are ready to commit. When Commit
// is set Reply is empty; the caller speaks once the booking attempt settles.
type Transition struct {
	State  BookingState
	Reply  string
	Commit bool
}

// Advance runs one turn of the slot-filling dialogue. It is a pure function
// of the state, the message text and the clock, so every transition is
// testable without a store. Invalid answers keep the status and re-prompt.
func Advance(state BookingState, text string, now time.Time) Transition {
	text = strings.TrimSpace(text)

	switch state.Status {
	case StatusCollectingOwnerName:
		if !appointments.ValidOwnerName(text) {
			return Transition{State: state, Reply: replyBadOwnerName}
		}
		state.Temp.OwnerName = text
		state.Status = StatusCollectingPetName
		return Transition{State: state, Reply: replyAskPetName}

	case StatusCollectingPetName:
		if text == "" || utf8.RuneCountInString(text) > 50 {
			return Transition{State: state, Reply: replyBadPetName}
		}
		state.Temp.PetName = text
		state.Status = StatusCollectingPhone
		return Transition{State: state, Reply: replyAskPhone}

	case StatusCollectingPhone:
		if !appointments.ValidPhone(text) {
			return Transition{State: state, Reply: replyBadPhone}
		}
		state.Temp.Phone = appointments.NormalizePhone(text)
		state.Status = StatusCollectingDateTime
		return Transition{State: state, Reply: replyAskDateTime}

	case StatusCollectingDateTime:
		if utf8.RuneCountInString(text) < 5 {
			return Transition{State: state, Reply: replyBadDateTime}
		}
		state.Temp.PreferredDateTime = text
		res := extract.DateTime(text, now)
		// Each side only overwrites when the new text mentions it, so a
		// time-only answer after a slot conflict keeps the chosen day.
		if res.HasDate {
			state.Temp.ResolvedDate = res.Date.Format(appointments.DateLayout)
		}
		if res.HasTime {
			state.Temp.ResolvedSlot = res.Clock.String()
		}
		state.Status = StatusConfirming
		return Transition{State: state, Reply: confirmationSummary(state.Temp)}

	case StatusConfirming:
		switch confirmAnswer(text) {
		case answerYes:
			state.Status = StatusCompleted
			return Transition{State: state, Commit: true}
		case answerNo:
			state.Status = StatusIdle
			state.Temp = TempData{}
			return Transition{State: state, Reply: replyCancelled}
		}
		return Transition{State: state, Reply: replyConfirmNudge}
	}

	// Idle, completed or an unknown persisted status: the message itself is
	// the trigger, not an answer, so the first question goes out unparsed.
	state.Status = StatusCollectingOwnerName
	state.Temp = TempData{}
	return Transition{State: state, Reply: replyAskOwnerName}
}

type answer int

const (
	answerUnclear answer = iota
	answerYes
	answerNo
)

var (
	yesAnswers = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
		"sure": true, "ok": true, "okay": true, "confirm": true,
		"yes please": true, "go ahead": true, "book it": true, "sounds good": true,
	}
	noAnswers = map[string]bool{
		"no": true, "n": true, "nope": true, "nah": true, "cancel": true,
		"stop": true, "no thanks": true, "no thank you": true,
		"never mind": true, "nevermind": true,
	}
)

// confirmAnswer reads a confirmation reply. Anything not clearly yes or no
// counts as unclear and keeps the question open.
func confirmAnswer(text string) answer {
	normalized := intent.Normalize(text)
	switch {
	case yesAnswers[normalized]:
		return answerYes
	case noAnswers[normalized]:
		return answerNo
	}
	return answerUnclear
}

// confirmationSummary restates everything collected before asking for a yes.
func confirmationSummary(t TempData) string {
	var b strings.Builder
	b.WriteString("Here's what I have:\n")
	fmt.Fprintf(&b, "Name: %s\nPet: %s\nPhone: %s\nWhen: %s", t.OwnerName, t.PetName, t.Phone, t.PreferredDateTime)
	if view := resolvedPreference(t); view != "" {
		fmt.Fprintf(&b, " (%s)", view)
	}
	b.WriteString("\nShall I book it? (yes/no)")
	return b.String()
}

// resolvedPreference renders what extraction understood from the preference
// text, e.g. "Friday, 30 Jan 2026 at 2:00 PM". Empty when nothing resolved.
func resolvedPreference(t TempData) string {
	var parts []string
	if t.ResolvedDate != "" {
		if d, err := time.Parse(appointments.DateLayout, t.ResolvedDate); err == nil {
			parts = append(parts, d.Format("Monday, 2 Jan 2006"))
		}
	}
	if t.ResolvedSlot != "" {
		parts = append(parts, schedule.DisplaySlot(t.ResolvedSlot))
	}
	return strings.Join(parts, " at ")
}
