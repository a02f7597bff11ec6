// Package conversation runs the chat side of booking: live sessions, the
// slot-filling dialogue and the glue between free-form messages and the
// appointment book.
package conversation

import (
	"time"
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// Message is one entry in a session's transcript. The log is append-only;
// retention is the store's TTL, not deletion.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextField is one caller-supplied key-value pair. The dialogue never
// interprets these; they ride along in the order the caller sent them.
type ContextField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Context carries what the embedding site already knows about the visitor.
// Every field is optional.
type Context struct {
	UserID     string         `json:"user_id,omitempty"`
	UserName   string         `json:"user_name,omitempty"`
	PetName    string         `json:"pet_name,omitempty"`
	Source     string         `json:"source,omitempty"`
	CustomData []ContextField `json:"custom_data,omitempty"`
}

// BookingStatus names a step of the booking dialogue.
type BookingStatus string

const (
	StatusIdle                BookingStatus = "idle"
	StatusCollectingOwnerName BookingStatus = "collecting_owner_name"
	StatusCollectingPetName   BookingStatus = "collecting_pet_name"
	StatusCollectingPhone     BookingStatus = "collecting_phone"
	StatusCollectingDateTime  BookingStatus = "collecting_datetime"
	StatusConfirming          BookingStatus = "confirming"
	StatusCompleted           BookingStatus = "completed"
)

// InDialogue reports whether the session is mid-collection, in which case a
// turn goes straight to the state machine instead of intent classification.
func (s BookingStatus) InDialogue() bool {
	switch s {
	case StatusIdle, StatusCompleted, "":
		return false
	}
	return true
}

// TempData accumulates the answers collected so far. ResolvedDate and
// ResolvedSlot hold what extraction read out of the preference text; empty
// means the commit-time defaults apply.
type TempData struct {
	OwnerName         string `json:"owner_name,omitempty"`
	PetName           string `json:"pet_name,omitempty"`
	Phone             string `json:"phone,omitempty"`
	PreferredDateTime string `json:"preferred_datetime,omitempty"`
	ResolvedDate      string `json:"resolved_date,omitempty"`
	ResolvedSlot      string `json:"resolved_slot,omitempty"`
}

// BookingState is the dialogue position plus the collected answers.
type BookingState struct {
	Status BookingStatus `json:"status"`
	Temp   TempData      `json:"temp_data"`
}

// Session is one visitor's conversation: caller context, dialogue state and
// the transcript.
type Session struct {
	ID        string       `json:"id"`
	Context   Context      `json:"context"`
	State     BookingState `json:"booking_state"`
	Messages  []Message    `json:"messages"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSession returns a fresh idle session.
func NewSession(id string, callerCtx Context, now time.Time) *Session {
	return &Session{
		ID:        id,
		Context:   callerCtx,
		State:     BookingState{Status: StatusIdle},
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds one message to the transcript.
func (s *Session) Append(role Role, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: at})
}

// Clone returns a deep copy. Stores hand out clones so callers cannot mutate
// shared state behind the store's back.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Context.CustomData = append([]ContextField(nil), s.Context.CustomData...)
	return &out
}
