package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/extract"
	"github.com/pawbook/pawbook/internal/intent"
	"github.com/pawbook/pawbook/internal/observability/metrics"
	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Turn outcomes recorded per processed message.
const (
	outcomeAnswered         = "answered"
	outcomeCollecting       = "collecting"
	outcomeCancelled        = "cancelled"
	outcomeBooked           = "booked"
	outcomeSlotConflict     = "slot_conflict"
	outcomeDuplicate        = "duplicate"
	outcomeValidationFailed = "validation_failed"
	outcomeError            = "error"
)

const (
	replyApology   = "Sorry, something went wrong on my end. Your details are safe; please try that again in a moment."
	replyDuplicate = "It looks like this phone number already has a visit booked that day. We take one appointment per phone number per day; please call the clinic if you need to change an existing one."
)

var (
	errDayFull      = errors.New("no free slots on the requested day")
	errPastLastSlot = errors.New("requested time is after the day's last slot")
)

// closedDayError carries which weekday the visitor asked for.
type closedDayError struct {
	weekday time.Weekday
}

func (e *closedDayError) Error() string {
	return fmt.Sprintf("clinic is closed on %ss", e.weekday)
}

// Service orchestrates one chat turn: session load, intent, dialogue and the
// booking commit.
type Service struct {
	store     Store
	bookings  *appointments.Service
	engine    *schedule.Engine
	responder Responder
	archive   *TranscriptArchive
	logger    *logging.Logger
	metrics   *metrics.ConversationMetrics
	now       func() time.Time
}

// NewService wires the conversation service. The responder defaults to the
// rule-based one; swap it via WithResponder.
func NewService(store Store, bookings *appointments.Service, engine *schedule.Engine, logger *logging.Logger) *Service {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if bookings == nil {
		panic("conversation: booking service cannot be nil")
	}
	if engine == nil {
		panic("conversation: schedule engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		bookings:  bookings,
		engine:    engine,
		responder: NewRuleBasedResponder(engine.Hours()),
		logger:    logger,
		now:       time.Now,
	}
}

// WithResponder replaces the default rule-based responder.
func (s *Service) WithResponder(r Responder) *Service {
	if r != nil {
		s.responder = r
	}
	return s
}

// WithArchive attaches the write-behind transcript archive.
func (s *Service) WithArchive(a *TranscriptArchive) *Service {
	s.archive = a
	return s
}

// WithMetrics attaches turn metrics.
func (s *Service) WithMetrics(m *metrics.ConversationMetrics) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the clock. Tests use this to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// MessageRequest is one inbound chat turn.
type MessageRequest struct {
	SessionID string  `json:"session_id"`
	Message   string  `json:"message"`
	Context   Context `json:"context"`
}

// MessageResponse is what a turn sends back to the widget.
type MessageResponse struct {
	SessionID    string                    `json:"session_id"`
	Reply        string                    `json:"reply"`
	State        BookingStatus             `json:"state"`
	Intent       *intent.Classification    `json:"intent,omitempty"`
	Booking      *appointments.Appointment `json:"booking,omitempty"`
	Alternatives []schedule.Slot           `json:"alternatives,omitempty"`
}

// ProcessMessage runs one turn. Messages inside an active dialogue go to the
// state machine; idle turns are classified first and only booking intent
// starts the dialogue, everything else goes to the responder.
func (s *Service) ProcessMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	started := s.now()
	sess, err := s.store.FindOrCreate(ctx, sessionID, req.Context)
	if err != nil {
		return nil, fmt.Errorf("conversation: load session %s: %w", sessionID, err)
	}

	resp := &MessageResponse{SessionID: sess.ID, State: sess.State.Status}
	prevStatus := sess.State.Status

	var cls *intent.Classification
	if !sess.State.Status.InDialogue() {
		c := intent.Classify(text)
		cls = &c
		s.metrics.ObserveIntent(c.IsBooking)
	}
	resp.Intent = cls

	var outcome string
	if sess.State.Status.InDialogue() || (cls != nil && cls.IsBooking) {
		outcome = s.dialogueTurn(ctx, sess, text, resp)
	} else {
		outcome = s.answerTurn(ctx, sess, text, resp)
	}

	s.metrics.ObserveTurn(string(prevStatus), outcome, s.now().Sub(started))
	return resp, nil
}

// GetSession returns a session for transcript replay.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Get(ctx, sessionID)
}

// RecentTranscripts lists the newest archived conversations. Without an
// archive the answer is empty rather than an error.
func (s *Service) RecentTranscripts(ctx context.Context, limit int) ([]ArchivedConversation, error) {
	if s.archive == nil {
		return []ArchivedConversation{}, nil
	}
	return s.archive.RecentConversations(ctx, limit)
}

// answerTurn handles a non-booking message through the responder.
func (s *Service) answerTurn(ctx context.Context, sess *Session, text string, resp *MessageResponse) string {
	reply, err := s.responder.Respond(ctx, sess, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.logger.Error("conversation responder failed", "error", err, "session_id", sess.ID)
		}
		reply = replyNudgeBooking
	}

	if err := s.persistTurn(ctx, sess, sess.State, text, reply); err != nil {
		resp.Reply = replyApology
		return outcomeError
	}
	resp.Reply = reply
	resp.State = sess.State.Status
	return outcomeAnswered
}

// dialogueTurn advances the state machine and, on a confirmed yes, commits
// the booking.
func (s *Service) dialogueTurn(ctx context.Context, sess *Session, text string, resp *MessageResponse) string {
	tr := Advance(sess.State, text, s.now())

	if !tr.Commit {
		outcome := outcomeCollecting
		if sess.State.Status == StatusConfirming && tr.State.Status == StatusIdle {
			outcome = outcomeCancelled
		}
		if err := s.persistTurn(ctx, sess, tr.State, text, tr.Reply); err != nil {
			resp.Reply = replyApology
			resp.State = sess.State.Status
			return outcomeError
		}
		resp.Reply = tr.Reply
		resp.State = tr.State.Status
		return outcome
	}

	appt, err := s.commit(ctx, sess, tr.State.Temp)
	next, reply, outcome := s.settleCommit(resp, sess, tr.State.Temp, appt, err)

	if perr := s.persistTurn(ctx, sess, next, text, reply); perr != nil && outcome != outcomeBooked {
		// The booking, if any, exists even when the state write fails; only
		// non-booked outcomes downgrade to an apology.
		resp.Reply = replyApology
		resp.State = sess.State.Status
		return outcomeError
	}
	resp.Reply = reply
	resp.State = next.Status
	return outcome
}

// settleCommit maps the booking attempt's result onto the next state, the
// reply and the metrics outcome.
func (s *Service) settleCommit(resp *MessageResponse, sess *Session, temp TempData, appt *appointments.Appointment, err error) (BookingState, string, string) {
	var conflict *appointments.SlotConflictError
	var verrs appointments.ValidationErrors
	var closed *closedDayError

	switch {
	case err == nil:
		resp.Booking = appt
		return BookingState{Status: StatusIdle}, successReply(appt), outcomeBooked

	case errors.As(err, &conflict):
		resp.Alternatives = conflict.Alternatives
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedSlot = ""
		return next, conflictReply(conflict), outcomeSlotConflict

	case errors.Is(err, appointments.ErrSlotTaken):
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedSlot = ""
		return next, "I'm sorry, that time was just booked. What other time would work?", outcomeSlotConflict

	case errors.Is(err, appointments.ErrDuplicateBooking):
		return BookingState{Status: StatusIdle}, replyDuplicate, outcomeDuplicate

	case errors.Is(err, errDayFull):
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedDate = ""
		next.Temp.ResolvedSlot = ""
		return next, "I'm sorry, that day is fully booked. Which other day would suit you?", outcomeSlotConflict

	case errors.Is(err, errPastLastSlot):
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedSlot = ""
		return next, lastSlotReply(s.engine.Hours()), outcomeValidationFailed

	case errors.As(err, &closed):
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedDate = ""
		next.Temp.ResolvedSlot = ""
		reply := fmt.Sprintf("I'm sorry, we're closed on %ss. Which other day works for you?", closed.weekday)
		return next, reply, outcomeValidationFailed

	case errors.As(err, &verrs):
		next := BookingState{Status: StatusCollectingDateTime, Temp: temp}
		next.Temp.ResolvedDate = ""
		next.Temp.ResolvedSlot = ""
		return next, verrs.First().Message + " When else would work?", outcomeValidationFailed
	}

	s.logger.Error("conversation booking commit failed", "error", err, "session_id", sess.ID)
	return sess.State, replyApology, outcomeError
}

// commit resolves the collected preference into a concrete slot and books
// it. The conditional insert inside Create is the real race gate; everything
// before it is advisory.
func (s *Service) commit(ctx context.Context, sess *Session, temp TempData) (*appointments.Appointment, error) {
	date, slot, err := s.resolveSlot(ctx, temp)
	if err != nil {
		return nil, err
	}

	source := sess.Context.Source
	if source == "" {
		source = "chat"
	}
	req := &appointments.CreateRequest{
		OwnerName:         temp.OwnerName,
		PetName:           temp.PetName,
		Phone:             temp.Phone,
		ScheduledDate:     date,
		TimeSlot:          slot,
		PreferredDateTime: temp.PreferredDateTime,
		SessionID:         sess.ID,
		UserID:            sess.Context.UserID,
		Source:            source,
	}
	return s.bookings.Create(ctx, req)
}

// resolveSlot turns extraction output into a concrete (date, slot) pair.
// Missing pieces get defaults: the next operating day, the first free slot.
func (s *Service) resolveSlot(ctx context.Context, temp TempData) (string, string, error) {
	hours := s.engine.Hours()

	date, err := s.pickDate(hours, temp.ResolvedDate)
	if err != nil {
		return "", "", err
	}

	if temp.ResolvedSlot != "" {
		slot, err := alignSlot(hours, temp.ResolvedSlot)
		if err != nil {
			return "", "", err
		}
		return date.Format(appointments.DateLayout), slot, nil
	}

	result, err := s.engine.AvailableSlots(ctx, date)
	if err != nil {
		return "", "", err
	}
	for _, sl := range result.Slots {
		if sl.Available {
			return result.Date, sl.Time, nil
		}
	}
	return "", "", errDayFull
}

func (s *Service) pickDate(hours schedule.Hours, resolved string) (time.Time, error) {
	if resolved != "" {
		if d, err := time.ParseInLocation(appointments.DateLayout, resolved, time.UTC); err == nil {
			if !hours.IsOperatingDay(d) {
				return time.Time{}, &closedDayError{weekday: d.Weekday()}
			}
			return d, nil
		}
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		cand := today.AddDate(0, 0, i)
		if hours.IsOperatingDay(cand) {
			return cand, nil
		}
	}
	return time.Time{}, fmt.Errorf("conversation: no operating day within a week of %s", today.Format(appointments.DateLayout))
}

// alignSlot snaps a freely-typed time onto the grid: up to the next slot
// start, past lunch when needed.
func alignSlot(hours schedule.Hours, resolved string) (string, error) {
	hour, minute, ok := schedule.ParseSlot(resolved)
	if !ok {
		return "", fmt.Errorf("conversation: bad resolved slot %q", resolved)
	}
	slot, ok := hours.NearestSlot(hour, minute)
	if !ok {
		return "", errPastLastSlot
	}
	return slot, nil
}

// persistTurn writes the turn's transcript entries and the next state in one
// atomic update, then mirrors the entries to the archive.
func (s *Service) persistTurn(ctx context.Context, sess *Session, state BookingState, userText, botText string) error {
	at := s.now().UTC()
	userMsg := Message{Role: RoleUser, Content: userText, Timestamp: at}
	botMsg := Message{Role: RoleBot, Content: botText, Timestamp: at}

	err := s.store.UpdateSession(ctx, sess.ID, func(stored *Session) error {
		stored.Messages = append(stored.Messages, userMsg, botMsg)
		stored.State = state
		return nil
	})
	if err != nil {
		s.logger.Error("conversation turn not persisted", "error", err, "session_id", sess.ID)
		return err
	}
	sess.Messages = append(sess.Messages, userMsg, botMsg)
	sess.State = state

	for _, msg := range []Message{userMsg, botMsg} {
		if err := s.archive.AppendMessage(ctx, sess.ID, sess.Context, msg); err != nil {
			s.logger.Error("conversation archive append failed", "error", err, "session_id", sess.ID)
		}
	}
	return nil
}

func successReply(a *appointments.Appointment) string {
	return fmt.Sprintf("You're all set! %s is booked in for %s. See you then!", a.PetName, bookedWhen(a))
}

func bookedWhen(a *appointments.Appointment) string {
	slot := schedule.DisplaySlot(a.TimeSlot)
	if d, err := time.Parse(appointments.DateLayout, a.ScheduledDate); err == nil {
		return d.Format("Monday, 2 Jan 2006") + " at " + slot
	}
	return a.ScheduledDate + " at " + slot
}

func conflictReply(conflict *appointments.SlotConflictError) string {
	if len(conflict.Alternatives) == 0 {
		return "I'm sorry, that time was just booked. What other time would work?"
	}
	names := make([]string, 0, len(conflict.Alternatives))
	for _, alt := range conflict.Alternatives {
		names = append(names, alt.Display)
	}
	return fmt.Sprintf("I'm sorry, that time was just booked. The closest free times that day are %s. Which works for you?", strings.Join(names, ", "))
}

func lastSlotReply(hours schedule.Hours) string {
	interval := hours.SlotIntervalMins
	if interval <= 0 {
		interval = 30
	}
	mins := hours.Close*60 - interval
	last := extract.Clock{Hour: mins / 60, Minute: mins % 60}
	return fmt.Sprintf("I'm sorry, our last appointment of the day starts at %s. Would that work, or another day?", last.Display())
}
