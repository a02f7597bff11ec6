package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawbook/pawbook/internal/observability/metrics"
	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Notifier is told about committed bookings. Failures are logged, never
// propagated: the booking is already stored when notification runs.
type Notifier interface {
	BookingConfirmed(ctx context.Context, appt *Appointment) error
}

// Service coordinates validation, slot availability and persistence for
// bookings. It is the single entry point for creating and managing
// appointments; both the HTTP API and the conversation flow commit through
// it.
type Service struct {
	repo      Repository
	engine    *schedule.Engine
	validator *Validator
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	notifier  Notifier
}

// NewService creates the booking service.
func NewService(repo Repository, engine *schedule.Engine, validator *Validator, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if validator == nil {
		panic("appointments: validator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		engine:    engine,
		validator: validator,
		logger:    logger,
	}
}

// WithMetrics attaches booking metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// WithNotifier attaches a confirmation notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// Create books an appointment. The repository's conditional insert is the
// authoritative race guard; the duplicate pre-check only exists to report
// DUPLICATE_BOOKING before burning the slot write.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	in := BookingInput{
		OwnerName:         req.OwnerName,
		PetName:           req.PetName,
		PetType:           req.PetType,
		Phone:             req.Phone,
		Email:             req.Email,
		ServiceType:       req.ServiceType,
		Reason:            req.Reason,
		Notes:             req.Notes,
		ScheduledDate:     req.ScheduledDate,
		TimeSlot:          req.TimeSlot,
		PreferredDateTime: req.PreferredDateTime,
	}
	if errs := s.validator.Validate(in, ModeFull); len(errs) > 0 {
		return nil, errs
	}

	appt := s.buildAppointment(req)

	date, err := time.ParseInLocation(DateLayout, appt.ScheduledDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("appointments: parse scheduled date: %w", err)
	}
	dup, err := s.repo.HasActiveBooking(ctx, appt.Phone, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: duplicate check: %w", err)
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.SlotConflict()
			return nil, s.slotConflict(ctx, appt.ScheduledDate, appt.TimeSlot)
		}
		if errors.Is(err, ErrDuplicateBooking) {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}

	s.metrics.BookingCreated(appt.Source)
	s.logger.Info("appointment booked",
		"id", appt.ID,
		"date", appt.ScheduledDate,
		"slot", appt.TimeSlot,
		"service", appt.ServiceType,
		"source", appt.Source,
	)

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, appt); err != nil {
			s.logger.Error("confirmation email failed", "error", err, "id", appt.ID)
		}
	}
	return appt, nil
}

func (s *Service) buildAppointment(req *CreateRequest) *Appointment {
	appt := &Appointment{
		ID:                uuid.New().String(),
		OwnerName:         strings.TrimSpace(req.OwnerName),
		PetName:           strings.TrimSpace(req.PetName),
		PetType:           PetType(req.PetType),
		Phone:             NormalizePhone(req.Phone),
		Email:             strings.TrimSpace(req.Email),
		ServiceType:       req.ServiceType,
		Reason:            strings.TrimSpace(req.Reason),
		Notes:             strings.TrimSpace(req.Notes),
		ScheduledDate:     req.ScheduledDate,
		TimeSlot:          req.TimeSlot,
		PreferredDateTime: strings.TrimSpace(req.PreferredDateTime),
		SessionID:         req.SessionID,
		UserID:            req.UserID,
		Source:            req.Source,
		Status:            StatusPending,
	}
	if appt.PetType == "" {
		appt.PetType = PetOther
	}
	if appt.ServiceType == "" {
		appt.ServiceType = DefaultServiceID
	}
	if appt.PreferredDateTime == "" {
		appt.PreferredDateTime = appt.ScheduledDate + " " + appt.TimeSlot
	}
	if appt.Source == "" {
		appt.Source = "api"
	}
	return appt
}

func (s *Service) slotConflict(ctx context.Context, date, slot string) error {
	conflict := &SlotConflictError{Date: date, Slot: slot}
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err == nil && s.engine != nil {
		if alts, altErr := s.engine.SuggestAlternatives(ctx, day, slot, 3); altErr == nil {
			conflict.Alternatives = alts
		}
	}
	return conflict
}

// Get fetches one appointment by id.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// BySession lists the appointments booked from one conversation session.
func (s *Service) BySession(ctx context.Context, sessionID string) ([]*Appointment, error) {
	return s.repo.FindBySession(ctx, sessionID)
}

// List returns appointments matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	return s.repo.List(ctx, f)
}

// Update applies a partial update. Date or slot moves re-run the uniqueness
// rules against the rest of the book.
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var in BookingInput
	if req.OwnerName != nil {
		in.OwnerName = *req.OwnerName
	}
	if req.PetName != nil {
		in.PetName = *req.PetName
	}
	if req.PetType != nil {
		in.PetType = *req.PetType
	}
	if req.Phone != nil {
		in.Phone = *req.Phone
	}
	if req.Email != nil {
		in.Email = *req.Email
	}
	if req.ServiceType != nil {
		in.ServiceType = *req.ServiceType
	}
	if req.Reason != nil {
		in.Reason = *req.Reason
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	if req.ScheduledDate != nil {
		in.ScheduledDate = *req.ScheduledDate
	}
	if req.TimeSlot != nil {
		in.TimeSlot = *req.TimeSlot
	}
	if req.PreferredDateTime != nil {
		in.PreferredDateTime = *req.PreferredDateTime
	}
	// Moving one half of the (date, slot) pair re-validates it against the
	// stored other half.
	if req.TimeSlot != nil && req.ScheduledDate == nil {
		in.ScheduledDate = appt.ScheduledDate
	}
	if req.ScheduledDate != nil && req.TimeSlot == nil {
		in.TimeSlot = appt.TimeSlot
	}
	if errs := s.validator.Validate(in, ModePartial); len(errs) > 0 {
		return nil, errs
	}

	updated := *appt
	if req.OwnerName != nil {
		updated.OwnerName = strings.TrimSpace(*req.OwnerName)
	}
	if req.PetName != nil {
		updated.PetName = strings.TrimSpace(*req.PetName)
	}
	if req.PetType != nil {
		updated.PetType = PetType(*req.PetType)
		if updated.PetType == "" {
			updated.PetType = PetOther
		}
	}
	if req.Phone != nil {
		updated.Phone = NormalizePhone(*req.Phone)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.ServiceType != nil {
		updated.ServiceType = *req.ServiceType
		if updated.ServiceType == "" {
			updated.ServiceType = DefaultServiceID
		}
	}
	if req.Reason != nil {
		updated.Reason = strings.TrimSpace(*req.Reason)
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.ScheduledDate != nil {
		updated.ScheduledDate = *req.ScheduledDate
	}
	if req.TimeSlot != nil {
		updated.TimeSlot = *req.TimeSlot
	}
	if req.PreferredDateTime != nil {
		updated.PreferredDateTime = strings.TrimSpace(*req.PreferredDateTime)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.SlotConflict()
			return nil, s.slotConflict(ctx, updated.ScheduledDate, updated.TimeSlot)
		}
		return nil, err
	}

	s.logger.Info("appointment updated", "id", id)
	return &updated, nil
}

// UpdateStatus advances an appointment's lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ValidationErrors{{Field: "status", Message: fmt.Sprintf("unknown status %q", status), Code: CodeInvalidValue}}
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}

	appt, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(string(status))
	s.logger.Info("appointment status changed", "id", id, "status", status)
	return appt, nil
}

// Cancel marks an appointment cancelled, freeing its slot.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Delete removes an appointment permanently. Only slots already freed by a
// terminal status may be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !appt.Status.Deletable() {
		return ErrNotDeletable
	}
	if err := s.repo.Delete(ctx, appt.ID); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "id", id)
	return nil
}
