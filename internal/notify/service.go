package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Service emails booking confirmations to pet owners and the clinic inbox.
// It runs after the booking is stored, so failures are reported to the
// caller for logging but can never unwind a booking.
type Service struct {
	email       EmailSender
	clinicInbox string
	clinicName  string
	logger      *logging.Logger
}

// Config holds the notification targets.
type Config struct {
	ClinicInbox string // internal copy of every confirmation; empty disables it
	ClinicName  string // sign-off name in outgoing mail
}

// NewService creates the notification service. A nil sender disables email
// entirely; every call becomes a no-op.
func NewService(email EmailSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "PawBook Clinic"
	}
	return &Service{
		email:       email,
		clinicInbox: cfg.ClinicInbox,
		clinicName:  cfg.ClinicName,
		logger:      logger,
	}
}

var _ appointments.Notifier = (*Service)(nil)

// BookingConfirmed emails the owner (when an address was given) and the
// clinic inbox.
func (s *Service) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) error {
	if s == nil || s.email == nil {
		return nil
	}

	when := appointmentWhen(appt)
	serviceName := serviceLabel(appt.ServiceType)

	var errs []error

	if appt.Email != "" {
		msg := EmailMessage{
			To:      appt.Email,
			ToName:  appt.OwnerName,
			Subject: fmt.Sprintf("%s's visit is booked for %s", appt.PetName, when),
			Body:    ownerBody(appt, when, serviceName, s.clinicName),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: owner confirmation failed", "error", err, "to", appt.Email, "appointment_id", appt.ID)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: owner confirmation sent", "to", appt.Email, "appointment_id", appt.ID)
		}
	}

	if s.clinicInbox != "" {
		msg := EmailMessage{
			To:      s.clinicInbox,
			Subject: fmt.Sprintf("New booking: %s (%s) on %s", appt.PetName, serviceName, when),
			Body:    clinicBody(appt, when, serviceName),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: clinic copy failed", "error", err, "to", s.clinicInbox, "appointment_id", appt.ID)
			errs = append(errs, err)
		} else {
			s.logger.Info("notify: clinic copy sent", "appointment_id", appt.ID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	return nil
}

// appointmentWhen renders the scheduled date and slot for people, e.g.
// "Friday, 30 Jan 2026 at 2:00 PM".
func appointmentWhen(appt *appointments.Appointment) string {
	slot := schedule.DisplaySlot(appt.TimeSlot)
	d, err := time.Parse(appointments.DateLayout, appt.ScheduledDate)
	if err != nil {
		return appt.ScheduledDate + " at " + slot
	}
	return d.Format("Monday, 2 Jan 2006") + " at " + slot
}

func serviceLabel(id string) string {
	if svc, ok := appointments.ServiceByID(id); ok {
		return svc.Name
	}
	return id
}

func ownerBody(appt *appointments.Appointment, when, serviceName, clinicName string) string {
	notesInfo := ""
	if appt.Notes != "" {
		notesInfo = fmt.Sprintf("\nNotes we have on file: %s\n", appt.Notes)
	}

	return fmt.Sprintf(`Hi %s,

%s is booked in for a %s on %s.

Phone on file: %s%s
If anything changes, give us a call and we'll move things around.

See you both soon!

— %s`, appt.OwnerName, appt.PetName, serviceName, when, appt.Phone, notesInfo, clinicName)
}

func clinicBody(appt *appointments.Appointment, when, serviceName string) string {
	reasonInfo := ""
	if appt.Reason != "" {
		reasonInfo = fmt.Sprintf("\nReason: %s", appt.Reason)
	}
	notesInfo := ""
	if appt.Notes != "" {
		notesInfo = fmt.Sprintf("\nNotes: %s", appt.Notes)
	}
	requestedInfo := ""
	if appt.PreferredDateTime != "" {
		requestedInfo = fmt.Sprintf("\nRequested as: %q", appt.PreferredDateTime)
	}

	return fmt.Sprintf(`New appointment booked via %s.

Owner: %s
Pet: %s (%s)
Phone: %s
Service: %s
When: %s%s%s%s
Appointment ID: %s`,
		appt.Source, appt.OwnerName, appt.PetName, appt.PetType, appt.Phone,
		serviceName, when, requestedInfo, reasonInfo, notesInfo, appt.ID)
}
