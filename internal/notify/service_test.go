package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pawbook/pawbook/internal/appointments"
)

type mockEmailSender struct {
	sent    []EmailMessage
	failOn  string // fail if To matches this
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func confirmedAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:                "appt-1",
		OwnerName:         "Jane O'Hara",
		PetName:           "Rex",
		PetType:           appointments.PetDog,
		Phone:             "+15551234567",
		Email:             "jane@example.com",
		ServiceType:       "checkup",
		ScheduledDate:     "2026-01-30",
		TimeSlot:          "14:00",
		PreferredDateTime: "tomorrow at 2pm",
		Source:            "chat",
	}
}

func TestBookingConfirmed_OwnerAndClinic(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	if err := svc.BookingConfirmed(context.Background(), confirmedAppointment()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(emailSender.sent) != 2 {
		t.Fatalf("expected 2 emails sent, got %d", len(emailSender.sent))
	}

	owner := emailSender.sent[0]
	if owner.To != "jane@example.com" {
		t.Errorf("expected owner email to jane@example.com, got %s", owner.To)
	}
	if owner.ToName != "Jane O'Hara" {
		t.Errorf("expected owner name on email, got %q", owner.ToName)
	}
	if !strings.Contains(owner.Subject, "Rex") {
		t.Errorf("expected pet name in subject, got %q", owner.Subject)
	}
	if !strings.Contains(owner.Body, "Friday, 30 Jan 2026 at 2:00 PM") {
		t.Errorf("expected human-readable time in body, got %q", owner.Body)
	}
	if !strings.Contains(owner.Body, "General Checkup") {
		t.Errorf("expected service name in body, got %q", owner.Body)
	}
	if !strings.Contains(owner.Body, "PawBook Clinic") {
		t.Errorf("expected clinic sign-off in body, got %q", owner.Body)
	}

	clinic := emailSender.sent[1]
	if clinic.To != "desk@pawbook.example" {
		t.Errorf("expected clinic copy to desk@pawbook.example, got %s", clinic.To)
	}
	if !strings.Contains(clinic.Subject, "New booking") {
		t.Errorf("expected booking subject, got %q", clinic.Subject)
	}
	if !strings.Contains(clinic.Body, "+15551234567") {
		t.Errorf("expected phone in clinic body, got %q", clinic.Body)
	}
	if !strings.Contains(clinic.Body, `"tomorrow at 2pm"`) {
		t.Errorf("expected original request wording in clinic body, got %q", clinic.Body)
	}
	if !strings.Contains(clinic.Body, "appt-1") {
		t.Errorf("expected appointment id in clinic body, got %q", clinic.Body)
	}
}

func TestBookingConfirmed_NoOwnerEmail(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	appt := confirmedAppointment()
	appt.Email = ""

	if err := svc.BookingConfirmed(context.Background(), appt); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(emailSender.sent) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(emailSender.sent))
	}
	if emailSender.sent[0].To != "desk@pawbook.example" {
		t.Errorf("expected only the clinic copy, got email to %s", emailSender.sent[0].To)
	}
}

func TestBookingConfirmed_NoClinicInbox(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{}, nil)

	if err := svc.BookingConfirmed(context.Background(), confirmedAppointment()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(emailSender.sent) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(emailSender.sent))
	}
	if emailSender.sent[0].To != "jane@example.com" {
		t.Errorf("expected only the owner email, got email to %s", emailSender.sent[0].To)
	}
}

func TestBookingConfirmed_NilSender(t *testing.T) {
	svc := NewService(nil, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	if err := svc.BookingConfirmed(context.Background(), confirmedAppointment()); err != nil {
		t.Errorf("expected no error when sender is nil, got: %v", err)
	}
}

func TestBookingConfirmed_PartialFailure(t *testing.T) {
	emailSender := &mockEmailSender{failOn: "jane@example.com"}
	svc := NewService(emailSender, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	err := svc.BookingConfirmed(context.Background(), confirmedAppointment())
	if err == nil {
		t.Fatal("expected error when owner email fails")
	}
	if !strings.Contains(err.Error(), "1 notification(s) failed") {
		t.Errorf("expected failure count in error, got: %v", err)
	}
	if len(emailSender.sent) != 1 {
		t.Fatalf("expected clinic copy to still go out, got %d emails", len(emailSender.sent))
	}
	if emailSender.sent[0].To != "desk@pawbook.example" {
		t.Errorf("expected clinic copy, got email to %s", emailSender.sent[0].To)
	}
}

func TestBookingConfirmed_AllFail(t *testing.T) {
	emailSender := &mockEmailSender{callErr: errors.New("sendgrid down")}
	svc := NewService(emailSender, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	err := svc.BookingConfirmed(context.Background(), confirmedAppointment())
	if err == nil {
		t.Fatal("expected error when every send fails")
	}
	if !strings.Contains(err.Error(), "2 notification(s) failed") {
		t.Errorf("expected failure count in error, got: %v", err)
	}
}

func TestBookingConfirmed_CustomClinicName(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{ClinicName: "Happy Tails Vet"}, nil)

	if err := svc.BookingConfirmed(context.Background(), confirmedAppointment()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(emailSender.sent) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(emailSender.sent))
	}
	if !strings.Contains(emailSender.sent[0].Body, "Happy Tails Vet") {
		t.Errorf("expected custom clinic name in body, got %q", emailSender.sent[0].Body)
	}
}

func TestBookingConfirmed_UnknownServiceFallsBack(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{}, nil)

	appt := confirmedAppointment()
	appt.ServiceType = "acupuncture"

	if err := svc.BookingConfirmed(context.Background(), appt); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(emailSender.sent[0].Body, "acupuncture") {
		t.Errorf("expected raw service id in body, got %q", emailSender.sent[0].Body)
	}
}

func TestBookingConfirmed_NotesAndReason(t *testing.T) {
	emailSender := &mockEmailSender{}
	svc := NewService(emailSender, Config{ClinicInbox: "desk@pawbook.example"}, nil)

	appt := confirmedAppointment()
	appt.Reason = "limping on front paw"
	appt.Notes = "nervous around other dogs"

	if err := svc.BookingConfirmed(context.Background(), appt); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	clinic := emailSender.sent[1]
	if !strings.Contains(clinic.Body, "Reason: limping on front paw") {
		t.Errorf("expected reason line in clinic body, got %q", clinic.Body)
	}
	if !strings.Contains(clinic.Body, "Notes: nervous around other dogs") {
		t.Errorf("expected notes line in clinic body, got %q", clinic.Body)
	}
}
