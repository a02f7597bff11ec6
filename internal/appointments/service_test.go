package appointments

import (
	"context"
	"errors"
	"testing"

	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/pkg/logging"
)

type captureNotifier struct {
	confirmed []*Appointment
}

func (c *captureNotifier) BookingConfirmed(ctx context.Context, appt *Appointment) error {
	c.confirmed = append(c.confirmed, appt)
	return nil
}

func newTestService() (*Service, *captureNotifier) {
	repo := NewInMemoryRepository()
	engine := schedule.NewEngine(schedule.DefaultHours(), repo).WithClock(fixedNow)
	validator := NewValidator(schedule.DefaultHours()).WithClock(fixedNow)
	notifier := &captureNotifier{}
	svc := NewService(repo, engine, validator, logging.Default()).WithNotifier(notifier)
	return svc, notifier
}

func createRequest(slot, phone string) *CreateRequest {
	return &CreateRequest{
		OwnerName:         "Jane O'Hara",
		PetName:           "Rex",
		Phone:             phone,
		ScheduledDate:     "2026-01-30",
		TimeSlot:          slot,
		PreferredDateTime: "tomorrow at " + slot,
	}
}

func TestServiceCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()

	appt, err := svc.Create(context.Background(), createRequest("09:30", "+1 (555) 123-4567"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if appt.ID == "" {
		t.Error("expected an id")
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.PetType != PetOther {
		t.Errorf("expected pet type to default to other, got %s", appt.PetType)
	}
	if appt.ServiceType != DefaultServiceID {
		t.Errorf("expected service to default to %s, got %s", DefaultServiceID, appt.ServiceType)
	}
	if appt.Source != "api" {
		t.Errorf("expected source to default to api, got %s", appt.Source)
	}
	if appt.Phone != "+15551234567" {
		t.Errorf("expected normalized phone, got %s", appt.Phone)
	}

	stored, err := svc.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.OwnerName != "Jane O'Hara" || stored.PetName != "Rex" || stored.TimeSlot != "09:30" {
		t.Errorf("stored fields do not match inputs: %+v", stored)
	}
}

func TestServiceCreateValidationFailure(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), &CreateRequest{Phone: "123"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got := codeFor(verrs, "phone"); got != CodeTooShort {
		t.Errorf("expected TOO_SHORT on phone, got %q", got)
	}
}

func TestServiceCreateSlotConflictSuggestsAlternatives(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createRequest("09:30", "+15551111111")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, createRequest("09:30", "+15552222222"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %T", err)
	}
	if len(conflict.Alternatives) == 0 {
		t.Fatal("expected alternative slots")
	}
	for _, alt := range conflict.Alternatives {
		if alt.Time == "09:30" {
			t.Error("taken slot offered as alternative")
		}
	}
}

func TestServiceCreateDuplicatePhone(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createRequest("09:30", "+15551111111")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, createRequest("10:00", "+15551111111")); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("expected ErrDuplicateBooking, got %v", err)
	}
}

func TestServiceNotifierCalledPerBooking(t *testing.T) {
	svc, notifier := newTestService()
	ctx := context.Background()

	// Even without an owner email the notifier runs; deciding who gets
	// mailed is its job, not the booking path's.
	first, err := svc.Create(ctx, createRequest("09:30", "+15551111111"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notifier.confirmed) != 1 || notifier.confirmed[0].ID != first.ID {
		t.Fatalf("expected one notification for %s, got %+v", first.ID, notifier.confirmed)
	}

	req := createRequest("10:00", "+15552222222")
	req.Email = "jane@example.com"
	second, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notifier.confirmed) != 2 || notifier.confirmed[1].ID != second.ID {
		t.Fatalf("expected a second notification for %s, got %+v", second.ID, notifier.confirmed)
	}
	if notifier.confirmed[1].Email != "jane@example.com" {
		t.Errorf("expected the email to reach the notifier, got %q", notifier.confirmed[1].Email)
	}

	_, err = svc.Create(ctx, createRequest("09:30", "+15553333333"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(notifier.confirmed) != 2 {
		t.Errorf("failed booking must not notify, got %d notifications", len(notifier.confirmed))
	}
}

func TestServiceUpdateMovesOntoOccupiedSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createRequest("09:30", "+15551111111")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, createRequest("10:00", "+15552222222"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	slot := "09:30"
	_, err = svc.Update(ctx, second.ID, &UpdateRequest{TimeSlot: &slot})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	slot = "10:30"
	updated, err := svc.Update(ctx, second.ID, &UpdateRequest{TimeSlot: &slot})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TimeSlot != "10:30" {
		t.Errorf("expected slot 10:30, got %s", updated.TimeSlot)
	}
}

func TestServiceUpdateStatusRejectsUnknown(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateStatus(context.Background(), "5a7d3e5c-0b1f-4c5e-9a39-df1b4f2a9c01", Status("lost"))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs.First().Field != "status" || verrs.First().Code != CodeInvalidValue {
		t.Errorf("unexpected error detail: %+v", verrs.First())
	}
}

func TestServiceDeleteRequiresTerminalStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	appt, err := svc.Create(ctx, createRequest("09:30", "+15551111111"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, appt.ID); !errors.Is(err, ErrNotDeletable) {
		t.Fatalf("expected ErrNotDeletable for a pending appointment, got %v", err)
	}

	if _, err := svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
	if _, err := svc.Get(ctx, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected appointment gone, got %v", err)
	}
}

func TestServiceGetRejectsMalformedID(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Get(context.Background(), "not-a-uuid"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}
