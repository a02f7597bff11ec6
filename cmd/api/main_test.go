package main

import (
	"context"
	"testing"
	"time"

	"github.com/pawbook/pawbook/internal/appointments"
	appconfig "github.com/pawbook/pawbook/internal/config"
	"github.com/pawbook/pawbook/pkg/logging"
)

func TestHoursFromConfig(t *testing.T) {
	cfg := &appconfig.Config{
		OpenHour:         8,
		CloseHour:        18,
		LunchStartHour:   12,
		LunchEndHour:     13,
		SlotIntervalMins: 15,
		OpenDays:         "1,2,3,4,5",
		MaxAdvanceDays:   30,
		SameDayLeadTime:  time.Hour,
	}

	hours := hoursFromConfig(cfg)

	if hours.Open != 8 || hours.Close != 18 {
		t.Errorf("expected 8-18, got %d-%d", hours.Open, hours.Close)
	}
	if hours.SlotIntervalMins != 15 {
		t.Errorf("expected 15 minute slots, got %d", hours.SlotIntervalMins)
	}
	if !hours.OpenDays[time.Monday] || !hours.OpenDays[time.Friday] {
		t.Error("expected weekdays open")
	}
	if hours.OpenDays[time.Saturday] || hours.OpenDays[time.Sunday] {
		t.Error("expected weekend closed")
	}
	if hours.SameDayLeadTime != time.Hour {
		t.Errorf("expected 1h lead time, got %s", hours.SameDayLeadTime)
	}
}

func TestSplitOrigins(t *testing.T) {
	if got := splitOrigins(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := splitOrigins("   "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
	got := splitOrigins("https://a.example, https://b.example")
	if len(got) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(got))
	}
}

func TestBuildNotifierStubProvider(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{EmailProvider: "stub", ClinicName: "PawBook Clinic"}

	svc := buildNotifier(context.Background(), cfg, logger)
	if svc == nil {
		t.Fatal("expected a notifier service")
	}

	err := svc.BookingConfirmed(context.Background(), &appointments.Appointment{
		ID:            "appt-1",
		OwnerName:     "Jane",
		PetName:       "Rex",
		Email:         "jane@example.com",
		ScheduledDate: "2026-01-30",
		TimeSlot:      "14:00",
		ServiceType:   "checkup",
	})
	if err != nil {
		t.Fatalf("stub provider should accept every send, got: %v", err)
	}
}

func TestBuildNotifierSendGridWithoutKeyDisablesEmail(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}

	svc := buildNotifier(context.Background(), cfg, logger)
	if svc == nil {
		t.Fatal("expected a notifier service even without a sender")
	}

	err := svc.BookingConfirmed(context.Background(), &appointments.Appointment{
		ID:    "appt-1",
		Email: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("disabled email must be a no-op, got: %v", err)
	}
}
