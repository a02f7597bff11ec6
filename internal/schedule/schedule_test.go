package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

// 2026-01-29 is a Thursday.
var testNow = time.Date(2026, time.January, 29, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fakeBookings struct {
	booked map[string]map[string]struct{}
	err    error
}

func (f *fakeBookings) ListBookedSlots(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.booked[date.Format("2006-01-02")], nil
}

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestGridOperatingDay(t *testing.T) {
	h := DefaultHours()
	grid := h.Grid(day(2026, time.January, 30), testNow)

	if len(grid) != 14 {
		t.Fatalf("expected 14 slots (9-17 minus lunch at 30m), got %d", len(grid))
	}
	if grid[0].Time != "09:00" || grid[0].Display != "9:00 AM" {
		t.Errorf("unexpected first slot: %+v", grid[0])
	}
	if grid[len(grid)-1].Time != "16:30" || grid[len(grid)-1].Display != "4:30 PM" {
		t.Errorf("unexpected last slot: %+v", grid[len(grid)-1])
	}
	for _, s := range grid {
		if s.Time == "13:00" || s.Time == "13:30" {
			t.Errorf("lunch slot %s leaked into grid", s.Time)
		}
	}
}

func TestGridClosedAndPastDays(t *testing.T) {
	h := DefaultHours()

	if grid := h.Grid(day(2026, time.February, 1), testNow); len(grid) != 0 {
		t.Errorf("expected empty grid on Sunday, got %d slots", len(grid))
	}
	if grid := h.Grid(day(2026, time.January, 28), testNow); len(grid) != 0 {
		t.Errorf("expected empty grid for past date, got %d slots", len(grid))
	}
	// Today itself still yields a grid; same-day cutoffs are the validator's job.
	if grid := h.Grid(day(2026, time.January, 29), testNow); len(grid) == 0 {
		t.Error("expected grid for today")
	}
}

func TestGridCustomInterval(t *testing.T) {
	h := DefaultHours()
	h.SlotIntervalMins = 60
	grid := h.Grid(day(2026, time.January, 30), testNow)

	want := []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00"}
	if len(grid) != len(want) {
		t.Fatalf("expected %d hourly slots, got %d", len(want), len(grid))
	}
	for i, w := range want {
		if grid[i].Time != w {
			t.Errorf("slot %d = %s, want %s", i, grid[i].Time, w)
		}
	}
}

func TestOnGrid(t *testing.T) {
	h := DefaultHours()
	tests := []struct {
		slot string
		want bool
	}{
		{"09:00", true},
		{"09:30", true},
		{"16:30", true},
		{"13:00", false},
		{"13:30", false},
		{"09:15", false},
		{"08:30", false},
		{"17:00", false},
		{"9:00", false},
		{"junk", false},
	}
	for _, tt := range tests {
		if got := h.OnGrid(tt.slot); got != tt.want {
			t.Errorf("OnGrid(%q) = %v, want %v", tt.slot, got, tt.want)
		}
	}
}

func TestAvailableSlots(t *testing.T) {
	store := &fakeBookings{booked: map[string]map[string]struct{}{
		"2026-01-30": {"09:00": {}, "14:00": {}},
	}}
	engine := NewEngine(DefaultHours(), store).WithClock(fixedNow)

	res, err := engine.AvailableSlots(context.Background(), day(2026, time.January, 30))
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if res.Total != 14 || res.Available != 12 {
		t.Fatalf("expected 14 total / 12 available, got %d/%d", res.Total, res.Available)
	}
	for _, s := range res.Slots {
		taken := s.Time == "09:00" || s.Time == "14:00"
		if s.Available == taken {
			t.Errorf("slot %s availability = %v, want %v", s.Time, s.Available, !taken)
		}
	}
}

func TestAvailableSlotsPastDate(t *testing.T) {
	engine := NewEngine(DefaultHours(), &fakeBookings{}).WithClock(fixedNow)

	res, err := engine.AvailableSlots(context.Background(), day(2025, time.December, 1))
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if res.Total != 0 || len(res.Slots) != 0 {
		t.Fatalf("past dates must never yield bookable slots, got %+v", res)
	}
}

func TestAvailableSlotsStoreError(t *testing.T) {
	engine := NewEngine(DefaultHours(), &fakeBookings{err: errors.New("boom")}).WithClock(fixedNow)

	if _, err := engine.AvailableSlots(context.Background(), day(2026, time.January, 30)); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestAvailableDates(t *testing.T) {
	allBooked := map[string]struct{}{}
	for _, s := range DefaultHours().Grid(day(2026, time.January, 30), testNow) {
		allBooked[s.Time] = struct{}{}
	}
	store := &fakeBookings{booked: map[string]map[string]struct{}{
		"2026-01-30": allBooked,
	}}
	engine := NewEngine(DefaultHours(), store).WithClock(fixedNow)

	days, err := engine.AvailableDates(context.Background(), day(2026, time.January, 29), 4)
	if err != nil {
		t.Fatalf("AvailableDates: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}

	// Thursday: open, nothing booked.
	if !days[0].Operating || days[0].FreeSlots != 14 || days[0].IsFull {
		t.Errorf("unexpected Thursday summary: %+v", days[0])
	}
	// Friday: fully booked.
	if !days[1].Operating || days[1].FreeSlots != 0 || !days[1].IsFull {
		t.Errorf("expected Friday full, got %+v", days[1])
	}
	// Saturday open, Sunday closed.
	if !days[2].Operating || days[2].Weekday != "Saturday" {
		t.Errorf("unexpected Saturday summary: %+v", days[2])
	}
	if days[3].Operating || days[3].IsFull || days[3].Weekday != "Sunday" {
		t.Errorf("expected Sunday closed and not full, got %+v", days[3])
	}
}

func TestIsSlotAvailable(t *testing.T) {
	store := &fakeBookings{booked: map[string]map[string]struct{}{
		"2026-01-30": {"10:00": {}},
	}}
	engine := NewEngine(DefaultHours(), store).WithClock(fixedNow)
	ctx := context.Background()
	friday := day(2026, time.January, 30)

	if ok, _ := engine.IsSlotAvailable(ctx, friday, "09:30"); !ok {
		t.Error("expected free slot to be available")
	}
	if ok, _ := engine.IsSlotAvailable(ctx, friday, "10:00"); ok {
		t.Error("expected booked slot to be unavailable")
	}
	if ok, _ := engine.IsSlotAvailable(ctx, friday, "13:00"); ok {
		t.Error("expected lunch slot to be unavailable")
	}
	if ok, _ := engine.IsSlotAvailable(ctx, day(2026, time.February, 1), "09:30"); ok {
		t.Error("expected Sunday slot to be unavailable")
	}
}

func TestSuggestAlternatives(t *testing.T) {
	store := &fakeBookings{booked: map[string]map[string]struct{}{
		"2026-01-30": {"14:00": {}},
	}}
	engine := NewEngine(DefaultHours(), store).WithClock(fixedNow)

	alts, err := engine.SuggestAlternatives(context.Background(), day(2026, time.January, 30), "14:00", 3)
	if err != nil {
		t.Fatalf("SuggestAlternatives: %v", err)
	}
	if len(alts) != 3 {
		t.Fatalf("expected 3 alternatives, got %d", len(alts))
	}
	if alts[0].Time != "14:30" {
		t.Errorf("expected nearest free slot first, got %s", alts[0].Time)
	}
	for _, a := range alts {
		if a.Time == "14:00" {
			t.Error("taken slot offered as alternative")
		}
	}
}

func TestDisplaySlot(t *testing.T) {
	if got := DisplaySlot("14:30"); got != "2:30 PM" {
		t.Errorf("DisplaySlot(14:30) = %q", got)
	}
	if got := DisplaySlot("oops"); got != "oops" {
		t.Errorf("DisplaySlot(oops) = %q", got)
	}
}

func TestNearestSlot(t *testing.T) {
	hours := DefaultHours()

	tests := []struct {
		name   string
		hour   int
		minute int
		want   string
		ok     bool
	}{
		{"exact grid time", 9, 0, "09:00", true},
		{"rounds up to next slot", 14, 15, "14:30", true},
		{"before opening clamps to first slot", 8, 15, "09:00", true},
		{"lunch rolls to end of break", 13, 10, "14:00", true},
		{"just before lunch lands after it", 12, 45, "14:00", true},
		{"last slot still bookable", 16, 30, "16:30", true},
		{"past last slot has none", 16, 31, "", false},
		{"after closing has none", 17, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := hours.NearestSlot(tt.hour, tt.minute)
			if ok != tt.ok {
				t.Fatalf("NearestSlot(%d, %d) ok = %v, want %v", tt.hour, tt.minute, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("NearestSlot(%d, %d) = %q, want %q", tt.hour, tt.minute, got, tt.want)
			}
		})
	}
}
