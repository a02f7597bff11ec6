package schedule

import (
	"context"
	"fmt"
	"time"
)

// BookedSlotLister reports the slots already taken on a date by appointments
// that still occupy them (not cancelled, not no-show).
type BookedSlotLister interface {
	ListBookedSlots(ctx context.Context, date time.Time) (map[string]struct{}, error)
}

// Engine answers availability queries by subtracting booked slots from the
// grid. Its answers are advisory: the store's conditional insert is what
// actually prevents double booking at commit time.
type Engine struct {
	hours Hours
	store BookedSlotLister
	now   func() time.Time
}

// NewEngine creates an availability engine over the given store.
func NewEngine(hours Hours, store BookedSlotLister) *Engine {
	return &Engine{
		hours: hours,
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the engine's clock. Tests use this to pin "today".
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Hours returns the schedule the engine was built with.
func (e *Engine) Hours() Hours {
	return e.hours
}

// SlotAvailability is a grid slot with its booking state.
type SlotAvailability struct {
	Slot
	Available bool `json:"available"`
}

// DayAvailability summarises one calendar day.
type DayAvailability struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Operating bool   `json:"operating"`
	FreeSlots int    `json:"free_slots"`
	IsFull    bool   `json:"is_full"`
}

// SlotsResult is the full availability picture for one date.
type SlotsResult struct {
	Date      string             `json:"date"`
	Slots     []SlotAvailability `json:"slots"`
	Total     int                `json:"total"`
	Available int                `json:"available"`
}

// AvailableSlots returns every grid slot for the date with its availability.
func (e *Engine) AvailableSlots(ctx context.Context, date time.Time) (SlotsResult, error) {
	result := SlotsResult{
		Date:  date.Format("2006-01-02"),
		Slots: []SlotAvailability{},
	}

	grid := e.hours.Grid(date, e.now())
	if len(grid) == 0 {
		return result, nil
	}

	booked, err := e.store.ListBookedSlots(ctx, date)
	if err != nil {
		return SlotsResult{}, fmt.Errorf("schedule: list booked slots: %w", err)
	}

	for _, slot := range grid {
		_, taken := booked[slot.Time]
		result.Slots = append(result.Slots, SlotAvailability{Slot: slot, Available: !taken})
		result.Total++
		if !taken {
			result.Available++
		}
	}
	return result, nil
}

// AvailableDates summarises each of the next dayCount days starting at from.
// A day counts as operating only if it is bookable at all: an open weekday
// that is not already in the past.
func (e *Engine) AvailableDates(ctx context.Context, from time.Time, dayCount int) ([]DayAvailability, error) {
	days := make([]DayAvailability, 0, dayCount)
	now := e.now()

	for i := 0; i < dayCount; i++ {
		date := from.AddDate(0, 0, i)
		day := DayAvailability{
			Date:    date.Format("2006-01-02"),
			Weekday: date.Weekday().String(),
		}

		grid := e.hours.Grid(date, now)
		if len(grid) == 0 {
			days = append(days, day)
			continue
		}
		day.Operating = true

		booked, err := e.store.ListBookedSlots(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("schedule: list booked slots: %w", err)
		}
		for _, slot := range grid {
			if _, taken := booked[slot.Time]; !taken {
				day.FreeSlots++
			}
		}
		day.IsFull = day.FreeSlots == 0
		days = append(days, day)
	}
	return days, nil
}

// IsSlotAvailable answers a point query: the slot is on the date's grid and
// not booked.
func (e *Engine) IsSlotAvailable(ctx context.Context, date time.Time, slot string) (bool, error) {
	grid := e.hours.Grid(date, e.now())
	onGrid := false
	for _, s := range grid {
		if s.Time == slot {
			onGrid = true
			break
		}
	}
	if !onGrid {
		return false, nil
	}

	booked, err := e.store.ListBookedSlots(ctx, date)
	if err != nil {
		return false, fmt.Errorf("schedule: list booked slots: %w", err)
	}
	_, taken := booked[slot]
	return !taken, nil
}

// SuggestAlternatives returns up to limit free slots on the same date,
// preferring those closest to the requested slot. Used to soften slot
// conflict errors.
func (e *Engine) SuggestAlternatives(ctx context.Context, date time.Time, requested string, limit int) ([]Slot, error) {
	result, err := e.AvailableSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	reqHour, reqMinute, ok := ParseSlot(requested)
	reqMins := reqHour*60 + reqMinute
	if !ok {
		reqMins = -1
	}

	free := make([]Slot, 0, len(result.Slots))
	for _, s := range result.Slots {
		if s.Available {
			free = append(free, s.Slot)
		}
	}
	if reqMins >= 0 {
		sortByDistance(free, reqMins)
	}
	if limit > 0 && len(free) > limit {
		free = free[:limit]
	}
	return free, nil
}

func sortByDistance(slots []Slot, reqMins int) {
	distance := func(s Slot) int {
		hour, minute, ok := ParseSlot(s.Time)
		if !ok {
			return 1 << 20
		}
		d := hour*60 + minute - reqMins
		if d < 0 {
			d = -d
		}
		return d
	}
	// Insertion sort keeps equal-distance slots in grid order.
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && distance(slots[j]) < distance(slots[j-1]); j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}
