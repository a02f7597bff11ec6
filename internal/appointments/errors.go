package appointments

import (
	"errors"
	"fmt"

	"github.com/pawbook/pawbook/internal/schedule"
)

var (
	// ErrAppointmentNotFound is returned when no appointment matches the id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned when the requested (date, time slot) pair is
	// already occupied by an active appointment.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrDuplicateBooking is returned when the phone number already has an
	// active appointment on the requested date.
	ErrDuplicateBooking = errors.New("phone number already has a booking that day")

	// ErrNotDeletable is returned when deleting an appointment that still
	// occupies its slot.
	ErrNotDeletable = errors.New("appointment must be cancelled, completed or no-show before deletion")
)

// SlotConflictError is an ErrSlotTaken decorated with nearby free slots the
// caller can offer instead.
type SlotConflictError struct {
	Date         string          `json:"date"`
	Slot         string          `json:"slot"`
	Alternatives []schedule.Slot `json:"alternatives"`
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("time slot %s on %s already booked", e.Slot, e.Date)
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotTaken
}
