package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List queries. Zero values match everything.
type Filter struct {
	From      time.Time
	To        time.Time
	Status    Status
	Phone     string
	SessionID string
}

// Repository defines the interface for appointment storage. Insert and
// Update must enforce the slot and duplicate-phone uniqueness rules
// atomically; callers rely on ErrSlotTaken and ErrDuplicateBooking rather
// than on a prior availability check.
type Repository interface {
	Insert(ctx context.Context, appt *Appointment) error
	Update(ctx context.Context, appt *Appointment) error
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Appointment, error)
	FindBySession(ctx context.Context, sessionID string) ([]*Appointment, error)
	FindConflicting(ctx context.Context, date time.Time, slot, excludeID string) (bool, error)
	HasActiveBooking(ctx context.Context, phone string, date time.Time) (bool, error)
	List(ctx context.Context, f Filter) ([]*Appointment, error)
	ListBookedSlots(ctx context.Context, date time.Time) (map[string]struct{}, error)
}

// InMemoryRepository is a Repository backed by a mutex-guarded map. The
// single lock makes concurrent commits for the same slot serialize, so it
// honors the same uniqueness guarantees as the Postgres implementation.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[string]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appts: make(map[string]*Appointment),
	}
}

// Insert stores a new appointment unless its slot or phone/date pair is
// already taken by an active appointment.
func (r *InMemoryRepository) Insert(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.appts {
		if !other.Status.OccupiesSlot() || other.ScheduledDate != appt.ScheduledDate {
			continue
		}
		if other.TimeSlot == appt.TimeSlot {
			return ErrSlotTaken
		}
		if other.Phone == appt.Phone {
			return ErrDuplicateBooking
		}
	}

	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

// Update replaces an existing appointment, re-checking uniqueness against
// every other active appointment.
func (r *InMemoryRepository) Update(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.appts[appt.ID]
	if !ok {
		return ErrAppointmentNotFound
	}

	if appt.Status.OccupiesSlot() {
		for id, other := range r.appts {
			if id == appt.ID || !other.Status.OccupiesSlot() || other.ScheduledDate != appt.ScheduledDate {
				continue
			}
			if other.TimeSlot == appt.TimeSlot {
				return ErrSlotTaken
			}
			if other.Phone == appt.Phone {
				return ErrDuplicateBooking
			}
		}
	}

	appt.CreatedAt = existing.CreatedAt
	appt.UpdatedAt = time.Now().UTC()

	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

// UpdateStatus advances an appointment's lifecycle status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = status
	appt.UpdatedAt = time.Now().UTC()

	cp := *appt
	return &cp, nil
}

// Delete removes an appointment. The status guard lives in the service.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

// FindByID retrieves one appointment.
func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

// FindBySession lists the appointments booked from one conversation session,
// oldest first.
func (r *InMemoryRepository) FindBySession(ctx context.Context, sessionID string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.appts {
		if appt.SessionID == sessionID {
			cp := *appt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindConflicting reports whether an active appointment other than excludeID
// occupies the slot.
func (r *InMemoryRepository) FindConflicting(ctx context.Context, date time.Time, slot, excludeID string) (bool, error) {
	dateKey := date.Format(DateLayout)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, appt := range r.appts {
		if id == excludeID || !appt.Status.OccupiesSlot() {
			continue
		}
		if appt.ScheduledDate == dateKey && appt.TimeSlot == slot {
			return true, nil
		}
	}
	return false, nil
}

// HasActiveBooking reports whether the phone already holds an active
// appointment on the date.
func (r *InMemoryRepository) HasActiveBooking(ctx context.Context, phone string, date time.Time) (bool, error) {
	dateKey := date.Format(DateLayout)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, appt := range r.appts {
		if appt.Status.OccupiesSlot() && appt.ScheduledDate == dateKey && appt.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

// List returns appointments matching the filter ordered by date then slot.
func (r *InMemoryRepository) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.appts {
		if !matchesFilter(appt, f) {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out, nil
}

func matchesFilter(appt *Appointment, f Filter) bool {
	if !f.From.IsZero() && appt.ScheduledDate < f.From.Format(DateLayout) {
		return false
	}
	if !f.To.IsZero() && appt.ScheduledDate > f.To.Format(DateLayout) {
		return false
	}
	if f.Status != "" && appt.Status != f.Status {
		return false
	}
	if f.Phone != "" && appt.Phone != NormalizePhone(f.Phone) {
		return false
	}
	if f.SessionID != "" && appt.SessionID != f.SessionID {
		return false
	}
	return true
}

// ListBookedSlots returns the slots occupied by active appointments on the
// date. It satisfies the availability engine's store interface.
func (r *InMemoryRepository) ListBookedSlots(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	dateKey := date.Format(DateLayout)

	r.mu.RLock()
	defer r.mu.RUnlock()

	slots := make(map[string]struct{})
	for _, appt := range r.appts {
		if appt.Status.OccupiesSlot() && appt.ScheduledDate == dateKey {
			slots[appt.TimeSlot] = struct{}{}
		}
	}
	return slots, nil
}
