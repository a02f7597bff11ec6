// Package appointments owns the booking record: its validation rules, its
// storage contract and the HTTP surface for creating and managing bookings.
package appointments

import (
	"time"
)

// DateLayout is the wire and storage form of a calendar date.
const DateLayout = "2006-01-02"

// Status tracks an appointment through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// OccupiesSlot reports whether an appointment in this status still holds its
// time slot. Cancelled and no-show appointments free the slot.
func (s Status) OccupiesSlot() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Deletable reports whether hard deletion is allowed for this status. Active
// appointments must be cancelled first.
func (s Status) Deletable() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

// PetType is the kind of animal the appointment is for.
type PetType string

const (
	PetDog     PetType = "dog"
	PetCat     PetType = "cat"
	PetBird    PetType = "bird"
	PetRabbit  PetType = "rabbit"
	PetHamster PetType = "hamster"
	PetFish    PetType = "fish"
	PetReptile PetType = "reptile"
	PetOther   PetType = "other"
)

var petTypes = map[PetType]bool{
	PetDog:     true,
	PetCat:     true,
	PetBird:    true,
	PetRabbit:  true,
	PetHamster: true,
	PetFish:    true,
	PetReptile: true,
	PetOther:   true,
}

// ValidPetType reports whether t is in the pet type enumeration.
func ValidPetType(t PetType) bool {
	return petTypes[t]
}

// ServiceInfo is a bookable service with a fixed duration.
type ServiceInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DurationMins int    `json:"duration_mins"`
}

// DefaultServiceID is used when a booking does not name a service.
const DefaultServiceID = "checkup"

// Services is the fixed catalogue of bookable services.
var Services = []ServiceInfo{
	{ID: "checkup", Name: "General Checkup", DurationMins: 30},
	{ID: "vaccination", Name: "Vaccination", DurationMins: 20},
	{ID: "dental", Name: "Dental Cleaning", DurationMins: 60},
	{ID: "grooming", Name: "Grooming", DurationMins: 45},
	{ID: "surgery", Name: "Surgery Consultation", DurationMins: 45},
	{ID: "emergency", Name: "Urgent Visit", DurationMins: 60},
}

// ServiceByID looks up a service in the catalogue.
func ServiceByID(id string) (ServiceInfo, bool) {
	for _, s := range Services {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceInfo{}, false
}

// Appointment is one booked visit. ScheduledDate is a calendar date in
// DateLayout form and TimeSlot an "HH:MM" grid slot; together they are
// unique among appointments whose status still occupies the slot.
type Appointment struct {
	ID                string    `json:"id"`
	OwnerName         string    `json:"owner_name"`
	PetName           string    `json:"pet_name"`
	PetType           PetType   `json:"pet_type"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email,omitempty"`
	ServiceType       string    `json:"service_type"`
	Reason            string    `json:"reason,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	ScheduledDate     string    `json:"scheduled_date"`
	TimeSlot          string    `json:"time_slot"`
	PreferredDateTime string    `json:"preferred_datetime"`
	SessionID         string    `json:"session_id,omitempty"`
	UserID            string    `json:"user_id,omitempty"`
	Source            string    `json:"source,omitempty"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateRequest is the request body for booking an appointment.
type CreateRequest struct {
	OwnerName         string `json:"owner_name"`
	PetName           string `json:"pet_name"`
	PetType           string `json:"pet_type"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	ServiceType       string `json:"service_type"`
	Reason            string `json:"reason"`
	Notes             string `json:"notes"`
	ScheduledDate     string `json:"scheduled_date"`
	TimeSlot          string `json:"time_slot"`
	PreferredDateTime string `json:"preferred_datetime"`
	SessionID         string `json:"session_id"`
	UserID            string `json:"user_id"`
	Source            string `json:"source"`
}

// UpdateRequest carries a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	OwnerName         *string `json:"owner_name,omitempty"`
	PetName           *string `json:"pet_name,omitempty"`
	PetType           *string `json:"pet_type,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Email             *string `json:"email,omitempty"`
	ServiceType       *string `json:"service_type,omitempty"`
	Reason            *string `json:"reason,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	ScheduledDate     *string `json:"scheduled_date,omitempty"`
	TimeSlot          *string `json:"time_slot,omitempty"`
	PreferredDateTime *string `json:"preferred_datetime,omitempty"`
}
