package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawbook/pawbook/internal/schedule"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Handler handles HTTP requests for appointments and availability.
type Handler struct {
	svc    *Service
	engine *schedule.Engine
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, engine *schedule.Engine, logger *logging.Logger) *Handler {
	return &Handler{
		svc:    svc,
		engine: engine,
		logger: logger,
	}
}

// apiError is the error envelope every failure response carries.
type apiError struct {
	Code         string          `json:"code"`
	Message      string          `json:"message"`
	Details      []FieldError    `json:"details,omitempty"`
	Alternatives []schedule.Slot `json:"alternatives,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// Create handles POST /api/appointments requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		h.writeError(w, http.StatusBadRequest, apiError{Code: "BAD_REQUEST", Message: "invalid request body"})
		return
	}

	appt, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /api/appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, appt)
}

// ListServices handles GET /api/services requests.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"services": Services})
}

// AvailableSlots handles GET /api/availability/slots?date=YYYY-MM-DD.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(DateLayout, r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, apiError{
			Code:    "VALIDATION_FAILED",
			Message: "date must be in YYYY-MM-DD form",
			Details: []FieldError{{Field: "date", Message: "date must be in YYYY-MM-DD form", Code: CodeInvalidFormat}},
		})
		return
	}

	result, err := h.engine.AvailableSlots(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// AvailableDates handles GET /api/availability/dates?from=YYYY-MM-DD&days=N.
func (h *Handler) AvailableDates(w http.ResponseWriter, r *http.Request) {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
		if err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, apiError{
				Code:    "VALIDATION_FAILED",
				Message: "from must be in YYYY-MM-DD form",
				Details: []FieldError{{Field: "from", Message: "from must be in YYYY-MM-DD form", Code: CodeInvalidFormat}},
			})
			return
		}
		from = parsed
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 30 {
			days = n
		}
	}

	result, err := h.engine.AvailableDates(r.Context(), from, days)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"days": result})
}

// ListResponse is the response for listing appointments.
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
}

// List handles GET /admin/appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f Filter
	q := r.URL.Query()

	if raw := q.Get("date"); raw != "" {
		date, err := time.ParseInLocation(DateLayout, raw, time.UTC)
		if err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, apiError{
				Code:    "VALIDATION_FAILED",
				Message: "date must be in YYYY-MM-DD form",
				Details: []FieldError{{Field: "date", Message: "date must be in YYYY-MM-DD form", Code: CodeInvalidFormat}},
			})
			return
		}
		f.From, f.To = date, date
	}
	if raw := q.Get("from"); raw != "" {
		if date, err := time.ParseInLocation(DateLayout, raw, time.UTC); err == nil {
			f.From = date
		}
	}
	if raw := q.Get("to"); raw != "" {
		if date, err := time.ParseInLocation(DateLayout, raw, time.UTC); err == nil {
			f.To = date
		}
	}
	if raw := q.Get("status"); raw != "" {
		if !ValidStatus(Status(raw)) {
			h.writeError(w, http.StatusUnprocessableEntity, apiError{
				Code:    "VALIDATION_FAILED",
				Message: "unknown status",
				Details: []FieldError{{Field: "status", Message: "unknown status", Code: CodeInvalidValue}},
			})
			return
		}
		f.Status = Status(raw)
	}
	f.Phone = q.Get("phone")
	f.SessionID = q.Get("session_id")

	appts, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	h.writeJSON(w, http.StatusOK, ListResponse{Appointments: appts, Count: len(appts)})
}

// Update handles PUT /admin/appointments/{id} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		h.writeError(w, http.StatusBadRequest, apiError{Code: "BAD_REQUEST", Message: "invalid request body"})
		return
	}

	appt, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, appt)
}

// UpdateStatus handles PATCH /admin/appointments/{id}/status requests.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		h.writeError(w, http.StatusBadRequest, apiError{Code: "BAD_REQUEST", Message: "invalid request body"})
		return
	}

	appt, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), Status(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /admin/appointments/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service errors onto the error envelope. Store
// failures stay generic; the details live in the log.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		verrs    ValidationErrors
		conflict *SlotConflictError
	)
	switch {
	case errors.As(err, &verrs):
		h.writeError(w, http.StatusUnprocessableEntity, apiError{
			Code:    "VALIDATION_FAILED",
			Message: verrs.First().Message,
			Details: verrs,
		})
	case errors.As(err, &conflict):
		h.writeError(w, http.StatusConflict, apiError{
			Code:         "SLOT_TAKEN",
			Message:      "that time slot was just booked",
			Alternatives: conflict.Alternatives,
		})
	case errors.Is(err, ErrSlotTaken):
		h.writeError(w, http.StatusConflict, apiError{Code: "SLOT_TAKEN", Message: "that time slot was just booked"})
	case errors.Is(err, ErrDuplicateBooking):
		h.writeError(w, http.StatusConflict, apiError{Code: "DUPLICATE_BOOKING", Message: "that phone number already has a booking on that day"})
	case errors.Is(err, ErrNotDeletable):
		h.writeError(w, http.StatusConflict, apiError{Code: "NOT_DELETABLE", Message: "cancel the appointment before deleting it"})
	case errors.Is(err, ErrAppointmentNotFound):
		h.writeError(w, http.StatusNotFound, apiError{Code: "NOT_FOUND", Message: "appointment not found"})
	default:
		h.logger.Error("appointment request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "something went wrong"})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, e apiError) {
	h.writeJSON(w, status, errorResponse{Error: e})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
