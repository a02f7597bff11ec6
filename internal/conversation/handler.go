package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawbook/pawbook/internal/appointments"
	"github.com/pawbook/pawbook/internal/extract"
	"github.com/pawbook/pawbook/internal/intent"
	"github.com/pawbook/pawbook/pkg/logging"
)

// Handler exposes the chat endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates the chat HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("conversation: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// WithClock overrides the clock behind the extraction endpoint.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Message handles POST /api/chat/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	resp, err := h.svc.ProcessMessage(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			h.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "message is required")
			return
		}
		h.logger.Error("chat message failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /api/chat/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	sess, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
			return
		}
		h.logger.Error("session lookup failed", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// textRequest is the body of the classify and extract endpoints.
type textRequest struct {
	Text string `json:"text"`
}

// ClassifyIntent handles POST /api/intent/classify.
func (h *Handler) ClassifyIntent(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "text is required")
		return
	}
	h.writeJSON(w, http.StatusOK, intent.Classify(req.Text))
}

// extractResponse reports whichever sides resolved; absent sides are omitted
// rather than zeroed.
type extractResponse struct {
	Date    string `json:"date,omitempty"`
	Weekday string `json:"weekday,omitempty"`
	Time    string `json:"time,omitempty"`
	Display string `json:"display,omitempty"`
}

// ExtractDateTime handles POST /api/extract/datetime.
func (h *Handler) ExtractDateTime(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "text is required")
		return
	}

	res := extract.DateTime(req.Text, h.now())
	out := extractResponse{Display: res.Display()}
	if res.HasDate {
		out.Date = res.Date.Format(appointments.DateLayout)
		out.Weekday = res.Date.Weekday().String()
	}
	if res.HasTime {
		out.Time = res.Clock.String()
	}
	h.writeJSON(w, http.StatusOK, out)
}

// RecentConversations handles GET /admin/conversations.
func (h *Handler) RecentConversations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "limit must be a positive number")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	items, err := h.svc.RecentTranscripts(r.Context(), limit)
	if err != nil {
		h.logger.Error("archived conversation list failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"conversations": items,
		"count":         len(items),
	})
}

type chatAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type chatErrorResponse struct {
	Error chatAPIError `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, chatErrorResponse{Error: chatAPIError{Code: code, Message: message}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
