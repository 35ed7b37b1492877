package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/pkg/logging"
)

// Handler serves the public booking endpoint and the admin booking list.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger.Component("bookings_handler")}
}

// Create handles POST /public/calendars/{slug}/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CalendarSlug = chi.URLParam(r, "slug")

	conf, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// ListForCalendar handles GET /admin/calendars/{calendarID}/bookings.
func (h *Handler) ListForCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	list, err := h.service.ListForCalendar(r.Context(), calendarID, limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if list == nil {
		list = []*Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": list,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendars.ErrCalendarNotFound),
		errors.Is(err, calendars.ErrNotBookable):
		// Private and unknown calendars look the same from outside.
		writeError(w, http.StatusNotFound, "calendar not found")
	case errors.Is(err, calendars.ErrSlotRuleNotFound):
		writeError(w, http.StatusNotFound, calendars.ErrSlotRuleNotFound.Error())
	case errors.Is(err, ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "slot was just booked, please pick another")
	case errors.Is(err, ErrInvalidSlotRuleID),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidBookerName),
		errors.Is(err, ErrInvalidBookerEmail),
		errors.Is(err, ErrInvalidProspectID),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrRuleNotApplicable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("booking request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
