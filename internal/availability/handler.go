package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/pkg/logging"
)

// Handler serves the public availability endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new availability handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("availability: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// GetCalendar handles GET /public/calendars/{slug}
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.service.Calendar(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// GetMonth handles GET /public/calendars/{slug}/availability?year=&month=
// month is zero-based (January=0).
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer between 0 and 11")
		return
	}

	result, err := h.service.DatesInMonth(r.Context(), chi.URLParam(r, "slug"), year, month)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSlots handles GET /public/calendars/{slug}/slots?date=YYYY-MM-DD
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	result, err := h.service.SlotsForDate(r.Context(), chi.URLParam(r, "slug"), date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendars.ErrCalendarNotFound), errors.Is(err, calendars.ErrNotBookable):
		// Inactive and non-bookable calendars look identical to not-found
		// from the outside.
		writeError(w, http.StatusNotFound, "calendar not found")
	case errors.Is(err, ErrInvalidMonth), errors.Is(err, ErrInvalidYear), errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("availability query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
