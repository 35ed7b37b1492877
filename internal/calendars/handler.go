package calendars

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentorbase/platform/pkg/logging"
)

// Handler handles admin HTTP requests for calendars and slot rules
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new calendars handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// CreateCalendar handles POST /admin/calendars
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req CreateCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cal, err := h.repo.CreateCalendar(r.Context(), &req)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.logger.Info("calendar created", "id", cal.ID, "name", cal.Name)
	writeJSON(w, http.StatusCreated, cal)
}

// ListCalendars handles GET /admin/calendars
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.repo.ListCalendars(r.Context())
	if err != nil {
		h.logger.Error("failed to list calendars", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list calendars")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"calendars": cals,
		"count":     len(cals),
	})
}

// GetCalendar handles GET /admin/calendars/{calendarID}
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.repo.GetCalendar(r.Context(), chi.URLParam(r, "calendarID"))
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// UpdateCalendar handles PATCH /admin/calendars/{calendarID}
func (h *Handler) UpdateCalendar(w http.ResponseWriter, r *http.Request) {
	var req UpdateCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cal, err := h.repo.UpdateCalendar(r.Context(), chi.URLParam(r, "calendarID"), &req)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.logger.Info("calendar updated", "id", cal.ID)
	writeJSON(w, http.StatusOK, cal)
}

// DeleteCalendar handles DELETE /admin/calendars/{calendarID}
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "calendarID")
	if err := h.repo.DeleteCalendar(r.Context(), id); err != nil {
		h.respondRepoError(w, err)
		return
	}
	h.logger.Info("calendar deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// CreateSlotRule handles POST /admin/calendars/{calendarID}/slot-rules
func (h *Handler) CreateSlotRule(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CalendarID = chi.URLParam(r, "calendarID")

	rule, err := h.repo.CreateSlotRule(r.Context(), &req)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.logger.Info("slot rule created", "id", rule.ID, "calendar_id", rule.CalendarID)
	writeJSON(w, http.StatusCreated, rule)
}

// ListSlotRules handles GET /admin/calendars/{calendarID}/slot-rules
func (h *Handler) ListSlotRules(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarID")
	rules, err := h.repo.ListSlotRules(r.Context(), calendarID)
	if err != nil {
		h.logger.Error("failed to list slot rules", "error", err, "calendar_id", calendarID)
		writeError(w, http.StatusInternalServerError, "failed to list slot rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slot_rules": rules,
		"count":      len(rules),
	})
}

// UpdateSlotRule handles PATCH /admin/calendars/{calendarID}/slot-rules/{ruleID}
func (h *Handler) UpdateSlotRule(w http.ResponseWriter, r *http.Request) {
	var req UpdateSlotRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.repo.UpdateSlotRule(r.Context(), chi.URLParam(r, "ruleID"), &req)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.logger.Info("slot rule updated", "id", rule.ID, "calendar_id", rule.CalendarID)
	writeJSON(w, http.StatusOK, rule)
}

// DeleteSlotRule handles DELETE /admin/calendars/{calendarID}/slot-rules/{ruleID}
func (h *Handler) DeleteSlotRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ruleID")
	if err := h.repo.DeleteSlotRule(r.Context(), id); err != nil {
		h.respondRepoError(w, err)
		return
	}
	h.logger.Info("slot rule deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCalendarNotFound), errors.Is(err, ErrSlotRuleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("calendar storage error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidName, ErrInvalidType, ErrInvalidVisibility, ErrMissingSlug,
		ErrRuleShape, ErrInvalidDayOfWeek, ErrInvalidDate, ErrInvalidTimeWindow,
		ErrInvalidCapacity,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
