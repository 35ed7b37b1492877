package calendars

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mentorbase/platform/pkg/logging"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, logging.Default())
	r := chi.NewRouter()
	r.Post("/admin/calendars", h.CreateCalendar)
	r.Get("/admin/calendars", h.ListCalendars)
	r.Get("/admin/calendars/{calendarID}", h.GetCalendar)
	r.Patch("/admin/calendars/{calendarID}", h.UpdateCalendar)
	r.Delete("/admin/calendars/{calendarID}", h.DeleteCalendar)
	r.Post("/admin/calendars/{calendarID}/slot-rules", h.CreateSlotRule)
	r.Get("/admin/calendars/{calendarID}/slot-rules", h.ListSlotRules)
	r.Patch("/admin/calendars/{calendarID}/slot-rules/{ruleID}", h.UpdateSlotRule)
	r.Delete("/admin/calendars/{calendarID}/slot-rules/{ruleID}", h.DeleteSlotRule)
	return r
}

func createTestCalendar(t *testing.T, repo Repository) *Calendar {
	t.Helper()
	cal, err := repo.CreateCalendar(context.Background(), &CreateCalendarRequest{
		Name:             "Mentor Sessions",
		Type:             TypeBooking,
		Visibility:       VisibilityPublic,
		IsPublicBookable: true,
		PublicSlug:       "mentor-sessions",
		Timezone:         "Europe/Berlin",
	})
	if err != nil {
		t.Fatalf("failed to seed calendar: %v", err)
	}
	return cal
}

func TestCreateCalendar_Success(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body, _ := json.Marshal(CreateCalendarRequest{
		Name:             "Office Hours",
		Type:             TypeBooking,
		IsPublicBookable: true,
		PublicSlug:       "office-hours",
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/calendars", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var cal Calendar
	if err := json.NewDecoder(w.Body).Decode(&cal); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cal.ID == "" {
		t.Error("expected server-assigned id")
	}
	if !cal.IsActive {
		t.Error("new calendars should be active")
	}
}

func TestCreateCalendar_ValidationError(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/admin/calendars", bytes.NewReader([]byte(`{"type":"BOOKING"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("expected JSON error envelope: %v", err)
	}
	if resp["error"] != ErrInvalidName.Error() {
		t.Errorf("expected name error, got %q", resp["error"])
	}
}

func TestGetCalendar_NotFound(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/admin/calendars/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateCalendar_PartialPatch(t *testing.T) {
	repo := NewInMemoryRepository()
	cal := createTestCalendar(t, repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPatch, "/admin/calendars/"+cal.ID, bytes.NewReader([]byte(`{"is_active":false}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated Calendar
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if updated.IsActive {
		t.Error("expected calendar deactivated")
	}
	if updated.Name != cal.Name {
		t.Errorf("untouched field changed: %q -> %q", cal.Name, updated.Name)
	}
}

func TestSlotRuleLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	cal := createTestCalendar(t, repo)
	router := newTestRouter(repo)

	body, _ := json.Marshal(CreateSlotRuleRequest{
		IsRecurring: true,
		DayOfWeek:   intPtr(1),
		StartTime:   "09:00",
		EndTime:     "10:00",
		Timezone:    "Europe/Berlin",
		MaxBookings: 2,
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/calendars/"+cal.ID+"/slot-rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rule SlotRule
	if err := json.NewDecoder(w.Body).Decode(&rule); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/admin/calendars/"+cal.ID+"/slot-rules", nil)
	listW := httptest.NewRecorder()
	router.ServeHTTP(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listW.Code)
	}
	var listResp struct {
		SlotRules []*SlotRule `json:"slot_rules"`
		Count     int         `json:"count"`
	}
	if err := json.NewDecoder(listW.Body).Decode(&listResp); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if listResp.Count != 1 || listResp.SlotRules[0].ID != rule.ID {
		t.Fatalf("unexpected list response: %+v", listResp)
	}

	patchReq := httptest.NewRequest(http.MethodPatch,
		"/admin/calendars/"+cal.ID+"/slot-rules/"+rule.ID,
		bytes.NewReader([]byte(`{"max_bookings":5}`)))
	patchW := httptest.NewRecorder()
	router.ServeHTTP(patchW, patchReq)
	if patchW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", patchW.Code, patchW.Body.String())
	}
	var patched SlotRule
	if err := json.NewDecoder(patchW.Body).Decode(&patched); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if patched.MaxBookings != 5 {
		t.Errorf("expected capacity 5, got %d", patched.MaxBookings)
	}
	if patched.StartTime != rule.StartTime {
		t.Errorf("untouched field changed: %q -> %q", rule.StartTime, patched.StartTime)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/admin/calendars/"+cal.ID+"/slot-rules/"+rule.ID, nil)
	delW := httptest.NewRecorder()
	router.ServeHTTP(delW, delReq)
	if delW.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delW.Code)
	}
}

func TestUpdateSlotRule_InvalidMergeRejected(t *testing.T) {
	repo := NewInMemoryRepository()
	cal := createTestCalendar(t, repo)
	router := newTestRouter(repo)

	rule, err := repo.CreateSlotRule(context.Background(), &CreateSlotRuleRequest{
		CalendarID:  cal.ID,
		IsRecurring: true,
		DayOfWeek:   intPtr(1),
		StartTime:   "09:00",
		EndTime:     "10:00",
		MaxBookings: 2,
	})
	if err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch,
		"/admin/calendars/"+cal.ID+"/slot-rules/"+rule.ID,
		bytes.NewReader([]byte(`{"end_time":"08:00"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("expected JSON error envelope: %v", err)
	}
	if resp["error"] != ErrInvalidTimeWindow.Error() {
		t.Errorf("expected time window error, got %q", resp["error"])
	}

	kept, err := repo.GetSlotRule(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("failed to reload rule: %v", err)
	}
	if kept.EndTime != "10:00" {
		t.Errorf("rejected patch must not change the stored rule, got end %q", kept.EndTime)
	}
}

func TestUpdateSlotRule_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	cal := createTestCalendar(t, repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPatch,
		"/admin/calendars/"+cal.ID+"/slot-rules/missing",
		bytes.NewReader([]byte(`{"max_bookings":3}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateSlotRule_UnknownCalendar(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body, _ := json.Marshal(CreateSlotRuleRequest{
		IsRecurring: true,
		DayOfWeek:   intPtr(3),
		StartTime:   "09:00",
		EndTime:     "10:00",
		MaxBookings: 1,
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/calendars/nope/slot-rules", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
