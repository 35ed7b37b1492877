package availability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/pkg/logging"
)

func newPublicRouter(svc *Service) http.Handler {
	h := NewHandler(svc, logging.Default())
	r := chi.NewRouter()
	r.Get("/public/calendars/{slug}", h.GetCalendar)
	r.Get("/public/calendars/{slug}/availability", h.GetMonth)
	r.Get("/public/calendars/{slug}/slots", h.GetSlots)
	return r
}

func TestGetMonthEndpoint(t *testing.T) {
	repo := calendars.NewInMemoryRepository()
	seedBookableCalendar(t, repo)
	svc := NewService(repo, &stubCounter{}, logging.Default()).WithClock(fixedClock("2026-09-01"))
	router := newPublicRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/calendars/mentor-sessions/availability?year=2026&month=8", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp MonthAvailability
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"2026-09-07", "2026-09-14", "2026-09-21", "2026-09-28"}, resp.Dates)
}

func TestGetMonthEndpoint_BadParams(t *testing.T) {
	repo := calendars.NewInMemoryRepository()
	seedBookableCalendar(t, repo)
	svc := NewService(repo, &stubCounter{}, logging.Default())
	router := newPublicRouter(svc)

	for _, query := range []string{"", "year=2026", "year=2026&month=twelve", "year=2026&month=12"} {
		req := httptest.NewRequest(http.MethodGet, "/public/calendars/mentor-sessions/availability?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", query)
	}
}

func TestGetMonthEndpoint_UnknownCalendar(t *testing.T) {
	svc := NewService(calendars.NewInMemoryRepository(), &stubCounter{}, logging.Default())
	router := newPublicRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/calendars/ghost/availability?year=2026&month=8", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSlotsEndpoint(t *testing.T) {
	repo := calendars.NewInMemoryRepository()
	seedBookableCalendar(t, repo)
	svc := NewService(repo, &stubCounter{}, logging.Default()).WithClock(fixedClock("2026-09-01"))
	router := newPublicRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/calendars/mentor-sessions/slots?date=2026-09-14", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp DayAvailability
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "09:00", resp.Slots[0].StartTime)
	assert.True(t, resp.Slots[0].Available)
}

func TestGetSlotsEndpoint_MissingDate(t *testing.T) {
	repo := calendars.NewInMemoryRepository()
	seedBookableCalendar(t, repo)
	svc := NewService(repo, &stubCounter{}, logging.Default())
	router := newPublicRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/calendars/mentor-sessions/slots", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPublicCalendarEndpoint(t *testing.T) {
	repo := calendars.NewInMemoryRepository()
	cal, _ := seedBookableCalendar(t, repo)
	svc := NewService(repo, &stubCounter{}, logging.Default())
	router := newPublicRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/calendars/mentor-sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PublicCalendar
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, cal.ID, resp.ID)
	assert.Equal(t, "mentor-sessions", resp.PublicSlug)
}
