package availability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/internal/observability/metrics"
	"github.com/mentorbase/platform/pkg/logging"
)

var availabilityTracer = otel.Tracer("mentorbase.internal.availability")

// CalendarSource supplies the calendar and its slot rules.
type CalendarSource interface {
	GetCalendarBySlug(ctx context.Context, slug string) (*calendars.Calendar, error)
	ListSlotRules(ctx context.Context, calendarID string) ([]*calendars.SlotRule, error)
}

// BookingCounter tallies confirmed bookings per (rule, date) over a range.
type BookingCounter interface {
	CountByRuleAndDateRange(ctx context.Context, calendarID, fromDate, toDate string) (Tally, error)
}

// MonthAvailability is the month query result.
type MonthAvailability struct {
	CalendarID string   `json:"calendar_id"`
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	Dates      []string `json:"dates"`
}

// DayAvailability is the per-date query result.
type DayAvailability struct {
	CalendarID string       `json:"calendar_id"`
	Date       string       `json:"date"`
	Timezone   string       `json:"timezone"`
	Slots      []SlotWindow `json:"slots"`
}

// PublicCalendar is the subset of calendar fields the booking page needs.
type PublicCalendar struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Color               string `json:"color"`
	Timezone            string `json:"timezone"`
	SlotDurationMinutes *int   `json:"slot_duration_minutes,omitempty"`
	PublicSlug          string `json:"public_slug"`
}

// Service resolves public availability queries. The arithmetic lives in the
// pure functions of this package; the service only loads inputs, anchors
// "today" and caches results.
type Service struct {
	source    CalendarSource
	counter   BookingCounter
	cache     *Cache
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	defaultTZ string
	now       func() time.Time
}

// NewService constructs an availability service.
func NewService(source CalendarSource, counter BookingCounter, logger *logging.Logger) *Service {
	if source == nil {
		panic("availability: calendar source required")
	}
	if counter == nil {
		panic("availability: booking counter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		source:  source,
		counter: counter,
		logger:  logger,
		now:     time.Now,
	}
}

// WithCache enables the redis month cache.
func (s *Service) WithCache(cache *Cache) *Service {
	s.cache = cache
	return s
}

// WithMetrics attaches booking metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// WithDefaultTimezone sets the fallback zone for calendars without one.
func (s *Service) WithDefaultTimezone(tz string) *Service {
	s.defaultTZ = tz
	return s
}

// WithClock overrides the wall clock. Tests pin "today" with this.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Calendar resolves a public booking page by slug.
func (s *Service) Calendar(ctx context.Context, slug string) (*PublicCalendar, error) {
	cal, err := s.source.GetCalendarBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !cal.Bookable() {
		return nil, calendars.ErrNotBookable
	}
	return &PublicCalendar{
		ID:                  cal.ID,
		Name:                cal.Name,
		Color:               cal.Color,
		Timezone:            cal.Timezone,
		SlotDurationMinutes: cal.SlotDurationMinutes,
		PublicSlug:          cal.PublicSlug,
	}, nil
}

// DatesInMonth computes the available dates of a calendar month.
// month is zero-based, matching the dashboard client.
func (s *Service) DatesInMonth(ctx context.Context, slug string, year, month int) (*MonthAvailability, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.month")
	defer span.End()
	span.SetAttributes(
		attribute.String("mentorbase.calendar_slug", slug),
		attribute.Int("mentorbase.year", year),
		attribute.Int("mentorbase.month", month),
	)
	start := time.Now()

	if month < 0 || month > 11 {
		return nil, ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return nil, ErrInvalidYear
	}

	cal, err := s.source.GetCalendarBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !cal.Bookable() {
		return nil, calendars.ErrNotBookable
	}

	if dates, ok := s.cache.GetMonth(ctx, cal.ID, year, month); ok {
		s.metrics.ObserveCacheLookup(true)
		// Entries cached before midnight can still carry dates that have
		// since become past in the calendar's timezone.
		dates = dropPastDates(dates, s.today(cal))
		return &MonthAvailability{CalendarID: cal.ID, Year: year, Month: month, Dates: dates}, nil
	}
	s.metrics.ObserveCacheLookup(false)

	rules, err := s.source.ListSlotRules(ctx, cal.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	firstDay := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC)
	tally, err := s.counter.CountByRuleAndDateRange(ctx, cal.ID,
		firstDay.Format(calendars.DateLayout), lastDay.Format(calendars.DateLayout))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	dates, err := DatesInMonth(rules, tally, year, month, s.today(cal))
	if err != nil {
		return nil, err
	}

	s.cache.SetMonth(ctx, cal.ID, year, month, dates)
	s.metrics.ObserveAvailabilityQuery("month", time.Since(start).Seconds())
	return &MonthAvailability{CalendarID: cal.ID, Year: year, Month: month, Dates: dates}, nil
}

// SlotsForDate computes the concrete windows of one date, full ones included.
func (s *Service) SlotsForDate(ctx context.Context, slug, date string) (*DayAvailability, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.day")
	defer span.End()
	span.SetAttributes(
		attribute.String("mentorbase.calendar_slug", slug),
		attribute.String("mentorbase.date", date),
	)
	start := time.Now()

	cal, err := s.source.GetCalendarBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !cal.Bookable() {
		return nil, calendars.ErrNotBookable
	}

	rules, err := s.source.ListSlotRules(ctx, cal.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	tally, err := s.counter.CountByRuleAndDateRange(ctx, cal.ID, date, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	slots, err := SlotsForDate(rules, tally, date, s.today(cal))
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAvailabilityQuery("day", time.Since(start).Seconds())
	return &DayAvailability{
		CalendarID: cal.ID,
		Date:       date,
		Timezone:   cal.Timezone,
		Slots:      slots,
	}, nil
}

// today anchors "not in the past" at midnight in the calendar's timezone,
// falling back to the service default.
func (s *Service) today(cal *calendars.Calendar) string {
	return s.now().In(cal.Location(s.defaultTZ)).Format(calendars.DateLayout)
}

// dropPastDates trims dates before today from an ascending date list.
func dropPastDates(dates []string, today string) []string {
	i := 0
	for i < len(dates) && dates[i] < today {
		i++
	}
	return dates[i:]
}
