package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mentorbase/platform/internal/availability"
	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/internal/events"
	"github.com/mentorbase/platform/internal/observability/metrics"
	"github.com/mentorbase/platform/pkg/logging"
)

var bookingsTracer = otel.Tracer("mentorbase.internal.bookings")

// CalendarSource is the slice of the calendars repository the booking flow
// needs.
type CalendarSource interface {
	GetCalendarBySlug(ctx context.Context, slug string) (*calendars.Calendar, error)
	GetSlotRule(ctx context.Context, id string) (*calendars.SlotRule, error)
}

// EventOutbox records domain events alongside the booking write.
// *events.OutboxStore satisfies it.
type EventOutbox interface {
	Insert(ctx context.Context, calendarID string, eventType string, payload any) (uuid.UUID, error)
}

// Service runs the booking flow: resolve the calendar and rule, reject past
// dates, write atomically against capacity, then fan out the side effects.
type Service struct {
	repo      Repository
	source    CalendarSource
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	cache     *availability.Cache
	outbox    EventOutbox
	defaultTZ string
	now       func() time.Time
}

func NewService(repo Repository, source CalendarSource, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		source:    source,
		logger:    logger.Component("bookings"),
		defaultTZ: "UTC",
		now:       time.Now,
	}
}

// WithMetrics attaches prometheus counters. Optional.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// WithCache attaches the availability month cache so successful writes
// invalidate the affected month. Optional.
func (s *Service) WithCache(cache *availability.Cache) *Service {
	s.cache = cache
	return s
}

// WithOutbox attaches the event outbox. Optional; without it no events are
// recorded.
func (s *Service) WithOutbox(outbox EventOutbox) *Service {
	s.outbox = outbox
	return s
}

// WithDefaultTimezone sets the fallback for calendars without a timezone.
func (s *Service) WithDefaultTimezone(tz string) *Service {
	if tz != "" {
		s.defaultTZ = tz
	}
	return s
}

// WithClock overrides the time source. Tests pin "today" with it.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create books one seat in the requested slot window. It never retries the
// write: a capacity conflict surfaces as ErrCapacityExceeded and the caller
// decides what to do next.
func (s *Service) Create(ctx context.Context, req *CreateBookingRequest) (*Confirmation, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("calendar.slug", req.CalendarSlug),
		attribute.String("booking.date", req.Date),
	)

	cal, err := s.source.GetCalendarBySlug(ctx, req.CalendarSlug)
	if err != nil {
		return nil, err
	}
	if !cal.Bookable() {
		return nil, calendars.ErrNotBookable
	}

	rule, err := s.source.GetSlotRule(ctx, req.SlotRuleID)
	if err != nil {
		return nil, err
	}
	if rule.CalendarID != cal.ID {
		// A rule from another calendar is indistinguishable from a missing one.
		return nil, calendars.ErrSlotRuleNotFound
	}

	day, err := time.Parse(calendars.DateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if !rule.AppliesOn(req.Date, day.Weekday()) {
		return nil, ErrRuleNotApplicable
	}

	today := s.now().In(cal.Location(s.defaultTZ)).Format(calendars.DateLayout)
	if req.Date < today {
		return nil, ErrPastDate
	}

	booking := &Booking{
		CalendarID:  cal.ID,
		SlotRuleID:  rule.ID,
		Date:        req.Date,
		BookerName:  req.BookerName,
		BookerEmail: req.BookerEmail,
		BookerPhone: req.BookerPhone,
		Notes:       req.Notes,
		ProspectID:  req.ProspectID,
	}
	if err := s.repo.CreateWithCapacityCheck(ctx, booking, rule.MaxBookings); err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.metrics.ObserveCapacityConflict()
			s.metrics.ObserveBookingCreated("conflict")
			s.logger.Info("booking rejected, slot full",
				"calendar_id", cal.ID, "slot_rule_id", rule.ID, "date", req.Date)
			return nil, ErrCapacityExceeded
		}
		s.metrics.ObserveBookingCreated("error")
		return nil, err
	}
	s.metrics.ObserveBookingCreated("created")

	s.cache.InvalidateDate(ctx, cal.ID, booking.Date)

	tz := rule.Timezone
	if tz == "" {
		tz = cal.Timezone
	}

	if s.outbox != nil {
		evt := events.BookingCreatedV1{
			BookingID:    booking.ID,
			CalendarID:   cal.ID,
			CalendarName: cal.Name,
			SlotRuleID:   rule.ID,
			Date:         booking.Date,
			StartTime:    rule.StartTime,
			EndTime:      rule.EndTime,
			Timezone:     tz,
			BookerName:   booking.BookerName,
			BookerEmail:  booking.BookerEmail,
			CreatedAt:    booking.CreatedAt,
		}
		if _, err := s.outbox.Insert(ctx, cal.ID, events.TypeBookingCreatedV1, evt); err != nil {
			// The booking is committed; a lost event must not undo it.
			s.logger.Error("failed to record booking event",
				"booking_id", booking.ID, "error", err)
		}
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID, "calendar_id", cal.ID,
		"slot_rule_id", rule.ID, "date", booking.Date)

	return &Confirmation{
		Booking:      booking,
		CalendarName: cal.Name,
		StartTime:    rule.StartTime,
		EndTime:      rule.EndTime,
		Timezone:     tz,
	}, nil
}

// Get returns one booking by id.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListForCalendar returns a calendar's bookings for the admin surface,
// newest first.
func (s *Service) ListForCalendar(ctx context.Context, calendarID string, limit, offset int) ([]*Booking, error) {
	return s.repo.ListByCalendar(ctx, calendarID, limit, offset)
}
