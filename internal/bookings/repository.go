package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentorbase/platform/internal/availability"
)

// Repository persists bookings. CreateWithCapacityCheck is the only write
// path and must be atomic: for any (slot rule, date) pair at most
// maxBookings confirmed rows may ever exist, no matter how many writers race.
type Repository interface {
	CreateWithCapacityCheck(ctx context.Context, b *Booking, maxBookings int) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListByCalendar(ctx context.Context, calendarID string, limit, offset int) ([]*Booking, error)
	CountByRuleAndDateRange(ctx context.Context, calendarID, fromDate, toDate string) (availability.Tally, error)
}

// InMemoryRepository holds bookings in a map, serializing the capacity check
// and insert under one mutex so it gives the same guarantee as the
// transactional Postgres implementation.
type InMemoryRepository struct {
	mu       sync.Mutex
	bookings map[string]*Booking
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bookings: make(map[string]*Booking)}
}

func cloneBooking(b *Booking) *Booking {
	clone := *b
	return &clone
}

// CreateWithCapacityCheck inserts the booking iff fewer than maxBookings
// confirmed bookings already exist for its (slot rule, date) pair.
func (r *InMemoryRepository) CreateWithCapacityCheck(ctx context.Context, b *Booking, maxBookings int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, existing := range r.bookings {
		if existing.SlotRuleID == b.SlotRuleID && existing.Date == b.Date && existing.Status == StatusConfirmed {
			count++
		}
	}
	if count >= maxBookings {
		return ErrCapacityExceeded
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = StatusConfirmed
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *InMemoryRepository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// ListByCalendar returns the calendar's bookings newest first.
func (r *InMemoryRepository) ListByCalendar(ctx context.Context, calendarID string, limit, offset int) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if b.CalendarID == calendarID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if offset >= len(out) {
		return []*Booking{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// CountByRuleAndDateRange tallies confirmed bookings per (slot rule, date)
// for the calendar, bounded by the inclusive date range. Feeds the
// availability calculator.
func (r *InMemoryRepository) CountByRuleAndDateRange(ctx context.Context, calendarID, fromDate, toDate string) (availability.Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tally := make(availability.Tally)
	for _, b := range r.bookings {
		if b.CalendarID != calendarID || b.Status != StatusConfirmed {
			continue
		}
		if b.Date < fromDate || b.Date > toDate {
			continue
		}
		tally[availability.RuleDate{RuleID: b.SlotRuleID, Date: b.Date}]++
	}
	return tally, nil
}
