package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mentorbase/platform/internal/availability"
)

func confirmedBooking(rule, date string) *Booking {
	return &Booking{
		CalendarID:  "cal-1",
		SlotRuleID:  rule,
		Date:        date,
		BookerName:  "Dana Smith",
		BookerEmail: "dana@example.com",
	}
}

func TestInMemoryCreateWithCapacityCheck(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-14"), 2); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-14"), 2); err != nil {
		t.Fatalf("second booking failed: %v", err)
	}
	err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-14"), 2)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("third booking should exceed capacity, got %v", err)
	}

	// Another date on the same rule is unaffected.
	if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-21"), 2); err != nil {
		t.Fatalf("other date should be open: %v", err)
	}
}

func TestConcurrentWritersExactlyOneWins(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-14"), 1)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrCapacityExceeded):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("want exactly one success and one conflict, got %d successes, %d conflicts",
			successes, conflicts)
	}
}

func TestInMemoryGetBooking(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := confirmedBooking("rule-1", "2026-09-14")
	if err := repo.CreateWithCapacityCheck(ctx, b, 1); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.BookerEmail != "dana@example.com" || got.Status != StatusConfirmed {
		t.Errorf("unexpected booking: %+v", got)
	}

	if _, err := repo.GetBooking(ctx, "missing"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("missing booking should be not found, got %v", err)
	}
}

func TestInMemoryListByCalendar(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, date := range []string{"2026-09-07", "2026-09-14", "2026-09-21"} {
		if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", date), 5); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	other := confirmedBooking("rule-9", "2026-09-07")
	other.CalendarID = "cal-2"
	if err := repo.CreateWithCapacityCheck(ctx, other, 5); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	list, err := repo.ListByCalendar(ctx, "cal-1", 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("want 3 bookings, got %d", len(list))
	}

	page, err := repo.ListByCalendar(ctx, "cal-1", 2, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("want 1 booking on the last page, got %d", len(page))
	}

	empty, err := repo.ListByCalendar(ctx, "cal-1", 10, 99)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("offset past the end should return nothing, got %d", len(empty))
	}
}

func TestInMemoryCountByRuleAndDateRange(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-09-14"), 5); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-2", "2026-09-16"), 5); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	// Outside the queried range.
	if err := repo.CreateWithCapacityCheck(ctx, confirmedBooking("rule-1", "2026-10-05"), 5); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	tally, err := repo.CountByRuleAndDateRange(ctx, "cal-1", "2026-09-01", "2026-09-30")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if got := tally[availability.RuleDate{RuleID: "rule-1", Date: "2026-09-14"}]; got != 2 {
		t.Errorf("rule-1 2026-09-14: want 2, got %d", got)
	}
	if got := tally[availability.RuleDate{RuleID: "rule-2", Date: "2026-09-16"}]; got != 1 {
		t.Errorf("rule-2 2026-09-16: want 1, got %d", got)
	}
	if len(tally) != 2 {
		t.Errorf("want 2 tally entries, got %d", len(tally))
	}
}
