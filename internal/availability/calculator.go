package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mentorbase/platform/internal/calendars"
)

var (
	// ErrInvalidMonth is returned when the month index is outside 0-11
	ErrInvalidMonth = errors.New("month must be between 0 and 11")

	// ErrInvalidYear is returned for years outside a sane range
	ErrInvalidYear = errors.New("year is out of range")

	// ErrInvalidDate is returned for a malformed YYYY-MM-DD date
	ErrInvalidDate = errors.New("date must be formatted YYYY-MM-DD")
)

// RuleDate identifies the bookings of one slot rule on one concrete date.
type RuleDate struct {
	RuleID string
	Date   string
}

// Tally maps (rule, date) to the number of confirmed bookings.
type Tally map[RuleDate]int

// SlotWindow is one concrete bookable time window on a date. Full windows
// are reported with Available=false instead of being dropped, so callers
// can render them as disabled.
type SlotWindow struct {
	ID                string `json:"id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Timezone          string `json:"timezone"`
	Available         bool   `json:"available"`
	RemainingCapacity int    `json:"remaining_capacity"`
}

// DatesInMonth returns the sorted YYYY-MM-DD dates of the given month that
// have at least one open slot. month is zero-based (January=0), matching
// the dashboard client convention. today is a YYYY-MM-DD string computed by
// the caller in the calendar's timezone; days before it are never available.
//
// The function is pure: it only reads the rules and tally it is given.
func DatesInMonth(rules []*calendars.SlotRule, tally Tally, year, month int, today string) ([]string, error) {
	if month < 0 || month > 11 {
		return nil, ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return nil, ErrInvalidYear
	}

	var dates []string
	// Walking day-by-day in UTC is safe here: the weekday of a civil date
	// does not depend on the zone, and all comparisons use date strings.
	day := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == time.Month(month+1) {
		date := day.Format(calendars.DateLayout)
		if date >= today && dayHasCapacity(rules, tally, date, day.Weekday()) {
			dates = append(dates, date)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates, nil
}

func dayHasCapacity(rules []*calendars.SlotRule, tally Tally, date string, weekday time.Weekday) bool {
	for _, rule := range rules {
		if !rule.AppliesOn(date, weekday) {
			continue
		}
		if rule.MaxBookings-tally[RuleDate{RuleID: rule.ID, Date: date}] > 0 {
			return true
		}
	}
	return false
}

// SlotsForDate returns one window per rule applying on date, in ascending
// start time (ties broken by rule id). today follows the same convention as
// DatesInMonth; on past dates every window is reported unavailable.
func SlotsForDate(rules []*calendars.SlotRule, tally Tally, date, today string) ([]SlotWindow, error) {
	parsed, err := time.Parse(calendars.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	past := date < today
	var windows []SlotWindow
	for _, rule := range rules {
		if !rule.AppliesOn(date, parsed.Weekday()) {
			continue
		}
		remaining := rule.MaxBookings - tally[RuleDate{RuleID: rule.ID, Date: date}]
		if remaining < 0 {
			remaining = 0
		}
		windows = append(windows, SlotWindow{
			ID:                rule.ID,
			StartTime:         rule.StartTime,
			EndTime:           rule.EndTime,
			Timezone:          rule.Timezone,
			Available:         remaining > 0 && !past,
			RemainingCapacity: remaining,
		})
	}

	// Zero-padded HH:MM strings sort chronologically.
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].StartTime != windows[j].StartTime {
			return windows[i].StartTime < windows[j].StartTime
		}
		return windows[i].ID < windows[j].ID
	})
	return windows, nil
}
