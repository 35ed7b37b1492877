package calendars

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical wire format for calendar dates. All date
// comparisons in the booking flow go through strings in this layout so a
// client and server in different timezones agree on the day.
const DateLayout = "2006-01-02"

// CalendarType distinguishes plain event calendars from bookable ones.
type CalendarType string

const (
	TypeEvents  CalendarType = "EVENTS"
	TypeBooking CalendarType = "BOOKING"
)

// Visibility controls who can see a calendar in the dashboard.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityRole    Visibility = "ROLE"
)

// Calendar is an admin-managed calendar that may expose a public booking page.
type Calendar struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Color               string       `json:"color"`
	Type                CalendarType `json:"type"`
	Visibility          Visibility   `json:"visibility"`
	SlotDurationMinutes *int         `json:"slot_duration_minutes,omitempty"`
	IsPublicBookable    bool         `json:"is_public_bookable"`
	PublicSlug          string       `json:"public_slug,omitempty"`
	Timezone            string       `json:"timezone"`
	IsActive            bool         `json:"is_active"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Bookable reports whether the public flow may create bookings against
// this calendar.
func (c *Calendar) Bookable() bool {
	return c.IsActive && c.IsPublicBookable && c.Type == TypeBooking
}

// Location resolves the calendar timezone, falling back to the given default
// and finally UTC. Malformed names fall back too rather than failing a read.
func (c *Calendar) Location(fallback string) *time.Location {
	for _, name := range []string{c.Timezone, fallback} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// SlotRule defines a bookable time window: either every week on DayOfWeek,
// or once on SpecificDate. Exactly one of the two is set.
type SlotRule struct {
	ID           string    `json:"id"`
	CalendarID   string    `json:"calendar_id"`
	IsRecurring  bool      `json:"is_recurring"`
	DayOfWeek    *int      `json:"day_of_week,omitempty"`
	SpecificDate string    `json:"specific_date,omitempty"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Timezone     string    `json:"timezone"`
	MaxBookings  int       `json:"max_bookings"`
	CreatedAt    time.Time `json:"created_at"`
}

// AppliesOn reports whether the rule produces a window on the given date.
func (r *SlotRule) AppliesOn(date string, weekday time.Weekday) bool {
	if r.IsRecurring {
		return r.DayOfWeek != nil && *r.DayOfWeek == int(weekday)
	}
	return r.SpecificDate == date
}

// Validate checks the rule invariants shared by create and update paths.
func (r *SlotRule) Validate() error {
	if r.IsRecurring {
		if r.DayOfWeek == nil || r.SpecificDate != "" {
			return ErrRuleShape
		}
		if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return ErrInvalidDayOfWeek
		}
	} else {
		if r.DayOfWeek != nil || r.SpecificDate == "" {
			return ErrRuleShape
		}
		if _, err := time.Parse(DateLayout, r.SpecificDate); err != nil {
			return ErrInvalidDate
		}
	}
	start, err := MinutesOfDay(r.StartTime)
	if err != nil {
		return ErrInvalidTimeWindow
	}
	end, err := MinutesOfDay(r.EndTime)
	if err != nil {
		return ErrInvalidTimeWindow
	}
	if end <= start {
		return ErrInvalidTimeWindow
	}
	if r.MaxBookings <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}

// MinutesOfDay parses a wall-clock "HH:MM" string into minutes since
// midnight. Seconds suffixes ("09:00:00") are tolerated and ignored.
func MinutesOfDay(s string) (int, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("calendars: invalid time of day %q", s)
	}
	t, err := time.Parse("15:04", s[:5])
	if err != nil {
		return 0, fmt.Errorf("calendars: invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CreateCalendarRequest is the admin payload for creating a calendar.
type CreateCalendarRequest struct {
	Name                string       `json:"name"`
	Color               string       `json:"color"`
	Type                CalendarType `json:"type"`
	Visibility          Visibility   `json:"visibility"`
	SlotDurationMinutes *int         `json:"slot_duration_minutes,omitempty"`
	IsPublicBookable    bool         `json:"is_public_bookable"`
	PublicSlug          string       `json:"public_slug"`
	Timezone            string       `json:"timezone"`
}

// Validate validates the create calendar request
func (r *CreateCalendarRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Type == "" {
		r.Type = TypeEvents
	}
	if r.Type != TypeEvents && r.Type != TypeBooking {
		return ErrInvalidType
	}
	if r.Visibility == "" {
		r.Visibility = VisibilityPrivate
	}
	switch r.Visibility {
	case VisibilityPublic, VisibilityPrivate, VisibilityRole:
	default:
		return ErrInvalidVisibility
	}
	if r.IsPublicBookable && strings.TrimSpace(r.PublicSlug) == "" {
		return ErrMissingSlug
	}
	return nil
}

// UpdateCalendarRequest carries the mutable calendar fields. Nil pointers
// leave the stored value untouched.
type UpdateCalendarRequest struct {
	Name                *string       `json:"name,omitempty"`
	Color               *string       `json:"color,omitempty"`
	Visibility          *Visibility   `json:"visibility,omitempty"`
	SlotDurationMinutes *int          `json:"slot_duration_minutes,omitempty"`
	IsPublicBookable    *bool         `json:"is_public_bookable,omitempty"`
	PublicSlug          *string       `json:"public_slug,omitempty"`
	Timezone            *string       `json:"timezone,omitempty"`
	IsActive            *bool         `json:"is_active,omitempty"`
}

// UpdateSlotRuleRequest carries the mutable slot rule fields. Nil pointers
// leave the stored value untouched. Switching is_recurring clears the field
// belonging to the old shape, so the new shape field must arrive in the same
// request.
type UpdateSlotRuleRequest struct {
	IsRecurring  *bool   `json:"is_recurring,omitempty"`
	DayOfWeek    *int    `json:"day_of_week,omitempty"`
	SpecificDate *string `json:"specific_date,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	Timezone     *string `json:"timezone,omitempty"`
	MaxBookings  *int    `json:"max_bookings,omitempty"`
}

// Apply merges the non-nil fields onto rule and validates the result.
func (req *UpdateSlotRuleRequest) Apply(rule *SlotRule) error {
	if req.IsRecurring != nil && *req.IsRecurring != rule.IsRecurring {
		rule.IsRecurring = *req.IsRecurring
		if rule.IsRecurring {
			rule.SpecificDate = ""
		} else {
			rule.DayOfWeek = nil
		}
	}
	if req.DayOfWeek != nil {
		v := *req.DayOfWeek
		rule.DayOfWeek = &v
	}
	if req.SpecificDate != nil {
		rule.SpecificDate = *req.SpecificDate
	}
	if req.StartTime != nil {
		rule.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		rule.EndTime = *req.EndTime
	}
	if req.Timezone != nil {
		rule.Timezone = *req.Timezone
	}
	if req.MaxBookings != nil {
		rule.MaxBookings = *req.MaxBookings
	}
	return rule.Validate()
}

// CreateSlotRuleRequest is the admin payload for adding a slot rule.
type CreateSlotRuleRequest struct {
	CalendarID   string `json:"-"`
	IsRecurring  bool   `json:"is_recurring"`
	DayOfWeek    *int   `json:"day_of_week,omitempty"`
	SpecificDate string `json:"specific_date,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Timezone     string `json:"timezone"`
	MaxBookings  int    `json:"max_bookings"`
}

// Validate validates the create slot rule request
func (r *CreateSlotRuleRequest) Validate() error {
	rule := SlotRule{
		IsRecurring:  r.IsRecurring,
		DayOfWeek:    r.DayOfWeek,
		SpecificDate: r.SpecificDate,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		MaxBookings:  r.MaxBookings,
	}
	return rule.Validate()
}
