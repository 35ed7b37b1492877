package calendars

import "errors"

var (
	// ErrCalendarNotFound is returned when a calendar is not found
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrSlotRuleNotFound is returned when a slot rule is not found
	ErrSlotRuleNotFound = errors.New("slot rule not found")

	// ErrNotBookable is returned when a calendar is inactive or not open
	// for public booking
	ErrNotBookable = errors.New("calendar is not open for booking")

	// ErrInvalidName is returned when the calendar name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidType is returned for an unknown calendar type
	ErrInvalidType = errors.New("type must be EVENTS or BOOKING")

	// ErrInvalidVisibility is returned for an unknown visibility value
	ErrInvalidVisibility = errors.New("visibility must be PUBLIC, PRIVATE or ROLE")

	// ErrMissingSlug is returned when a calendar is public bookable but has no slug
	ErrMissingSlug = errors.New("public_slug is required for bookable calendars")

	// ErrRuleShape is returned when a slot rule is neither purely recurring
	// nor purely date-pinned
	ErrRuleShape = errors.New("slot rule must set exactly one of day_of_week or specific_date")

	// ErrInvalidDayOfWeek is returned when day_of_week is outside 0-6
	ErrInvalidDayOfWeek = errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")

	// ErrInvalidDate is returned for a malformed YYYY-MM-DD date
	ErrInvalidDate = errors.New("date must be formatted YYYY-MM-DD")

	// ErrInvalidTimeWindow is returned when start/end times are malformed
	// or end does not come after start
	ErrInvalidTimeWindow = errors.New("start_time and end_time must be HH:MM with end after start")

	// ErrInvalidCapacity is returned when max_bookings is not positive
	ErrInvalidCapacity = errors.New("max_bookings must be a positive integer")
)
