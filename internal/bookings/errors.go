package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking matches the given id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrCapacityExceeded is returned when a slot window has no remaining
	// capacity for the requested date. Writers never retry past it.
	ErrCapacityExceeded = errors.New("slot capacity exceeded for this date")

	// ErrRuleNotApplicable is returned when the slot rule does not produce a
	// window on the requested date.
	ErrRuleNotApplicable = errors.New("slot rule does not apply on this date")

	// ErrPastDate is returned for booking attempts on dates before today in
	// the calendar's timezone.
	ErrPastDate = errors.New("date must not be in the past")

	// Validation sentinels name the offending request field.
	ErrInvalidBookerName  = errors.New("booker_name is required")
	ErrInvalidBookerEmail = errors.New("booker_email must be a valid email address")
	ErrInvalidSlotRuleID  = errors.New("slot_rule_id is required")
	ErrInvalidDate        = errors.New("date must be formatted YYYY-MM-DD")
	ErrInvalidProspectID  = errors.New("prospect_id must be a valid UUID")
)
