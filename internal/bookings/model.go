package bookings

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentorbase/platform/internal/calendars"
)

// Status is the lifecycle state of a booking. Only confirmed bookings count
// against slot capacity.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is a confirmed reservation of one seat in a slot window on a
// specific date.
type Booking struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendar_id"`
	SlotRuleID  string    `json:"slot_rule_id"`
	Date        string    `json:"date"`
	BookerName  string    `json:"booker_name"`
	BookerEmail string    `json:"booker_email"`
	BookerPhone string    `json:"booker_phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ProspectID  string    `json:"prospect_id,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateBookingRequest is the public booking payload. CalendarSlug comes from
// the URL, not the body.
type CreateBookingRequest struct {
	CalendarSlug string `json:"-"`
	SlotRuleID   string `json:"slot_rule_id"`
	Date         string `json:"date"`
	BookerName   string `json:"booker_name"`
	BookerEmail  string `json:"booker_email"`
	BookerPhone  string `json:"booker_phone,omitempty"`
	Notes        string `json:"notes,omitempty"`
	ProspectID   string `json:"prospect_id,omitempty"`
}

// Validate normalizes the request in place and reports the first invalid
// field.
func (r *CreateBookingRequest) Validate() error {
	r.SlotRuleID = strings.TrimSpace(r.SlotRuleID)
	r.Date = strings.TrimSpace(r.Date)
	r.BookerName = strings.TrimSpace(r.BookerName)
	r.BookerEmail = strings.TrimSpace(strings.ToLower(r.BookerEmail))
	r.BookerPhone = strings.TrimSpace(r.BookerPhone)
	r.Notes = strings.TrimSpace(r.Notes)
	r.ProspectID = strings.TrimSpace(r.ProspectID)

	if r.SlotRuleID == "" {
		return ErrInvalidSlotRuleID
	}
	if _, err := time.Parse(calendars.DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if r.BookerName == "" {
		return ErrInvalidBookerName
	}
	if r.BookerEmail == "" {
		return ErrInvalidBookerEmail
	}
	if addr, err := mail.ParseAddress(r.BookerEmail); err != nil || addr.Address != r.BookerEmail {
		return ErrInvalidBookerEmail
	}
	if r.ProspectID != "" {
		if _, err := uuid.Parse(r.ProspectID); err != nil {
			return ErrInvalidProspectID
		}
	}
	return nil
}

// Confirmation is what the booker gets back: the booking plus the resolved
// window so clients don't need a second lookup.
type Confirmation struct {
	Booking      *Booking `json:"booking"`
	CalendarName string   `json:"calendar_name"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Timezone     string   `json:"timezone"`
}
