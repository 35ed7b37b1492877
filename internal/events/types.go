package events

import "time"

// Event type names carried in outbox rows.
const (
	TypeBookingCreatedV1 = "booking.created.v1"
)

// BookingCreatedV1 is emitted after a booking row is committed. Consumers
// send the confirmation email and feed downstream analytics.
type BookingCreatedV1 struct {
	BookingID    string    `json:"booking_id"`
	CalendarID   string    `json:"calendar_id"`
	CalendarName string    `json:"calendar_name"`
	SlotRuleID   string    `json:"slot_rule_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Timezone     string    `json:"timezone"`
	BookerName   string    `json:"booker_name"`
	BookerEmail  string    `json:"booker_email"`
	CreatedAt    time.Time `json:"created_at"`
}
