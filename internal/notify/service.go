package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mentorbase/platform/internal/calendars"
	"github.com/mentorbase/platform/internal/events"
	"github.com/mentorbase/platform/pkg/logging"
)

// Service turns booking events into booker-facing emails. It plugs into the
// outbox deliverer as an events.DeliveryHandler.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewLogSender(logger)
	}
	return &Service{email: email, logger: logger.Component("notify")}
}

// Handle dispatches on the outbox entry type. Unknown types are skipped, not
// failed, so new event types never wedge the deliverer.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingCreatedV1:
		var evt events.BookingCreatedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return s.NotifyBookingConfirmed(ctx, evt)
	default:
		s.logger.Debug("skipping unhandled event type", "type", entry.Type)
		return nil
	}
}

// NotifyBookingConfirmed emails the booker their confirmed slot.
func (s *Service) NotifyBookingConfirmed(ctx context.Context, evt events.BookingCreatedV1) error {
	if evt.BookerEmail == "" {
		return nil
	}

	when := formatDate(evt.Date)
	window := fmt.Sprintf("%s–%s", evt.StartTime, evt.EndTime)
	if evt.Timezone != "" {
		window = fmt.Sprintf("%s (%s)", window, evt.Timezone)
	}

	subject := fmt.Sprintf("Booking confirmed: %s on %s", evt.CalendarName, when)
	body := fmt.Sprintf(`Hi %s,

Your booking is confirmed.

Calendar: %s
Date: %s
Time: %s

See you there!

— MentorBase`, evt.BookerName, evt.CalendarName, when, window)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Booking confirmed</h2>
<p>Hi %s, your booking is confirmed.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px;"><strong>Calendar:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>Date:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>Time:</strong></td><td style="padding: 8px;">%s</td></tr>
</table>
<p style="color: #6b7280; font-size: 12px;">— MentorBase</p>
</div>`, evt.BookerName, evt.CalendarName, when, window)

	msg := EmailMessage{
		To:      evt.BookerEmail,
		ToName:  evt.BookerName,
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}

	s.logger.Info("booking confirmation sent",
		"booking_id", evt.BookingID, "to", evt.BookerEmail)
	return nil
}

func formatDate(date string) string {
	day, err := time.Parse(calendars.DateLayout, date)
	if err != nil {
		return date
	}
	return day.Format("Monday, January 2, 2006")
}

var _ events.DeliveryHandler = (*Service)(nil)
