package bookings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorbase/platform/internal/availability"
)

// pgxBeginner is the slice of pgxpool.Pool the repository uses. Tests swap
// in a pgxmock pool.
type pgxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in Postgres via pgx.
type PostgresRepository struct {
	db pgxBeginner
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithExec(db pgxBeginner) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, calendar_id, slot_rule_id, date::text, booker_name, booker_email,
		COALESCE(booker_phone, ''), COALESCE(notes, ''), COALESCE(prospect_id::text, ''),
		status, created_at`

// CreateWithCapacityCheck inserts the booking inside one transaction. It
// locks the slot rule row first so concurrent writers for the same rule
// serialize, then counts confirmed bookings for (slot rule, date) and only
// inserts while the count is below maxBookings.
func (r *PostgresRepository) CreateWithCapacityCheck(ctx context.Context, b *Booking, maxBookings int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bookings: begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	var ruleID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM slot_rules WHERE id = $1 FOR UPDATE`,
		b.SlotRuleID,
	).Scan(&ruleID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrRuleNotApplicable
		}
		return fmt.Errorf("bookings: lock slot rule: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE slot_rule_id = $1 AND date = $2 AND status = 'CONFIRMED'`,
		b.SlotRuleID, b.Date,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("bookings: count existing: %w", err)
	}
	if count >= maxBookings {
		return ErrCapacityExceeded
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (calendar_id, slot_rule_id, date, booker_name, booker_email,
			booker_phone, notes, prospect_id, status)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, '')::uuid, $9)
		 RETURNING id, created_at`,
		b.CalendarID, b.SlotRuleID, b.Date, b.BookerName, b.BookerEmail,
		b.BookerPhone, b.Notes, b.ProspectID, StatusConfirmed,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	b.Status = StatusConfirmed

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: get booking: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByCalendar(ctx context.Context, calendarID string, limit, offset int) ([]*Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE calendar_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		calendarID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("bookings: list by calendar: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate bookings: %w", err)
	}
	return out, nil
}

// CountByRuleAndDateRange returns confirmed-booking counts grouped by
// (slot rule, date) for the calendar within the inclusive range.
func (r *PostgresRepository) CountByRuleAndDateRange(ctx context.Context, calendarID, fromDate, toDate string) (availability.Tally, error) {
	rows, err := r.db.Query(ctx,
		`SELECT slot_rule_id, date::text, COUNT(*) FROM bookings
		 WHERE calendar_id = $1 AND date >= $2 AND date <= $3 AND status = 'CONFIRMED'
		 GROUP BY slot_rule_id, date`,
		calendarID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("bookings: count by rule and date: %w", err)
	}
	defer rows.Close()

	tally := make(availability.Tally)
	for rows.Next() {
		var ruleID, date string
		var count int
		if err := rows.Scan(&ruleID, &date, &count); err != nil {
			return nil, fmt.Errorf("bookings: scan tally row: %w", err)
		}
		tally[availability.RuleDate{RuleID: ruleID, Date: date}] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate tally: %w", err)
	}
	return tally, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.CalendarID, &b.SlotRuleID, &b.Date, &b.BookerName,
		&b.BookerEmail, &b.BookerPhone, &b.Notes, &b.ProspectID, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
