package calendars

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores calendars and slot rules in the relational
// database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("calendars: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithExec(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("calendars: exec required")
	}
	return &PostgresRepository{db: db}
}

const calendarColumns = `id, name, color, type, visibility, slot_duration_minutes,
		is_public_bookable, public_slug, timezone, is_active, created_at, updated_at`

// CreateCalendar inserts a new row.
func (r *PostgresRepository) CreateCalendar(ctx context.Context, req *CreateCalendarRequest) (*Calendar, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO calendars (id, name, color, type, visibility, slot_duration_minutes,
			is_public_bookable, public_slug, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + calendarColumns
	row := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Color,
		req.Type,
		req.Visibility,
		req.SlotDurationMinutes,
		req.IsPublicBookable,
		nullIfEmpty(req.PublicSlug),
		req.Timezone,
	)
	cal, err := scanCalendar(row)
	if err != nil {
		return nil, fmt.Errorf("calendars: insert failed: %w", err)
	}
	return cal, nil
}

// GetCalendar fetches a calendar by id.
func (r *PostgresRepository) GetCalendar(ctx context.Context, id string) (*Calendar, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendars WHERE id = $1`
	cal, err := scanCalendar(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("calendars: select failed: %w", err)
	}
	return cal, nil
}

// GetCalendarBySlug fetches a calendar by its public slug.
func (r *PostgresRepository) GetCalendarBySlug(ctx context.Context, slug string) (*Calendar, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendars WHERE public_slug = $1`
	cal, err := scanCalendar(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("calendars: select by slug failed: %w", err)
	}
	return cal, nil
}

// ListCalendars returns all calendars ordered by name.
func (r *PostgresRepository) ListCalendars(ctx context.Context) ([]*Calendar, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendars ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("calendars: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Calendar
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("calendars: scan failed: %w", err)
		}
		out = append(out, cal)
	}
	return out, rows.Err()
}

// UpdateCalendar applies the non-nil fields of req via COALESCE.
func (r *PostgresRepository) UpdateCalendar(ctx context.Context, id string, req *UpdateCalendarRequest) (*Calendar, error) {
	query := `
		UPDATE calendars
		SET name = COALESCE($2, name),
			color = COALESCE($3, color),
			visibility = COALESCE($4, visibility),
			slot_duration_minutes = COALESCE($5, slot_duration_minutes),
			is_public_bookable = COALESCE($6, is_public_bookable),
			public_slug = COALESCE($7, public_slug),
			timezone = COALESCE($8, timezone),
			is_active = COALESCE($9, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + calendarColumns
	row := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Color,
		req.Visibility,
		req.SlotDurationMinutes,
		req.IsPublicBookable,
		req.PublicSlug,
		req.Timezone,
		req.IsActive,
	)
	cal, err := scanCalendar(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("calendars: update failed: %w", err)
	}
	return cal, nil
}

// DeleteCalendar removes a calendar; slot rules and bookings cascade.
func (r *PostgresRepository) DeleteCalendar(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("calendars: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCalendarNotFound
	}
	return nil
}

const slotRuleColumns = `id, calendar_id, is_recurring, day_of_week, specific_date,
		start_time, end_time, timezone, max_bookings, created_at`

// CreateSlotRule inserts a new slot rule row.
func (r *PostgresRepository) CreateSlotRule(ctx context.Context, req *CreateSlotRuleRequest) (*SlotRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO slot_rules (id, calendar_id, is_recurring, day_of_week, specific_date,
			start_time, end_time, timezone, max_bookings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + slotRuleColumns
	row := r.db.QueryRow(ctx, query,
		id,
		req.CalendarID,
		req.IsRecurring,
		req.DayOfWeek,
		nullIfEmpty(req.SpecificDate),
		req.StartTime,
		req.EndTime,
		req.Timezone,
		req.MaxBookings,
	)
	rule, err := scanSlotRule(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("calendars: insert slot rule failed: %w", err)
	}
	return rule, nil
}

// GetSlotRule fetches a slot rule by id.
func (r *PostgresRepository) GetSlotRule(ctx context.Context, id string) (*SlotRule, error) {
	query := `SELECT ` + slotRuleColumns + ` FROM slot_rules WHERE id = $1`
	rule, err := scanSlotRule(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotRuleNotFound
		}
		return nil, fmt.Errorf("calendars: select slot rule failed: %w", err)
	}
	return rule, nil
}

// ListSlotRules returns the rules of a calendar ordered by start time.
func (r *PostgresRepository) ListSlotRules(ctx context.Context, calendarID string) ([]*SlotRule, error) {
	query := `SELECT ` + slotRuleColumns + `
		FROM slot_rules
		WHERE calendar_id = $1
		ORDER BY start_time, id`
	rows, err := r.db.Query(ctx, query, calendarID)
	if err != nil {
		return nil, fmt.Errorf("calendars: list slot rules failed: %w", err)
	}
	defer rows.Close()

	var out []*SlotRule
	for rows.Next() {
		rule, err := scanSlotRule(rows)
		if err != nil {
			return nil, fmt.Errorf("calendars: scan slot rule failed: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// UpdateSlotRule applies the non-nil fields of req. The merged rule has to
// pass validation before the row is written, so this reads the current row
// first instead of patching in SQL.
func (r *PostgresRepository) UpdateSlotRule(ctx context.Context, id string, req *UpdateSlotRuleRequest) (*SlotRule, error) {
	rule, err := r.GetSlotRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(rule); err != nil {
		return nil, err
	}

	query := `
		UPDATE slot_rules
		SET is_recurring = $2,
			day_of_week = $3,
			specific_date = $4,
			start_time = $5,
			end_time = $6,
			timezone = $7,
			max_bookings = $8
		WHERE id = $1
		RETURNING ` + slotRuleColumns
	row := r.db.QueryRow(ctx, query,
		id,
		rule.IsRecurring,
		rule.DayOfWeek,
		nullIfEmpty(rule.SpecificDate),
		rule.StartTime,
		rule.EndTime,
		rule.Timezone,
		rule.MaxBookings,
	)
	updated, err := scanSlotRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotRuleNotFound
		}
		return nil, fmt.Errorf("calendars: update slot rule failed: %w", err)
	}
	return updated, nil
}

// DeleteSlotRule removes a slot rule.
func (r *PostgresRepository) DeleteSlotRule(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM slot_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("calendars: delete slot rule failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSlotRuleNotFound
	}
	return nil
}

func scanCalendar(row pgx.Row) (*Calendar, error) {
	var cal Calendar
	var slug *string
	if err := row.Scan(
		&cal.ID,
		&cal.Name,
		&cal.Color,
		&cal.Type,
		&cal.Visibility,
		&cal.SlotDurationMinutes,
		&cal.IsPublicBookable,
		&slug,
		&cal.Timezone,
		&cal.IsActive,
		&cal.CreatedAt,
		&cal.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if slug != nil {
		cal.PublicSlug = *slug
	}
	return &cal, nil
}

func scanSlotRule(row pgx.Row) (*SlotRule, error) {
	var rule SlotRule
	var specificDate *string
	if err := row.Scan(
		&rule.ID,
		&rule.CalendarID,
		&rule.IsRecurring,
		&rule.DayOfWeek,
		&specificDate,
		&rule.StartTime,
		&rule.EndTime,
		&rule.Timezone,
		&rule.MaxBookings,
		&rule.CreatedAt,
	); err != nil {
		return nil, err
	}
	if specificDate != nil {
		rule.SpecificDate = *specificDate
	}
	return &rule, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
