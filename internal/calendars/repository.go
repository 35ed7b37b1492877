package calendars

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for calendar and slot rule storage
type Repository interface {
	CreateCalendar(ctx context.Context, req *CreateCalendarRequest) (*Calendar, error)
	GetCalendar(ctx context.Context, id string) (*Calendar, error)
	GetCalendarBySlug(ctx context.Context, slug string) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]*Calendar, error)
	UpdateCalendar(ctx context.Context, id string, req *UpdateCalendarRequest) (*Calendar, error)
	DeleteCalendar(ctx context.Context, id string) error

	CreateSlotRule(ctx context.Context, req *CreateSlotRuleRequest) (*SlotRule, error)
	GetSlotRule(ctx context.Context, id string) (*SlotRule, error)
	ListSlotRules(ctx context.Context, calendarID string) ([]*SlotRule, error)
	UpdateSlotRule(ctx context.Context, id string, req *UpdateSlotRuleRequest) (*SlotRule, error)
	DeleteSlotRule(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory Repository used in tests and local
// development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	calendars map[string]*Calendar
	rules     map[string]*SlotRule
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		calendars: make(map[string]*Calendar),
		rules:     make(map[string]*SlotRule),
	}
}

// CreateCalendar stores a new calendar.
func (r *InMemoryRepository) CreateCalendar(ctx context.Context, req *CreateCalendarRequest) (*Calendar, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	cal := &Calendar{
		ID:                  uuid.New().String(),
		Name:                req.Name,
		Color:               req.Color,
		Type:                req.Type,
		Visibility:          req.Visibility,
		SlotDurationMinutes: req.SlotDurationMinutes,
		IsPublicBookable:    req.IsPublicBookable,
		PublicSlug:          req.PublicSlug,
		Timezone:            req.Timezone,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	r.mu.Lock()
	r.calendars[cal.ID] = cal
	r.mu.Unlock()

	return cloneCalendar(cal), nil
}

// GetCalendar retrieves a calendar by ID
func (r *InMemoryRepository) GetCalendar(ctx context.Context, id string) (*Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cal, ok := r.calendars[id]
	if !ok {
		return nil, ErrCalendarNotFound
	}
	return cloneCalendar(cal), nil
}

// GetCalendarBySlug retrieves a calendar by its public slug.
func (r *InMemoryRepository) GetCalendarBySlug(ctx context.Context, slug string) (*Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cal := range r.calendars {
		if cal.PublicSlug == slug {
			return cloneCalendar(cal), nil
		}
	}
	return nil, ErrCalendarNotFound
}

// ListCalendars returns all calendars sorted by name.
func (r *InMemoryRepository) ListCalendars(ctx context.Context) ([]*Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Calendar, 0, len(r.calendars))
	for _, cal := range r.calendars {
		out = append(out, cloneCalendar(cal))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateCalendar applies the non-nil fields of req.
func (r *InMemoryRepository) UpdateCalendar(ctx context.Context, id string, req *UpdateCalendarRequest) (*Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cal, ok := r.calendars[id]
	if !ok {
		return nil, ErrCalendarNotFound
	}
	if req.Name != nil {
		cal.Name = *req.Name
	}
	if req.Color != nil {
		cal.Color = *req.Color
	}
	if req.Visibility != nil {
		cal.Visibility = *req.Visibility
	}
	if req.SlotDurationMinutes != nil {
		cal.SlotDurationMinutes = req.SlotDurationMinutes
	}
	if req.IsPublicBookable != nil {
		cal.IsPublicBookable = *req.IsPublicBookable
	}
	if req.PublicSlug != nil {
		cal.PublicSlug = *req.PublicSlug
	}
	if req.Timezone != nil {
		cal.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		cal.IsActive = *req.IsActive
	}
	cal.UpdatedAt = time.Now().UTC()
	return cloneCalendar(cal), nil
}

// DeleteCalendar removes a calendar and its slot rules.
func (r *InMemoryRepository) DeleteCalendar(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.calendars[id]; !ok {
		return ErrCalendarNotFound
	}
	delete(r.calendars, id)
	for ruleID, rule := range r.rules {
		if rule.CalendarID == id {
			delete(r.rules, ruleID)
		}
	}
	return nil
}

// CreateSlotRule stores a new slot rule for an existing calendar.
func (r *InMemoryRepository) CreateSlotRule(ctx context.Context, req *CreateSlotRuleRequest) (*SlotRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.calendars[req.CalendarID]; !ok {
		return nil, ErrCalendarNotFound
	}
	rule := &SlotRule{
		ID:           uuid.New().String(),
		CalendarID:   req.CalendarID,
		IsRecurring:  req.IsRecurring,
		DayOfWeek:    req.DayOfWeek,
		SpecificDate: req.SpecificDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Timezone:     req.Timezone,
		MaxBookings:  req.MaxBookings,
		CreatedAt:    time.Now().UTC(),
	}
	r.rules[rule.ID] = rule
	return cloneRule(rule), nil
}

// GetSlotRule retrieves a slot rule by ID
func (r *InMemoryRepository) GetSlotRule(ctx context.Context, id string) (*SlotRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrSlotRuleNotFound
	}
	return cloneRule(rule), nil
}

// ListSlotRules returns the slot rules of a calendar ordered by start time.
func (r *InMemoryRepository) ListSlotRules(ctx context.Context, calendarID string) ([]*SlotRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*SlotRule
	for _, rule := range r.rules {
		if rule.CalendarID == calendarID {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateSlotRule applies the non-nil fields of req. The merged rule is
// validated before it replaces the stored one.
func (r *InMemoryRepository) UpdateSlotRule(ctx context.Context, id string, req *UpdateSlotRuleRequest) (*SlotRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrSlotRuleNotFound
	}
	merged := cloneRule(rule)
	if err := req.Apply(merged); err != nil {
		return nil, err
	}
	r.rules[id] = merged
	return cloneRule(merged), nil
}

// DeleteSlotRule removes a slot rule.
func (r *InMemoryRepository) DeleteSlotRule(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[id]; !ok {
		return ErrSlotRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

func cloneCalendar(c *Calendar) *Calendar {
	cp := *c
	if c.SlotDurationMinutes != nil {
		v := *c.SlotDurationMinutes
		cp.SlotDurationMinutes = &v
	}
	return &cp
}

func cloneRule(r *SlotRule) *SlotRule {
	cp := *r
	if r.DayOfWeek != nil {
		v := *r.DayOfWeek
		cp.DayOfWeek = &v
	}
	return &cp
}
