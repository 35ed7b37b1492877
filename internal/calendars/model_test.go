package calendars

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestSlotRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    SlotRule
		wantErr error
	}{
		{
			name: "valid recurring",
			rule: SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "10:00", MaxBookings: 2},
		},
		{
			name: "valid one-off",
			rule: SlotRule{SpecificDate: "2026-09-14", StartTime: "14:00", EndTime: "15:30", MaxBookings: 1},
		},
		{
			name:    "recurring without weekday",
			rule:    SlotRule{IsRecurring: true, StartTime: "09:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrRuleShape,
		},
		{
			name:    "recurring with specific date",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), SpecificDate: "2026-09-14", StartTime: "09:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrRuleShape,
		},
		{
			name:    "one-off without date",
			rule:    SlotRule{StartTime: "09:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrRuleShape,
		},
		{
			name:    "weekday out of range",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(7), StartTime: "09:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrInvalidDayOfWeek,
		},
		{
			name:    "malformed date",
			rule:    SlotRule{SpecificDate: "14.09.2026", StartTime: "09:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrInvalidDate,
		},
		{
			name:    "end before start",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "10:00", EndTime: "09:00", MaxBookings: 1},
			wantErr: ErrInvalidTimeWindow,
		},
		{
			name:    "zero length window",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "10:00", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrInvalidTimeWindow,
		},
		{
			name:    "garbage time",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "9am", EndTime: "10:00", MaxBookings: 1},
			wantErr: ErrInvalidTimeWindow,
		},
		{
			name:    "zero capacity",
			rule:    SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "10:00", MaxBookings: 0},
			wantErr: ErrInvalidCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid rule, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateSlotRuleRequestApply(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }
	strPtr := func(v string) *string { return &v }
	base := func() SlotRule {
		return SlotRule{IsRecurring: true, DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "10:00", MaxBookings: 2}
	}

	t.Run("partial patch keeps other fields", func(t *testing.T) {
		rule := base()
		req := UpdateSlotRuleRequest{MaxBookings: intPtr(5)}
		if err := req.Apply(&rule); err != nil {
			t.Fatalf("expected valid merge, got %v", err)
		}
		if rule.MaxBookings != 5 || rule.StartTime != "09:00" || *rule.DayOfWeek != 1 {
			t.Errorf("unexpected merged rule: %+v", rule)
		}
	})

	t.Run("switch to one-off clears weekday", func(t *testing.T) {
		rule := base()
		req := UpdateSlotRuleRequest{IsRecurring: boolPtr(false), SpecificDate: strPtr("2026-09-15")}
		if err := req.Apply(&rule); err != nil {
			t.Fatalf("expected valid merge, got %v", err)
		}
		if rule.IsRecurring || rule.DayOfWeek != nil || rule.SpecificDate != "2026-09-15" {
			t.Errorf("unexpected merged rule: %+v", rule)
		}
	})

	t.Run("switch without new shape field rejected", func(t *testing.T) {
		rule := base()
		req := UpdateSlotRuleRequest{IsRecurring: boolPtr(false)}
		if err := req.Apply(&rule); !errors.Is(err, ErrRuleShape) {
			t.Fatalf("expected ErrRuleShape, got %v", err)
		}
	})

	t.Run("merged window rejected", func(t *testing.T) {
		rule := base()
		req := UpdateSlotRuleRequest{EndTime: strPtr("08:00")}
		if err := req.Apply(&rule); !errors.Is(err, ErrInvalidTimeWindow) {
			t.Fatalf("expected ErrInvalidTimeWindow, got %v", err)
		}
	})

	t.Run("zero capacity rejected", func(t *testing.T) {
		rule := base()
		req := UpdateSlotRuleRequest{MaxBookings: intPtr(0)}
		if err := req.Apply(&rule); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("expected ErrInvalidCapacity, got %v", err)
		}
	})
}

func TestSlotRuleAppliesOn(t *testing.T) {
	monday := SlotRule{IsRecurring: true, DayOfWeek: intPtr(1)}
	// 2026-09-14 is a Monday.
	if !monday.AppliesOn("2026-09-14", time.Monday) {
		t.Error("recurring Monday rule should apply on a Monday")
	}
	if monday.AppliesOn("2026-09-15", time.Tuesday) {
		t.Error("recurring Monday rule should not apply on a Tuesday")
	}

	oneOff := SlotRule{SpecificDate: "2026-09-15"}
	if !oneOff.AppliesOn("2026-09-15", time.Tuesday) {
		t.Error("one-off rule should apply on its date")
	}
	if oneOff.AppliesOn("2026-09-22", time.Tuesday) {
		t.Error("one-off rule should not apply on a different date")
	}
}

func TestMinutesOfDay(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"09:00:00", 540, false}, // seconds suffix tolerated
		{"9:00", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := MinutesOfDay(c.input)
		if c.wantErr {
			if err == nil {
				t.Errorf("MinutesOfDay(%q): expected error", c.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("MinutesOfDay(%q): %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("MinutesOfDay(%q) = %d, want %d", c.input, got, c.want)
		}
	}
}

func TestCreateCalendarRequestValidate(t *testing.T) {
	req := CreateCalendarRequest{Name: "Coaching Sessions", Type: TypeBooking, Visibility: VisibilityPublic, IsPublicBookable: true, PublicSlug: "coaching"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	noName := CreateCalendarRequest{Type: TypeBooking}
	if err := noName.Validate(); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	badType := CreateCalendarRequest{Name: "x", Type: "WEEKLY"}
	if err := badType.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}

	bookableNoSlug := CreateCalendarRequest{Name: "x", Type: TypeBooking, IsPublicBookable: true}
	if err := bookableNoSlug.Validate(); !errors.Is(err, ErrMissingSlug) {
		t.Errorf("expected ErrMissingSlug, got %v", err)
	}

	defaults := CreateCalendarRequest{Name: "x"}
	if err := defaults.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if defaults.Type != TypeEvents || defaults.Visibility != VisibilityPrivate {
		t.Errorf("expected defaulted type/visibility, got %s/%s", defaults.Type, defaults.Visibility)
	}
}

func TestCalendarBookable(t *testing.T) {
	cal := Calendar{Type: TypeBooking, IsActive: true, IsPublicBookable: true}
	if !cal.Bookable() {
		t.Error("active public booking calendar should be bookable")
	}
	inactive := cal
	inactive.IsActive = false
	if inactive.Bookable() {
		t.Error("inactive calendar should not be bookable")
	}
	events := cal
	events.Type = TypeEvents
	if events.Bookable() {
		t.Error("events calendar should not be bookable")
	}
}

func TestCalendarLocation(t *testing.T) {
	cal := Calendar{Timezone: "Europe/Berlin"}
	if got := cal.Location("UTC"); got.String() != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin, got %s", got)
	}
	empty := Calendar{}
	if got := empty.Location("America/New_York"); got.String() != "America/New_York" {
		t.Errorf("expected fallback, got %s", got)
	}
	broken := Calendar{Timezone: "Not/AZone"}
	if got := broken.Location(""); got != time.UTC {
		t.Errorf("expected UTC fallback, got %s", got)
	}
}
