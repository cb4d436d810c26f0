package goals

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a stored target override for one user on one date. A nil GoalDate
// marks the user's default row.
type Goal struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_goals_user_date_key,priority:1" json:"user_id"`
	GoalDate  *Date     `gorm:"index" json:"goal_date"`
	DateKey   Date      `gorm:"not null;uniqueIndex:idx_user_goals_user_date_key,priority:2" json:"-"`
	Targets   `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Goal) TableName() string { return "user_goals" }

// IsDefault reports whether g is the user's null-date baseline.
func (g *Goal) IsDefault() bool { return g.GoalDate == nil }

func dateKeyFor(goalDate *Date) Date {
	if goalDate == nil {
		return Date{defaultDateKey}
	}
	return *goalDate
}

// GoalPreset is a named, reusable bundle of targets referenced by weekly plans.
type GoalPreset struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PresetName string    `gorm:"size:255;not null" json:"preset_name"`
	Targets    `gorm:"embedded"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (GoalPreset) TableName() string { return "goal_presets" }

// PlanSlots maps each weekday to an optional preset id.
type PlanSlots struct {
	MondayPresetID    *uuid.UUID `gorm:"type:uuid" json:"monday_preset_id"`
	TuesdayPresetID   *uuid.UUID `gorm:"type:uuid" json:"tuesday_preset_id"`
	WednesdayPresetID *uuid.UUID `gorm:"type:uuid" json:"wednesday_preset_id"`
	ThursdayPresetID  *uuid.UUID `gorm:"type:uuid" json:"thursday_preset_id"`
	FridayPresetID    *uuid.UUID `gorm:"type:uuid" json:"friday_preset_id"`
	SaturdayPresetID  *uuid.UUID `gorm:"type:uuid" json:"saturday_preset_id"`
	SundayPresetID    *uuid.UUID `gorm:"type:uuid" json:"sunday_preset_id"`
}

// PresetFor returns the slot for the given weekday (Sunday=0 .. Saturday=6).
func (s PlanSlots) PresetFor(day time.Weekday) *uuid.UUID {
	switch day {
	case time.Sunday:
		return s.SundayPresetID
	case time.Monday:
		return s.MondayPresetID
	case time.Tuesday:
		return s.TuesdayPresetID
	case time.Wednesday:
		return s.WednesdayPresetID
	case time.Thursday:
		return s.ThursdayPresetID
	case time.Friday:
		return s.FridayPresetID
	case time.Saturday:
		return s.SaturdayPresetID
	}
	return nil
}

var slotColumns = []string{
	"monday_preset_id", "tuesday_preset_id", "wednesday_preset_id", "thursday_preset_id",
	"friday_preset_id", "saturday_preset_id", "sunday_preset_id",
}

// WeeklyPlan assigns presets to weekdays over a date range. At most one plan
// per user is active; the partial unique index backs that up.
type WeeklyPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_weekly_goal_plans_one_active,where:is_active" json:"user_id"`
	PlanName  string    `gorm:"size:255;not null" json:"plan_name"`
	StartDate Date      `gorm:"not null" json:"start_date"`
	EndDate   *Date     `json:"end_date"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	PlanSlots `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WeeklyPlan) TableName() string { return "weekly_goal_plans" }

// Covers reports whether d lies within [StartDate, EndDate]; a nil EndDate is open-ended.
func (p *WeeklyPlan) Covers(d Date) bool {
	if d.Before(p.StartDate) {
		return false
	}
	return p.EndDate == nil || !d.After(*p.EndDate)
}

// Source names the precedence step that produced an EffectiveGoals.
type Source string

const (
	SourceOverride      Source = "override"
	SourceWeeklyPlan    Source = "weekly_plan"
	SourcePriorOverride Source = "prior_override"
	SourceDefaultRow    Source = "default_row"
	SourceFallback      Source = "fallback"
)

// EffectiveGoals is the resolved targets for one user on one date.
type EffectiveGoals struct {
	Date     Date       `json:"date"`
	Source   Source     `json:"source"`
	PresetID *uuid.UUID `json:"preset_id,omitempty"`
	Targets
}

// TimelineScope tells a caller how far a timeline edit reached.
type TimelineScope string

const (
	ScopeSingleDay TimelineScope = "single-day"
	ScopeCascaded  TimelineScope = "cascaded"
)

type TimelineResult struct {
	Scope     TimelineScope `json:"scope"`
	StartDate Date          `json:"start_date"`
	Message   string        `json:"message"`
}
