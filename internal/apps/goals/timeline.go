package goals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TimelineManager applies goal edits. An edit for a past date, or without
// cascade, overrides one day. A cascaded edit for today or later becomes the
// new baseline: dated overrides in the following CascadeWindowMonths are
// cleared and the default row is dropped, so later dates inherit the
// baseline through the resolver's most-recent-prior step.
type TimelineManager struct {
	goals     GoalStore
	cache     *ResolutionCache
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
}

// NewTimelineManager builds a manager. cache and publisher may be nil; loc
// defines "today" for the past-date check and defaults to UTC.
func NewTimelineManager(goals GoalStore, cache *ResolutionCache, publisher Publisher, loc *time.Location) *TimelineManager {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineManager{
		goals:     goals,
		cache:     cache,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// Today is the current calendar date in the manager's time zone.
func (m *TimelineManager) Today() Date {
	return DateOf(m.now().In(m.loc))
}

func (m *TimelineManager) ApplyTimelineEdit(ctx context.Context, userID uuid.UUID, req TimelineRequest) (*TimelineResult, error) {
	if req.StartDate == "" {
		return nil, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	targets := req.Targets()
	isPast := start.Before(m.Today())

	var (
		scope   TimelineScope
		removed int64
	)
	if !bool(req.Cascade) || isPast {
		scope = ScopeSingleDay
		if err := m.goals.Upsert(ctx, &Goal{UserID: userID, GoalDate: datePtr(start), Targets: targets}); err != nil {
			return nil, err
		}
	} else {
		scope = ScopeCascaded
		removed, err = m.cascade(ctx, userID, start, targets)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("goal timeline updated",
		"component", "goals", "action", "manage_timeline",
		"user_id", userID.String(), "start_date", start.String(),
		"scope", string(scope), "removed", removed)

	m.cache.Invalidate(ctx, userID)
	publish(ctx, m.publisher, EventTimelineChanged, userID, TimelineChanged{
		UserID:    userID,
		StartDate: start,
		Scope:     scope,
		Removed:   removed,
	})

	return &TimelineResult{
		Scope:     scope,
		StartDate: start,
		Message:   timelineMessage(scope),
	}, nil
}

// cascade clears the window, writes the baseline and drops the default row
// in one transaction, in that order.
func (m *TimelineManager) cascade(ctx context.Context, userID uuid.UUID, start Date, targets Targets) (int64, error) {
	windowEnd := start.AddMonths(CascadeWindowMonths)
	var removed int64
	err := m.goals.InTx(ctx, func(tx GoalStore) error {
		n, err := tx.DeleteRange(ctx, userID, start, windowEnd)
		if err != nil {
			return err
		}
		removed = n
		if err := tx.Upsert(ctx, &Goal{UserID: userID, GoalDate: datePtr(start), Targets: targets}); err != nil {
			return err
		}
		_, err = tx.DeleteDefault(ctx, userID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("cascade goal timeline: %w", err)
	}
	return removed, nil
}

func timelineMessage(scope TimelineScope) string {
	if scope == ScopeCascaded {
		return "Goal timeline updated from the start date onward"
	}
	return "Goal updated for the selected date"
}

// SetDefault writes the user's default (null-date) row.
func (m *TimelineManager) SetDefault(ctx context.Context, userID uuid.UUID, req DefaultGoalRequest) (*Goal, error) {
	g := &Goal{UserID: userID, Targets: req.Targets()}
	if err := m.goals.Upsert(ctx, g); err != nil {
		return nil, err
	}

	slog.Info("default goal updated", "component", "goals", "action", "set_default", "user_id", userID.String())

	m.cache.Invalidate(ctx, userID)
	publish(ctx, m.publisher, EventTimelineChanged, userID, TimelineChanged{
		UserID: userID,
		Scope:  ScopeSingleDay,
	})
	return g, nil
}
