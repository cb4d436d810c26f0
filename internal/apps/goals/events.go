package goals

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	EventTimelineChanged = "goal.timeline.changed"
	EventPlanActivated   = "goal.plan.activated"
)

// Publisher emits domain events after a write has committed.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type TimelineChanged struct {
	UserID    uuid.UUID     `json:"user_id"`
	StartDate Date          `json:"start_date"`
	Scope     TimelineScope `json:"scope"`
	Removed   int64         `json:"removed_overrides"`
}

type PlanActivated struct {
	UserID    uuid.UUID `json:"user_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	StartDate Date      `json:"start_date"`
	EndDate   *Date     `json:"end_date"`
}

// publish never fails the caller; the write it reports has already committed.
func publish(ctx context.Context, pub Publisher, eventType string, userID uuid.UUID, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, eventType, userID.String(), payload); err != nil {
		slog.Error("failed to publish goal event",
			"component", "goals", "action", eventType,
			"user_id", userID.String(), "error", err)
	}
}
