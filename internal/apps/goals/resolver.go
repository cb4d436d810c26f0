package goals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Resolver answers "what are this user's targets on this date". Precedence,
// first match wins: exact override, active weekly plan preset, most recent
// earlier override or the default row, injected fallback.
type Resolver struct {
	goals    GoalStore
	presets  PresetStore
	plans    WeeklyPlanStore
	fallback Targets
	cache    *ResolutionCache
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(goals GoalStore, presets PresetStore, plans WeeklyPlanStore, fallback Targets, cache *ResolutionCache) *Resolver {
	return &Resolver{
		goals:    goals,
		presets:  presets,
		plans:    plans,
		fallback: fallback,
		cache:    cache,
	}
}

func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, date Date) (*EffectiveGoals, error) {
	if userID == uuid.Nil {
		return effective(date, SourceFallback, nil, r.fallback), nil
	}

	cached, gen, hit := r.cache.Lookup(ctx, userID, date)
	if hit {
		return cached, nil
	}

	eff, err := r.resolve(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	r.cache.Store(ctx, userID, gen, date, eff)
	return eff, nil
}

func (r *Resolver) resolve(ctx context.Context, userID uuid.UUID, date Date) (*EffectiveGoals, error) {
	override, err := r.goals.FindByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if override != nil {
		return effective(date, SourceOverride, nil, override.Targets), nil
	}

	plan, err := r.ActivePlanOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if presetID := plan.PresetFor(date.Weekday()); presetID != nil {
			preset, err := r.presets.Get(ctx, userID, *presetID)
			switch {
			case err == nil:
				return effective(date, SourceWeeklyPlan, presetID, preset.Targets), nil
			case errors.Is(err, ErrPresetNotFound):
				slog.Warn("weekly plan references missing preset",
					"component", "goals", "user_id", userID.String(),
					"plan_id", plan.ID.String(), "preset_id", presetID.String())
			default:
				return nil, err
			}
		}
	}

	prior, err := r.goals.FindMostRecentBefore(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		source := SourcePriorOverride
		if prior.IsDefault() {
			source = SourceDefaultRow
		}
		return effective(date, source, nil, prior.Targets), nil
	}

	return effective(date, SourceFallback, nil, r.fallback), nil
}

// ActivePlanOn returns the active plan covering date, or nil. Two or more
// covering active plans is a corrupted state and yields ErrConflictingState.
func (r *Resolver) ActivePlanOn(ctx context.Context, userID uuid.UUID, date Date) (*WeeklyPlan, error) {
	plans, err := r.plans.ActiveCovering(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	switch len(plans) {
	case 0:
		return nil, nil
	case 1:
		return &plans[0], nil
	default:
		slog.Error("multiple active weekly plans",
			"component", "goals", "user_id", userID.String(),
			"date", date.String(), "count", len(plans))
		return nil, fmt.Errorf("%w: %d plans for user %s on %s", ErrConflictingState, len(plans), userID, date)
	}
}

// ResolveRange resolves every date in [from, to].
func (r *Resolver) ResolveRange(ctx context.Context, userID uuid.UUID, from, to Date) ([]EffectiveGoals, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end precedes start", ErrInvalidInput)
	}
	days := int(to.Sub(from.Time).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, MaxRangeDays)
	}

	result := make([]EffectiveGoals, 0, days)
	for d := from; !d.After(to); d = d.AddDays(1) {
		eff, err := r.Resolve(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		result = append(result, *eff)
	}
	return result, nil
}

func effective(date Date, source Source, presetID *uuid.UUID, t Targets) *EffectiveGoals {
	eff := &EffectiveGoals{
		Date:     date,
		Source:   source,
		PresetID: presetID,
		Targets:  t.Clone(),
	}
	eff.NormalizeMacros()
	return eff
}
