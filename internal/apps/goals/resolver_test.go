package goals

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestResolveNoRowsReturnsFallback(t *testing.T) {
	f := newFixture("2024-03-01", false)
	user := uuid.New()

	for _, d := range []string{"1999-12-31", "2024-03-01", "2031-07-15"} {
		eff, err := f.resolver.Resolve(context.Background(), user, mustDate(d))
		if err != nil {
			t.Fatalf("resolve %s: %v", d, err)
		}
		if eff.Source != SourceFallback {
			t.Fatalf("%s: source = %s, want fallback", d, eff.Source)
		}
		if eff.Calories != 2000 || eff.Protein != 150 || eff.WaterGoalML != 1920 {
			t.Fatalf("%s: unexpected fallback targets %+v", d, eff.Targets)
		}
		if eff.ProteinPercentage != nil || *eff.BreakfastPercentage != 25 {
			t.Fatalf("%s: unexpected fallback percentages", d)
		}
	}
}

func TestResolveNilUserShortCircuits(t *testing.T) {
	f := newFixture("2024-03-01", true)
	eff, err := f.resolver.Resolve(context.Background(), uuid.Nil, mustDate("2024-03-01"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Source != SourceFallback {
		t.Fatalf("source = %s, want fallback", eff.Source)
	}
	if f.kv.gets != 0 {
		t.Fatalf("nil user should not touch the cache, got %d reads", f.kv.gets)
	}
}

func TestResolveExactOverrideWins(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()

	preset := &GoalPreset{UserID: user, PresetName: "Plan day", Targets: Targets{Calories: 2500}}
	_ = f.presets.Create(ctx, preset)
	f.plans.insertRaw(WeeklyPlan{
		UserID: user, PlanName: "Every day", StartDate: mustDate("2024-01-01"), IsActive: true,
		PlanSlots: PlanSlots{MondayPresetID: &preset.ID},
	})
	f.goals.put(user, nil, Targets{Calories: 1500})
	f.goals.put(user, datePtrOf("2024-03-04"), Targets{Calories: 1234})

	eff, err := f.resolver.Resolve(ctx, user, mustDate("2024-03-04"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Source != SourceOverride || eff.Calories != 1234 {
		t.Fatalf("got %s/%v, want override/1234", eff.Source, eff.Calories)
	}
}

func TestResolveWeeklyPlanMondayPreset(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()

	preset := &GoalPreset{UserID: user, PresetName: "HighProtein", Targets: Targets{Calories: 2200, Protein: 180}}
	_ = f.presets.Create(ctx, preset)
	f.plans.insertRaw(WeeklyPlan{
		UserID: user, PlanName: "Training", StartDate: mustDate("2024-01-01"), IsActive: true,
		PlanSlots: PlanSlots{MondayPresetID: &preset.ID},
	})

	eff, err := f.resolver.Resolve(ctx, user, mustDate("2024-03-04"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Source != SourceWeeklyPlan {
		t.Fatalf("source = %s, want weekly_plan", eff.Source)
	}
	if eff.Calories != 2200 || eff.Protein != 180 {
		t.Fatalf("got %v kcal / %v g protein, want 2200 / 180", eff.Calories, eff.Protein)
	}
	if eff.PresetID == nil || *eff.PresetID != preset.ID {
		t.Fatalf("preset id not reported")
	}

	// Tuesday has no slot and falls through to the fallback.
	eff, err = f.resolver.Resolve(ctx, user, mustDate("2024-03-05"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Source != SourceFallback {
		t.Fatalf("tuesday source = %s, want fallback", eff.Source)
	}
}

func TestResolvePlanEndDateIsInclusive(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()

	preset := &GoalPreset{UserID: user, PresetName: "Sun", Targets: Targets{Calories: 1900}}
	_ = f.presets.Create(ctx, preset)
	f.plans.insertRaw(WeeklyPlan{
		UserID: user, PlanName: "Short", StartDate: mustDate("2024-03-01"), EndDate: datePtrOf("2024-03-10"),
		IsActive: true, PlanSlots: PlanSlots{SundayPresetID: &preset.ID},
	})

	eff, _ := f.resolver.Resolve(ctx, user, mustDate("2024-03-10"))
	if eff.Source != SourceWeeklyPlan {
		t.Fatalf("end date: source = %s, want weekly_plan", eff.Source)
	}
	eff, _ = f.resolver.Resolve(ctx, user, mustDate("2024-03-17"))
	if eff.Source != SourceFallback {
		t.Fatalf("after end date: source = %s, want fallback", eff.Source)
	}
}

func TestResolveDanglingPresetFallsThrough(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()

	missing := uuid.New()
	f.plans.insertRaw(WeeklyPlan{
		UserID: user, PlanName: "Stale", StartDate: mustDate("2024-01-01"), IsActive: true,
		PlanSlots: PlanSlots{MondayPresetID: &missing},
	})
	f.goals.put(user, datePtrOf("2024-02-01"), Targets{Calories: 1700})

	eff, err := f.resolver.Resolve(ctx, user, mustDate("2024-03-04"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eff.Source != SourcePriorOverride || eff.Calories != 1700 {
		t.Fatalf("got %s/%v, want prior_override/1700", eff.Source, eff.Calories)
	}
}

func TestResolvePriorDatedRowOutranksDefault(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()

	f.goals.put(user, nil, Targets{Calories: 1500})
	f.goals.put(user, datePtrOf("2024-01-10"), Targets{Calories: 1600})
	f.goals.put(user, datePtrOf("2024-02-10"), Targets{Calories: 1700})
	f.goals.put(user, datePtrOf("2024-04-10"), Targets{Calories: 9999})

	eff, _ := f.resolver.Resolve(ctx, user, mustDate("2024-03-01"))
	if eff.Source != SourcePriorOverride || eff.Calories != 1700 {
		t.Fatalf("got %s/%v, want prior_override/1700", eff.Source, eff.Calories)
	}

	eff, _ = f.resolver.Resolve(ctx, user, mustDate("2024-01-01"))
	if eff.Source != SourceDefaultRow || eff.Calories != 1500 {
		t.Fatalf("got %s/%v, want default_row/1500", eff.Source, eff.Calories)
	}
}

func TestResolveNormalizesPercentages(t *testing.T) {
	f := newFixture("2024-03-01", false)
	user := uuid.New()

	f.goals.put(user, datePtrOf("2024-03-01"), Targets{
		Calories:          2000,
		Protein:           1,
		Carbs:             1,
		Fat:               1,
		ProteinPercentage: floatPtr(30),
		CarbsPercentage:   floatPtr(40),
		FatPercentage:     floatPtr(30),
	})

	eff, err := f.resolver.Resolve(context.Background(), user, mustDate("2024-03-01"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !approx(eff.Protein, 150) || !approx(eff.Carbs, 200) || !approx(eff.Fat, 2000*0.30/9) {
		t.Fatalf("grams not derived: %v/%v/%v", eff.Protein, eff.Carbs, eff.Fat)
	}
}

func TestResolveTwoActivePlansIsConflictingState(t *testing.T) {
	f := newFixture("2024-03-01", false)
	user := uuid.New()

	f.plans.insertRaw(WeeklyPlan{UserID: user, PlanName: "A", StartDate: mustDate("2024-01-01"), IsActive: true})
	f.plans.insertRaw(WeeklyPlan{UserID: user, PlanName: "B", StartDate: mustDate("2024-02-01"), IsActive: true})

	_, err := f.resolver.Resolve(context.Background(), user, mustDate("2024-03-04"))
	if !errors.Is(err, ErrConflictingState) {
		t.Fatalf("err = %v, want ErrConflictingState", err)
	}
}

func TestResolveIsolatesUsers(t *testing.T) {
	f := newFixture("2024-03-01", false)
	alice, bob := uuid.New(), uuid.New()
	f.goals.put(alice, datePtrOf("2024-03-01"), Targets{Calories: 1400})

	eff, _ := f.resolver.Resolve(context.Background(), bob, mustDate("2024-03-01"))
	if eff.Source != SourceFallback {
		t.Fatalf("bob sees alice's goals: %s", eff.Source)
	}
}

func TestResolveRange(t *testing.T) {
	f := newFixture("2024-03-01", false)
	ctx := context.Background()
	user := uuid.New()
	f.goals.put(user, datePtrOf("2024-03-02"), Targets{Calories: 1800})

	got, err := f.resolver.ResolveRange(ctx, user, mustDate("2024-03-01"), mustDate("2024-03-04"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	wantSources := []Source{SourceFallback, SourceOverride, SourcePriorOverride, SourcePriorOverride}
	for i, eff := range got {
		if eff.Source != wantSources[i] {
			t.Fatalf("day %d: source = %s, want %s", i, eff.Source, wantSources[i])
		}
	}

	if _, err := f.resolver.ResolveRange(ctx, user, mustDate("2024-03-04"), mustDate("2024-03-01")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("reversed range: err = %v", err)
	}
	if _, err := f.resolver.ResolveRange(ctx, user, mustDate("2024-01-01"), mustDate("2024-06-01")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized range: err = %v", err)
	}
}

func TestResolveUsesCacheUntilInvalidated(t *testing.T) {
	f := newFixture("2024-03-01", true)
	ctx := context.Background()
	user := uuid.New()
	date := mustDate("2024-03-10")

	first, err := f.resolver.Resolve(ctx, user, date)
	if err != nil || first.Source != SourceFallback {
		t.Fatalf("first resolve: %v %v", first, err)
	}

	// Written behind the cache's back: the cached fallback is still served.
	f.goals.put(user, &date, Targets{Calories: 1111})
	cached, _ := f.resolver.Resolve(ctx, user, date)
	if cached.Source != SourceFallback {
		t.Fatalf("expected cached fallback, got %s", cached.Source)
	}

	f.cache.Invalidate(ctx, user)
	fresh, _ := f.resolver.Resolve(ctx, user, date)
	if fresh.Source != SourceOverride || fresh.Calories != 1111 {
		t.Fatalf("after invalidation got %s/%v", fresh.Source, fresh.Calories)
	}
}
