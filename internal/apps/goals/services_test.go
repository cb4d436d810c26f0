package goals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestPresetCreateNormalizesMacros(t *testing.T) {
	f := newFixture("2024-06-01", false)
	svc := NewPresetService(f.presets, nil)
	user := uuid.New()

	req := PresetRequest{PresetName: "Bulk"}
	req.Calories = 3000
	req.Protein = 999
	req.ProteinPercentage = floatPtr(30)
	req.CarbsPercentage = floatPtr(45)
	req.FatPercentage = floatPtr(25)

	p, err := svc.Create(context.Background(), user, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !approx(p.Protein, 225) || !approx(p.Carbs, 337.5) || !approx(p.Fat, 3000*0.25/9) {
		t.Fatalf("grams not derived from percentages: %+v", p.Targets)
	}
	if p.UserID != user || p.ID == uuid.Nil {
		t.Fatalf("ownership not set: %+v", p)
	}
	if *req.ProteinPercentage != 30 {
		t.Fatal("request percentages were mutated")
	}
}

func TestPresetValidation(t *testing.T) {
	svc := NewPresetService(newFakePresetStore(), nil)
	cases := []struct {
		name string
		req  PresetRequest
	}{
		{"missing name", PresetRequest{}},
		{"negative percentage", PresetRequest{PresetName: "x", Targets: Targets{CarbsPercentage: floatPtr(-1)}}},
		{"percentage above 100", PresetRequest{PresetName: "x", Targets: Targets{SnacksPercentage: floatPtr(101)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tc.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPresetMutationsInvalidateCache(t *testing.T) {
	f := newFixture("2024-06-01", true)
	svc := NewPresetService(f.presets, f.cache)
	ctx := context.Background()
	user := uuid.New()

	p, err := svc.Create(ctx, user, PresetRequest{PresetName: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gen := func() string { return string(f.kv.data[generationKey(user)]) }
	if gen() != "1" {
		t.Fatalf("generation after create = %q", gen())
	}
	if _, err := svc.Update(ctx, user, p.ID, PresetRequest{PresetName: "B"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, user, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gen() != "3" {
		t.Fatalf("generation after update and delete = %q", gen())
	}
	if err := svc.Delete(ctx, user, p.ID); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestActivatingPlanDeactivatesOthers(t *testing.T) {
	f := newFixture("2024-06-01", false)
	svc := NewWeeklyPlanService(f.plans, f.resolver, nil, f.publisher)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Create(ctx, user, WeeklyPlanRequest{PlanName: "A", StartDate: mustDate("2024-01-01"), IsActive: true})
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	second, err := svc.Create(ctx, user, WeeklyPlanRequest{PlanName: "B", StartDate: mustDate("2024-02-01"), IsActive: true})
	if err != nil {
		t.Fatalf("Create B: %v", err)
	}

	if n := f.plans.activeCount(user); n != 1 {
		t.Fatalf("active plans = %d, want 1", n)
	}
	got, err := svc.Get(ctx, user, first.ID)
	if err != nil || got.IsActive {
		t.Fatalf("first plan still active: %+v %v", got, err)
	}

	active, err := svc.Active(ctx, user, mustDate("2024-03-04"))
	if err != nil || active == nil || active.ID != second.ID {
		t.Fatalf("Active = %+v, %v", active, err)
	}

	if len(f.publisher.events) != 2 {
		t.Fatalf("events = %d, want 2", len(f.publisher.events))
	}
	ev, ok := f.publisher.events[1].Payload.(PlanActivated)
	if !ok || ev.PlanID != second.ID || f.publisher.events[1].Key != user.String() {
		t.Fatalf("unexpected event %+v", f.publisher.events[1])
	}
}

func TestInactivePlanPublishesNothing(t *testing.T) {
	f := newFixture("2024-06-01", false)
	svc := NewWeeklyPlanService(f.plans, f.resolver, nil, f.publisher)

	if _, err := svc.Create(context.Background(), uuid.New(), WeeklyPlanRequest{PlanName: "Draft", StartDate: mustDate("2024-01-01")}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("events = %+v", f.publisher.events)
	}
}

func TestPlanValidation(t *testing.T) {
	svc := NewWeeklyPlanService(newFakePlanStore(), nil, nil, nil)
	cases := []struct {
		name string
		req  WeeklyPlanRequest
	}{
		{"missing name", WeeklyPlanRequest{StartDate: mustDate("2024-01-01")}},
		{"missing start", WeeklyPlanRequest{PlanName: "x"}},
		{"end before start", WeeklyPlanRequest{PlanName: "x", StartDate: mustDate("2024-01-02"), EndDate: datePtrOf("2024-01-01")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tc.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	sameDay := WeeklyPlanRequest{PlanName: "one day", StartDate: mustDate("2024-01-01"), EndDate: datePtrOf("2024-01-01")}
	if _, err := svc.Create(context.Background(), uuid.New(), sameDay); err != nil {
		t.Fatalf("single-day plan rejected: %v", err)
	}
}

func TestPlanStoreErrorsPropagate(t *testing.T) {
	f := newFixture("2024-06-01", false)
	f.plans.err = ErrPlanActivationConflict
	svc := NewWeeklyPlanService(f.plans, f.resolver, nil, f.publisher)

	_, err := svc.Create(context.Background(), uuid.New(), WeeklyPlanRequest{PlanName: "A", StartDate: mustDate("2024-01-01"), IsActive: true})
	if !errors.Is(err, ErrPlanActivationConflict) {
		t.Fatalf("err = %v", err)
	}
	if len(f.publisher.events) != 0 {
		t.Fatal("failed write must not publish")
	}
}
