package goals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/validation"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type WeeklyPlanRequest struct {
	PlanName  string `json:"plan_name" validate:"required,max=255"`
	StartDate Date   `json:"start_date"`
	EndDate   *Date  `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	PlanSlots
}

type WeeklyPlanService struct {
	store     WeeklyPlanStore
	resolver  *Resolver
	cache     *ResolutionCache
	publisher Publisher
}

func NewWeeklyPlanService(store WeeklyPlanStore, resolver *Resolver, cache *ResolutionCache, publisher Publisher) *WeeklyPlanService {
	return &WeeklyPlanService{
		store:     store,
		resolver:  resolver,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *WeeklyPlanService) toModel(userID uuid.UUID, req WeeklyPlanRequest) (*WeeklyPlan, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if req.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end_date precedes start_date", ErrInvalidInput)
	}
	p := &WeeklyPlan{UserID: userID}
	if err := copier.Copy(p, &req); err != nil {
		return nil, fmt.Errorf("map weekly plan request: %w", err)
	}
	return p, nil
}

func (s *WeeklyPlanService) Create(ctx context.Context, userID uuid.UUID, req WeeklyPlanRequest) (*WeeklyPlan, error) {
	p, err := s.toModel(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p, "create_plan")
	return p, nil
}

func (s *WeeklyPlanService) List(ctx context.Context, userID uuid.UUID) ([]WeeklyPlan, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *WeeklyPlanService) Get(ctx context.Context, userID, id uuid.UUID) (*WeeklyPlan, error) {
	return s.store.Get(ctx, userID, id)
}

// Active returns the plan the resolver would use on date, or nil.
func (s *WeeklyPlanService) Active(ctx context.Context, userID uuid.UUID, date Date) (*WeeklyPlan, error) {
	return s.resolver.ActivePlanOn(ctx, userID, date)
}

func (s *WeeklyPlanService) Update(ctx context.Context, userID, id uuid.UUID, req WeeklyPlanRequest) (*WeeklyPlan, error) {
	p, err := s.toModel(userID, req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	updated, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, updated, "update_plan")
	return updated, nil
}

func (s *WeeklyPlanService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func (s *WeeklyPlanService) afterWrite(ctx context.Context, p *WeeklyPlan, action string) {
	s.cache.Invalidate(ctx, p.UserID)
	slog.Info("weekly goal plan saved",
		"component", "goals", "action", action,
		"user_id", p.UserID.String(), "plan_id", p.ID.String(), "is_active", p.IsActive)
	if p.IsActive {
		publish(ctx, s.publisher, EventPlanActivated, p.UserID, PlanActivated{
			UserID:    p.UserID,
			PlanID:    p.ID,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
		})
	}
}
