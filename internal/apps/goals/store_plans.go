package goals

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WeeklyPlanStore persists weekly plans. Create and Update keep at most one
// active plan per user.
type WeeklyPlanStore interface {
	Create(ctx context.Context, p *WeeklyPlan) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]WeeklyPlan, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*WeeklyPlan, error)
	Update(ctx context.Context, p *WeeklyPlan) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// ActiveCovering returns every active plan whose range includes date,
	// newest start first.
	ActiveCovering(ctx context.Context, userID uuid.UUID, date Date) ([]WeeklyPlan, error)
}

var planUpdateColumns = append([]string{
	"plan_name", "start_date", "end_date", "is_active", "updated_at",
}, slotColumns...)

type gormPlanStore struct {
	db *gorm.DB
}

func NewWeeklyPlanStore(db *gorm.DB) WeeklyPlanStore {
	return &gormPlanStore{db: db}
}

func (s *gormPlanStore) Create(ctx context.Context, p *WeeklyPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.write(ctx, p, func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if err != nil {
		return s.wrap("create weekly plan", err)
	}
	return nil
}

func (s *gormPlanStore) Update(ctx context.Context, p *WeeklyPlan) error {
	err := s.write(ctx, p, func(tx *gorm.DB) error {
		result := tx.Model(&WeeklyPlan{}).
			Where("id = ? AND user_id = ?", p.ID, p.UserID).
			Select(planUpdateColumns).
			Updates(p)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPlanNotFound
		}
		return nil
	})
	if err != nil {
		return s.wrap("update weekly plan", err)
	}
	return nil
}

// write runs op in a transaction. When p is active the user's plans are
// locked and every other active plan is switched off first.
func (s *gormPlanStore) write(ctx context.Context, p *WeeklyPlan, op func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsActive {
			var locked []uuid.UUID
			if err := tx.Model(&WeeklyPlan{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Scopes(tenant.ForUser(p.UserID)).
				Pluck("id", &locked).Error; err != nil {
				return err
			}
			if err := tx.Model(&WeeklyPlan{}).
				Where("user_id = ? AND is_active = ? AND id <> ?", p.UserID, true, p.ID).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}
		return op(tx)
	})
}

func (s *gormPlanStore) wrap(op string, err error) error {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrPlanActivationConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *gormPlanStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]WeeklyPlan, error) {
	plans := make([]WeeklyPlan, 0)
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Order("start_date DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}
	return plans, nil
}

func (s *gormPlanStore) Get(ctx context.Context, userID, id uuid.UUID) (*WeeklyPlan, error) {
	var p WeeklyPlan
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("id = ?", id).
		Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get weekly plan: %w", err)
	}
	return &p, nil
}

func (s *gormPlanStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("id = ?", id).
		Delete(&WeeklyPlan{})
	if result.Error != nil {
		return fmt.Errorf("delete weekly plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *gormPlanStore) ActiveCovering(ctx context.Context, userID uuid.UUID, date Date) ([]WeeklyPlan, error) {
	plans := make([]WeeklyPlan, 0, 1)
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("is_active = ?", true).
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", date, date).
		Order("start_date DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("find active weekly plans: %w", err)
	}
	return plans, nil
}
