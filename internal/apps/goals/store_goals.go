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

// GoalStore persists per-date overrides and the default row.
type GoalStore interface {
	// FindByDate returns the override stored for exactly date, or nil.
	FindByDate(ctx context.Context, userID uuid.UUID, date Date) (*Goal, error)
	// FindMostRecentBefore returns the dated row with the greatest goal_date
	// before date, else the default row, else nil.
	FindMostRecentBefore(ctx context.Context, userID uuid.UUID, date Date) (*Goal, error)
	// Upsert writes g keyed by (user_id, goal_date) and refreshes g from the stored row.
	Upsert(ctx context.Context, g *Goal) error
	// DeleteRange removes dated rows with from <= goal_date < to.
	DeleteRange(ctx context.Context, userID uuid.UUID, from, to Date) (int64, error)
	DeleteDefault(ctx context.Context, userID uuid.UUID) (int64, error)
	// InTx runs fn against a store bound to one transaction.
	InTx(ctx context.Context, fn func(tx GoalStore) error) error
}

type gormGoalStore struct {
	db *gorm.DB
}

func NewGoalStore(db *gorm.DB) GoalStore {
	return &gormGoalStore{db: db}
}

func (s *gormGoalStore) FindByDate(ctx context.Context, userID uuid.UUID, date Date) (*Goal, error) {
	var g Goal
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("goal_date = ?", date).
		Order("updated_at DESC, created_at DESC").
		Take(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find goal by date: %w", err)
	}
	return &g, nil
}

func (s *gormGoalStore) FindMostRecentBefore(ctx context.Context, userID uuid.UUID, date Date) (*Goal, error) {
	var g Goal
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("(goal_date < ? OR goal_date IS NULL)", date).
		Order("goal_date DESC NULLS LAST").
		Take(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find most recent goal: %w", err)
	}
	return &g, nil
}

func (s *gormGoalStore) Upsert(ctx context.Context, g *Goal) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.DateKey = dateKeyFor(g.GoalDate)

	err := s.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "date_key"}},
				DoUpdates: clause.AssignmentColumns(append(append([]string{}, targetColumns...), "updated_at")),
			},
			clause.Returning{},
		).
		Create(g).Error
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}

func (s *gormGoalStore) DeleteRange(ctx context.Context, userID uuid.UUID, from, to Date) (int64, error) {
	result := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("goal_date IS NOT NULL AND goal_date >= ? AND goal_date < ?", from, to).
		Delete(&Goal{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete goals in range: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormGoalStore) DeleteDefault(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("goal_date IS NULL").
		Delete(&Goal{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete default goal: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormGoalStore) InTx(ctx context.Context, fn func(tx GoalStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormGoalStore{db: tx})
	})
}
