package goals

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PresetStore persists goal presets. Every call is scoped to the owning user.
type PresetStore interface {
	Create(ctx context.Context, p *GoalPreset) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]GoalPreset, error)
	// Get returns ErrPresetNotFound when the preset does not exist for the user.
	Get(ctx context.Context, userID, id uuid.UUID) (*GoalPreset, error)
	Update(ctx context.Context, p *GoalPreset) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type gormPresetStore struct {
	db *gorm.DB
}

func NewPresetStore(db *gorm.DB) PresetStore {
	return &gormPresetStore{db: db}
}

func (s *gormPresetStore) Create(ctx context.Context, p *GoalPreset) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create preset: %w", err)
	}
	return nil
}

func (s *gormPresetStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]GoalPreset, error) {
	presets := make([]GoalPreset, 0)
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Order("preset_name").
		Find(&presets).Error
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return presets, nil
}

func (s *gormPresetStore) Get(ctx context.Context, userID, id uuid.UUID) (*GoalPreset, error) {
	var p GoalPreset
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("id = ?", id).
		Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("get preset: %w", err)
	}
	return &p, nil
}

func (s *gormPresetStore) Update(ctx context.Context, p *GoalPreset) error {
	columns := append([]string{"preset_name", "updated_at"}, targetColumns...)
	result := s.db.WithContext(ctx).
		Model(&GoalPreset{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Select(columns).
		Updates(p)
	if result.Error != nil {
		return fmt.Errorf("update preset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPresetNotFound
	}
	return nil
}

func (s *gormPresetStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Scopes(tenant.ForUser(userID)).
		Where("id = ?", id).
		Delete(&GoalPreset{})
	if result.Error != nil {
		return fmt.Errorf("delete preset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPresetNotFound
	}
	return nil
}
