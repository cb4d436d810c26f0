package goals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/validation"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type PresetRequest struct {
	PresetName string `json:"preset_name" validate:"required,max=255"`
	Targets
}

// PresetService manages a user's goal presets. Any change can alter what a
// weekly plan resolves to, so every mutation invalidates the user's cache.
type PresetService struct {
	store PresetStore
	cache *ResolutionCache
}

func NewPresetService(store PresetStore, cache *ResolutionCache) *PresetService {
	return &PresetService{store: store, cache: cache}
}

func (s *PresetService) toModel(userID uuid.UUID, req PresetRequest) (*GoalPreset, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	p := &GoalPreset{UserID: userID}
	if err := copier.CopyWithOption(p, &req, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("map preset request: %w", err)
	}
	p.NormalizeMacros()
	return p, nil
}

func (s *PresetService) Create(ctx context.Context, userID uuid.UUID, req PresetRequest) (*GoalPreset, error) {
	p, err := s.toModel(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)
	slog.Info("goal preset created", "component", "goals", "action", "create_preset", "user_id", userID.String(), "preset_id", p.ID.String())
	return p, nil
}

func (s *PresetService) List(ctx context.Context, userID uuid.UUID) ([]GoalPreset, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *PresetService) Get(ctx context.Context, userID, id uuid.UUID) (*GoalPreset, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *PresetService) Update(ctx context.Context, userID, id uuid.UUID, req PresetRequest) (*GoalPreset, error) {
	p, err := s.toModel(userID, req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID)
	return s.store.Get(ctx, userID, id)
}

// Delete does not check whether a weekly plan still references the preset;
// such slots fall through during resolution.
func (s *PresetService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}
