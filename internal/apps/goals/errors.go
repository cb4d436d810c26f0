package goals

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrPresetNotFound         = errors.New("goal preset not found")
	ErrPlanNotFound           = errors.New("weekly goal plan not found")
	ErrConflictingState       = errors.New("more than one active weekly plan covers the date")
	ErrPlanActivationConflict = errors.New("another weekly plan was activated concurrently")
)
