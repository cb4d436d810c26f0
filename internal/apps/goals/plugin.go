package goals

import (
	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GoalsPlugin struct {
	kv        KV
	publisher Publisher
}

// New builds the goals plugin. kv and publisher may be nil to run without
// a resolution cache or event publishing.
func New(kv KV, publisher Publisher) *GoalsPlugin {
	return &GoalsPlugin{kv: kv, publisher: publisher}
}

func (p *GoalsPlugin) ID() string { return "goals" }

func (p *GoalsPlugin) Models() []interface{} {
	return []interface{}{
		&Goal{},
		&GoalPreset{},
		&WeeklyPlan{},
	}
}

func (p *GoalsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	cache := NewResolutionCache(p.kv, cfg.GoalsCacheTTL)

	goalStore := NewGoalStore(db)
	presetStore := NewPresetStore(db)
	planStore := NewWeeklyPlanStore(db)

	resolver := NewResolver(goalStore, presetStore, planStore, DefaultTargets(), cache)
	timeline := NewTimelineManager(goalStore, cache, p.publisher, cfg.Location())
	handler := NewGoalsHandler(
		resolver,
		timeline,
		NewPresetService(presetStore, cache),
		NewWeeklyPlanService(planStore, resolver, cache, p.publisher),
	)
	mountRoutes(router, handler)
}

func mountRoutes(router fiber.Router, handler *GoalsHandler) {
	router.Get("/goals", handler.GetForDate)
	router.Get("/goals/for-date", handler.GetForDate)
	router.Get("/goals/range", handler.GetRange)
	router.Post("/goals/manage-timeline", handler.ManageTimeline)
	router.Put("/goals/default", handler.SetDefault)

	router.Post("/goal-presets", handler.CreatePreset)
	router.Get("/goal-presets", handler.ListPresets)
	router.Get("/goal-presets/:id", handler.GetPreset)
	router.Put("/goal-presets/:id", handler.UpdatePreset)
	router.Delete("/goal-presets/:id", handler.DeletePreset)

	router.Post("/weekly-goal-plans", handler.CreatePlan)
	router.Get("/weekly-goal-plans", handler.ListPlans)
	router.Get("/weekly-goal-plans/active", handler.GetActivePlan)
	router.Get("/weekly-goal-plans/:id", handler.GetPlan)
	router.Put("/weekly-goal-plans/:id", handler.UpdatePlan)
	router.Delete("/weekly-goal-plans/:id", handler.DeletePlan)
}
