package goals

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/tenant"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GoalsHandler struct {
	resolver *Resolver
	timeline *TimelineManager
	presets  *PresetService
	plans    *WeeklyPlanService
}

func NewGoalsHandler(resolver *Resolver, timeline *TimelineManager, presets *PresetService, plans *WeeklyPlanService) *GoalsHandler {
	return &GoalsHandler{
		resolver: resolver,
		timeline: timeline,
		presets:  presets,
		plans:    plans,
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// fail maps goals errors onto HTTP responses. Unexpected errors are logged
// and hidden behind fallback.
func (h *GoalsHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, ErrPresetNotFound), errors.Is(err, ErrPlanNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, ErrPlanActivationConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, ErrConflictingState):
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Conflicting weekly plans; deactivate all but one",
		})
	}

	slog.Error(fallback,
		"component", "goals", "method", c.Method(), "path", c.Path(),
		"request_id", requestID(c), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

// queryDate reads the first non-empty of the given query keys. Absent means today.
func (h *GoalsHandler) queryDate(c *fiber.Ctx, keys ...string) (Date, error) {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return ParseDate(v)
		}
	}
	return h.timeline.Today(), nil
}

func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// --- Goals ---

func (h *GoalsHandler) GetForDate(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	date, err := h.queryDate(c, "date", "selectedDate")
	if err != nil {
		return badRequest(c, err.Error())
	}

	eff, err := h.resolver.Resolve(c.UserContext(), userID, date)
	if err != nil {
		return h.fail(c, err, "Failed to resolve goals")
	}
	return c.JSON(eff)
}

func (h *GoalsHandler) GetRange(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if c.Query("from") == "" || c.Query("to") == "" {
		return badRequest(c, "from and to are required")
	}
	from, err := ParseDate(c.Query("from"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	to, err := ParseDate(c.Query("to"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.resolver.ResolveRange(c.UserContext(), userID, from, to)
	if err != nil {
		return h.fail(c, err, "Failed to resolve goals")
	}
	return c.JSON(result)
}

func (h *GoalsHandler) ManageTimeline(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req TimelineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.timeline.ApplyTimelineEdit(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to update goal timeline")
	}
	return c.JSON(result)
}

func (h *GoalsHandler) SetDefault(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req DefaultGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	goal, err := h.timeline.SetDefault(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to update default goals")
	}
	return c.JSON(goal)
}

// --- Presets ---

func (h *GoalsHandler) CreatePreset(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req PresetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	preset, err := h.presets.Create(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to create goal preset")
	}
	return c.Status(fiber.StatusCreated).JSON(preset)
}

func (h *GoalsHandler) ListPresets(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	presets, err := h.presets.List(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err, "Failed to fetch goal presets")
	}
	return c.JSON(presets)
}

func (h *GoalsHandler) GetPreset(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid preset ID")
	}

	preset, err := h.presets.Get(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, err, "Failed to fetch goal preset")
	}
	return c.JSON(preset)
}

func (h *GoalsHandler) UpdatePreset(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid preset ID")
	}

	var req PresetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	preset, err := h.presets.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return h.fail(c, err, "Failed to update goal preset")
	}
	return c.JSON(preset)
}

func (h *GoalsHandler) DeletePreset(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid preset ID")
	}

	if err := h.presets.Delete(c.UserContext(), userID, id); err != nil {
		return h.fail(c, err, "Failed to delete goal preset")
	}
	return c.JSON(fiber.Map{"message": "Goal preset deleted"})
}

// --- Weekly plans ---

func (h *GoalsHandler) CreatePlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req WeeklyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.plans.Create(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to create weekly goal plan")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *GoalsHandler) ListPlans(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	plans, err := h.plans.List(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err, "Failed to fetch weekly goal plans")
	}
	return c.JSON(plans)
}

func (h *GoalsHandler) GetActivePlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	date, err := h.queryDate(c, "date")
	if err != nil {
		return badRequest(c, err.Error())
	}

	plan, err := h.plans.Active(c.UserContext(), userID, date)
	if err != nil {
		return h.fail(c, err, "Failed to fetch active weekly goal plan")
	}
	if plan == nil {
		return c.JSON(nil)
	}
	return c.JSON(plan)
}

func (h *GoalsHandler) GetPlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid plan ID")
	}

	plan, err := h.plans.Get(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, err, "Failed to fetch weekly goal plan")
	}
	return c.JSON(plan)
}

func (h *GoalsHandler) UpdatePlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid plan ID")
	}

	var req WeeklyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.plans.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return h.fail(c, err, "Failed to update weekly goal plan")
	}
	return c.JSON(plan)
}

func (h *GoalsHandler) DeletePlan(c *fiber.Ctx) error {
	userID, err := tenant.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Invalid plan ID")
	}

	if err := h.plans.Delete(c.UserContext(), userID, id); err != nil {
		return h.fail(c, err, "Failed to delete weekly goal plan")
	}
	return c.JSON(fiber.Map{"message": "Weekly goal plan deleted"})
}
