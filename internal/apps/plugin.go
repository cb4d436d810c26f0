package apps

import (
	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Plugin is a feature module mounted under the authenticated /api/p group.
type Plugin interface {
	// ID names the plugin in logs.
	ID() string

	// Models returns the GORM model pointers to AutoMigrate at startup.
	Models() []interface{}

	// RegisterRoutes mounts the plugin's routes. The group already carries
	// JWT middleware.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
