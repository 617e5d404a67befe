// middleware/auth.go
package middleware

import (
	"log"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserContextMiddleware extracts user identity and role set by Gateway.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		role := c.Get("X-User-Role")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}
		if role == "" {
			role = models.RolePlayer
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_role", role)

		return c.Next()
	}
}

// RequireAdmin guards admin-only routes.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_role") != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}
		return c.Next()
	}
}

// RequireMatchManager allows admins, or the mini-admin assigned to the match
// named by the :id route param.
func RequireMatchManager(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_role") == models.RoleAdmin {
			return c.Next()
		}

		var match models.Match
		if err := db.Select("mini_admin_id").
			First(&match, "id = ?", c.Params("id")).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "match not found",
			})
		}
		if match.MiniAdminID != c.Locals("user_id") {
			log.Printf("🚫 [MATCH_MGR] user %v denied for match %s", c.Locals("user_id"), c.Params("id"))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "only an admin or this match's mini-admin may do that",
			})
		}
		return c.Next()
	}
}
