// handlers/user.go
package handlers

import (
	"mini-olympics-system/middleware"
	"mini-olympics-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/users", userService.GetAllUsers)
	secured.Get("/users/:id", userService.GetUser)
	secured.Patch("/users/:id", userService.UpdateUser)

	// 🔐 Roster and role management is admin only
	admin := secured.Group("/", middleware.RequireAdmin())
	admin.Post("/users", userService.CreateUser)
	admin.Patch("/users/:id/role", userService.UpdateRole)
	admin.Post("/users/:id/reset-joker", userService.ResetJoker)
	admin.Delete("/users/:id", userService.DeleteUser)
}
