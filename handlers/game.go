// handlers/game.go
package handlers

import (
	"mini-olympics-system/middleware"
	"mini-olympics-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, gameService *services.GameService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/games", gameService.GetAllGames)
	secured.Get("/games/:id", gameService.GetGame)

	// 🔐 Catalog changes are admin only
	admin := secured.Group("/", middleware.RequireAdmin())
	admin.Post("/games", gameService.CreateGame)
	admin.Put("/games/:id", gameService.UpdateGame)
	admin.Patch("/games/:id", gameService.UpdateGame)
	admin.Delete("/games/:id", gameService.DeleteGame)
}
