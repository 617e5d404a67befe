// handlers/leaderboard.go
package handlers

import (
	"mini-olympics-system/middleware"
	"mini-olympics-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/leaderboard", leaderboardService.GetLeaderboard)
	secured.Get("/leaderboard/head-to-head/:userA/:userB", leaderboardService.GetHeadToHead)
}
