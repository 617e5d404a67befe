// handlers/team.go
package handlers

import (
	"mini-olympics-system/middleware"
	"mini-olympics-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupTeamRoutes(app *fiber.App, teamService *services.TeamService, db *gorm.DB) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/matches/:id/teams", teamService.GetTeams)

	// Team setup — admin, or the match's mini-admin
	manage := secured.Group("/matches/:id", middleware.RequireMatchManager(db))
	manage.Post("/teams", teamService.CreateTeams)
	manage.Patch("/teams/assign", teamService.AssignParticipant)
	manage.Delete("/teams/:teamId", teamService.DeleteTeam)
}
