// handlers/match.go
package handlers

import (
	"mini-olympics-system/middleware"
	"mini-olympics-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService, scoringService *services.ScoringService, db *gorm.DB) {
	// 🔐 All match routes require user context forwarded by the Gateway
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/matches", matchService.GetAllMatches)
	secured.Get("/matches/participation", matchService.GetParticipation)
	secured.Get("/matches/:id", matchService.GetMatch)
	secured.Get("/matches/:id/results", func(c *fiber.Ctx) error {
		results, err := scoringService.GetMatchResults(c.Params("id"))
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(results)
	})

	// Player self-service
	secured.Post("/matches/:id/join", matchService.JoinMatch)
	secured.Delete("/matches/:id/leave", matchService.LeaveMatch)
	secured.Post("/matches/:id/joker", matchService.DeclareJoker)
	secured.Delete("/matches/:id/joker", matchService.UndeclareJoker)

	// Match management — admin, or the match's mini-admin
	manage := secured.Group("/matches/:id", middleware.RequireMatchManager(db))
	manage.Post("/participants", matchService.AddParticipant)
	manage.Delete("/participants/:userId", matchService.RemoveParticipant)
	manage.Patch("/status", matchService.UpdateStatus)

	manage.Post("/complete", func(c *fiber.Ctx) error {
		type Req struct {
			Winners      []string `json:"winners"`
			MVPID        string   `json:"mvp_id"`
			JokersPlayed []string `json:"jokers_played"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		results, err := scoringService.CompleteMatch(c.Params("id"), req.Winners, req.MVPID, req.JokersPlayed)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(results)
	})

	manage.Post("/complete-team", func(c *fiber.Ctx) error {
		type Req struct {
			WinningTeamID string `json:"winning_team_id"`
			MVPID         string `json:"mvp_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.WinningTeamID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "winning_team_id is required"})
		}
		results, err := scoringService.CompleteTeamMatch(c.Params("id"), req.WinningTeamID, req.MVPID)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(results)
	})

	manage.Post("/complete-tournament", func(c *fiber.Ctx) error {
		type Req struct {
			Rankings []services.Ranking `json:"rankings"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		results, err := scoringService.CompleteTournament(c.Params("id"), req.Rankings)
		if err != nil {
			return services.RespondError(c, err)
		}
		return c.JSON(results)
	})

	// Admin only
	admin := secured.Group("/", middleware.RequireAdmin())
	admin.Post("/matches", matchService.CreateMatch)
	admin.Patch("/matches/:id/admin", matchService.UpdateAdmin)
	admin.Patch("/matches/:id/mini-admin", matchService.UpdateMiniAdmin)
	admin.Delete("/matches/:id", matchService.DeleteMatch)
}
