package services

import (
	"errors"
	"fmt"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Order("name ASC").Find(&games).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch games: %w", err))
	}
	return c.JSON(games)
}

func (s *GameService) GetGame(c *fiber.Ctx) error {
	id := c.Params("id")
	var game models.Game
	if err := s.DB.First(&game, "id = ? OR slug = ?", id, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("game %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch game: %w", err))
	}
	return c.JSON(game)
}

type gameRequest struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	MinPlayers *int     `json:"min_players"`
	MaxPlayers *int     `json:"max_players"`
	TimeFactor *float64 `json:"time_factor"`
}

func validGameType(t string) bool {
	switch t {
	case models.GameTypeTeam, models.GameTypeIndividual, models.GameTypeTournament:
		return true
	}
	return false
}

func (s *GameService) CreateGame(c *fiber.Ctx) error {
	var req gameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if !validGameType(req.Type) {
		return c.Status(400).JSON(fiber.Map{"error": "type must be team, individual or tournament"})
	}

	game := &models.Game{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Slug:       slug.Make(req.Name),
		Type:       req.Type,
		MinPlayers: 2,
		TimeFactor: 1.0,
	}
	if req.MinPlayers != nil {
		if *req.MinPlayers < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "min_players must be at least 1"})
		}
		game.MinPlayers = *req.MinPlayers
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers != 0 && *req.MaxPlayers < game.MinPlayers {
			return c.Status(400).JSON(fiber.Map{"error": "max_players must be 0 (unlimited) or >= min_players"})
		}
		game.MaxPlayers = *req.MaxPlayers
	}
	if req.TimeFactor != nil {
		if *req.TimeFactor <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "time_factor must be positive"})
		}
		game.TimeFactor = *req.TimeFactor
	}

	if err := s.DB.Create(game).Error; err != nil {
		return RespondError(c, fmt.Errorf("create game: %w", err))
	}
	return c.Status(201).JSON(game)
}

func (s *GameService) UpdateGame(c *fiber.Ctx) error {
	id := c.Params("id")
	var game models.Game
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("game %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch game: %w", err))
	}

	var req gameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
		updates["slug"] = slug.Make(req.Name)
	}
	if req.Type != "" {
		if !validGameType(req.Type) {
			return c.Status(400).JSON(fiber.Map{"error": "type must be team, individual or tournament"})
		}
		updates["type"] = req.Type
	}
	if req.MinPlayers != nil {
		if *req.MinPlayers < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "min_players must be at least 1"})
		}
		updates["min_players"] = *req.MinPlayers
	}
	if req.MaxPlayers != nil {
		updates["max_players"] = *req.MaxPlayers
	}
	if req.TimeFactor != nil {
		if *req.TimeFactor <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "time_factor must be positive"})
		}
		updates["time_factor"] = *req.TimeFactor
	}
	if len(updates) == 0 {
		return c.JSON(game)
	}

	if err := s.DB.Model(&game).Updates(updates).Error; err != nil {
		return RespondError(c, fmt.Errorf("update game: %w", err))
	}
	return c.JSON(game)
}

// DeleteGame refuses while matches still reference the game.
func (s *GameService) DeleteGame(c *fiber.Ctx) error {
	id := c.Params("id")

	var matchCount int64
	if err := s.DB.Model(&models.Match{}).Where("game_id = ?", id).
		Count(&matchCount).Error; err != nil {
		return RespondError(c, fmt.Errorf("count matches: %w", err))
	}
	if matchCount > 0 {
		return RespondError(c, fmt.Errorf("game %s has %d matches: %w", id, matchCount, ErrConflict))
	}

	res := s.DB.Delete(&models.Game{}, "id = ?", id)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("delete game: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("game %s: %w", id, ErrNotFound))
	}
	return c.JSON(fiber.Map{"message": "game deleted"})
}
