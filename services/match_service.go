package services

import (
	"errors"
	"fmt"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService struct {
	DB      *gorm.DB
	Config  ScoringConfig
	Scoring *ScoringService
}

func NewMatchService(db *gorm.DB, cfg ScoringConfig, scoring *ScoringService) *MatchService {
	return &MatchService{DB: db, Config: cfg, Scoring: scoring}
}

// GetAllMatches returns every match with denormalized game/admin names and
// the current player count, newest first.
func (s *MatchService) GetAllMatches(c *fiber.Ctx) error {
	var matches []models.MatchSummary
	query := `
        SELECT
            m.id, m.game_id, m.admin_id, m.mini_admin_id, m.timestamp,
            m.pot, m.time_factor, m.status,
            g.name AS game_name, g.type AS game_type,
            au.username AS admin_username,
            mu.username AS mini_admin_username,
            COUNT(mp.user_id) AS player_count
        FROM matches m
        LEFT JOIN games g ON m.game_id = g.id
        LEFT JOIN users au ON m.admin_id = au.id
        LEFT JOIN users mu ON m.mini_admin_id = mu.id
        LEFT JOIN match_participants mp ON m.id = mp.match_id
        GROUP BY m.id, g.name, g.type, au.username, mu.username
        ORDER BY m.timestamp DESC
    `
	if err := s.DB.Raw(query).Scan(&matches).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch matches: %w", err))
	}
	return c.JSON(matches)
}

// GetMatch returns one match with its participants (winners first once
// completed, since rows are ordered by total tickets).
func (s *MatchService) GetMatch(c *fiber.Ctx) error {
	id := c.Params("id")
	var match models.Match
	err := s.DB.
		Preload("Game").
		Preload("Teams").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("total_tickets DESC")
		}).
		First(&match, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("match %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch match: %w", err))
	}
	return c.JSON(match)
}

// GetParticipation returns the current user's membership and joker
// declarations keyed by match id, the shape the dashboard expects.
func (s *MatchService) GetParticipation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var rows []models.MatchParticipant
	if err := s.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch participation: %w", err))
	}

	participation := fiber.Map{}
	jokerDeclarations := fiber.Map{}
	for _, row := range rows {
		participation[row.MatchID] = true
		if row.JokerDeclared {
			jokerDeclarations[row.MatchID] = true
		}
	}
	return c.JSON(fiber.Map{
		"participation":      participation,
		"joker_declarations": jokerDeclarations,
	})
}

// CreateMatch creates a pending match. The effective time factor is fixed
// here as match factor × game factor; the mini-admin falls back to the
// configured default, then to the creating admin.
func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	type Req struct {
		GameID      string  `json:"game_id"`
		MiniAdminID string  `json:"mini_admin_id"`
		TimeFactor  float64 `json:"time_factor"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.GameID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "game_id is required"})
	}
	if req.TimeFactor == 0 {
		req.TimeFactor = 1.0
	}
	if req.TimeFactor < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "time_factor must be positive"})
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(400).JSON(fiber.Map{"error": "game_id not found"})
		}
		return RespondError(c, fmt.Errorf("fetch game: %w", err))
	}

	adminID := c.Locals("user_id").(string)
	miniAdminID := req.MiniAdminID
	if miniAdminID == "" {
		miniAdminID = s.Config.DefaultMiniAdminID
	}
	if miniAdminID == "" {
		miniAdminID = adminID
	}

	match := &models.Match{
		ID:          uuid.NewString(),
		GameID:      req.GameID,
		AdminID:     adminID,
		MiniAdminID: miniAdminID,
		TimeFactor:  req.TimeFactor * game.TimeFactor,
		Status:      models.MatchStatusPending,
		Pot:         0, // recomputed as participants join
	}
	if err := s.DB.Create(match).Error; err != nil {
		return RespondError(c, fmt.Errorf("create match: %w", err))
	}
	return c.Status(201).JSON(match)
}

// AddParticipant adds a user to a pending match on behalf of the match admin.
func (s *MatchService) AddParticipant(c *fiber.Ctx) error {
	type Req struct {
		UserID string `json:"user_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}
	participant, err := s.addParticipant(c.Params("id"), req.UserID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(201).JSON(participant)
}

// JoinMatch adds the current user to a pending match.
func (s *MatchService) JoinMatch(c *fiber.Ctx) error {
	participant, err := s.addParticipant(c.Params("id"), c.Locals("user_id").(string))
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(201).JSON(participant)
}

func (s *MatchService) addParticipant(matchID, userID string) (*models.MatchParticipant, error) {
	var participant *models.MatchParticipant
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		match, err := s.pendingMatch(tx, matchID)
		if err != nil {
			return err
		}
		if err := tx.First(&models.User{}, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", userID, ErrNotFound)
			}
			return fmt.Errorf("fetch user: %w", err)
		}

		var count int64
		tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND user_id = ?", matchID, userID).
			Count(&count)
		if count > 0 {
			return fmt.Errorf("user %s already joined match %s: %w", userID, matchID, ErrConflict)
		}

		participant = &models.MatchParticipant{
			ID:      uuid.NewString(),
			MatchID: matchID,
			UserID:  userID,
		}
		if err := tx.Create(participant).Error; err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		return s.recomputePendingPot(tx, match)
	})
	return participant, err
}

// RemoveParticipant removes a user from a pending match (admin flow).
func (s *MatchService) RemoveParticipant(c *fiber.Ctx) error {
	if err := s.removeParticipant(c.Params("id"), c.Params("userId")); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "participant removed"})
}

// LeaveMatch removes the current user from a pending match.
func (s *MatchService) LeaveMatch(c *fiber.Ctx) error {
	if err := s.removeParticipant(c.Params("id"), c.Locals("user_id").(string)); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "left match"})
}

func (s *MatchService) removeParticipant(matchID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		match, err := s.pendingMatch(tx, matchID)
		if err != nil {
			return err
		}
		res := tx.Where("match_id = ? AND user_id = ?", matchID, userID).
			Delete(&models.MatchParticipant{})
		if res.Error != nil {
			return fmt.Errorf("remove participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s is not a participant of match %s: %w", userID, matchID, ErrNotFound)
		}
		return s.recomputePendingPot(tx, match)
	})
}

// pendingMatch loads a match and rejects membership changes once it left the
// pending state.
func (s *MatchService) pendingMatch(tx *gorm.DB, matchID string) (*models.Match, error) {
	var match models.Match
	if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch match: %w", err)
	}
	if match.Status != models.MatchStatusPending {
		return nil, validationf("match %s is %s, participants can only change while pending", matchID, match.Status)
	}
	return &match, nil
}

// recomputePendingPot keeps the pre-completion pot consistent with the
// participant count: K × participants × effective time factor.
func (s *MatchService) recomputePendingPot(tx *gorm.DB, match *models.Match) error {
	var count int64
	if err := tx.Model(&models.MatchParticipant{}).
		Where("match_id = ?", match.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	pot := s.Config.matchPot(int(count), match.TimeFactor)
	if err := tx.Model(&models.Match{}).Where("id = ?", match.ID).
		Update("pot", pot).Error; err != nil {
		return fmt.Errorf("update pot: %w", err)
	}
	return nil
}

// UpdateStatus moves a match between pending and in_progress. Completion only
// happens through the scoring endpoints, never via a bare status write.
func (s *MatchService) UpdateStatus(c *fiber.Ctx) error {
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	switch req.Status {
	case models.MatchStatusPending, models.MatchStatusInProgress:
	case models.MatchStatusCompleted:
		return c.Status(400).JSON(fiber.Map{"error": "matches are completed through the scoring endpoints"})
	default:
		return c.Status(400).JSON(fiber.Map{"error": "status must be pending or in_progress"})
	}

	id := c.Params("id")
	var match models.Match
	if err := s.DB.First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("match %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch match: %w", err))
	}

	res := s.DB.Model(&models.Match{}).
		Where("id = ? AND status <> ?", id, models.MatchStatusCompleted).
		Update("status", req.Status)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("update status: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("match %s is already completed: %w", id, ErrConflict))
	}

	match.Status = req.Status
	return c.JSON(match)
}

// UpdateAdmin reassigns the match admin (admin only, enforced by routing).
func (s *MatchService) UpdateAdmin(c *fiber.Ctx) error {
	return s.updateManager(c, "admin_id")
}

// UpdateMiniAdmin reassigns the match mini-admin (admin only).
func (s *MatchService) UpdateMiniAdmin(c *fiber.Ctx) error {
	return s.updateManager(c, "mini_admin_id")
}

func (s *MatchService) updateManager(c *fiber.Ctx, column string) error {
	type Req struct {
		UserID string `json:"user_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}
	if err := s.DB.First(&models.User{}, "id = ?", req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("user %s: %w", req.UserID, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch user: %w", err))
	}

	id := c.Params("id")
	res := s.DB.Model(&models.Match{}).Where("id = ?", id).Update(column, req.UserID)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("update %s: %w", column, res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("match %s: %w", id, ErrNotFound))
	}

	var match models.Match
	s.DB.First(&match, "id = ?", id)
	return c.JSON(match)
}

// DeclareJoker records the current user's intent to play their joker in this
// match. Only allowed while the match is pending and the joker is unused.
func (s *MatchService) DeclareJoker(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := c.Locals("user_id").(string)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.pendingMatch(tx, matchID); err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}
		if user.JokerUsed {
			return validationf("joker already used")
		}
		res := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND user_id = ?", matchID, userID).
			Update("joker_declared", true)
		if res.Error != nil {
			return fmt.Errorf("declare joker: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("you are not a participant of match %s: %w", matchID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "joker declared for this match"})
}

// UndeclareJoker withdraws a joker declaration while the match is pending.
func (s *MatchService) UndeclareJoker(c *fiber.Ctx) error {
	matchID := c.Params("id")
	userID := c.Locals("user_id").(string)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.pendingMatch(tx, matchID); err != nil {
			return err
		}
		res := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND user_id = ?", matchID, userID).
			Update("joker_declared", false)
		if res.Error != nil {
			return fmt.Errorf("undeclare joker: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("you are not a participant of match %s: %w", matchID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "joker declaration removed"})
}

// DeleteMatch removes a match through the scoring engine so completed-match
// deletions rebuild the affected users' aggregates.
func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	match, err := s.Scoring.DeleteMatch(c.Params("id"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "match deleted", "match": match})
}
