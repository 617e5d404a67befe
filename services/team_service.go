package services

import (
	"errors"
	"fmt"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

// CreateTeams replaces a pending match's teams with a fresh set. Colors are
// assigned round-robin from the palette in creation order.
func (s *TeamService) CreateTeams(c *fiber.Ctx) error {
	type Req struct {
		Names []string `json:"names"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if len(req.Names) < 2 {
		return c.Status(400).JSON(fiber.Map{"error": "at least two team names are required"})
	}
	seen := map[string]bool{}
	for _, name := range req.Names {
		if name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "team names must not be empty"})
		}
		if seen[name] {
			return c.Status(400).JSON(fiber.Map{"error": "team names must be unique"})
		}
		seen[name] = true
	}

	matchID := c.Params("id")
	var teams []models.MatchTeam
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.requirePendingMatch(tx, matchID); err != nil {
			return err
		}
		// Drop previous teams and any stale assignments before rebuilding.
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ?", matchID).
			Update("team_id", nil).Error; err != nil {
			return fmt.Errorf("clear team assignments: %w", err)
		}
		if err := tx.Where("match_id = ?", matchID).
			Delete(&models.MatchTeam{}).Error; err != nil {
			return fmt.Errorf("delete old teams: %w", err)
		}

		for i, name := range req.Names {
			team := models.MatchTeam{
				ID:      uuid.NewString(),
				MatchID: matchID,
				Name:    name,
				Color:   models.TeamColorPalette[i%len(models.TeamColorPalette)],
			}
			if err := tx.Create(&team).Error; err != nil {
				return fmt.Errorf("create team: %w", err)
			}
			teams = append(teams, team)
		}
		return nil
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.Status(201).JSON(teams)
}

// GetTeams returns a match's teams with their rosters, plus the unassigned
// participants.
func (s *TeamService) GetTeams(c *fiber.Ctx) error {
	matchID := c.Params("id")
	if err := s.requireMatch(s.DB, matchID); err != nil {
		return RespondError(c, err)
	}

	var teams []models.MatchTeam
	if err := s.DB.Where("match_id = ?", matchID).
		Order("name ASC").Find(&teams).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch teams: %w", err))
	}

	var participants []models.ParticipantResult
	err := s.DB.Table("match_participants mp").
		Select("mp.user_id, u.username, u.display_name, mp.team_id, mp.joker_declared, mp.is_winner, mp.is_mvp, mp.total_tickets").
		Joins("JOIN users u ON mp.user_id = u.id").
		Where("mp.match_id = ?", matchID).
		Order("u.username ASC").
		Scan(&participants).Error
	if err != nil {
		return RespondError(c, fmt.Errorf("fetch participants: %w", err))
	}

	byTeam := map[string][]models.ParticipantResult{}
	var unassigned []models.ParticipantResult
	for _, p := range participants {
		if p.TeamID == nil {
			unassigned = append(unassigned, p)
			continue
		}
		byTeam[*p.TeamID] = append(byTeam[*p.TeamID], p)
	}

	out := make([]models.TeamWithParticipants, 0, len(teams))
	for _, team := range teams {
		out = append(out, models.TeamWithParticipants{
			MatchTeam:    team,
			Participants: byTeam[team.ID],
		})
	}
	return c.JSON(fiber.Map{
		"teams":      out,
		"unassigned": unassigned,
	})
}

// AssignParticipant moves a participant onto a team, or off any team when
// team_id is empty.
func (s *TeamService) AssignParticipant(c *fiber.Ctx) error {
	type Req struct {
		UserID string `json:"user_id"`
		TeamID string `json:"team_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}

	matchID := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.requirePendingMatch(tx, matchID); err != nil {
			return err
		}

		var teamID interface{}
		if req.TeamID != "" {
			var team models.MatchTeam
			if err := tx.First(&team, "id = ?", req.TeamID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("team %s: %w", req.TeamID, ErrNotFound)
				}
				return fmt.Errorf("fetch team: %w", err)
			}
			if team.MatchID != matchID {
				return validationf("team %s does not belong to match %s", req.TeamID, matchID)
			}
			teamID = req.TeamID
		}

		res := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND user_id = ?", matchID, req.UserID).
			Update("team_id", teamID)
		if res.Error != nil {
			return fmt.Errorf("assign participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %s is not a participant of match %s: %w", req.UserID, matchID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "assignment updated"})
}

// DeleteTeam removes one team and unassigns its members.
func (s *TeamService) DeleteTeam(c *fiber.Ctx) error {
	matchID := c.Params("id")
	teamID := c.Params("teamId")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.requirePendingMatch(tx, matchID); err != nil {
			return err
		}
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND team_id = ?", matchID, teamID).
			Update("team_id", nil).Error; err != nil {
			return fmt.Errorf("unassign members: %w", err)
		}
		res := tx.Where("id = ? AND match_id = ?", teamID, matchID).
			Delete(&models.MatchTeam{})
		if res.Error != nil {
			return fmt.Errorf("delete team: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "team deleted"})
}

func (s *TeamService) requireMatch(tx *gorm.DB, matchID string) error {
	var count int64
	if err := tx.Model(&models.Match{}).Where("id = ?", matchID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("fetch match: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return nil
}

func (s *TeamService) requirePendingMatch(tx *gorm.DB, matchID string) error {
	var match models.Match
	if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return fmt.Errorf("fetch match: %w", err)
	}
	if match.Status != models.MatchStatusPending {
		return validationf("match %s is %s, teams can only change while pending", matchID, match.Status)
	}
	return nil
}
