package services

import (
	"errors"
	"fmt"
	"strings"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

var displayNameCaser = cases.Title(language.English)

// defaultDisplayName derives a readable name from a username like
// "anna.kowalski" or "anna_kowalski".
func defaultDisplayName(username string) string {
	parts := strings.FieldsFunc(username, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	return displayNameCaser.String(strings.Join(parts, " "))
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleMiniAdmin, models.RolePlayer:
		return true
	}
	return false
}

// GetAllUsers lists the roster with per-user win/loss stats folded in.
func (s *UserService) GetAllUsers(c *fiber.Ctx) error {
	var users []models.UserStats
	query := `
        SELECT
            u.id, u.username, u.display_name, u.role,
            u.matches_played, u.tickets_total, u.efficiency, u.created_at,
            COALESCE(SUM(CASE WHEN cp.is_winner THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN NOT cp.is_winner THEN 1 ELSE 0 END), 0) AS losses
        FROM users u
        LEFT JOIN (
            SELECT mp.user_id, mp.is_winner
            FROM match_participants mp
            JOIN matches m ON mp.match_id = m.id
            WHERE m.status = ?
        ) cp ON cp.user_id = u.id
        GROUP BY u.id, u.username, u.display_name, u.role,
            u.matches_played, u.tickets_total, u.efficiency, u.created_at
        ORDER BY u.username ASC
    `
	if err := s.DB.Raw(query, models.MatchStatusCompleted).Scan(&users).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch users: %w", err))
	}
	for i := range users {
		if total := users[i].Wins + users[i].Losses; total > 0 {
			users[i].WinPercentage = float64(users[i].Wins) * 100 / float64(total)
		}
	}
	return c.JSON(users)
}

// GetUser returns one user together with win/loss stats from completed
// matches.
func (s *UserService) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("user %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch user: %w", err))
	}

	stats, err := s.userStats(&user)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(stats)
}

func (s *UserService) userStats(user *models.User) (*models.UserStats, error) {
	var row struct {
		Wins   int64
		Losses int64
	}
	err := s.DB.Table("match_participants mp").
		Select(`
            COALESCE(SUM(CASE WHEN mp.is_winner THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN mp.is_winner THEN 0 ELSE 1 END), 0) AS losses`).
		Joins("JOIN matches m ON mp.match_id = m.id").
		Where("mp.user_id = ? AND m.status = ?", user.ID, models.MatchStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("fetch user stats: %w", err)
	}

	stats := &models.UserStats{
		ID:            user.ID,
		Username:      user.Username,
		DisplayName:   user.DisplayName,
		Role:          user.Role,
		MatchesPlayed: user.MatchesPlayed,
		TicketsTotal:  user.TicketsTotal,
		Efficiency:    user.Efficiency,
		Wins:          row.Wins,
		Losses:        row.Losses,
		CreatedAt:     user.CreatedAt,
	}
	if total := row.Wins + row.Losses; total > 0 {
		stats.WinPercentage = float64(row.Wins) * 100 / float64(total)
	}
	return stats, nil
}

func (s *UserService) CreateUser(c *fiber.Ctx) error {
	type Req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" {
		return c.Status(400).JSON(fiber.Map{"error": "username is required"})
	}
	if req.Role == "" {
		req.Role = models.RolePlayer
	}
	if !validRole(req.Role) {
		return c.Status(400).JSON(fiber.Map{"error": "role must be admin, mini_admin or player"})
	}
	if req.DisplayName == "" {
		req.DisplayName = defaultDisplayName(req.Username)
	}

	var count int64
	s.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return RespondError(c, fmt.Errorf("username %s taken: %w", req.Username, ErrConflict))
	}

	user := &models.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}
	if err := s.DB.Create(user).Error; err != nil {
		return RespondError(c, fmt.Errorf("create user: %w", err))
	}
	return c.Status(201).JSON(user)
}

func (s *UserService) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondError(c, fmt.Errorf("user %s: %w", id, ErrNotFound))
		}
		return RespondError(c, fmt.Errorf("fetch user: %w", err))
	}

	type Req struct {
		DisplayName string `json:"display_name"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.DisplayName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "display_name is required"})
	}

	if err := s.DB.Model(&user).Update("display_name", req.DisplayName).Error; err != nil {
		return RespondError(c, fmt.Errorf("update user: %w", err))
	}
	return c.JSON(user)
}

// UpdateRole changes a user's role (admin only, enforced by routing).
func (s *UserService) UpdateRole(c *fiber.Ctx) error {
	type Req struct {
		Role string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if !validRole(req.Role) {
		return c.Status(400).JSON(fiber.Map{"error": "role must be admin, mini_admin or player"})
	}

	id := c.Params("id")
	res := s.DB.Model(&models.User{}).Where("id = ?", id).Update("role", req.Role)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("update role: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("user %s: %w", id, ErrNotFound))
	}

	var user models.User
	s.DB.First(&user, "id = ?", id)
	return c.JSON(user)
}

// ResetJoker hands a user their joker back (admin only).
func (s *UserService) ResetJoker(c *fiber.Ctx) error {
	id := c.Params("id")
	res := s.DB.Model(&models.User{}).Where("id = ?", id).Update("joker_used", false)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("reset joker: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("user %s: %w", id, ErrNotFound))
	}
	return c.JSON(fiber.Map{"message": "joker reset"})
}

// DeleteUser refuses while the user still appears in any match.
func (s *UserService) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var count int64
	if err := s.DB.Model(&models.MatchParticipant{}).Where("user_id = ?", id).
		Count(&count).Error; err != nil {
		return RespondError(c, fmt.Errorf("count participations: %w", err))
	}
	if count > 0 {
		return RespondError(c, fmt.Errorf("user %s has %d match participations: %w", id, count, ErrConflict))
	}

	res := s.DB.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return RespondError(c, fmt.Errorf("delete user: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return RespondError(c, fmt.Errorf("user %s: %w", id, ErrNotFound))
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}
