package services

import (
	"errors"
	"fmt"
	"time"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	DisplayName   string  `json:"display_name"`
	TicketsTotal  int64   `json:"tickets_total"`
	MatchesPlayed int     `json:"matches_played"`
	Efficiency    float64 `json:"efficiency"`
	JokerUsed     bool    `json:"joker_used"`
	MomentumFlag  bool    `json:"momentum_flag"`
}

// GetLeaderboard ranks players who have completed at least one match.
// Ordering is efficiency, then total tickets, then username as the stable
// tiebreak.
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	var entries []LeaderboardEntry
	err := s.DB.Model(&models.User{}).
		Select("id AS user_id, username, display_name, tickets_total, matches_played, efficiency, joker_used, momentum_flag").
		Where("matches_played > 0").
		Order("efficiency DESC").
		Order("tickets_total DESC").
		Order("username ASC").
		Scan(&entries).Error
	if err != nil {
		return RespondError(c, fmt.Errorf("fetch leaderboard: %w", err))
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return c.JSON(entries)
}

type headToHeadSide struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

// HeadToHeadMatch is one shared completed match. Differential is user A's
// tickets minus user B's in that match.
type HeadToHeadMatch struct {
	MatchID      string    `json:"match_id"`
	GameName     string    `json:"game_name"`
	Timestamp    time.Time `json:"timestamp"`
	TicketsA     int64     `json:"tickets_a"`
	TicketsB     int64     `json:"tickets_b"`
	Differential int64     `json:"differential"`
}

type HeadToHead struct {
	UserA             headToHeadSide    `json:"user_a"`
	UserB             headToHeadSide    `json:"user_b"`
	Matches           []HeadToHeadMatch `json:"matches"`
	MatchCount        int               `json:"match_count"`
	TotalDifferential int64             `json:"total_differential"`
}

// GetHeadToHead compares two users across the completed matches they both
// played, newest first.
func (s *LeaderboardService) GetHeadToHead(c *fiber.Ctx) error {
	aID := c.Params("userA")
	bID := c.Params("userB")
	if aID == bID {
		return RespondError(c, validationf("cannot compare a user with themselves"))
	}

	var userA, userB models.User
	for _, pair := range []struct {
		id   string
		dest *models.User
	}{{aID, &userA}, {bID, &userB}} {
		if err := s.DB.First(pair.dest, "id = ?", pair.id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return RespondError(c, fmt.Errorf("user %s: %w", pair.id, ErrNotFound))
			}
			return RespondError(c, fmt.Errorf("fetch user: %w", err))
		}
	}

	var rows []struct {
		MatchID   string
		GameName  string
		Timestamp time.Time
		TicketsA  int64
		TicketsB  int64
		AWinner   bool
		BWinner   bool
	}
	query := `
        SELECT
            m.id AS match_id, g.name AS game_name, m.timestamp,
            mp1.total_tickets AS tickets_a, mp2.total_tickets AS tickets_b,
            mp1.is_winner AS a_winner, mp2.is_winner AS b_winner
        FROM match_participants mp1
        JOIN match_participants mp2
            ON mp1.match_id = mp2.match_id AND mp2.user_id = ?
        JOIN matches m ON mp1.match_id = m.id
        LEFT JOIN games g ON m.game_id = g.id
        WHERE mp1.user_id = ? AND m.status = ?
        ORDER BY m.timestamp DESC
    `
	if err := s.DB.Raw(query, bID, aID, models.MatchStatusCompleted).
		Scan(&rows).Error; err != nil {
		return RespondError(c, fmt.Errorf("fetch head to head: %w", err))
	}

	out := HeadToHead{
		UserA:      headToHeadSide{UserID: userA.ID, Username: userA.Username},
		UserB:      headToHeadSide{UserID: userB.ID, Username: userB.Username},
		Matches:    make([]HeadToHeadMatch, 0, len(rows)),
		MatchCount: len(rows),
	}
	for _, r := range rows {
		diff := r.TicketsA - r.TicketsB
		out.TotalDifferential += diff
		if r.AWinner {
			out.UserA.Wins++
		}
		if r.BWinner {
			out.UserB.Wins++
		}
		out.Matches = append(out.Matches, HeadToHeadMatch{
			MatchID:      r.MatchID,
			GameName:     r.GameName,
			Timestamp:    r.Timestamp,
			TicketsA:     r.TicketsA,
			TicketsB:     r.TicketsB,
			Differential: diff,
		})
	}
	return c.JSON(out)
}
