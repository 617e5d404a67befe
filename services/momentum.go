package services

import (
	"fmt"
	"sort"

	"mini-olympics-system/models"

	"gorm.io/gorm"
)

// MomentumStanding is one row of the standings the momentum policy ranks.
type MomentumStanding struct {
	UserID       string
	Username     string
	TicketsTotal int64
	Efficiency   float64
}

// MomentumPolicy decides, from current standings, which users carry the
// momentum flag (the 1.25× catch-up multiplier on their next win). The rule is
// replaceable; the output must be a pure function of the standings so the
// recompute stays idempotent.
type MomentumPolicy func(standings []MomentumStanding) map[string]bool

// DefaultMomentumRankThreshold flags players ranked 4th or worse.
const DefaultMomentumRankThreshold = 4

// RankBasedMomentumPolicy flags every user whose standings rank (efficiency
// desc, tickets desc, username asc) is at or below the threshold.
func RankBasedMomentumPolicy(threshold int) MomentumPolicy {
	return func(standings []MomentumStanding) map[string]bool {
		ranked := make([]MomentumStanding, len(standings))
		copy(ranked, standings)
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Efficiency != ranked[j].Efficiency {
				return ranked[i].Efficiency > ranked[j].Efficiency
			}
			if ranked[i].TicketsTotal != ranked[j].TicketsTotal {
				return ranked[i].TicketsTotal > ranked[j].TicketsTotal
			}
			return ranked[i].Username < ranked[j].Username
		})

		flagged := make(map[string]bool, len(ranked))
		for i, s := range ranked {
			flagged[s.UserID] = i+1 >= threshold
		}
		return flagged
	}
}

// recomputeMomentumFlags rewrites every user's momentum_flag from current
// standings. Users with no completed matches are never flagged. Safe to call
// repeatedly: the flag set depends only on the standings at call time.
func recomputeMomentumFlags(tx *gorm.DB, policy MomentumPolicy) error {
	var users []models.User
	if err := tx.Order("username ASC").Find(&users).Error; err != nil {
		return fmt.Errorf("load users for momentum recompute: %w", err)
	}

	standings := make([]MomentumStanding, 0, len(users))
	for _, u := range users {
		if u.MatchesPlayed == 0 {
			continue
		}
		standings = append(standings, MomentumStanding{
			UserID:       u.ID,
			Username:     u.Username,
			TicketsTotal: u.TicketsTotal,
			Efficiency:   u.Efficiency,
		})
	}

	flagged := policy(standings)
	for _, u := range users {
		want := flagged[u.ID]
		if u.MomentumFlag == want {
			continue
		}
		if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
			Update("momentum_flag", want).Error; err != nil {
			return fmt.Errorf("set momentum flag for user %s: %w", u.ID, err)
		}
	}
	return nil
}
