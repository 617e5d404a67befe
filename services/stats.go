package services

import (
	"fmt"

	"mini-olympics-system/models"

	"gorm.io/gorm"
)

// recomputeUserStats rebuilds matches_played, tickets_total and efficiency for
// each listed user from their participations in completed matches. It always
// runs inside the caller's transaction so the aggregates commit together with
// whatever mutation made them stale (a completion or a deletion) — user rows
// never drift from the completed-match ledger.
func recomputeUserStats(tx *gorm.DB, k float64, userIDs []string) error {
	for _, userID := range userIDs {
		var agg struct {
			Played int64
			Total  int64
		}
		err := tx.Model(&models.MatchParticipant{}).
			Select("COUNT(*) AS played, COALESCE(SUM(match_participants.total_tickets), 0) AS total").
			Joins("JOIN matches ON matches.id = match_participants.match_id").
			Where("match_participants.user_id = ? AND matches.status = ?", userID, models.MatchStatusCompleted).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("aggregate stats for user %s: %w", userID, err)
		}

		efficiency := 0.0
		if agg.Played > 0 {
			efficiency = float64(agg.Total) * 100.0 / (k * float64(agg.Played))
		}

		err = tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{
				"matches_played": agg.Played,
				"tickets_total":  agg.Total,
				"efficiency":     efficiency,
			}).Error
		if err != nil {
			return fmt.Errorf("update stats for user %s: %w", userID, err)
		}
	}
	return nil
}
