package services

import (
	"errors"
	"fmt"
	"log"

	"mini-olympics-system/models"
	"mini-olympics-system/utils"

	"gorm.io/gorm"
)

// ScoringService is the scoring engine: it converts match outcome
// declarations into a persisted ticket distribution. Every completion (and
// every completed-match deletion) runs as one transaction — participant rows,
// the match row and the affected user rows update together or not at all.
type ScoringService struct {
	DB       *gorm.DB
	Config   ScoringConfig
	Momentum MomentumPolicy
}

func NewScoringService(db *gorm.DB, cfg ScoringConfig) *ScoringService {
	return &ScoringService{
		DB:       db,
		Config:   cfg,
		Momentum: RankBasedMomentumPolicy(DefaultMomentumRankThreshold),
	}
}

// CompleteMatch settles a regular winner/loser match. winners must be a
// non-empty subset of the current participants; mvpID (optional) must be a
// participant; jokersPlayed lists participants declaring their joker at
// completion time, on top of any pre-declared intent. A joker only takes
// effect if its user still has one.
func (s *ScoringService) CompleteMatch(matchID string, winners []string, mvpID string, jokersPlayed []string) (*models.MatchResults, error) {
	return s.completeRegular(matchID, winners, mvpID, jokersPlayed, nil)
}

// CompleteTeamMatch resolves the winning team's members as winners and
// delegates to the regular completion flow, additionally persisting the
// winning team on the match. The MVP, if given, must be on the winning team.
func (s *ScoringService) CompleteTeamMatch(matchID, winningTeamID, mvpID string) (*models.MatchResults, error) {
	var team models.MatchTeam
	if err := s.DB.First(&team, "id = ?", winningTeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("winning team %s: %w", winningTeamID, ErrNotFound)
		}
		return nil, fmt.Errorf("load winning team: %w", err)
	}
	if team.MatchID != matchID {
		return nil, validationf("team %s does not belong to match %s", winningTeamID, matchID)
	}

	var members []models.MatchParticipant
	if err := s.DB.Where("match_id = ? AND team_id = ?", matchID, winningTeamID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load team members: %w", err)
	}
	if len(members) == 0 {
		return nil, validationf("winning team %s has no participants", winningTeamID)
	}

	winners := make([]string, 0, len(members))
	mvpOnTeam := false
	for _, m := range members {
		winners = append(winners, m.UserID)
		if mvpID != "" && m.UserID == mvpID {
			mvpOnTeam = true
		}
	}
	if mvpID != "" && !mvpOnTeam {
		return nil, validationf("mvp %s must be a member of the winning team", mvpID)
	}

	return s.completeRegular(matchID, winners, mvpID, nil, &winningTeamID)
}

func (s *ScoringService) completeRegular(matchID string, winners []string, mvpID string, jokersPlayed []string, winningTeamID *string) (*models.MatchResults, error) {
	if len(winners) == 0 {
		return nil, validationf("winners must not be empty")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		match, states, err := s.loadMatchForCompletion(tx, matchID)
		if err != nil {
			return err
		}

		byUser := make(map[string]int, len(states))
		for i, p := range states {
			byUser[p.UserID] = i
		}

		winnerSet := make(map[string]bool, len(winners))
		for _, id := range winners {
			if _, ok := byUser[id]; !ok {
				return validationf("winner %s is not a participant of match %s", id, matchID)
			}
			winnerSet[id] = true
		}
		if mvpID != "" {
			if _, ok := byUser[mvpID]; !ok {
				return validationf("mvp %s is not a participant of match %s", mvpID, matchID)
			}
		}
		for _, id := range jokersPlayed {
			i, ok := byUser[id]
			if !ok {
				return validationf("joker player %s is not a participant of match %s", id, matchID)
			}
			states[i].JokerDeclared = true
		}

		pot := s.Config.matchPot(len(states), match.TimeFactor)
		outcomes := s.Config.computeAwards(pot, states, winnerSet, mvpID)

		if err := s.markCompleted(tx, matchID, pot, winningTeamID); err != nil {
			return err
		}
		return s.persistOutcomes(tx, matchID, outcomes)
	})
	if err != nil {
		return nil, err
	}
	return s.finishCompletion(matchID)
}

// CompleteTournament settles a ranked free-for-all. The rankings must cover
// exactly the match's participants with unique ranks starting at 1.
func (s *ScoringService) CompleteTournament(matchID string, rankings []Ranking) (*models.MatchResults, error) {
	if len(rankings) == 0 {
		return nil, validationf("rankings must not be empty")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		_, states, err := s.loadMatchForCompletion(tx, matchID)
		if err != nil {
			return err
		}

		participants := make(map[string]bool, len(states))
		for _, p := range states {
			participants[p.UserID] = true
		}

		seenUser := make(map[string]bool, len(rankings))
		seenRank := make(map[int]bool, len(rankings))
		for _, r := range rankings {
			if r.Rank < 1 {
				return validationf("rank for user %s must be at least 1", r.UserID)
			}
			if !participants[r.UserID] {
				return validationf("ranked user %s is not a participant of match %s", r.UserID, matchID)
			}
			if seenUser[r.UserID] {
				return validationf("user %s is ranked more than once", r.UserID)
			}
			if seenRank[r.Rank] {
				return validationf("rank %d is assigned more than once", r.Rank)
			}
			seenUser[r.UserID] = true
			seenRank[r.Rank] = true
		}
		if len(rankings) != len(states) {
			return validationf("rankings must cover all %d participants of match %s", len(states), matchID)
		}

		pot, outcomes := s.Config.computeTournamentAwards(rankings)
		if err := s.markCompleted(tx, matchID, pot, nil); err != nil {
			return err
		}
		return s.persistOutcomes(tx, matchID, outcomes)
	})
	if err != nil {
		return nil, err
	}
	return s.finishCompletion(matchID)
}

// loadMatchForCompletion loads the match plus one state snapshot per
// participant (declaration + user joker/momentum state). Fails with
// ErrConflict if the match is already completed.
func (s *ScoringService) loadMatchForCompletion(tx *gorm.DB, matchID string) (*models.Match, []participantState, error) {
	var match models.Match
	if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load match: %w", err)
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, nil, fmt.Errorf("match %s is already completed: %w", matchID, ErrConflict)
	}

	var states []participantState
	err := tx.Model(&models.MatchParticipant{}).
		Select("match_participants.user_id, match_participants.joker_declared, users.joker_used, users.momentum_flag").
		Joins("JOIN users ON users.id = match_participants.user_id").
		Where("match_participants.match_id = ?", matchID).
		Scan(&states).Error
	if err != nil {
		return nil, nil, fmt.Errorf("load participants: %w", err)
	}
	if len(states) == 0 {
		return nil, nil, validationf("match %s has no participants", matchID)
	}
	return &match, states, nil
}

// markCompleted is the check-and-set status transition: it only succeeds if
// the match is not yet completed, so a concurrent second completion loses and
// rolls back instead of re-awarding tickets.
func (s *ScoringService) markCompleted(tx *gorm.DB, matchID string, pot int64, winningTeamID *string) error {
	updates := map[string]interface{}{
		"status": models.MatchStatusCompleted,
		"pot":    pot,
	}
	if winningTeamID != nil {
		updates["winning_team_id"] = *winningTeamID
	}
	res := tx.Model(&models.Match{}).
		Where("id = ? AND status <> ?", matchID, models.MatchStatusCompleted).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("complete match: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("match %s is already completed: %w", matchID, ErrConflict)
	}
	return nil
}

// persistOutcomes writes the settled participant rows, consumes played
// jokers, clears triggered momentum flags, then recomputes user aggregates
// and momentum flags — all inside the completion transaction.
func (s *ScoringService) persistOutcomes(tx *gorm.DB, matchID string, outcomes []awardOutcome) error {
	affected := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		err := tx.Model(&models.MatchParticipant{}).
			Where("match_id = ? AND user_id = ?", matchID, o.UserID).
			Updates(map[string]interface{}{
				"is_winner":          o.IsWinner,
				"is_mvp":             o.IsMVP,
				"joker_played":       o.JokerPlayed,
				"momentum_triggered": o.MomentumTriggered,
				"base_tickets":       o.BaseTickets,
				"bonus_tickets":      o.BonusTickets,
				"total_tickets":      o.TotalTickets,
			}).Error
		if err != nil {
			return fmt.Errorf("persist outcome for user %s: %w", o.UserID, err)
		}

		if o.JokerPlayed {
			if err := tx.Model(&models.User{}).Where("id = ?", o.UserID).
				Update("joker_used", true).Error; err != nil {
				return fmt.Errorf("consume joker for user %s: %w", o.UserID, err)
			}
		}
		if o.MomentumTriggered {
			if err := tx.Model(&models.User{}).Where("id = ?", o.UserID).
				Update("momentum_flag", false).Error; err != nil {
				return fmt.Errorf("clear momentum for user %s: %w", o.UserID, err)
			}
		}
		affected = append(affected, o.UserID)
	}

	if err := recomputeUserStats(tx, s.Config.K, affected); err != nil {
		return err
	}
	return recomputeMomentumFlags(tx, s.Momentum)
}

// finishCompletion builds the completion response and, when configured,
// archives it. The archive is best-effort and runs after commit — a storage
// hiccup must never roll back an award.
func (s *ScoringService) finishCompletion(matchID string) (*models.MatchResults, error) {
	results, err := s.GetMatchResults(matchID)
	if err != nil {
		return nil, err
	}
	if utils.R2Enabled() {
		if _, err := utils.UploadJSONToR2("results/"+matchID+".json", results); err != nil {
			log.Printf("⚠️  failed to archive results for match %s: %v", matchID, err)
		}
	}
	return results, nil
}

// GetMatchResults returns the match metadata plus participant outcomes
// ordered by total tickets descending. Not-found when the match does not
// exist or has no participants.
func (s *ScoringService) GetMatchResults(matchID string) (*models.MatchResults, error) {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("load match: %w", err)
	}

	var participants []models.ParticipantResult
	err := s.DB.Model(&models.MatchParticipant{}).
		Select(`match_participants.user_id, users.username, users.display_name,
			match_participants.is_winner, match_participants.is_mvp,
			match_participants.joker_played, match_participants.momentum_triggered,
			match_participants.base_tickets, match_participants.bonus_tickets,
			match_participants.total_tickets`).
		Joins("JOIN users ON users.id = match_participants.user_id").
		Where("match_participants.match_id = ?", matchID).
		Order("match_participants.total_tickets DESC").
		Scan(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("load participant results: %w", err)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("match %s has no participants: %w", matchID, ErrNotFound)
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", match.GameID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load game: %w", err)
	}

	return &models.MatchResults{
		MatchID:       match.ID,
		GameID:        match.GameID,
		GameName:      game.Name,
		Pot:           match.Pot,
		Status:        match.Status,
		Timestamp:     match.Timestamp,
		WinningTeamID: match.WinningTeamID,
		Participants:  participants,
	}, nil
}

// DeleteMatch removes a match with its participants and teams. Deleting a
// completed match additionally rebuilds every affected user's aggregates in
// the same transaction, so no deleted contribution survives.
func (s *ScoringService) DeleteMatch(matchID string) (*models.Match, error) {
	var deleted models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("match %s: %w", matchID, ErrNotFound)
			}
			return fmt.Errorf("load match: %w", err)
		}
		wasCompleted := deleted.Status == models.MatchStatusCompleted

		var affected []string
		if wasCompleted {
			if err := tx.Model(&models.MatchParticipant{}).
				Where("match_id = ?", matchID).
				Distinct("user_id").
				Pluck("user_id", &affected).Error; err != nil {
				return fmt.Errorf("collect affected users: %w", err)
			}
		}

		if err := tx.Where("match_id = ?", matchID).Delete(&models.MatchParticipant{}).Error; err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&models.MatchTeam{}).Error; err != nil {
			return fmt.Errorf("delete teams: %w", err)
		}
		if err := tx.Delete(&models.Match{}, "id = ?", matchID).Error; err != nil {
			return fmt.Errorf("delete match: %w", err)
		}

		if wasCompleted {
			if err := recomputeUserStats(tx, s.Config.K, affected); err != nil {
				return err
			}
			return recomputeMomentumFlags(tx, s.Momentum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
