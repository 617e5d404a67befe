package services

import "math"

// participantState is the full snapshot the award computation needs for one
// participant: the pre-match declaration plus the owning user's bonus state.
// Awards are a pure function of these snapshots, the winner set and the MVP —
// the transaction boundary is responsible for committing the resulting state.
type participantState struct {
	UserID        string
	JokerDeclared bool
	JokerUsed     bool
	MomentumFlag  bool
}

// awardOutcome is the settled result for one participant of a completed match.
type awardOutcome struct {
	UserID            string
	IsWinner          bool
	IsMVP             bool
	JokerPlayed       bool
	MomentumTriggered bool
	BaseTickets       int64
	BonusTickets      int64
	TotalTickets      int64
}

// multiplierStage is one step of the ordered multiplier pipeline. The order of
// the stages is load-bearing: joker doubles base+bonus first, momentum scales
// the doubled value.
type multiplierStage struct {
	Name    string
	Applies func(o awardOutcome) bool
	Apply   func(total int64) int64
}

func (cfg ScoringConfig) multiplierPipeline() []multiplierStage {
	return []multiplierStage{
		{
			Name:    "joker",
			Applies: func(o awardOutcome) bool { return o.JokerPlayed },
			Apply:   func(total int64) int64 { return total * cfg.JokerMultiplier },
		},
		{
			Name:    "momentum",
			Applies: func(o awardOutcome) bool { return o.MomentumTriggered },
			Apply: func(total int64) int64 {
				return roundTickets(float64(total) * cfg.MomentumMultiplier)
			},
		},
	}
}

// matchPot = round(K × participants × effective time factor). Used both for
// the pre-completion projection and the final award total base.
func (cfg ScoringConfig) matchPot(participants int, timeFactor float64) int64 {
	return roundTickets(cfg.K * float64(participants) * timeFactor)
}

// computeAwards settles a regular (winner/loser) match against a pot the
// caller derived (the match's effective time factor is already folded in).
// Shares are rounded independently, so the pot is not redistributed exactly —
// that drift is accepted behavior.
func (cfg ScoringConfig) computeAwards(pot int64, participants []participantState, winners map[string]bool, mvpID string) []awardOutcome {
	numWinners := len(winners)
	numLosers := len(participants) - numWinners
	winnerShare := roundTickets(float64(pot) * cfg.WinFraction / float64(numWinners))
	var loserShare int64
	if numLosers > 0 {
		loserShare = roundTickets(float64(pot) * cfg.LoseFraction / float64(numLosers))
	}
	mvpBonus := roundTickets(float64(pot) * cfg.MVPFraction)

	pipeline := cfg.multiplierPipeline()
	outcomes := make([]awardOutcome, 0, len(participants))
	for _, p := range participants {
		o := awardOutcome{
			UserID:            p.UserID,
			IsWinner:          winners[p.UserID],
			IsMVP:             mvpID != "" && p.UserID == mvpID,
			JokerPlayed:       p.JokerDeclared && !p.JokerUsed,
			MomentumTriggered: p.MomentumFlag && winners[p.UserID],
		}

		if o.IsWinner {
			o.BaseTickets = winnerShare
		} else {
			o.BaseTickets = loserShare
		}
		if o.IsMVP {
			o.BonusTickets = mvpBonus
		}

		// Base + bonus is fixed before any multiplier runs.
		o.TotalTickets = o.BaseTickets + o.BonusTickets
		for _, stage := range pipeline {
			if stage.Applies(o) {
				o.TotalTickets = stage.Apply(o.TotalTickets)
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Ranking is one (user, rank) pair of a tournament outcome. Rank 1 is best.
type Ranking struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
}

// computeTournamentAwards settles a ranked free-for-all: flat pot of K per
// participant (no time scaling), linear weights P..1 by rank.
func (cfg ScoringConfig) computeTournamentAwards(rankings []Ranking) (pot int64, outcomes []awardOutcome) {
	total := len(rankings)
	pot = roundTickets(cfg.K * float64(total))
	weightSum := float64(total*(total+1)) / 2

	outcomes = make([]awardOutcome, 0, total)
	for _, r := range rankings {
		weight := total - r.Rank + 1
		tickets := roundTickets(float64(pot) * float64(weight) / weightSum)
		outcomes = append(outcomes, awardOutcome{
			UserID:       r.UserID,
			IsWinner:     r.Rank == 1,
			BaseTickets:  tickets,
			TotalTickets: tickets,
		})
	}
	return pot, outcomes
}

func roundTickets(v float64) int64 {
	return int64(math.Round(v))
}
