package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findOutcome(t *testing.T, outcomes []awardOutcome, userID string) awardOutcome {
	t.Helper()
	for _, o := range outcomes {
		if o.UserID == userID {
			return o
		}
	}
	t.Fatalf("no outcome for user %s", userID)
	return awardOutcome{}
}

func TestMatchPot(t *testing.T) {
	cfg := DefaultScoringConfig

	assert.Equal(t, int64(160), cfg.matchPot(4, 1.0))
	assert.Equal(t, int64(240), cfg.matchPot(4, 1.5))
	assert.Equal(t, int64(0), cfg.matchPot(0, 1.0))
	// rounds, never truncates
	assert.Equal(t, int64(133), cfg.matchPot(3, 1.105))
}

func TestComputeAwardsShares(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"},
	}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "")
	require.Len(t, outcomes, 4)

	a := findOutcome(t, outcomes, "a")
	assert.True(t, a.IsWinner)
	assert.Equal(t, int64(112), a.BaseTickets) // 160 × 0.70
	assert.Equal(t, int64(112), a.TotalTickets)

	for _, id := range []string{"b", "c", "d"} {
		o := findOutcome(t, outcomes, id)
		assert.False(t, o.IsWinner)
		assert.Equal(t, int64(16), o.BaseTickets) // 160 × 0.30 / 3
		assert.Equal(t, int64(16), o.TotalTickets)
	}
}

func TestComputeAwardsMVPBonus(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{{UserID: "a"}, {UserID: "b"}}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "b")

	b := findOutcome(t, outcomes, "b")
	assert.True(t, b.IsMVP)
	assert.Equal(t, int64(48), b.BaseTickets)
	assert.Equal(t, int64(8), b.BonusTickets) // 160 × 0.05
	assert.Equal(t, int64(56), b.TotalTickets)
}

func TestComputeAwardsJokerDoublesBaseAndBonus(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a", JokerDeclared: true},
		{UserID: "b"},
	}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "a")

	a := findOutcome(t, outcomes, "a")
	assert.True(t, a.JokerPlayed)
	// (112 + 8) × 2, not 112 × 2 + 8
	assert.Equal(t, int64(240), a.TotalTickets)
}

func TestComputeAwardsJokerDoublesWinnerShare(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a", JokerDeclared: true},
		{UserID: "b"}, {UserID: "c"}, {UserID: "d"},
	}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "")

	a := findOutcome(t, outcomes, "a")
	assert.Equal(t, int64(112), a.BaseTickets)
	assert.Equal(t, int64(224), a.TotalTickets)
}

func TestComputeAwardsJokerNeedsUnusedJoker(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a", JokerDeclared: true, JokerUsed: true},
		{UserID: "b"},
	}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "")

	a := findOutcome(t, outcomes, "a")
	assert.False(t, a.JokerPlayed)
	assert.Equal(t, int64(112), a.TotalTickets)
}

func TestComputeAwardsMomentumOnlyOnWin(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a", MomentumFlag: true},
		{UserID: "b", MomentumFlag: true},
	}
	winners := map[string]bool{"a": true}

	outcomes := cfg.computeAwards(160, participants, winners, "")

	a := findOutcome(t, outcomes, "a")
	assert.True(t, a.MomentumTriggered)
	assert.Equal(t, int64(140), a.TotalTickets) // 112 × 1.25

	b := findOutcome(t, outcomes, "b")
	assert.False(t, b.MomentumTriggered)
	assert.Equal(t, int64(48), b.TotalTickets)
}

func TestComputeAwardsMultiplierOrderJokerBeforeMomentum(t *testing.T) {
	cfg := DefaultScoringConfig
	participants := []participantState{
		{UserID: "a", JokerDeclared: true, MomentumFlag: true},
		{UserID: "b"},
	}
	winners := map[string]bool{"a": true}

	// pot 151 → winner share round(105.7) = 106. Joker first gives
	// round(212 × 1.25) = 265; momentum first would round 132.5 up and
	// end at 266.
	outcomes := cfg.computeAwards(151, participants, winners, "")

	a := findOutcome(t, outcomes, "a")
	assert.True(t, a.JokerPlayed)
	assert.True(t, a.MomentumTriggered)
	assert.Equal(t, int64(106), a.BaseTickets)
	assert.Equal(t, int64(265), a.TotalTickets)
}

func TestComputeTournamentAwards(t *testing.T) {
	cfg := DefaultScoringConfig
	rankings := []Ranking{
		{UserID: "a", Rank: 1},
		{UserID: "b", Rank: 2},
		{UserID: "c", Rank: 3},
	}

	pot, outcomes := cfg.computeTournamentAwards(rankings)

	// flat pot, no time scaling
	assert.Equal(t, int64(120), pot)
	require.Len(t, outcomes, 3)

	a := findOutcome(t, outcomes, "a")
	assert.True(t, a.IsWinner)
	assert.Equal(t, int64(60), a.TotalTickets) // weight 3 of 6

	assert.Equal(t, int64(40), findOutcome(t, outcomes, "b").TotalTickets)
	assert.Equal(t, int64(20), findOutcome(t, outcomes, "c").TotalTickets)
	assert.False(t, findOutcome(t, outcomes, "b").IsWinner)
}

func TestComputeTournamentAwardsRoundingDrift(t *testing.T) {
	cfg := DefaultScoringConfig
	rankings := []Ranking{
		{UserID: "a", Rank: 1},
		{UserID: "b", Rank: 2},
		{UserID: "c", Rank: 3},
		{UserID: "d", Rank: 4},
		{UserID: "e", Rank: 5},
		{UserID: "f", Rank: 6},
		{UserID: "g", Rank: 7},
	}

	pot, outcomes := cfg.computeTournamentAwards(rankings)

	// Each share is rounded independently; the sum may drift from the pot
	// by at most one ticket per participant.
	var sum int64
	for _, o := range outcomes {
		sum += o.TotalTickets
	}
	drift := sum - pot
	if drift < 0 {
		drift = -drift
	}
	assert.LessOrEqual(t, drift, int64(len(rankings)))
}
