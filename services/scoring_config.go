package services

import (
	"os"
	"strconv"
)

// ScoringConfig holds the ticket formula constants. Fractions are applied to
// the match pot; the joker and momentum multipliers are fixed by the rules,
// not tunable via env.
type ScoringConfig struct {
	K                  float64 // base pot per participant
	WinFraction        float64
	LoseFraction       float64
	MVPFraction        float64
	JokerMultiplier    int64
	MomentumMultiplier float64

	// DefaultMiniAdminID is assigned to matches created without an explicit
	// mini-admin. Injected instead of looked up by a magic username.
	DefaultMiniAdminID string
}

var DefaultScoringConfig = ScoringConfig{
	K:                  40,
	WinFraction:        0.70,
	LoseFraction:       0.30,
	MVPFraction:        0.05,
	JokerMultiplier:    2,
	MomentumMultiplier: 1.25,
}

// LoadScoringConfig reads K/WIN/LOSE/MVP_BONUS (and the fallback mini-admin)
// from the environment, falling back to the defaults above.
func LoadScoringConfig() ScoringConfig {
	cfg := DefaultScoringConfig
	cfg.K = envFloat("K", cfg.K)
	cfg.WinFraction = envFloat("WIN", cfg.WinFraction)
	cfg.LoseFraction = envFloat("LOSE", cfg.LoseFraction)
	cfg.MVPFraction = envFloat("MVP_BONUS", cfg.MVPFraction)
	cfg.DefaultMiniAdminID = os.Getenv("DEFAULT_MINI_ADMIN_ID")
	return cfg
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}
