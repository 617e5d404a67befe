package models

import "time"

const (
	RoleAdmin     = "admin"
	RoleMiniAdmin = "mini_admin"
	RolePlayer    = "player"
)

// Timestamps is embedded by models that only need created/updated tracking.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a roster member. The aggregate fields (MatchesPlayed, TicketsTotal,
// Efficiency) are derived from completed matches and are only ever written by
// the scoring engine and the stats recompute — never by user CRUD.
type User struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Username    string `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" gorm:"type:varchar(16);default:'player'"` // admin | mini_admin | player

	// Per-user bonus state consumed by the scoring engine
	JokerUsed    bool `json:"joker_used" gorm:"default:false"`    // one-way until an admin reset
	MomentumFlag bool `json:"momentum_flag" gorm:"default:false"` // set by the momentum recompute

	// Derived aggregates
	MatchesPlayed int     `json:"matches_played" gorm:"default:0"`
	TicketsTotal  int64   `json:"tickets_total" gorm:"default:0"`
	Efficiency    float64 `json:"efficiency" gorm:"default:0"`

	Timestamps
}

// UserStats = User + win/loss summary computed from participant rows.
type UserStats struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	MatchesPlayed int       `json:"matches_played"`
	TicketsTotal  int64     `json:"tickets_total"`
	Efficiency    float64   `json:"efficiency"`
	Wins          int64     `json:"wins"`
	Losses        int64     `json:"losses"`
	WinPercentage float64   `json:"win_percentage"`
	CreatedAt     time.Time `json:"created_at"`
}
