package models

import "time"

const (
	MatchStatusPending    = "pending"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
)

// Match is a single played instance of a Game. Pot is derived, never
// user-supplied: K × participants (× effective time factor at completion).
// TimeFactor here is already the effective factor (match × game), fixed at
// creation time.
type Match struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	GameID        string    `json:"game_id" gorm:"index;not null"`
	AdminID       string    `json:"admin_id" gorm:"index;not null"`
	MiniAdminID   string    `json:"mini_admin_id" gorm:"index"`
	Timestamp     time.Time `json:"timestamp" gorm:"autoCreateTime"`
	Pot           int64     `json:"pot" gorm:"default:0"`
	TimeFactor    float64   `json:"time_factor" gorm:"default:1.0"`
	Status        string    `json:"status" gorm:"type:varchar(16);default:'pending'"` // pending | in_progress | completed
	WinningTeamID *string   `json:"winning_team_id,omitempty" gorm:"index"`           // set only by team completion

	Timestamps

	// Relationships
	Game         Game               `json:"game,omitempty" gorm:"foreignKey:GameID"`
	Participants []MatchParticipant `json:"participants,omitempty" gorm:"foreignKey:MatchID"`
	Teams        []MatchTeam        `json:"teams,omitempty" gorm:"foreignKey:MatchID"`
}

// MatchParticipant joins a user into a match. Outcome fields are zero until
// the match completes. JokerDeclared is pre-completion intent; JokerPlayed is
// the settled outcome (declared AND the user still had a joker).
type MatchParticipant struct {
	ID      string  `json:"id" gorm:"primaryKey"`
	MatchID string  `json:"match_id" gorm:"uniqueIndex:idx_match_user;not null"`
	UserID  string  `json:"user_id" gorm:"uniqueIndex:idx_match_user;index;not null"`
	TeamID  *string `json:"team_id,omitempty" gorm:"index"`

	JokerDeclared     bool `json:"joker_declared" gorm:"default:false"`
	IsWinner          bool `json:"is_winner" gorm:"default:false"`
	IsMVP             bool `json:"is_mvp" gorm:"default:false"`
	JokerPlayed       bool `json:"joker_played" gorm:"default:false"`
	MomentumTriggered bool `json:"momentum_triggered" gorm:"default:false"`

	BaseTickets  int64 `json:"base_tickets" gorm:"default:0"`
	BonusTickets int64 `json:"bonus_tickets" gorm:"default:0"`
	TotalTickets int64 `json:"total_tickets" gorm:"default:0"`

	Timestamps
}

// ParticipantResult is a participant row joined with its user, ordered by
// total tickets in result projections.
type ParticipantResult struct {
	UserID            string  `json:"user_id"`
	Username          string  `json:"username"`
	DisplayName       string  `json:"display_name"`
	TeamID            *string `json:"team_id,omitempty"`
	JokerDeclared     bool    `json:"joker_declared"`
	IsWinner          bool    `json:"is_winner"`
	IsMVP             bool    `json:"is_mvp"`
	JokerPlayed       bool    `json:"joker_played"`
	MomentumTriggered bool    `json:"momentum_triggered"`
	BaseTickets       int64   `json:"base_tickets"`
	BonusTickets      int64   `json:"bonus_tickets"`
	TotalTickets      int64   `json:"total_tickets"`
}

// MatchResults is the completion response and the historical results view.
type MatchResults struct {
	MatchID       string              `json:"match_id"`
	GameID        string              `json:"game_id"`
	GameName      string              `json:"game_name"`
	Pot           int64               `json:"pot"`
	Status        string              `json:"status"`
	Timestamp     time.Time           `json:"timestamp"`
	WinningTeamID *string             `json:"winning_team_id,omitempty"`
	Participants  []ParticipantResult `json:"participants"`
}

/// MatchSummary is the list view: match + denormalized names and player count.
type MatchSummary struct {
	ID                string    `json:"id"`
	GameID            string    `json:"game_id"`
	GameName          string    `json:"game_name"`
	GameType          string    `json:"game_type"`
	AdminID           string    `json:"admin_id"`
	AdminUsername     string    `json:"admin_username"`
	MiniAdminID       string    `json:"mini_admin_id"`
	MiniAdminUsername string    `json:"mini_admin_username"`
	Timestamp         time.Time `json:"timestamp"`
	Pot               int64     `json:"pot"`
	TimeFactor        float64   `json:"time_factor"`
	Status            string    `json:"status"`
	PlayerCount       int64     `json:"player_count"`
}
