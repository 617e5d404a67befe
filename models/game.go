package models

const (
	GameTypeTeam       = "team"
	GameTypeIndividual = "individual"
	GameTypeTournament = "tournament"
)

// Game is an activity definition. TimeFactor scales the pot of matches played
// on this game (longer games earn a bigger pot).
type Game struct {
	ID         string  `json:"id" gorm:"primaryKey"`
	Name       string  `json:"name" gorm:"not null"`
	Slug       string  `json:"slug" gorm:"index"`
	Type       string  `json:"type" gorm:"type:varchar(16);not null"` // team | individual | tournament
	MinPlayers int     `json:"min_players" gorm:"default:2"`
	MaxPlayers int     `json:"max_players" gorm:"default:0"` // 0 = unlimited
	TimeFactor float64 `json:"time_factor" gorm:"default:1.0"`

	Timestamps
}
