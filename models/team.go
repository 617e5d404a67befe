package models

// TeamColorPalette is assigned round-robin when teams are created for a match.
var TeamColorPalette = []string{"blue", "red", "green", "yellow", "purple", "orange"}

// MatchTeam groups participants within a single team-type match. Deleting a
// team clears its participants' team reference, it never deletes them.
type MatchTeam struct {
	ID      string `json:"id" gorm:"primaryKey"`
	MatchID string `json:"match_id" gorm:"uniqueIndex:idx_match_team_name;not null"`
	Name    string `json:"name" gorm:"uniqueIndex:idx_match_team_name;not null"`
	Color   string `json:"color"`

	Timestamps
}

// TeamWithParticipants is the per-match team roster view.
type TeamWithParticipants struct {
	MatchTeam
	Participants []ParticipantResult `json:"participants"`
}
