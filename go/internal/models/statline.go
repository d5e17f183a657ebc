package models

// PlayerStatLine is one player's accumulated counting stats for one game.
// Lines are server-owned: the store replaces them from stat_update
// broadcasts and never derives them locally.
type PlayerStatLine struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	TeamID     string `json:"team_id"`
	GameID     string `json:"game_id,omitempty"`

	Points                 int `json:"points"`
	FieldGoalsMade         int `json:"field_goals_made"`
	FieldGoalsAttempted    int `json:"field_goals_attempted"`
	ThreePointersMade      int `json:"three_pointers_made"`
	ThreePointersAttempted int `json:"three_pointers_attempted"`
	FreeThrowsMade         int `json:"free_throws_made"`
	FreeThrowsAttempted    int `json:"free_throws_attempted"`

	OffensiveRebounds int `json:"offensive_rebounds"`
	DefensiveRebounds int `json:"defensive_rebounds"`
	Rebounds          int `json:"rebounds"`
	Assists           int `json:"assists"`
	Steals            int `json:"steals"`
	Blocks            int `json:"blocks"`
	Turnovers         int `json:"turnovers"`
	Fouls             int `json:"fouls"`

	MinutesPlayed float64 `json:"minutes_played"`
	PlusMinus     int     `json:"plus_minus"`
	IsOnCourt     bool    `json:"is_on_court"`
}

// ExpectedPoints computes the point total implied by the made-shot counts:
// two-point field goals, three-pointers and free throws.
func (l PlayerStatLine) ExpectedPoints() int {
	return (l.FieldGoalsMade-l.ThreePointersMade)*2 + l.ThreePointersMade*3 + l.FreeThrowsMade
}
