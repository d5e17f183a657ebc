package gameapi

import "github.com/mcdev12/courtside/go/internal/models"

// StatAction is one recorded stat event (a made shot, a foul, a
// rebound). The server folds it into the canonical stat line and
// rebroadcasts the result; clients never apply it locally.
type StatAction struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	StatType string `json:"stat_type"`
	Value    int    `json:"value"`

	// IdempotencyKey lets the server drop duplicate submissions from
	// fast double-taps.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Stat type names accepted by RecordStat.
const (
	StatFieldGoalMade    = "field_goal_made"
	StatFieldGoalMissed  = "field_goal_missed"
	StatThreePointerMade = "three_pointer_made"
	StatThreePointerMiss = "three_pointer_missed"
	StatFreeThrowMade    = "free_throw_made"
	StatFreeThrowMissed  = "free_throw_missed"
	StatOffensiveRebound = "offensive_rebound"
	StatDefensiveRebound = "defensive_rebound"
	StatAssist           = "assist"
	StatSteal            = "steal"
	StatBlock            = "block"
	StatTurnover         = "turnover"
	StatFoul             = "foul"
)

// BoxScore is the full snapshot of a game with both teams' stat lines.
type BoxScore struct {
	Game      models.GameSession      `json:"game"`
	HomeStats []models.PlayerStatLine `json:"home_stats"`
	AwayStats []models.PlayerStatLine `json:"away_stats"`
}
