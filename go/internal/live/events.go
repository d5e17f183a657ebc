package live

import (
	"encoding/json"

	"github.com/mcdev12/courtside/go/internal/models"
)

// Logical channel names multiplexed over one feed connection.
const (
	ChannelGame  = "game"
	ChannelStats = "stats"
)

// Inbound event discriminants pushed by the live feed.
const (
	EventGameUpdate     = "game_update"
	EventStatUpdate     = "stat_update"
	EventTimerUpdate    = "timer_update"
	EventQuarterEnd     = "quarter_end"
	EventGameConnected  = "game_connected"
	EventStatsConnected = "stats_connected"
	EventError          = "error"
	EventPong           = "pong"
)

// Outbound action names sent to the live feed. All sends are
// fire-and-forget: no delivery acknowledgment is tracked.
const (
	ActionSubscribe    = "subscribe"
	ActionUnsubscribe  = "unsubscribe"
	ActionUpdateTimer  = "update_timer"
	ActionPing         = "ping"
	ActionRequestStats = "request_stats"
)

// Event is the envelope for every inbound feed message. Type identifies
// the logical event; Data carries the event-specific payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Action is the envelope for every outbound message.
type Action struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// SubscribePayload scopes a subscribe/unsubscribe action to one logical
// channel of one game.
type SubscribePayload struct {
	Channel string `json:"channel"`
	GameID  string `json:"game_id"`
}

// UpdateTimerPayload carries an optimistic clock update to the feed.
type UpdateTimerPayload struct {
	GameID               string `json:"game_id"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	CurrentQuarter       int    `json:"current_quarter"`
}

// RequestStatsPayload asks the feed to re-send the current stat lines.
type RequestStatsPayload struct {
	GameID string `json:"game_id"`
}

// GameUpdatePayload replaces the whole game session snapshot.
type GameUpdatePayload struct {
	Game models.GameSession `json:"game"`
}

// GameScore carries just the two score fields when a broadcast includes
// an updated score alongside stat changes.
type GameScore struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// StatUpdatePayload either replaces the whole stat line collection
// (Stats set) or patches a single line (Stat set), optionally with an
// updated game score.
type StatUpdatePayload struct {
	Stats     []models.PlayerStatLine `json:"stats,omitempty"`
	Stat      *models.PlayerStatLine  `json:"stat,omitempty"`
	GameScore *GameScore              `json:"game_score,omitempty"`
}

// TimerUpdatePayload patches the clock fields only.
type TimerUpdatePayload struct {
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	CurrentQuarter       int    `json:"current_quarter"`
	TimeDisplay          string `json:"time_display,omitempty"`
}

// QuarterEndPayload announces the end of a quarter.
type QuarterEndPayload struct {
	Quarter int `json:"quarter"`
}

// ErrorPayload carries a feed-side error message.
type ErrorPayload struct {
	Message string `json:"message"`
}
