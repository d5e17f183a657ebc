package models

// GameStatus represents the lifecycle state of a live game
type GameStatus string

const (
	StatusScheduled GameStatus = "scheduled"
	StatusActive    GameStatus = "active"
	StatusPaused    GameStatus = "paused"
	StatusCompleted GameStatus = "completed"
)

// CanTransitionTo reports whether the status state machine allows moving
// from s to next. Completed is terminal.
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case StatusScheduled:
		return next == StatusActive
	case StatusActive:
		return next == StatusPaused || next == StatusCompleted
	case StatusPaused:
		return next == StatusActive || next == StatusCompleted
	case StatusCompleted:
		return false
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s GameStatus) Terminal() bool {
	return s == StatusCompleted
}

// TeamSummary is the lightweight team reference carried on a game session.
// Full team records are owned by the collaborator API.
type TeamSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr,omitempty"`
}

// GameSession is the authoritative record for one live game: score, clock
// and status. The synchronized store owns exactly one of these per process;
// it is replaced wholesale from command responses and game_update broadcasts.
type GameSession struct {
	ID                   string      `json:"id"`
	Status               GameStatus  `json:"status"`
	CurrentQuarter       int         `json:"current_quarter"`
	TimeRemainingSeconds int         `json:"time_remaining_seconds"`
	TimeDisplay          string      `json:"time_display,omitempty"`
	HomeScore            int         `json:"home_score"`
	AwayScore            int         `json:"away_score"`
	HomeTeam             TeamSummary `json:"home_team"`
	AwayTeam             TeamSummary `json:"away_team"`
}
