package store

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/internal/live"
	"github.com/mcdev12/courtside/go/internal/models"
)

// handleGameUpdate replaces the game session wholesale from the
// broadcast payload, including echoes of transitions this client just
// requested. Applying the same snapshot twice is a no-op.
func (s *Store) handleGameUpdate(data json.RawMessage) {
	var payload live.GameUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("dropping malformed game_update broadcast")
		return
	}

	game := payload.Game
	s.mu.Lock()
	s.game = &game
	s.mu.Unlock()
	s.notify()

	log.Debug().
		Str("game_id", game.ID).
		Str("status", string(game.Status)).
		Int("home_score", game.HomeScore).
		Int("away_score", game.AwayScore).
		Msg("applied game_update broadcast")
}

// handleStatUpdate replaces the whole stat line collection when one is
// present, otherwise patches the single broadcast line, and applies any
// included score. Last-applied-wins: broadcasts carry no sequence
// token, so arrival order decides.
func (s *Store) handleStatUpdate(data json.RawMessage) {
	var payload live.StatUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("dropping malformed stat_update broadcast")
		return
	}

	s.mu.Lock()
	switch {
	case payload.Stats != nil:
		s.lines = payload.Stats
	case payload.Stat != nil:
		s.patchLineLocked(*payload.Stat)
	}
	if payload.GameScore != nil && s.game != nil {
		s.game.HomeScore = payload.GameScore.HomeScore
		s.game.AwayScore = payload.GameScore.AwayScore
	}
	s.mu.Unlock()
	s.notify()
}

// handleTimerUpdate patches the clock fields only, unconditionally
// overwriting any optimistic local value.
func (s *Store) handleTimerUpdate(data json.RawMessage) {
	var payload live.TimerUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("dropping malformed timer_update broadcast")
		return
	}

	s.mu.Lock()
	if s.game != nil {
		s.game.TimeRemainingSeconds = payload.TimeRemainingSeconds
		s.game.CurrentQuarter = payload.CurrentQuarter
		if payload.TimeDisplay != "" {
			s.game.TimeDisplay = payload.TimeDisplay
		}
	}
	s.mu.Unlock()
	s.notify()
}

// handleQuarterEnd zeroes the clock for the finished quarter. The next
// timer_update or game_update carries the new quarter.
func (s *Store) handleQuarterEnd(data json.RawMessage) {
	var payload live.QuarterEndPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("dropping malformed quarter_end broadcast")
		return
	}

	s.mu.Lock()
	if s.game != nil {
		s.game.TimeRemainingSeconds = 0
		s.game.TimeDisplay = fmt.Sprintf("End of Q%d", payload.Quarter)
	}
	s.mu.Unlock()
	s.notify()

	log.Info().Int("quarter", payload.Quarter).Msg("quarter ended")
}

// patchLineLocked replaces the matching stat line by player ID, or
// appends when the player has no line yet. Caller holds s.mu.
func (s *Store) patchLineLocked(line models.PlayerStatLine) {
	for i := range s.lines {
		if s.lines[i].PlayerID == line.PlayerID {
			s.lines[i] = line
			return
		}
	}
	s.lines = append(s.lines, line)
}
