// Package store holds the single authoritative client-side copy of one
// live game and its stat lines. It composes the live feed manager (for
// broadcasts), the game API client (for request/response commands) and
// the stats engine (for derived values).
//
// Update modes are fixed per field: the clock (time remaining, quarter)
// is optimistic — applied locally then overwritten by any timer_update
// broadcast. Everything else (score, stat lines, status) is
// authoritative — applied only from a command response or broadcast.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/clients/gameapi"
	"github.com/mcdev12/courtside/go/internal/live"
	"github.com/mcdev12/courtside/go/internal/models"
	"github.com/mcdev12/courtside/go/internal/stats"
)

// GameAPI is what the store needs from the data-access collaborator.
type GameAPI interface {
	GetGame(ctx context.Context, gameID string) (*models.GameSession, error)
	GetGameStats(ctx context.Context, gameID string) ([]models.PlayerStatLine, error)
	StartGame(ctx context.Context, gameID string) (*models.GameSession, error)
	PauseGame(ctx context.Context, gameID string) (*models.GameSession, error)
	ResumeGame(ctx context.Context, gameID string) (*models.GameSession, error)
	EndGame(ctx context.Context, gameID string) (*models.GameSession, error)
	RecordStat(ctx context.Context, action gameapi.StatAction) error
	UpdateStat(ctx context.Context, line models.PlayerStatLine) (*models.PlayerStatLine, error)
	DeleteStat(ctx context.Context, gameID, playerID string) error
	GetBoxScore(ctx context.Context, gameID string) (*gameapi.BoxScore, error)
}

// Feed is what the store needs from the live connection manager.
type Feed interface {
	Connect(ctx context.Context) error
	Disconnect()
	SubscribeToGame(gameID string) error
	UnsubscribeFromGame() error
	On(event string, h live.Handler) uuid.UUID
	Off(event string, ids ...uuid.UUID)
	Send(action string, payload any) error
	OnStatusChange(fn func(live.State))
}

// Store is the synchronized game store. One instance is created at
// application start and passed to call sites; it owns the GameSession
// and PlayerStatLine records exclusively.
type Store struct {
	api  GameAPI
	feed Feed

	mu            sync.Mutex
	game          *models.GameSession
	lines         []models.PlayerStatLine
	loading       bool
	lastErr       error
	feedState     live.State
	registrations map[string]uuid.UUID
	onChange      func()
}

// New creates a store wired to the given collaborators and mirrors the
// feed's connection status.
func New(api GameAPI, feed Feed) *Store {
	s := &Store{
		api:           api,
		feed:          feed,
		registrations: make(map[string]uuid.UUID),
	}
	feed.OnStatusChange(func(st live.State) {
		s.mu.Lock()
		s.feedState = st
		s.mu.Unlock()
		s.notify()
	})
	return s
}

// OnChange registers a callback invoked after every observable state
// change, for consumers that re-render on update.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// LoadGame fetches the game snapshot and its stat lines and replaces
// local state wholesale. On failure the error field is set and any
// previously loaded data is left intact: stale-but-present beats empty.
func (s *Store) LoadGame(ctx context.Context, gameID string) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()

	game, err := s.api.GetGame(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("failed to load game")
		s.setErr(err)
		return err
	}
	lines, err := s.api.GetGameStats(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("failed to load game stats")
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.game = game
	s.lines = lines
	s.loading = false
	s.mu.Unlock()
	s.notify()

	log.Info().
		Str("game_id", gameID).
		Str("status", string(game.Status)).
		Int("stat_lines", len(lines)).
		Msg("game loaded")
	return nil
}

// ConnectToGame loads the game, attaches to the live feed, subscribes
// both channels and registers the broadcast handlers.
func (s *Store) ConnectToGame(ctx context.Context, gameID string) error {
	if err := s.LoadGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.feed.Connect(ctx); err != nil {
		s.setErr(err)
		return err
	}
	if err := s.feed.SubscribeToGame(gameID); err != nil {
		s.setErr(err)
		return err
	}
	s.registerHandlers()
	return nil
}

func (s *Store) registerHandlers() {
	s.mu.Lock()
	registered := len(s.registrations) > 0
	s.mu.Unlock()
	if registered {
		return
	}

	regs := map[string]uuid.UUID{
		live.EventGameUpdate:  s.feed.On(live.EventGameUpdate, s.handleGameUpdate),
		live.EventStatUpdate:  s.feed.On(live.EventStatUpdate, s.handleStatUpdate),
		live.EventTimerUpdate: s.feed.On(live.EventTimerUpdate, s.handleTimerUpdate),
		live.EventQuarterEnd:  s.feed.On(live.EventQuarterEnd, s.handleQuarterEnd),
	}
	s.mu.Lock()
	s.registrations = regs
	s.mu.Unlock()
}

// DisconnectFromGame unregisters the broadcast handlers and tears down
// the feed connection. Loaded game data remains visible, stale, until
// ClearGame is called.
func (s *Store) DisconnectFromGame() {
	s.mu.Lock()
	regs := s.registrations
	s.registrations = make(map[string]uuid.UUID)
	s.mu.Unlock()

	for event, id := range regs {
		s.feed.Off(event, id)
	}
	if err := s.feed.UnsubscribeFromGame(); err != nil {
		log.Debug().Err(err).Msg("unsubscribe on disconnect failed")
	}
	s.feed.Disconnect()
}

// ClearGame discards the loaded game and stat lines.
func (s *Store) ClearGame() {
	s.mu.Lock()
	s.game = nil
	s.lines = nil
	s.lastErr = nil
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// StartGame requests the scheduled→active transition.
func (s *Store) StartGame(ctx context.Context) error {
	return s.transition(ctx, "start", s.api.StartGame)
}

// PauseGame requests the active→paused transition.
func (s *Store) PauseGame(ctx context.Context) error {
	return s.transition(ctx, "pause", s.api.PauseGame)
}

// ResumeGame requests the paused→active transition.
func (s *Store) ResumeGame(ctx context.Context) error {
	return s.transition(ctx, "resume", s.api.ResumeGame)
}

// EndGame requests the transition to completed, after which every
// further command is rejected.
func (s *Store) EndGame(ctx context.Context) error {
	return s.transition(ctx, "end", s.api.EndGame)
}

// transition sends a status command and replaces the local session from
// the authoritative response only — never optimistically. An API
// rejection populates the error field and leaves state untouched.
func (s *Store) transition(ctx context.Context, command string,
	call func(context.Context, string) (*models.GameSession, error)) error {

	gameID, err := s.commandGameID(command)
	if err != nil {
		return err
	}

	game, err := call(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("command", command).Str("game_id", gameID).Msg("game command rejected")
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.game = game
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()

	log.Info().
		Str("command", command).
		Str("game_id", gameID).
		Str("status", string(game.Status)).
		Msg("game transition applied")
	return nil
}

// commandGameID guards every command: a game must be loaded and must
// not be in the terminal completed status.
func (s *Store) commandGameID(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return "", ErrNoGame
	}
	if s.game.Status.Terminal() {
		return "", &StateTransitionError{Command: command, Status: s.game.Status}
	}
	return s.game.ID, nil
}

// RecordStat submits a stat action to the collaborator API. The store
// never computes the resulting line or score locally; the canonical
// update arrives via the stat_update broadcast and is applied
// identically on every client. Each action carries an idempotency key
// so the server can drop fast double-tap duplicates.
func (s *Store) RecordStat(ctx context.Context, action gameapi.StatAction) error {
	gameID, err := s.commandGameID("record stat for")
	if err != nil {
		return err
	}
	if action.GameID == "" {
		action.GameID = gameID
	}
	if action.IdempotencyKey == "" {
		action.IdempotencyKey = uuid.NewString()
	}
	if err := s.api.RecordStat(ctx, action); err != nil {
		s.setErr(err)
		return err
	}
	return nil
}

// UpdateStat sends a manual stat line correction. The line is validated
// against the counting invariants first; a malformed entry is blocked
// with a ValidationError and nothing is sent.
func (s *Store) UpdateStat(ctx context.Context, line models.PlayerStatLine) error {
	gameID, err := s.commandGameID("correct stats for")
	if err != nil {
		return err
	}
	if violations := stats.ValidateStatLine(line); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	if line.GameID == "" {
		line.GameID = gameID
	}

	updated, err := s.api.UpdateStat(ctx, line)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.patchLineLocked(*updated)
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// DeleteStat removes a player's stat line.
func (s *Store) DeleteStat(ctx context.Context, playerID string) error {
	gameID, err := s.commandGameID("delete stats for")
	if err != nil {
		return err
	}
	if err := s.api.DeleteStat(ctx, gameID, playerID); err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	for i, l := range s.lines {
		if l.PlayerID == playerID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateTimer applies the new clock value locally first — the clock is
// high-frequency and purely presentational, so instant feedback beats
// authority — then fire-and-forget sends it to the feed. Any subsequent
// timer_update broadcast overwrites the local value unconditionally.
func (s *Store) UpdateTimer(timeRemainingSeconds, quarter int) error {
	s.mu.Lock()
	if s.game == nil {
		s.mu.Unlock()
		return ErrNoGame
	}
	if s.game.Status.Terminal() {
		status := s.game.Status
		s.mu.Unlock()
		return &StateTransitionError{Command: "update timer for", Status: status}
	}
	s.game.TimeRemainingSeconds = timeRemainingSeconds
	s.game.CurrentQuarter = quarter
	gameID := s.game.ID
	s.mu.Unlock()
	s.notify()

	payload := live.UpdateTimerPayload{
		GameID:               gameID,
		TimeRemainingSeconds: timeRemainingSeconds,
		CurrentQuarter:       quarter,
	}
	if err := s.feed.Send(live.ActionUpdateTimer, payload); err != nil {
		// At-most-once by design: the next server tick corrects drift.
		log.Debug().Err(err).Msg("timer update send failed")
	}
	return nil
}

// RequestStats asks the feed to re-send the current stat lines, e.g.
// after a suspicious gap in broadcasts.
func (s *Store) RequestStats() error {
	s.mu.Lock()
	if s.game == nil {
		s.mu.Unlock()
		return ErrNoGame
	}
	gameID := s.game.ID
	s.mu.Unlock()
	return s.feed.Send(live.ActionRequestStats, live.RequestStatsPayload{GameID: gameID})
}

// BoxScoreSummary is a whole-game derived view built from a box score.
type BoxScoreSummary struct {
	Game        models.GameSession
	HomeTotals  stats.TeamTotals
	AwayTotals  stats.TeamTotals
	HomeFactors stats.FourFactors
	AwayFactors stats.FourFactors
	HomeRatings stats.TeamRatings
	AwayRatings stats.TeamRatings
}

// BoxScore fetches the full box score and derives team totals, four
// factors and possession-based ratings for both sides.
func (s *Store) BoxScore(ctx context.Context) (*BoxScoreSummary, error) {
	s.mu.Lock()
	if s.game == nil {
		s.mu.Unlock()
		return nil, ErrNoGame
	}
	gameID := s.game.ID
	s.mu.Unlock()

	box, err := s.api.GetBoxScore(ctx, gameID)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	home := stats.SumLines(box.HomeStats)
	away := stats.SumLines(box.AwayStats)
	return &BoxScoreSummary{
		Game:        box.Game,
		HomeTotals:  home,
		AwayTotals:  away,
		HomeFactors: stats.ComputeFourFactors(home, away),
		AwayFactors: stats.ComputeFourFactors(away, home),
		HomeRatings: stats.ComputeTeamRatings(home, away),
		AwayRatings: stats.ComputeTeamRatings(away, home),
	}, nil
}

// Game returns a copy of the current game session, if one is loaded.
func (s *Store) Game() (models.GameSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return models.GameSession{}, false
	}
	return *s.game, true
}

// Stats returns a copy of the current stat line collection.
func (s *Store) Stats() []models.PlayerStatLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PlayerStatLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last command or load error, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ConnectionState returns the mirrored feed connection state.
func (s *Store) ConnectionState() live.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedState
}
