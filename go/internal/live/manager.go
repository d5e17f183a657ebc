// Package live owns the client side of the real-time game feed: one
// transport connection multiplexing a game channel and a stats channel
// per subscribed game, a handler registry for typed inbound events, and
// bounded exponential-backoff reconnection.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned when a channel subscription or send is
// attempted before a successful Connect.
var ErrNotConnected = errors.New("not connected to live feed")

// Status is the consumer-visible connection status.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// State is a snapshot of the connection for observers. The manager owns
// it exclusively; consumers only receive copies.
type State struct {
	Status           Status
	ReconnectAttempt int
	GameID           string
}

// Handler receives the raw payload of one inbound event.
type Handler func(data json.RawMessage)

// Config holds tunables for the feed connection.
type Config struct {
	URL string

	// BaseDelay is the first reconnect delay; each subsequent attempt
	// doubles it.
	BaseDelay time.Duration

	// MaxAttempts is the number of consecutive failed connection
	// attempts tolerated before the manager enters a permanent error
	// state.
	MaxAttempts int

	// PingInterval is how often a ping action is sent while connected.
	// Zero disables pings.
	PingInterval time.Duration
}

// DefaultConfig returns the standard feed configuration for a URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:          url,
		BaseDelay:    time.Second,
		MaxAttempts:  5,
		PingInterval: 30 * time.Second,
	}
}

// Manager keeps one client attached to the live feed across transient
// network failures and dispatches inbound events to registered handlers.
type Manager struct {
	cfg    Config
	dialer Dialer
	clock  clockwork.Clock

	mu         sync.Mutex
	writeMu    sync.Mutex
	conn       Conn
	connDone   chan struct{}
	status     Status
	attempt    int
	gameID     string
	closing    bool
	stop       chan struct{}
	retryTimer clockwork.Timer
	handlers   map[string]map[uuid.UUID]Handler
	onStatus   func(State)
}

// NewManager creates a manager with the production websocket dialer and
// wall clock.
func NewManager(cfg Config) *Manager {
	return NewManagerWith(cfg, NewWebsocketDialer(), clockwork.NewRealClock())
}

// NewManagerWith creates a manager with an injected dialer and clock so
// reconnect timing is deterministically testable.
func NewManagerWith(cfg Config, dialer Dialer, clock clockwork.Clock) *Manager {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		clock:    clock,
		status:   StatusDisconnected,
		stop:     make(chan struct{}),
		handlers: make(map[string]map[uuid.UUID]Handler),
	}
}

// OnStatusChange registers a callback invoked after every status change.
// The callback runs outside the manager's lock and receives a copy.
func (m *Manager) OnStatusChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = fn
}

// State returns a snapshot of the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	return State{Status: m.status, ReconnectAttempt: m.attempt, GameID: m.gameID}
}

// Connect establishes the feed connection. It is idempotent: if already
// connected it does nothing. A failed dial schedules a reconnect per the
// backoff policy and returns the dial error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.status == StatusConnected {
		m.mu.Unlock()
		return nil
	}
	m.closing = false
	if m.status == StatusError {
		// Manual reconnect after exhaustion restarts the backoff count.
		m.attempt = 0
	}
	m.mu.Unlock()
	m.setStatus(StatusConnecting)

	conn, err := m.dialer.Dial(ctx, m.cfg.URL)
	if err != nil {
		m.handleFailure(ctx, err)
		return fmt.Errorf("dial live feed: %w", err)
	}

	m.mu.Lock()
	done := make(chan struct{})
	m.conn = conn
	m.connDone = done
	m.attempt = 0
	game := m.gameID
	m.mu.Unlock()
	m.setStatus(StatusConnected)

	go m.readLoop(ctx, conn, done)
	if m.cfg.PingInterval > 0 {
		go m.pingLoop(conn, done)
	}

	log.Info().Str("url", m.cfg.URL).Msg("connected to live feed")

	// A reconnect re-opens the channels of the previously subscribed game.
	if game != "" {
		if err := m.sendSubscribe(conn, game); err != nil {
			log.Warn().Err(err).Str("game_id", game).Msg("failed to resubscribe after reconnect")
		}
	}
	return nil
}

// SubscribeToGame opens the game and stats channels for one game. It
// fails with ErrNotConnected before a successful Connect.
func (m *Manager) SubscribeToGame(gameID string) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.status == StatusConnected
	m.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	if err := m.sendSubscribe(conn, gameID); err != nil {
		return err
	}
	m.mu.Lock()
	m.gameID = gameID
	m.mu.Unlock()
	log.Debug().Str("game_id", gameID).Msg("subscribed to game channels")
	return nil
}

func (m *Manager) sendSubscribe(conn Conn, gameID string) error {
	for _, ch := range []string{ChannelGame, ChannelStats} {
		payload := SubscribePayload{Channel: ch, GameID: gameID}
		if err := m.write(conn, Action{Action: ActionSubscribe, Data: payload}); err != nil {
			return fmt.Errorf("subscribe %s channel: %w", ch, err)
		}
	}
	return nil
}

// UnsubscribeFromGame closes both logical channels of the currently
// subscribed game, if any.
func (m *Manager) UnsubscribeFromGame() error {
	m.mu.Lock()
	conn := m.conn
	gameID := m.gameID
	m.gameID = ""
	m.mu.Unlock()
	if conn == nil || gameID == "" {
		return nil
	}
	for _, ch := range []string{ChannelGame, ChannelStats} {
		payload := SubscribePayload{Channel: ch, GameID: gameID}
		if err := m.write(conn, Action{Action: ActionUnsubscribe, Data: payload}); err != nil {
			return fmt.Errorf("unsubscribe %s channel: %w", ch, err)
		}
	}
	return nil
}

// Disconnect tears down the connection, cancels any pending reconnect
// and resets the state to disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.closing = true
	m.gameID = ""
	m.attempt = 0
	if m.retryTimer != nil {
		stopAndDrainTimer(m.retryTimer)
		m.retryTimer = nil
	}
	close(m.stop)
	m.stop = make(chan struct{})
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.setStatus(StatusDisconnected)
}

// On registers a handler for a named inbound event and returns a
// registration ID that can be passed to Off for removal.
func (m *Manager) On(event string, h Handler) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[uuid.UUID]Handler)
	}
	id := uuid.New()
	m.handlers[event][id] = h
	return id
}

// Off removes the identified handlers for an event. With no IDs, all
// handlers for that event are cleared.
func (m *Manager) Off(event string, ids ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 {
		delete(m.handlers, event)
		return
	}
	for _, id := range ids {
		delete(m.handlers[event], id)
	}
}

// Send transmits an action to the feed, fire-and-forget. The returned
// error reports only local write failure; delivery is at-most-once.
func (m *Manager) Send(action string, payload any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if err := m.write(conn, Action{Action: action, Data: payload}); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to send feed action")
		return err
	}
	return nil
}

func (m *Manager) write(conn Conn, v any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (m *Manager) setStatus(st Status) {
	m.mu.Lock()
	changed := m.status != st
	m.status = st
	state := m.stateLocked()
	fn := m.onStatus
	m.mu.Unlock()
	if changed && fn != nil {
		fn(state)
	}
}

// handleFailure counts one failed connection attempt and either
// schedules the next retry (delay doubling per attempt) or, once
// MaxAttempts consecutive failures have accumulated, parks the manager
// in a permanent error state awaiting a manual Connect.
func (m *Manager) handleFailure(ctx context.Context, cause error) {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.attempt++
	attempt := m.attempt
	if attempt >= m.cfg.MaxAttempts {
		m.mu.Unlock()
		log.Error().Err(cause).Int("attempts", attempt).Msg("live feed reconnect attempts exhausted")
		m.setStatus(StatusError)
		return
	}
	delay := m.cfg.BaseDelay << (attempt - 1)
	timer := m.clock.NewTimer(delay)
	m.retryTimer = timer
	stop := m.stop
	m.mu.Unlock()

	m.setStatus(StatusConnecting)
	log.Warn().
		Err(cause).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("scheduling live feed reconnect")

	go func() {
		select {
		case <-timer.Chan():
			m.mu.Lock()
			if m.retryTimer == timer {
				m.retryTimer = nil
			}
			closing := m.closing
			m.mu.Unlock()
			if closing {
				return
			}
			// Connect schedules the next retry itself on failure.
			if err := m.Connect(ctx); err != nil {
				log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
			}
		case <-stop:
			stopAndDrainTimer(timer)
		case <-ctx.Done():
			stopAndDrainTimer(timer)
		}
	}()
}

func (m *Manager) readLoop(ctx context.Context, conn Conn, done chan struct{}) {
	defer close(done)
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stale := m.closing || m.conn != conn
			m.mu.Unlock()
			if stale {
				return
			}
			log.Warn().Err(err).Msg("live feed connection lost")
			conn.Close()
			m.handleFailure(ctx, err)
			return
		}
		m.dispatch(data)
	}
}

// dispatch routes one inbound message to every handler registered for
// its event name. A handler that panics is caught and logged so sibling
// handlers still run and the connection stays alive.
func (m *Manager) dispatch(data []byte) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn().Err(err).Msg("dropping malformed feed message")
		return
	}

	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.handlers[evt.Type]))
	for _, h := range m.handlers[evt.Type] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		m.invoke(evt.Type, h, evt.Data)
	}
}

func (m *Manager) invoke(event string, h Handler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("event", event).
				Msg("live event handler panicked")
		}
	}()
	h(data)
}

func (m *Manager) pingLoop(conn Conn, done chan struct{}) {
	ticker := m.clock.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			if err := m.write(conn, Action{Action: ActionPing}); err != nil {
				return
			}
		}
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel so a
// fired-but-unread timer cannot leak a goroutine.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
