// Package feedserver is the development live feed: a websocket endpoint
// that manages per-game channel subscriptions, fans out game_update,
// stat_update and timer_update broadcasts, and answers client actions
// (subscribe, unsubscribe, ping, update_timer, request_stats). It backs
// local development and the end-to-end tests of the client library.
package feedserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/internal/live"
)

// Config holds websocket tunables for feed connections.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the standard feed server configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Development server, all origins allowed.
			return true
		},
	}
}

// subKey identifies one logical channel of one game.
type subKey struct {
	gameID  string
	channel string
}

// gameCache keeps the latest broadcast payloads per game so late
// subscribers and request_stats callers get current state immediately.
type gameCache struct {
	game  json.RawMessage
	stats json.RawMessage
}

type broadcastMessage struct {
	key   subKey
	event live.Event
}

// Server owns all feed connections and their channel subscriptions.
type Server struct {
	config   Config
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	subs  map[subKey]map[*connection]bool
	cache map[string]*gameCache

	broadcastCh chan broadcastMessage
}

// New creates a feed server.
func New(config Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		subs:        make(map[subKey]map[*connection]bool),
		cache:       make(map[string]*gameCache),
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes queued broadcasts until the context is done.
func (s *Server) Start(ctx context.Context) {
	log.Info().Msg("feed server started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("feed server shutting down")
			return
		case message := <-s.broadcastCh:
			s.handleBroadcast(message)
		}
	}
}

// HandleFeed upgrades an HTTP request to a feed websocket connection.
func (s *Server) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade feed connection")
		return
	}

	c := newConnection(s, conn)
	go c.writePump()
	go c.readPump()

	log.Info().Str("connection_id", c.id).Str("remote", r.RemoteAddr).Msg("feed connection established")
}

// RegisterRoutes mounts the feed endpoint on an HTTP mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/feed", s.HandleFeed)
}

// BroadcastGameUpdate pushes a whole-game snapshot to the game channel.
func (s *Server) BroadcastGameUpdate(gameID string, payload live.GameUpdatePayload) {
	s.broadcastJSON(gameID, live.ChannelGame, live.EventGameUpdate, payload)
}

// BroadcastStatUpdate pushes stat changes to the stats channel.
func (s *Server) BroadcastStatUpdate(gameID string, payload live.StatUpdatePayload) {
	s.broadcastJSON(gameID, live.ChannelStats, live.EventStatUpdate, payload)
}

// BroadcastTimerUpdate pushes a clock patch to the game channel.
func (s *Server) BroadcastTimerUpdate(gameID string, payload live.TimerUpdatePayload) {
	s.broadcastJSON(gameID, live.ChannelGame, live.EventTimerUpdate, payload)
}

// BroadcastQuarterEnd announces a quarter boundary on the game channel.
func (s *Server) BroadcastQuarterEnd(gameID string, payload live.QuarterEndPayload) {
	s.broadcastJSON(gameID, live.ChannelGame, live.EventQuarterEnd, payload)
}

func (s *Server) broadcastJSON(gameID, channel, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal broadcast payload")
		return
	}
	s.Broadcast(gameID, channel, live.Event{Type: eventType, Data: data})
}

// Broadcast queues an event for every subscriber of a game channel.
func (s *Server) Broadcast(gameID, channel string, event live.Event) {
	s.rememberEvent(gameID, event)
	message := broadcastMessage{key: subKey{gameID: gameID, channel: channel}, event: event}
	select {
	case s.broadcastCh <- message:
	default:
		log.Warn().Str("game_id", gameID).Str("channel", channel).Msg("broadcast queue full, dropping event")
	}
}

// rememberEvent caches the latest game snapshot and stat collection so
// request_stats and late subscribers can be answered directly.
func (s *Server) rememberEvent(gameID string, event live.Event) {
	if event.Type != live.EventGameUpdate && event.Type != live.EventStatUpdate {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cache[gameID]
	if c == nil {
		c = &gameCache{}
		s.cache[gameID] = c
	}
	switch event.Type {
	case live.EventGameUpdate:
		c.game = event.Data
	case live.EventStatUpdate:
		var payload live.StatUpdatePayload
		if err := json.Unmarshal(event.Data, &payload); err == nil && payload.Stats != nil {
			c.stats = event.Data
		}
	}
}

func (s *Server) cachedStats(gameID string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.cache[gameID]
	if c == nil || c.stats == nil {
		return nil, false
	}
	return c.stats, true
}

func (s *Server) handleBroadcast(message broadcastMessage) {
	s.mu.RLock()
	conns := s.subs[message.key]
	targets := make([]*connection, 0, len(conns))
	for c := range conns {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal feed event")
		return
	}

	for _, c := range targets {
		c.enqueue(data)
	}

	log.Debug().
		Str("event", message.event.Type).
		Str("game_id", message.key.gameID).
		Str("channel", message.key.channel).
		Int("subscribers", len(targets)).
		Msg("event broadcast")
}

func (s *Server) subscribe(c *connection, gameID, channel string) {
	key := subKey{gameID: gameID, channel: channel}
	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[*connection]bool)
	}
	s.subs[key][c] = true
	s.mu.Unlock()

	log.Debug().
		Str("connection_id", c.id).
		Str("game_id", gameID).
		Str("channel", channel).
		Msg("channel subscribed")
}

func (s *Server) unsubscribe(c *connection, gameID, channel string) {
	key := subKey{gameID: gameID, channel: channel}
	s.mu.Lock()
	if conns := s.subs[key]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(s.subs, key)
		}
	}
	s.mu.Unlock()
}

// drop removes a connection from every subscription and closes its send
// queue. Safe to call more than once.
func (s *Server) drop(c *connection) {
	s.mu.Lock()
	found := false
	for key, conns := range s.subs {
		if conns[c] {
			found = true
			delete(conns, c)
			if len(conns) == 0 {
				delete(s.subs, key)
			}
		}
	}
	s.mu.Unlock()

	c.closeSend()
	if found {
		log.Info().Str("connection_id", c.id).Msg("feed connection unregistered")
	}
}
