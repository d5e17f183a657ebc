package feedserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/internal/live"
)

// connection is one feed subscriber. Outbound events flow through the
// buffered send queue drained by writePump; inbound actions are parsed
// by readPump.
type connection struct {
	id     string
	server *Server
	conn   *websocket.Conn

	sendMu  sync.Mutex
	send    chan []byte
	dropped bool
}

func newConnection(s *Server, conn *websocket.Conn) *connection {
	return &connection{
		id:     uuid.New().String(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// enqueue queues an event for delivery. A subscriber that cannot keep
// up is dropped rather than allowed to stall the broadcast loop.
func (c *connection) enqueue(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.dropped {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("connection_id", c.id).Msg("send buffer full, dropping connection")
		c.dropped = true
		close(c.send)
	}
}

func (c *connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.dropped {
		c.dropped = true
		close(c.send)
	}
}

// sendEvent marshals and queues a single event for this connection only.
func (c *connection) sendEvent(eventType string, payload any) {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
			return
		}
		data = encoded
	}
	raw, err := json.Marshal(live.Event{Type: eventType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}
	c.enqueue(raw)
}

func (c *connection) sendError(message string) {
	c.sendEvent(live.EventError, live.ErrorPayload{Message: message})
}

func (c *connection) writePump() {
	cfg := c.server.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.server.drop(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("feed write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) readPump() {
	cfg := c.server.config
	defer func() {
		c.server.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("unexpected feed close")
			}
			return
		}
		c.handleAction(message)
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}

// handleAction processes one inbound client action.
func (c *connection) handleAction(message []byte) {
	raw := struct {
		Action string          `json:"action"`
		Data   json.RawMessage `json:"data,omitempty"`
	}{}
	if err := json.Unmarshal(message, &raw); err != nil {
		c.sendError("malformed action")
		return
	}

	switch raw.Action {
	case live.ActionSubscribe:
		var payload live.SubscribePayload
		if err := json.Unmarshal(raw.Data, &payload); err != nil || payload.GameID == "" {
			c.sendError("subscribe requires channel and game_id")
			return
		}
		c.server.subscribe(c, payload.GameID, payload.Channel)
		switch payload.Channel {
		case live.ChannelGame:
			c.sendEvent(live.EventGameConnected, nil)
		case live.ChannelStats:
			c.sendEvent(live.EventStatsConnected, nil)
			if cached, ok := c.server.cachedStats(payload.GameID); ok {
				c.enqueueEventRaw(live.EventStatUpdate, cached)
			}
		default:
			c.sendError("unknown channel: " + payload.Channel)
		}

	case live.ActionUnsubscribe:
		var payload live.SubscribePayload
		if err := json.Unmarshal(raw.Data, &payload); err != nil {
			c.sendError("malformed unsubscribe")
			return
		}
		c.server.unsubscribe(c, payload.GameID, payload.Channel)

	case live.ActionPing:
		c.sendEvent(live.EventPong, nil)

	case live.ActionUpdateTimer:
		var payload live.UpdateTimerPayload
		if err := json.Unmarshal(raw.Data, &payload); err != nil || payload.GameID == "" {
			c.sendError("malformed update_timer")
			return
		}
		// Echo the timer to every game channel subscriber, sender included.
		c.server.BroadcastTimerUpdate(payload.GameID, live.TimerUpdatePayload{
			TimeRemainingSeconds: payload.TimeRemainingSeconds,
			CurrentQuarter:       payload.CurrentQuarter,
		})

	case live.ActionRequestStats:
		var payload live.RequestStatsPayload
		if err := json.Unmarshal(raw.Data, &payload); err != nil || payload.GameID == "" {
			c.sendError("malformed request_stats")
			return
		}
		if cached, ok := c.server.cachedStats(payload.GameID); ok {
			c.enqueueEventRaw(live.EventStatUpdate, cached)
		}

	default:
		c.sendError("unknown action: " + raw.Action)
	}
}

// enqueueEventRaw queues an event whose payload is already encoded.
func (c *connection) enqueueEventRaw(eventType string, data json.RawMessage) {
	raw, err := json.Marshal(live.Event{Type: eventType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}
	c.enqueue(raw)
}
