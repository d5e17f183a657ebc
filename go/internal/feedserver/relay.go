package feedserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courtside/go/internal/live"
)

// RelayConfig holds configuration for the JetStream relay.
type RelayConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultRelayConfig returns the standard relay configuration.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		URL:           nats.DefaultURL,
		StreamName:    "GAME_EVENTS",
		ConsumerName:  "courtside-feed",
		SubjectFilter: "game.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Relay consumes game events from JetStream and rebroadcasts them to
// websocket feed subscribers, so any upstream producer (the scorekeeper
// backend, a replay tool) can drive the feed.
type Relay struct {
	server   *Server
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	config   RelayConfig
}

// NewRelay connects to NATS and ensures the durable consumer exists.
func NewRelay(server *Server, config RelayConfig) (*Relay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	r := &Relay{server: server, nc: nc, js: js, config: config}
	if err := r.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return r, nil
}

func (r *Relay) ensureConsumer(ctx context.Context) error {
	stream, err := r.js.Stream(ctx, r.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          r.config.ConsumerName,
		Durable:       r.config.ConsumerName,
		Description:   "Courtside feed relay",
		FilterSubject: r.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverLastPerSubjectPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    r.config.MaxDeliver,
		AckWait:       r.config.AckWait,
		MaxAckPending: r.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, r.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().Str("consumer", r.config.ConsumerName).Msg("created JetStream consumer")
	}

	r.consumer = consumer
	return nil
}

// Start consumes events until the context is done.
func (r *Relay) Start(ctx context.Context) error {
	log.Info().
		Str("stream", r.config.StreamName).
		Str("subjects", r.config.SubjectFilter).
		Msg("starting feed relay")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := r.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("feed relay shutting down")
			return nil
		case msg := <-messageCh:
			if err := r.processMessage(msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to relay event")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

// processMessage converts one upstream event envelope into a feed
// broadcast on the right channel.
func (r *Relay) processMessage(msg jetstream.Msg) error {
	var envelope struct {
		EventID   string          `json:"event_id"`
		EventType string          `json:"event_type"`
		GameID    string          `json:"game_id"`
		Timestamp time.Time       `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg.Data(), &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if envelope.GameID == "" {
		return fmt.Errorf("event %s missing game_id", envelope.EventID)
	}

	var channel string
	switch envelope.EventType {
	case live.EventGameUpdate, live.EventTimerUpdate, live.EventQuarterEnd:
		channel = live.ChannelGame
	case live.EventStatUpdate:
		channel = live.ChannelStats
	default:
		return fmt.Errorf("unknown event type: %s", envelope.EventType)
	}

	r.server.Broadcast(envelope.GameID, channel, live.Event{
		Type: envelope.EventType,
		Data: envelope.Payload,
	})

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("game_id", envelope.GameID).
		Str("event_type", envelope.EventType).
		Msg("relayed event to feed subscribers")
	return nil
}

// Stop closes the NATS connection.
func (r *Relay) Stop() {
	if r.nc != nil {
		r.nc.Close()
	}
}
