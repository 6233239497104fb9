package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// Stream and subject layout for spot events.
const (
	StreamName        = "SPOTS"
	SubjectAll        = "spots.>"
	SubjectCreatedAll = "spots.created.>"
	SubjectDeletedAll = "spots.deleted.>"
)

// Subject returns the subject an event of kind for spotID is published on.
func Subject(kind string, spotID int64) string {
	return "spots." + kind + "." + strconv.FormatInt(spotID, 10)
}

// StreamConfig is the JetStream stream holding spot events. Limits
// retention lets the tag sweeper and the WebSocket relay read the same
// messages independently.
func StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{SubjectAll},
		Retention:  nats.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the spot stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := EnsureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStream creates the spot stream or updates it in place.
func EnsureStream(js nats.JetStreamContext) error {
	cfg := StreamConfig()
	if _, err := js.AddStream(cfg); err != nil {
		// stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishSpotEvent publishes ev as JSON. The event id doubles as the
// JetStream message id so retried publishes are deduplicated.
func (p *Publisher) PublishSpotEvent(ctx context.Context, ev *domain.SpotEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(ev.Kind, ev.SpotID), data, nats.Context(ctx), nats.MsgId(ev.ID))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
