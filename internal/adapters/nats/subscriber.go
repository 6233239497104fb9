package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// Durable consumer names.
const (
	ConsumerSpotCreated = "spot-created-processor"
	ConsumerTagSweeper  = "tag-sweeper"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the spot stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeSpotCreated(ctx context.Context, handler func(ctx context.Context, ev *domain.SpotEvent) error) error {
	return s.subscribe(ctx, SubjectCreatedAll, ConsumerSpotCreated, handler)
}

func (s *Subscriber) SubscribeSpotDeleted(ctx context.Context, handler func(ctx context.Context, ev *domain.SpotEvent) error) error {
	return s.subscribe(ctx, SubjectDeletedAll, ConsumerTagSweeper, handler)
}

func (s *Subscriber) subscribe(ctx context.Context, subject, durable string, handler func(ctx context.Context, ev *domain.SpotEvent) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		var ev domain.SpotEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// a malformed payload will never decode; drop it
			slog.Warn("dropping malformed spot event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			slog.Warn("spot event handler failed", "subject", msg.Subject, "spot_id", ev.SpotID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
