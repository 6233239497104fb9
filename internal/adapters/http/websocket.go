package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/spotmap/internal/adapters/nats"
	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/pkg/geospatial"
	"github.com/samirrijal/spotmap/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action   string   `json:"action"`    // "subscribe" | "unsubscribe"
	Channel  string   `json:"channel"`   // "created" | "deleted" (default: created)
	Lat      *float64 `json:"lat"`       // optional area filter
	Lng      *float64 `json:"lng"`       // optional area filter
	RadiusKm float64  `json:"radius_km"` // area radius, required with lat/lng
}

// wsFilter restricts a feed to events within RadiusKm of Center.
type wsFilter struct {
	Center   domain.GeoPoint
	RadiusKm float64
}

// filter returns the area filter of m, or nil when m has none.
func (m wsMessage) filter() (*wsFilter, bool) {
	if m.Lat == nil && m.Lng == nil {
		return nil, true
	}
	if m.Lat == nil || m.Lng == nil || m.RadiusKm <= 0 {
		return nil, false
	}
	f := &wsFilter{Center: domain.GeoPoint{Lat: *m.Lat, Lng: *m.Lng}, RadiusKm: m.RadiusKm}
	return f, f.Center.Valid()
}

// wsEvent is the relayed view of a spot event. The owner is left out
// because /ws clients are anonymous.
type wsEvent struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	SpotID     int64           `json:"spot_id"`
	Name       string          `json:"name"`
	Location   domain.GeoPoint `json:"location"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// relayedEvent decodes a raw spot event and returns its public view when
// it passes f. A nil f passes every event.
func relayedEvent(data []byte, f *wsFilter) (*wsEvent, bool) {
	var ev domain.SpotEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, false
	}
	if f != nil && !geospatial.Within(f.Center, ev.Location, f.RadiusKm) {
		return nil, false
	}
	return &wsEvent{
		ID:         ev.ID,
		Kind:       ev.Kind,
		SpotID:     ev.SpotID,
		Name:       ev.Name,
		Location:   ev.Location,
		OccurredAt: ev.OccurredAt,
	}, true
}

func channelSubject(channel string) (string, bool) {
	switch channel {
	case "", domain.SpotEventCreated:
		return natsadapter.SubjectCreatedAll, true
	case domain.SpotEventDeleted:
		return natsadapter.SubjectDeletedAll, true
	}
	return "", false
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays spot events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","channel":"created","lat":43.26,"lng":-2.93,"radius_km":2}
// Without lat/lng every event of the channel is relayed. Each connection
// starts subscribed to all created spots.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("remote_addr", remoteAddr)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event feed unavailable"})
			return
		}

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(subject string, f *wsFilter) (*nats.Subscription, error) {
			return nc.Subscribe(subject, func(msg *nats.Msg) {
				if ev, ok := relayedEvent(msg.Data, f); ok {
					_ = writeJSON(ev)
				}
			})
		}

		sub, err := relay(natsadapter.SubjectCreatedAll, nil)
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.SubjectCreatedAll] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := channelSubject(m.Channel)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				f, ok := m.filter()
				if !ok {
					_ = writeJSON(map[string]string{"error": "lat, lng and a positive radius_km go together"})
					continue
				}
				// A new filter replaces the previous subscription on the subject.
				if old, exists := subs[subject]; exists {
					_ = old.Unsubscribe()
					delete(subs, subject)
				}
				s, err := relay(subject, f)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed"})
					log.Warn("ws subscribe failed", "subject", subject, "error", err)
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
