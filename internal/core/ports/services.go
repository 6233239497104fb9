package ports

import (
	"context"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSpotEvent(ctx context.Context, event *domain.SpotEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSpotCreated(ctx context.Context, handler func(ctx context.Context, event *domain.SpotEvent) error) error
	SubscribeSpotDeleted(ctx context.Context, handler func(ctx context.Context, event *domain.SpotEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder reverse-geocodes a coordinate into address components.
// Implementations must bound the call with a timeout and report it with an
// error matching domain.ErrGeocodeTimeout.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng string) (*domain.Address, error)
}
