package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/ports"
	"github.com/samirrijal/spotmap/internal/pkg/metrics"
	"github.com/samirrijal/spotmap/internal/pkg/telemetry"
)

const spotDetailsTTL = 600

// SpotService handles spot-related business logic.
type SpotService struct {
	spots         ports.SpotRepository
	tags          *TagService
	cache         ports.CacheService
	events        ports.EventPublisher
	maxDistanceKm float64
}

// NewSpotService creates a new SpotService. maxDistanceKm is both the
// default and the upper bound of nearby-search radii. cache and events may
// be nil.
func NewSpotService(spots ports.SpotRepository, tags *TagService, cache ports.CacheService, events ports.EventPublisher, maxDistanceKm float64) *SpotService {
	return &SpotService{
		spots:         spots,
		tags:          tags,
		cache:         cache,
		events:        events,
		maxDistanceKm: maxDistanceKm,
	}
}

// MaxDistanceKm returns the configured nearby-search limit.
func (s *SpotService) MaxDistanceKm() float64 { return s.maxDistanceKm }

// Create validates in, stores the spot and attaches its tag list.
// A failed attach leaves the spot stored and returns the error.
func (s *SpotService) Create(ctx context.Context, in domain.SpotInput) (*domain.Spot, error) {
	spot, err := validateSpotInput(in)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "SpotService.Create")
	defer span.End()
	span.SetAttributes(telemetry.AttrUserID.Int64(in.UserID), telemetry.AttrTagCount.Int(len(in.TagList)))

	if err := s.spots.Create(ctx, spot); err != nil {
		span.SetStatus(codes.Error, "create spot")
		return nil, fmt.Errorf("create spot: %w", err)
	}
	span.SetAttributes(telemetry.AttrSpotID.Int64(spot.ID))

	if err := s.tags.Attach(ctx, spot.ID, in.TagList); err != nil {
		span.SetStatus(codes.Error, "attach tags")
		return nil, fmt.Errorf("create spot %d: %w", spot.ID, err)
	}

	metrics.SpotsCreated.Inc()
	s.publish(ctx, &domain.SpotEvent{
		Kind:     domain.SpotEventCreated,
		SpotID:   spot.ID,
		UserID:   spot.UserID,
		Name:     spot.Name,
		Location: spot.Location,
	})

	return spot, nil
}

// Destroy soft-deletes the spot, detaches its tags and returns its name.
// Returns domain.ErrNotFound if no active spot has this id.
func (s *SpotService) Destroy(ctx context.Context, id int64) (string, error) {
	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "SpotService.Destroy")
	defer span.End()
	span.SetAttributes(telemetry.AttrSpotID.Int64(id))

	spot, err := s.spots.SoftDelete(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "delete spot")
		return "", fmt.Errorf("destroy spot %d: %w", id, err)
	}
	s.invalidate(ctx, id)

	res, err := s.tags.Detach(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, "detach tags")
		return "", fmt.Errorf("destroy spot %d: %w", id, err)
	}

	metrics.SpotsDestroyed.Inc()
	s.publish(ctx, &domain.SpotEvent{
		Kind:     domain.SpotEventDeleted,
		SpotID:   spot.ID,
		UserID:   spot.UserID,
		Name:     spot.Name,
		Location: spot.Location,
		TagIDs:   res.TagIDs,
	})

	return spot.Name, nil
}

// Get returns an active spot. Returns domain.ErrNotFound otherwise.
func (s *SpotService) Get(ctx context.Context, id int64) (*domain.Spot, error) {
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get spot %d: %w", id, err)
	}
	return spot, nil
}

// GetWithTags returns an active spot with its active tags.
func (s *SpotService) GetWithTags(ctx context.Context, id int64) (*domain.SpotDetails, error) {
	cacheKey := spotDetailsKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var details domain.SpotDetails
			if err := json.Unmarshal(data, &details); err == nil {
				metrics.CacheHits.WithLabelValues("spot_details").Inc()
				return &details, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("spot_details").Inc()
	}

	spot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListForSpot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get spot %d: %w", id, err)
	}
	details := &domain.SpotDetails{Spot: *spot, Tags: tags}

	if s.cache != nil {
		if data, err := json.Marshal(details); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, spotDetailsTTL); err == nil {
				// a Destroy since the read above may have invalidated before this Set
				if _, err := s.spots.GetByID(ctx, id); errors.Is(err, domain.ErrNotFound) {
					_ = s.cache.Delete(ctx, cacheKey)
					return nil, fmt.Errorf("get spot %d: %w", id, err)
				}
			}
		}
	}

	return details, nil
}

// ListByUser returns the user's active spots, newest first.
func (s *SpotService) ListByUser(ctx context.Context, userID int64) ([]domain.Spot, error) {
	if userID <= 0 {
		verr := domain.NewValidationError()
		verr.Add("user", "must be a positive id")
		return nil, verr
	}
	spots, err := s.spots.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list spots of user %d: %w", userID, err)
	}
	return spots, nil
}

// ListNearby returns the coordinates of every active spot within radiusKm of
// center, ordered by id, provided userID owns at least one of them. When the
// user has no spot in range ok is false and the result is empty, even if
// other users do.
//
// A zero radiusKm uses the configured maximum.
func (s *SpotService) ListNearby(ctx context.Context, userID int64, center domain.GeoPoint, radiusKm float64) ([]domain.GeoPoint, bool, error) {
	verr := domain.NewValidationError()
	if userID <= 0 {
		verr.Add("user", "must be a positive id")
	}
	if !center.Valid() {
		verr.Add("location", "coordinate out of range")
	}
	if radiusKm == 0 {
		radiusKm = s.maxDistanceKm
	}
	if !(radiusKm > 0 && radiusKm <= s.maxDistanceKm) {
		verr.Add("radius_km", "must be between 0 and "+strconv.FormatFloat(s.maxDistanceKm, 'f', -1, 64))
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	ctx, span := telemetry.Tracer(telemetry.ScopeUsecases).Start(ctx, "SpotService.ListNearby")
	defer span.End()
	span.SetAttributes(telemetry.AttrUserID.Int64(userID), telemetry.AttrRadiusKm.Float64(radiusKm))

	exists, err := s.spots.ExistsNearbyForUser(ctx, userID, center, radiusKm)
	if err != nil {
		span.SetStatus(codes.Error, "exists nearby")
		return nil, false, fmt.Errorf("list nearby: %w", err)
	}
	if !exists {
		metrics.NearbyQueries.WithLabelValues("no_content").Inc()
		span.SetAttributes(telemetry.AttrOutcome.String("no_content"))
		return []domain.GeoPoint{}, false, nil
	}

	points, err := s.spots.ListNearby(ctx, center, radiusKm)
	if err != nil {
		span.SetStatus(codes.Error, "list nearby")
		return nil, false, fmt.Errorf("list nearby: %w", err)
	}
	metrics.NearbyQueries.WithLabelValues("found").Inc()
	span.SetAttributes(telemetry.AttrOutcome.String("found"))
	return points, true, nil
}

func (s *SpotService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, spotDetailsKey(id)); err != nil {
		slog.WarnContext(ctx, "spot cache invalidation failed", "spot_id", id, "error", err)
	}
}

// publish emits a spot event. Failures are logged and never returned.
func (s *SpotService) publish(ctx context.Context, ev *domain.SpotEvent) {
	if s.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = time.Now().UTC()
	if err := s.events.PublishSpotEvent(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Kind, "error").Inc()
		slog.WarnContext(ctx, "spot event publish failed", "kind", ev.Kind, "spot_id", ev.SpotID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(ev.Kind, "ok").Inc()
}

func spotDetailsKey(id int64) string {
	return "spots:details:" + strconv.FormatInt(id, 10)
}
