package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/ports"
	"github.com/samirrijal/spotmap/internal/pkg/metrics"
)

const placeCacheTTL = 24 * 60 * 60

// PlaceService derives place information from coordinates.
type PlaceService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
}

// NewPlaceService creates a new PlaceService. cache may be nil.
func NewPlaceService(geocoder ports.Geocoder, cache ports.CacheService) *PlaceService {
	return &PlaceService{geocoder: geocoder, cache: cache}
}

// ReverseGeocode resolves lat/lng into place information. Only malformed
// coordinates produce an error: a provider failure or timeout yields a
// result whose every field is domain.UndefinedNotFound, and fields the
// provider omits are domain.UndefinedValue.
func (s *PlaceService) ReverseGeocode(ctx context.Context, lat, lng string) (*domain.PlaceInformation, error) {
	verr := domain.NewValidationError()
	p := ParseCoordinate(lat, lng, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("places:reverse:%.5f:%.5f", p.Lat, p.Lng)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var info domain.PlaceInformation
			if err := json.Unmarshal(data, &info); err == nil {
				metrics.GeocodeResults.WithLabelValues("cached").Inc()
				return &info, nil
			}
		}
	}

	start := time.Now()
	addr, err := s.geocoder.Reverse(ctx, strings.TrimSpace(lat), strings.TrimSpace(lng))
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrGeocodeTimeout) {
			outcome = "timeout"
		}
		metrics.GeocodeResults.WithLabelValues(outcome).Inc()
		slog.WarnContext(ctx, "reverse geocoding failed", "outcome", outcome, "error", err)
		return notFoundPlace(), nil
	}
	metrics.GeocodeResults.WithLabelValues("ok").Inc()

	info := placeFromAddress(addr)
	if s.cache != nil {
		if data, err := json.Marshal(info); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, placeCacheTTL)
		}
	}
	return info, nil
}

func placeFromAddress(a *domain.Address) *domain.PlaceInformation {
	if a == nil {
		a = &domain.Address{}
	}
	code := domain.UndefinedValue
	if a.CountryCode != nil {
		code = strings.ToUpper(*a.CountryCode)
	}
	return &domain.PlaceInformation{
		CountryName: orUndefined(a.Country),
		CountryCode: code,
		StateName:   orUndefined(a.State),
		CityName:    orUndefined(a.City),
		PostalCode:  orUndefined(a.PostalCode),
		FullAddress: orUndefined(a.DisplayName),
	}
}

func orUndefined(v *string) string {
	if v == nil {
		return domain.UndefinedValue
	}
	return *v
}

func notFoundPlace() *domain.PlaceInformation {
	return &domain.PlaceInformation{
		CountryName: domain.UndefinedNotFound,
		CountryCode: domain.UndefinedNotFound,
		StateName:   domain.UndefinedNotFound,
		CityName:    domain.UndefinedNotFound,
		PostalCode:  domain.UndefinedNotFound,
		FullAddress: domain.UndefinedNotFound,
	}
}
