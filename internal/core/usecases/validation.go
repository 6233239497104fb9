package usecases

import (
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// ParseCoordinate parses decimal-degree strings into a point, recording
// problems on verr under the "lat" and "lng" fields.
func ParseCoordinate(lat, lng string, verr *domain.ValidationError) domain.GeoPoint {
	var p domain.GeoPoint
	p.Lat = parseDegrees("lat", lat, 90, verr)
	p.Lng = parseDegrees("lng", lng, 180, verr)
	return p
}

func parseDegrees(field, raw string, limit float64, verr *domain.ValidationError) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(field, "is required")
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		verr.Add(field, "must be a decimal number")
		return 0
	}
	if !(v >= -limit && v <= limit) {
		verr.Add(field, "must be between -"+strconv.FormatFloat(limit, 'f', -1, 64)+" and "+strconv.FormatFloat(limit, 'f', -1, 64))
		return 0
	}
	return v
}

// validateSpotInput checks every required field and returns the spot to
// persist. Nothing is written when it returns an error.
func validateSpotInput(in domain.SpotInput) (*domain.Spot, error) {
	verr := domain.NewValidationError()

	if in.UserID <= 0 {
		verr.Add("user", "must be a positive id")
	}
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"country", in.Country},
		{"country_code", in.CountryCode},
		{"state", in.State},
		{"city", in.City},
		{"full_address", in.FullAddress},
		{"postal_code", in.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.Add(r.field, "is required")
		}
	}
	loc := ParseCoordinate(in.Lat, in.Lng, verr)
	for _, name := range in.TagList {
		if strings.TrimSpace(name) == "" {
			verr.Add("tag_list", "must not contain blank names")
			break
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	return &domain.Spot{
		UserID:      in.UserID,
		Name:        in.Name,
		Location:    loc,
		Country:     in.Country,
		CountryCode: in.CountryCode,
		State:       in.State,
		City:        in.City,
		FullAddress: in.FullAddress,
		PostalCode:  in.PostalCode,
		Status:      domain.StatusActive,
	}, nil
}
