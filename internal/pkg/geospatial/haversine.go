package geospatial

import (
	"math"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// Mean Earth radius, matching the sphere PostGIS uses for geography
// distances when use_spheroid is false.
const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b domain.GeoPoint) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether p lies within radiusKm of center, boundary
// included. A negative or NaN radius matches nothing.
func Within(center, p domain.GeoPoint, radiusKm float64) bool {
	if !(radiusKm >= 0) {
		return false
	}
	return DistanceKm(center, p) <= radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
