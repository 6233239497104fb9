package telemetry

import "go.opentelemetry.io/otel/attribute"

// Instrumentation scope names.
const (
	ScopeUsecases  = "github.com/samirrijal/spotmap/internal/core/usecases"
	ScopeWorkflows = "github.com/samirrijal/spotmap/internal/workflows"
)

// Span attribute keys.
const (
	AttrSpotID    = attribute.Key("spotmap.spot.id")
	AttrUserID    = attribute.Key("spotmap.user.id")
	AttrTagCount  = attribute.Key("spotmap.tag.count")
	AttrRadiusKm  = attribute.Key("spotmap.radius_km")
	AttrCollected = attribute.Key("spotmap.tag.collected")
	AttrOutcome   = attribute.Key("spotmap.outcome")
)
