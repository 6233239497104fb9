package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/usecases"
)

// legacySunset is when the /api/spots action routes are removed.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// legacyRoutes lists the action-style routes and their /v1 successors.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/api/spots/create_spot/", SunsetDate: legacySunset, Alternative: "/v1/spots"},
	{Path: "/api/spots/user_places/", SunsetDate: legacySunset, Alternative: "/v1/users/{id}/spots"},
	{Path: "/api/spots/place_information/", SunsetDate: legacySunset, Alternative: "/v1/places/reverse"},
	{Path: "/api/spots/nearby_places/", SunsetDate: legacySunset, Alternative: "/v1/spots/nearby"},
	{Path: "/api/spots/spot_details/", SunsetDate: legacySunset, Alternative: "/v1/spots/{id}"},
	{Path: "/api/spots/destroy_spot/", SunsetDate: legacySunset, Alternative: "/v1/spots/{id}"},
}

// legacyEnvelope is the {"error": [...], "data": [...]} body of the action routes.
type legacyEnvelope struct {
	Error []string `json:"error"`
	Data  []any    `json:"data"`
}

func legacyOK(c *fiber.Ctx, item any) error {
	return c.JSON(legacyEnvelope{Error: []string{}, Data: []any{item}})
}

// legacyFail answers validation problems with the bare field map and
// everything else with the envelope.
func legacyFail(c *fiber.Ctx, err error, notFoundMsg string) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string][]string, len(verr.Fields))
		for k, v := range verr.Fields {
			fields[k] = []string{v}
		}
		return c.Status(fiber.StatusBadRequest).JSON(fields)
	}

	status, msg := fiber.StatusInternalServerError, "internal server error"
	if errors.Is(err, domain.ErrNotFound) {
		status, msg = fiber.StatusNotFound, notFoundMsg
	} else {
		LoggerFromCtx(c.UserContext()).Error("legacy request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(legacyEnvelope{Error: []string{msg}, Data: []any{}})
}

// legacy wraps an action handler with input parsing.
func legacy(fn func(c *fiber.Ctx, p params) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := readParams(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(legacyEnvelope{Error: []string{"malformed JSON body"}, Data: []any{}})
		}
		return fn(c, p)
	}
}

// LegacyCreateSpotHandler serves POST /api/spots/create_spot/.
func LegacyCreateSpotHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		spot, err := deps.Spots.Create(c.UserContext(), spotInputFrom(p))
		if err != nil {
			return legacyFail(c, err, "spot not found")
		}
		return legacyOK(c, spot)
	})
}

// LegacyUserPlacesHandler serves POST /api/spots/user_places/.
func LegacyUserPlacesHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		verr := domain.NewValidationError()
		userID := parseID("user", p.get("user"), verr)
		if err := verr.OrNil(); err != nil {
			return legacyFail(c, err, "")
		}

		spots, err := deps.Spots.ListByUser(c.UserContext(), userID)
		if err != nil {
			return legacyFail(c, err, "user not found")
		}
		return legacyOK(c, fiber.Map{"spots": spots})
	})
}

// LegacyPlaceInformationHandler serves POST /api/spots/place_information/.
func LegacyPlaceInformationHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		info, err := deps.Places.ReverseGeocode(c.UserContext(), p.get("latitude"), p.get("longitude"))
		if err != nil {
			return legacyFail(c, err, "")
		}
		return legacyOK(c, fiber.Map{"place_information": info})
	})
}

// LegacyNearbyPlacesHandler serves POST /api/spots/nearby_places/.
func LegacyNearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		verr := domain.NewValidationError()
		userID := parseID("user", p.get("user"), verr)
		center := usecases.ParseCoordinate(p.get("latitude"), p.get("longitude"), verr)
		radius := parseRadius("max_distance", p.get("max_distance"), verr)
		if err := verr.OrNil(); err != nil {
			return legacyFail(c, err, "")
		}

		points, ok, err := deps.Spots.ListNearby(c.UserContext(), userID, center, radius)
		if err != nil {
			return legacyFail(c, err, "")
		}
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return legacyOK(c, fiber.Map{"nearby": points})
	})
}

// LegacySpotDetailsHandler serves POST /api/spots/spot_details/.
func LegacySpotDetailsHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		verr := domain.NewValidationError()
		id := parseID("spot_id", p.get("spot_id"), verr)
		if err := verr.OrNil(); err != nil {
			return legacyFail(c, err, "")
		}

		details, err := deps.Spots.GetWithTags(c.UserContext(), id)
		if err != nil {
			return legacyFail(c, err, "spot not found")
		}
		return legacyOK(c, details)
	})
}

// LegacyDestroySpotHandler serves DELETE /api/spots/destroy_spot/.
func LegacyDestroySpotHandler(deps *Dependencies) fiber.Handler {
	return legacy(func(c *fiber.Ctx, p params) error {
		verr := domain.NewValidationError()
		id := parseID("spot_id", p.get("spot_id"), verr)
		if err := verr.OrNil(); err != nil {
			return legacyFail(c, err, "")
		}

		name, err := deps.Spots.Destroy(c.UserContext(), id)
		if err != nil {
			return legacyFail(c, err, "spot not found")
		}
		return legacyOK(c, fiber.Map{"placeName": name})
	})
}
