package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/usecases"
)

// CreateSpotHandler creates a spot and attaches its tag_list.
func CreateSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := readParams(c)
		if err != nil {
			return errBadRequest(c, "malformed JSON body")
		}

		spot, err := deps.Spots.Create(c.UserContext(), spotInputFrom(p))
		if err != nil {
			return handleError(c, err, "spot not found")
		}

		c.Location("/v1/spots/" + strconv.FormatInt(spot.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(spot)
	}
}

// GetSpotHandler returns a spot together with its tags.
func GetSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verr := domain.NewValidationError()
		id := parseID("id", c.Params("id"), verr)
		if err := verr.OrNil(); err != nil {
			return handleError(c, err, "")
		}

		details, err := deps.Spots.GetWithTags(c.UserContext(), id)
		if err != nil {
			return handleError(c, err, "spot not found")
		}

		return c.JSON(details)
	}
}

// DeleteSpotHandler soft-deletes a spot and returns its name.
func DeleteSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verr := domain.NewValidationError()
		id := parseID("id", c.Params("id"), verr)
		if err := verr.OrNil(); err != nil {
			return handleError(c, err, "")
		}

		name, err := deps.Spots.Destroy(c.UserContext(), id)
		if err != nil {
			return handleError(c, err, "spot not found")
		}

		return c.JSON(fiber.Map{"name": name})
	}
}

// UserSpotsHandler lists a user's spots, newest first.
func UserSpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verr := domain.NewValidationError()
		userID := parseID("id", c.Params("id"), verr)
		if err := verr.OrNil(); err != nil {
			return handleError(c, err, "")
		}

		spots, err := deps.Spots.ListByUser(c.UserContext(), userID)
		if err != nil {
			return handleError(c, err, "user not found")
		}

		return c.JSON(fiber.Map{"spots": spots})
	}
}

// NearbySpotsHandler returns the coordinates of every spot within
// radius_km of lat/lng, provided the user owns at least one of them.
// Otherwise it answers 204 No Content.
func NearbySpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		verr := domain.NewValidationError()
		userID := parseID("user_id", c.Query("user_id"), verr)
		center := usecases.ParseCoordinate(c.Query("lat"), c.Query("lng"), verr)
		radius := parseRadius("radius_km", c.Query("radius_km"), verr)
		if err := verr.OrNil(); err != nil {
			return handleError(c, err, "")
		}

		points, ok, err := deps.Spots.ListNearby(c.UserContext(), userID, center, radius)
		if err != nil {
			return handleError(c, err, "")
		}
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.JSON(fiber.Map{"nearby": points})
	}
}

// ListTagsHandler returns every active tag ordered by id.
func ListTagsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := deps.Tags.ListTags(c.UserContext())
		if err != nil {
			return handleError(c, err, "")
		}
		return c.JSON(fiber.Map{"tags": tags})
	}
}

// ReversePlaceHandler resolves lat/lng into place information. A geocoder
// outage still answers 200 with placeholder values.
func ReversePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := deps.Places.ReverseGeocode(c.UserContext(), c.Query("lat"), c.Query("lng"))
		if err != nil {
			return handleError(c, err, "")
		}

		if info.FullAddress == domain.UndefinedNotFound {
			c.Set("Cache-Control", "no-store")
		}
		return c.JSON(fiber.Map{"place_information": info})
	}
}
