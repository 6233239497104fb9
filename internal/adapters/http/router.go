package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/spotmap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout: fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/spots", withTimeout(CreateSpotHandler(deps)))
	v1.Get("/spots/nearby", withTimeout(NearbySpotsHandler(deps)))
	v1.Get("/spots/:id", withTimeout(GetSpotHandler(deps)))
	v1.Delete("/spots/:id", withTimeout(DeleteSpotHandler(deps)))
	v1.Get("/users/:id/spots", withTimeout(UserSpotsHandler(deps)))
	v1.Get("/tags", withTimeout(ListTagsHandler(deps)))
	v1.Get("/places/reverse", withTimeout(ReversePlaceHandler(deps)))

	// Action routes kept for existing clients
	legacyAPI := app.Group("/api/spots", DeprecationMiddleware(legacyRoutes))
	legacyAPI.Post("/create_spot/", withTimeout(LegacyCreateSpotHandler(deps)))
	legacyAPI.Post("/user_places/", withTimeout(LegacyUserPlacesHandler(deps)))
	legacyAPI.Post("/place_information/", withTimeout(LegacyPlaceInformationHandler(deps)))
	legacyAPI.Post("/nearby_places/", withTimeout(LegacyNearbyPlacesHandler(deps)))
	legacyAPI.Post("/spot_details/", withTimeout(LegacySpotDetailsHandler(deps)))
	legacyAPI.Delete("/destroy_spot/", withTimeout(LegacyDestroySpotHandler(deps)))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	SetupDocs(app, DefaultSpecPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

func withTimeout(h fiber.Handler) fiber.Handler {
	return timeout.NewWithContext(h, requestTimeout)
}
