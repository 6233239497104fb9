package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/spotmap/internal/adapters/postgres"
	"github.com/samirrijal/spotmap/internal/adapters/valkey"
	"github.com/samirrijal/spotmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Spots  *usecases.SpotService
	Tags   *usecases.TagService
	Places *usecases.PlaceService
	NATS   *nats.Conn
	DB     *postgres.DB
	Cache  *valkey.Cache
}
