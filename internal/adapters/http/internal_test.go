package http

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"/api/spots/create_spot/", "/api/spots/create_spot/", true},
		{"/api/spots/create_spot", "/api/spots/create_spot/", true},
		{"/v1/spots/42", "/v1/spots/:id", true},
		{"/v1/spots/42/tags", "/v1/spots/:id", false},
		{"/v1/spots/", "/v1/spots/:id", false},
		{"/api/spots/user_places/", "/api/spots/create_spot/", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchPattern(tc.path, tc.pattern), "%s vs %s", tc.path, tc.pattern)
	}
}

func TestJSONParams(t *testing.T) {
	p, err := jsonParams([]byte(`{"user": 3, "lat": 43.26, "lng": "-2.93", "tag_list": ["a", 1, null], "extra": {"x": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, "3", p.get("user"))
	assert.Equal(t, "43.26", p.get("lat"))
	assert.Equal(t, "-2.93", p.get("lng"))
	assert.Equal(t, []string{"a", "1"}, p.list("tag_list"))
	assert.Empty(t, p.get("extra"))

	_, err = jsonParams([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestParamsList_BracketSpelling(t *testing.T) {
	p := params{"tag_list[]": {"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, p.list("tag_list"))
}

func TestSpotInputFrom_BadUserLeftZero(t *testing.T) {
	in := spotInputFrom(params{"user": {"abc"}, "name": {"Cafe"}})
	assert.Zero(t, in.UserID)
	assert.Equal(t, "Cafe", in.Name)
}

func TestParseRadius(t *testing.T) {
	verr := domain.NewValidationError()
	assert.Zero(t, parseRadius("radius_km", "", verr))
	assert.Equal(t, 2.5, parseRadius("radius_km", "2.5", verr))
	require.NoError(t, verr.OrNil())

	parseRadius("radius_km", "-1", verr)
	assert.Contains(t, verr.Fields, "radius_km")
}

func TestParseRadius_NonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity"} {
		t.Run(raw, func(t *testing.T) {
			verr := domain.NewValidationError()
			assert.Zero(t, parseRadius("max_distance", raw, verr))
			assert.Equal(t, "must be a decimal number", verr.Fields["max_distance"])
		})
	}
}

func TestRelayedEvent(t *testing.T) {
	raw, err := json.Marshal(domain.SpotEvent{
		ID:       "ev-1",
		Kind:     domain.SpotEventCreated,
		SpotID:   1,
		UserID:   42,
		Name:     "Cafe",
		Location: domain.GeoPoint{Lat: 43.2630, Lng: -2.9350},
		TagIDs:   []int64{3},
	})
	require.NoError(t, err)

	ev, ok := relayedEvent(raw, nil)
	require.True(t, ok)
	assert.Equal(t, int64(1), ev.SpotID)
	assert.Equal(t, "Cafe", ev.Name)

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "user_id")
	assert.NotContains(t, string(out), "42")

	// Bilbao centre, under 1 km away
	_, ok = relayedEvent(raw, &wsFilter{Center: domain.GeoPoint{Lat: 43.2627, Lng: -2.9253}, RadiusKm: 1})
	assert.True(t, ok)
	// Madrid
	_, ok = relayedEvent(raw, &wsFilter{Center: domain.GeoPoint{Lat: 40.4168, Lng: -3.7038}, RadiusKm: 5})
	assert.False(t, ok)
	_, ok = relayedEvent([]byte("not json"), nil)
	assert.False(t, ok)
}

func TestWSMessageFilter(t *testing.T) {
	lat, lng := 43.26, -2.93

	f, ok := wsMessage{}.filter()
	assert.True(t, ok)
	assert.Nil(t, f)

	f, ok = wsMessage{Lat: &lat, Lng: &lng, RadiusKm: 2}.filter()
	require.True(t, ok)
	assert.Equal(t, 2.0, f.RadiusKm)

	_, ok = wsMessage{Lat: &lat}.filter()
	assert.False(t, ok, "lat without lng")

	_, ok = wsMessage{Lat: &lat, Lng: &lng}.filter()
	assert.False(t, ok, "missing radius")
}

func TestChannelSubject(t *testing.T) {
	s, ok := channelSubject("")
	assert.True(t, ok)
	assert.Equal(t, "spots.created.>", s)

	s, ok = channelSubject("deleted")
	assert.True(t, ok)
	assert.Equal(t, "spots.deleted.>", s)

	_, ok = channelSubject("vehicles")
	assert.False(t, ok)
}

func TestRequestIDLogMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(requestid.New(), RequestIDLogMiddleware())

	var rid string
	var scoped bool
	app.Get("/", func(c *fiber.Ctx) error {
		rid = RequestIDFromCtx(c.UserContext())
		scoped = LoggerFromCtx(c.UserContext()) != slog.Default()
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, rid)
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), rid)
	assert.True(t, scoped, "expected a request-scoped logger")
}
