//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/spotmap/internal/adapters/http"
	"github.com/samirrijal/spotmap/internal/adapters/postgres"
	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/usecases"
)

// setupTestDB migrates a clean schema into TEST_DATABASE_URL.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := postgres.NewMigrator(dsn)
	require.NoError(t, err)
	defer m.Close()
	_, err = m.DownTo(ctx, 0)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	db, err := postgres.New(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	tags := usecases.NewTagService(postgres.NewTagRepo(db), postgres.NewUserActionRepo(db), postgres.NewSpotTagRepo(db))
	return &handler.Dependencies{
		Spots:  usecases.NewSpotService(postgres.NewSpotRepo(db), tags, nil, nil, 5),
		Tags:   tags,
		Places: usecases.NewPlaceService(&mockGeocoder{}, nil),
		DB:     db,
	}
}

func TestIntegration_SpotLifecycle(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	req := httptest.NewRequest("POST", "/v1/spots", strings.NewReader(cafeJSON))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var spot domain.Spot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spot))
	assert.NotZero(t, spot.ID)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/spots/nearby?user_id=1&lat=43.2605&lng=-2.9301", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/spots/nearby?user_id=2&lat=43.2605&lng=-2.9301", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode, "user 2 owns nothing nearby")

	path := "/v1/spots/" + strconv.FormatInt(spot.ID, 10)
	resp, err = app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	var details domain.SpotDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&details))
	assert.Len(t, details.Tags, 2)

	resp, err = app.Test(httptest.NewRequest("DELETE", path, nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/tags", nil), -1)
	require.NoError(t, err)
	var tags struct {
		Tags []domain.Tag `json:"tags"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tags))
	assert.Empty(t, tags.Tags, "orphaned tags are collected on destroy")
}

func TestIntegration_Ready(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
