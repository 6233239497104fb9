package nominatim_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotmap/internal/adapters/nominatim"
	"github.com/samirrijal/spotmap/internal/core/domain"
)

func TestClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "40.4168", r.URL.Query().Get("lat"))
		assert.Equal(t, "-3.7038", r.URL.Query().Get("lon"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "spotmap-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"display_name": "Puerta del Sol, Madrid, España",
			"address": {"country": "España", "country_code": "es", "city": "Madrid"}
		}`))
	}))
	defer srv.Close()

	c := nominatim.New(nominatim.Options{BaseURL: srv.URL, UserAgent: "spotmap-test", Timeout: time.Second})

	addr, err := c.Reverse(context.Background(), "40.4168", "-3.7038")
	require.NoError(t, err)
	require.NotNil(t, addr.Country)
	assert.Equal(t, "España", *addr.Country)
	assert.Equal(t, "es", *addr.CountryCode)
	assert.Equal(t, "Madrid", *addr.City)
	assert.Equal(t, "Puerta del Sol, Madrid, España", *addr.DisplayName)
	assert.Nil(t, addr.State)
	assert.Nil(t, addr.PostalCode)
}

func TestClient_Reverse_UnableToGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer srv.Close()

	c := nominatim.New(nominatim.Options{BaseURL: srv.URL})

	addr, err := c.Reverse(context.Background(), "0", "0")
	require.NoError(t, err)
	assert.Equal(t, &domain.Address{}, addr)
}

func TestClient_Reverse_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := nominatim.New(nominatim.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Reverse(context.Background(), "1", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeocodeTimeout), "got %v", err)
}

func TestClient_Reverse_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := nominatim.New(nominatim.Options{BaseURL: srv.URL})

	_, err := c.Reverse(context.Background(), "1", "1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrGeocodeTimeout))
}
