// Package nominatim reverse-geocodes coordinates with the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// reverseResponse is the subset of the /reverse jsonv2 payload we read.
// Pointers distinguish an absent field from an empty one.
type reverseResponse struct {
	Error       string  `json:"error"`
	DisplayName *string `json:"display_name"`
	Address     *struct {
		Country     *string `json:"country"`
		CountryCode *string `json:"country_code"`
		State       *string `json:"state"`
		City        *string `json:"city"`
		Postcode    *string `json:"postcode"`
	} `json:"address"`
}

// Client implements ports.Geocoder.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// New creates a Client. Every request is bounded by opts.Timeout.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
	}
}

// Reverse looks up the address at lat, lng. A point Nominatim cannot
// geocode yields an empty Address, not an error. Timeouts wrap
// domain.ErrGeocodeTimeout.
func (c *Client) Reverse(ctx context.Context, lat, lng string) (*domain.Address, error) {
	params := url.Values{}
	params.Set("lat", lat)
	params.Set("lon", lng)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("nominatim: %w: %v", domain.ErrGeocodeTimeout, err)
		}
		return nil, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status: %s", resp.Status)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("nominatim: %w: %v", domain.ErrGeocodeTimeout, err)
		}
		return nil, fmt.Errorf("nominatim: decode: %w", err)
	}

	addr := &domain.Address{DisplayName: body.DisplayName}
	if body.Address != nil {
		addr.Country = body.Address.Country
		addr.CountryCode = body.Address.CountryCode
		addr.State = body.Address.State
		addr.City = body.Address.City
		addr.PostalCode = body.Address.Postcode
	}
	return addr, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
