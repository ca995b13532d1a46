// Package geocode resolves place names and device positions to
// coordinates for the dashboard's location controls.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/provider/resilience"
)

// Geocoding errors.
var (
	// ErrNoResults means the query matched nothing. Callers treat
	// this as a silent no-op, not a failure.
	ErrNoResults = errors.New("no geocoding results")

	// ErrLocationUnavailable means no position source is available.
	ErrLocationUnavailable = errors.New("current location unavailable")

	// ErrLocationDenied means the position source refused access.
	ErrLocationDenied = errors.New("location access denied")
)

// DefaultBaseURL is the default geocoding service address
// (Nominatim-compatible search API).
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Place is one geocoding match.
type Place struct {
	Name     string
	Location flora.Location
}

// Searcher resolves free-text queries to places.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Place, error)
}

// Locator reports the user's current position.
type Locator interface {
	Current(ctx context.Context) (flora.Location, error)
}

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	// BaseURL is the service base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient overrides the default resilient client.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration

	// Limit caps the number of matches requested (default: 5).
	Limit int
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Nominatim-style geocoding client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	limit      int
}

// NewClient creates a geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 5
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "geocode",
			Timeout: timeout,
			// Nominatim's usage policy caps anonymous clients at
			// one request per second.
			RequestsPerSecond: 1,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		limit:      limit,
	}
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search resolves a free-text query. Returns ErrNoResults when the
// service answers with an empty match list.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))

	u := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from geocoding service", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		loc, locErr := flora.NewLocation(lat, lon)
		if locErr != nil {
			continue
		}
		places = append(places, Place{Name: r.DisplayName, Location: loc})
	}

	if len(places) == 0 {
		return nil, ErrNoResults
	}
	return places, nil
}

var _ Searcher = (*Client)(nil)

// StaticLocator is a Locator pinned to a fixed position, used when no
// real position source is wired in.
type StaticLocator struct {
	Location flora.Location

	// Deny simulates a refused location request.
	Deny bool
}

// Current returns the pinned position, or ErrLocationDenied when the
// locator is configured to refuse.
func (l *StaticLocator) Current(context.Context) (flora.Location, error) {
	if l.Deny {
		return flora.Location{}, ErrLocationDenied
	}
	return l.Location, nil
}

var _ Locator = (*StaticLocator)(nil)
