// Package geo looks up the neighborhoods of a city through the
// OpenStreetMap Overpass API, for splitting a large scrape into
// district-sized queries.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Islam-amara1/mapsscraper/pkg/logger"
)

const defaultEndpoint = "https://overpass-api.de/api/interpreter"

// Client queries the Overpass API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different Overpass instance.
// Tests use this against a local server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an Overpass client with sane timeouts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Neighborhoods returns the distinct neighborhood names of a city,
// sorted. Cities tagged sparsely fall back to quarter and district
// places before giving up.
func (c *Client) Neighborhoods(ctx context.Context, city string) ([]string, error) {
	names, err := c.query(ctx, city, "neighbourhood|suburb")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		c.log.WithField("city", city).Debug("no neighbourhood tags, trying quarter and district")
		names, err = c.query(ctx, city, "quarter|district")
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) query(ctx context.Context, city, placeTypes string) ([]string, error) {
	q := fmt.Sprintf(`[out:json][timeout:45];
area["name"=%q]["boundary"="administrative"]->.city;
node(area.city)["place"~"^(%s)$"];
out tags;`, city, placeTypes)

	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, el := range parsed.Elements {
		name := strings.TrimSpace(el.Tags["name"])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
