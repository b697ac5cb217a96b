package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strum355/log"
	"golang.org/x/time/rate"

	"github.com/sv4u/audiodl/download/metadata"
)

const (
	// DefaultEndpoint is Deezer's public, keyless search API.
	DefaultEndpoint = "https://api.deezer.com/search"
	// DefaultTerm is appended to every title to bias results towards tracks.
	DefaultTerm = "audio"
	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 10 * time.Second
	// DefaultRatePerSecond stays below Deezer's 50 requests per 5 seconds quota.
	DefaultRatePerSecond = 8.0
	defaultBurst         = 5
)

// Config holds configuration for the Deezer search client.
type Config struct {
	Endpoint      string
	Term          string
	Timeout       time.Duration
	RatePerSecond float64

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Term == "" {
		c.Term = DefaultTerm
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = DefaultRatePerSecond
	}
}

// searchResponse is the subset of the search payload the client reads.
type searchResponse struct {
	Data []struct {
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title    string `json:"title"`
			CoverBig string `json:"cover_big"`
		} `json:"album"`
	} `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Client looks up track metadata by title.
type Client struct {
	config  *Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Deezer search client.
func NewClient(config *Config) *Client {
	cfg := *config
	cfg.SetDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config:  &cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), defaultBurst),
	}
}

// Lookup returns artist, album and cover art for the first search hit.
// It never fails: any problem yields the degraded, all-absent metadata.
// The first hit is taken as-is; no similarity check is made against title.
func (c *Client) Lookup(ctx context.Context, title string) metadata.TrackMetadata {
	if strings.TrimSpace(title) == "" {
		return metadata.TrackMetadata{}
	}

	md, err := c.search(ctx, title)
	if err != nil {
		log.WithContext(ctx).WithError(err).Info("metadata_lookup_degraded")
		return metadata.TrackMetadata{}
	}
	return md
}

// Query builds the search string sent for title.
func (c *Client) Query(title string) string {
	return strings.TrimSpace(title) + " " + c.config.Term
}

func (c *Client) search(ctx context.Context, title string) (metadata.TrackMetadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: "rate limiter", Original: err}
	}

	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: "invalid endpoint", Original: err}
	}
	q := u.Query()
	q.Set("q", c.Query(title))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: "failed to create request", Original: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: "request failed", Original: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metadata.TrackMetadata{}, &LookupError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: "failed to decode response", Original: err}
	}
	// Deezer reports quota and query errors inside a 200 response.
	if result.Error != nil {
		return metadata.TrackMetadata{}, &LookupError{Message: fmt.Sprintf("api error %d: %s", result.Error.Code, result.Error.Message)}
	}
	if len(result.Data) == 0 {
		return metadata.TrackMetadata{}, &LookupError{Message: "no results"}
	}

	first := result.Data[0]
	return metadata.TrackMetadata{
		Artist:   metadata.StringPtr(first.Artist.Name),
		Album:    metadata.StringPtr(first.Album.Title),
		CoverURL: metadata.StringPtr(first.Album.CoverBig),
	}, nil
}
