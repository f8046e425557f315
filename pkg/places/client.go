// Package places is a thin client for the Google Places text search API,
// the upstream search provider for lead discovery. The reconciler drives
// pagination; the client exposes one page per call.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs business searches against the provider.
type Client interface {
	SearchBusinesses(ctx context.Context, query, pageToken string) (*SearchPage, error)
}

// Business is one raw search result before normalization and scoring.
type Business struct {
	Name        string
	Address     string
	Phone       string
	Rating      float64
	ReviewCount int
	WebsiteURL  string
	MapsURL     string
}

// SearchPage is a single page of results plus the token for the next one,
// empty when the search is exhausted.
type SearchPage struct {
	Businesses    []Business
	NextPageToken string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageSize overrides the requested page size (provider max is 20).
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		c.pageSize = n
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	pageSize int
	http     *http.Client
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		pageSize: 20,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type textSearchResponse struct {
	Places        []place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

type place struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress    string  `json:"formattedAddress"`
	NationalPhoneNumber string  `json:"nationalPhoneNumber"`
	Rating              float64 `json:"rating"`
	UserRatingCount     int     `json:"userRatingCount"`
	WebsiteURI          string  `json:"websiteUri"`
	GoogleMapsURI       string  `json:"googleMapsUri"`
}

func (c *httpClient) SearchBusinesses(ctx context.Context, query, pageToken string) (*SearchPage, error) {
	body, err := json.Marshal(textSearchRequest{
		TextQuery: query,
		PageSize:  c.pageSize,
		PageToken: pageToken,
	})
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask",
		"nextPageToken,places.displayName,places.formattedAddress,places.nationalPhoneNumber,"+
			"places.rating,places.userRatingCount,places.websiteUri,places.googleMapsUri")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.NewRateLimitError(
			eris.Errorf("places: rate limited: %s", string(respBody)))
	}
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("places: status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result textSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	page := &SearchPage{NextPageToken: result.NextPageToken}
	for _, p := range result.Places {
		page.Businesses = append(page.Businesses, Business{
			Name:        p.DisplayName.Text,
			Address:     p.FormattedAddress,
			Phone:       p.NationalPhoneNumber,
			Rating:      p.Rating,
			ReviewCount: p.UserRatingCount,
			WebsiteURL:  p.WebsiteURI,
			MapsURL:     p.GoogleMapsURI,
		})
	}
	return page, nil
}
