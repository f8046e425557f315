package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestSearchBusinesses_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")

		var body textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "plumber in Miami, FL", body.TextQuery)
		assert.Equal(t, 20, body.PageSize)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"places": [{
				"displayName": {"text": "Joe's Plumbing"},
				"formattedAddress": "123 Main St, Miami, FL 33101, USA",
				"nationalPhoneNumber": "(305) 555-0100",
				"rating": 4.6,
				"userRatingCount": 212,
				"websiteUri": "https://joesplumbing.com",
				"googleMapsUri": "https://maps.google.com/?cid=1"
			}],
			"nextPageToken": "tok-2"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	page, err := client.SearchBusinesses(context.Background(), "plumber in Miami, FL", "")

	require.NoError(t, err)
	require.Len(t, page.Businesses, 1)
	b := page.Businesses[0]
	assert.Equal(t, "Joe's Plumbing", b.Name)
	assert.Equal(t, "123 Main St, Miami, FL 33101, USA", b.Address)
	assert.Equal(t, "(305) 555-0100", b.Phone)
	assert.InDelta(t, 4.6, b.Rating, 0.001)
	assert.Equal(t, 212, b.ReviewCount)
	assert.Equal(t, "https://joesplumbing.com", b.WebsiteURL)
	assert.Equal(t, "tok-2", page.NextPageToken)
}

func TestSearchBusinesses_PageTokenForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok-2", body.PageToken)
		_, _ = w.Write([]byte(`{"places": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	page, err := client.SearchBusinesses(context.Background(), "plumber in Miami, FL", "tok-2")

	require.NoError(t, err)
	assert.Empty(t, page.Businesses)
	assert.Empty(t, page.NextPageToken)
}

func TestSearchBusinesses_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.SearchBusinesses(context.Background(), "q", "")

	require.Error(t, err)
	assert.True(t, resilience.IsRateLimit(err))
}

func TestSearchBusinesses_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.SearchBusinesses(context.Background(), "q", "")

	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.False(t, resilience.IsRateLimit(err))
}

func TestSearchBusinesses_BadRequestNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.SearchBusinesses(context.Background(), "q", "")

	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}
