package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	cfg = &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Audit.TimeoutSecs = 2

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(newRouter(st))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestServe_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_ListLeads(t *testing.T) {
	srv, st := newTestServer(t)

	require.NoError(t, st.InsertLead(context.Background(), &model.Lead{
		BusinessName: "Joe's Pizza", City: "Miami", LeadScore: 85,
	}))

	resp, err := http.Get(srv.URL + "/api/leads?min_score=50")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var leads []model.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "Joe's Pizza", leads[0].BusinessName)
}

func TestServe_RecordOutcome(t *testing.T) {
	srv, st := newTestServer(t)

	lead := &model.Lead{BusinessName: "Joe's Pizza", City: "Miami", LeadScore: 60}
	require.NoError(t, st.InsertLead(context.Background(), lead))

	resp, err := http.Post(srv.URL+"/api/leads/"+lead.ID+"/outcome",
		"application/json", strings.NewReader(`{"action":"interested"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Lead
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, 80, updated.LeadScore)
	assert.Equal(t, model.OutcomeInterested, updated.CallOutcome)
}

func TestServe_RecordOutcome_UnknownLead(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/leads/nope/outcome",
		"application/json", strings.NewReader(`{"action":"interested"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_RecordOutcome_BadAction(t *testing.T) {
	srv, st := newTestServer(t)

	lead := &model.Lead{BusinessName: "Joe's Pizza", City: "Miami"}
	require.NoError(t, st.InsertLead(context.Background(), lead))

	resp, err := http.Post(srv.URL+"/api/leads/"+lead.ID+"/outcome",
		"application/json", strings.NewReader(`{"action":"ghosted"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_Insights_NoData(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/insights/plumbing")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body["summary"])
}

func TestServe_Audit_RequiresURL(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/audit", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_Audit(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Test Business Site Title Here</title>` +
			`<meta name="viewport" content="width=device-width">` +
			`<meta name="description" content="A perfectly reasonable longish description of the business and what it does for customers."></head>` +
			`<body><h1>Welcome</h1></body></html>`))
	}))
	defer page.Close()

	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/audit", "application/json",
		strings.NewReader(`{"url":"`+page.URL+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.AuditResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, page.URL, result.URL)
	assert.True(t, result.HasViewport)
	assert.Positive(t, result.OverallScore)
}
