package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/pipeline"
	"github.com/xhad/tendermatch/pkg/store"
)

type fakeRunner struct {
	matchErr  error
	ingestGo  chan struct{} // closed to let IngestTenders return
	ingestRan chan struct{}
}

func (f *fakeRunner) IngestTenders(ctx context.Context) (pipeline.IngestReport, error) {
	if f.ingestRan != nil {
		close(f.ingestRan)
	}
	if f.ingestGo != nil {
		<-f.ingestGo
	}
	return pipeline.IngestReport{Scraped: 7, Embedded: 7, Stored: 7}, nil
}

func (f *fakeRunner) MatchProfile(ctx context.Context, req pipeline.MatchRequest) (pipeline.MatchReport, error) {
	if f.matchErr != nil {
		return pipeline.MatchReport{}, f.matchErr
	}
	return pipeline.MatchReport{
		Company: models.CompanyProfile{Name: "Acme Infra"},
		Recommendations: []models.Recommendation{
			{TenderID: "a", Title: "Road Works", Score: 0.9, Rank: 1},
		},
	}, nil
}

func (f *fakeRunner) Status(ctx context.Context) (pipeline.StatusReport, error) {
	return pipeline.StatusReport{
		Ready:          true,
		TenderCount:    42,
		EmbeddingModel: "nomic-embed-text",
		Dimension:      768,
	}, nil
}

func newTestServer(runner *fakeRunner) *httptest.Server {
	s := New(runner, NewHub())
	return httptest.NewServer(s.Handler())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status pipeline.StatusReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Ready)
	assert.Equal(t, 42, status.TenderCount)
	assert.Equal(t, "nomic-embed-text", status.EmbeddingModel)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func TestMatchEndpoint(t *testing.T) {
	ts := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/match", `{"text": "We build roads", "top_k": 5, "sector": "construction"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report pipeline.MatchReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "Acme Infra", report.Company.Name)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, 1, report.Recommendations[0].Rank)
}

func TestMatchEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		matchErr error
		want     int
	}{
		{"empty input", `{}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"empty index", `{"text": "x"}`, store.ErrEmptyIndex, http.StatusConflict},
		{"dimension mismatch", `{"text": "x"}`, store.DimensionError{Got: 384, Want: 768}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&fakeRunner{matchErr: tt.matchErr})
			defer ts.Close()

			resp := postJSON(t, ts.URL+"/api/match", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMatchRequiresPost(t *testing.T) {
	ts := newTestServer(&fakeRunner{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/match")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestScrapeJob(t *testing.T) {
	runner := &fakeRunner{
		ingestGo:  make(chan struct{}),
		ingestRan: make(chan struct{}),
	}
	ts := newTestServer(runner)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/scrape", `{}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var started map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	assert.NotEmpty(t, started["job_id"])

	// Second scrape while the first is still running is rejected
	<-runner.ingestRan
	second := postJSON(t, ts.URL+"/api/scrape", `{}`)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	close(runner.ingestGo)
}

func TestWebSocketBroadcast(t *testing.T) {
	hub := NewHub()
	s := New(&fakeRunner{}, hub)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the client
	time.Sleep(50 * time.Millisecond)
	hub.Progress("embed", 3, 10)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "progress", msg.Type)
	assert.Equal(t, "embed: 3/10", msg.Content)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(&fakeRunner{})
	defer ts.Close()

	// A match bumps the counter
	resp := postJSON(t, ts.URL+"/api/match", `{"text": "x"}`)
	resp.Body.Close()

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)

	buf := new(bytes.Buffer)
	buf.ReadFrom(metrics.Body)
	body := buf.String()
	assert.Contains(t, body, "tendermatch_match_requests_total 1")
	assert.Contains(t, body, "tendermatch_tenders_scraped_total")
}
