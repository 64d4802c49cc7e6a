// Package server is the JSON/WebSocket backend the tender dashboard calls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xhad/tendermatch/pkg/pipeline"
	"github.com/xhad/tendermatch/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the WebSocket envelope pushed to dashboard clients.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Runner is the slice of the pipeline the server drives.
type Runner interface {
	IngestTenders(ctx context.Context) (pipeline.IngestReport, error)
	MatchProfile(ctx context.Context, req pipeline.MatchRequest) (pipeline.MatchReport, error)
	Status(ctx context.Context) (pipeline.StatusReport, error)
}

type Server struct {
	pipeline Runner
	hub      *Hub
	metrics  *Metrics
	mux      *http.ServeMux

	jobMu sync.Mutex
	jobID string // empty when no scrape job is running
}

// New wires the HTTP routes. The hub is shared with the pipeline's progress
// callback so ingest progress streams to connected dashboards.
func New(p Runner, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub()
	}

	s := &Server{
		pipeline: p,
		hub:      hub,
		metrics:  NewMetrics(),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/match", s.handleMatch)
	s.mux.HandleFunc("/api/scrape", s.handleScrape)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.Handle("/metrics", s.metrics.Handler())

	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Run(addr string) error {
	log.Printf("Starting tendermatch server on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.pipeline.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read status: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type matchPayload struct {
	Text       string `json:"text"`
	URL        string `json:"url"`
	TopK       int    `json:"top_k"`
	Category   string `json:"category"`
	Source     string `json:"source"`
	Sector     string `json:"sector"`
	ActiveOnly bool   `json:"active_only"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	s.metrics.MatchRequests.Inc()
	timer := prometheus.NewTimer(s.metrics.MatchLatency)
	defer timer.ObserveDuration()

	var payload matchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" && strings.TrimSpace(payload.URL) == "" {
		writeError(w, http.StatusBadRequest, "either text or url is required")
		return
	}

	req := pipeline.MatchRequest{
		Text:       payload.Text,
		URL:        payload.URL,
		TopK:       payload.TopK,
		ActiveOnly: payload.ActiveOnly,
	}
	req.Filter.Category = payload.Category
	req.Filter.Source = payload.Source
	req.Filter.Sector = payload.Sector

	report, err := s.pipeline.MatchProfile(r.Context(), req)
	if err != nil {
		var dimErr store.DimensionError
		switch {
		case errors.Is(err, store.ErrEmptyIndex):
			writeError(w, http.StatusConflict, "no tenders indexed, run a scrape first")
		case errors.As(err, &dimErr):
			writeError(w, http.StatusUnprocessableEntity, dimErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("match failed: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	s.jobMu.Lock()
	if s.jobID != "" {
		id := s.jobID
		s.jobMu.Unlock()
		writeError(w, http.StatusConflict, fmt.Sprintf("scrape job %s is already running", id))
		return
	}
	id := uuid.NewString()
	s.jobID = id
	s.jobMu.Unlock()

	go s.runScrapeJob(id)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) runScrapeJob(id string) {
	defer func() {
		s.jobMu.Lock()
		s.jobID = ""
		s.jobMu.Unlock()
	}()

	s.hub.Broadcast(Message{
		Type:    "status",
		Content: "scrape started",
		Data:    map[string]string{"job_id": id},
	})

	report, err := s.pipeline.IngestTenders(context.Background())
	if err != nil {
		s.metrics.ScrapeErrors.Inc()
		log.Printf("Scrape job %s failed: %v", id, err)
		s.hub.Broadcast(Message{
			Type:    "error",
			Content: fmt.Sprintf("scrape failed: %v", err),
			Data:    map[string]string{"job_id": id},
		})
		return
	}

	s.metrics.TendersScraped.Add(float64(report.Scraped))
	s.hub.Broadcast(Message{
		Type:    "result",
		Content: fmt.Sprintf("scraped and indexed %d tenders", report.Stored),
		Data: map[string]interface{}{
			"job_id": id,
			"report": report,
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.hub.Register(conn)
	defer s.hub.Unregister(conn)

	// Clients only listen; drain until the connection closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
