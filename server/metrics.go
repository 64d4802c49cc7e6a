package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry so
// multiple servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	TendersScraped prometheus.Counter
	ScrapeErrors   prometheus.Counter
	MatchRequests  prometheus.Counter
	MatchLatency   prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TendersScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendermatch_tenders_scraped_total",
			Help: "Tenders scraped and indexed across all scrape jobs.",
		}),
		ScrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendermatch_scrape_errors_total",
			Help: "Scrape jobs that failed.",
		}),
		MatchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendermatch_match_requests_total",
			Help: "Match requests received.",
		}),
		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendermatch_match_duration_seconds",
			Help:    "End to end match request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.TendersScraped, m.ScrapeErrors, m.MatchRequests, m.MatchLatency)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
