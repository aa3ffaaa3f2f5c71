package api

import (
	"net/http"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/runner"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes run and request metrics in the prometheus format. It
// implements runner.Observer.
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	pollsScraped  prometheus.Counter
	skippedRows   prometheus.Counter
	lastRun       prometheus.Gauge
	leadValue     *prometheus.GaugeVec
	partyShare    *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	requestTiming *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pollofpolls_runs_total",
				Help: "Daily scrape runs by outcome.",
			},
			[]string{"status"},
		),
		pollsScraped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollofpolls_polls_scraped_total",
			Help: "Polls extracted by successful runs.",
		}),
		skippedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollofpolls_rows_skipped_total",
			Help: "Table rows dropped while scraping.",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pollofpolls_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		leadValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pollofpolls_aggregate_lead",
				Help: "Margin of the leading party in the latest aggregate.",
			},
			[]string{"party"},
		),
		partyShare: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pollofpolls_aggregate_share",
				Help: "Weighted vote share of each party in the latest aggregate.",
			},
			[]string{"party"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pollofpolls_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestTiming: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pollofpolls_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) RunFinished(summary runner.Summary, err error) {
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.pollsScraped.Add(float64(summary.Polls))
	m.skippedRows.Add(float64(summary.SkippedRows))
	m.lastRun.SetToCurrentTime()

	m.partyShare.Reset()
	for _, party := range polls.Parties {
		v, ok := summary.Aggregate.Values.Get(party)
		if ok {
			m.partyShare.WithLabelValues(string(party)).Set(v)
		}
	}

	m.leadValue.Reset()
	if summary.Aggregate.LeadParty != nil && summary.Aggregate.LeadValue != nil {
		m.leadValue.WithLabelValues(*summary.Aggregate.LeadParty).Set(*summary.Aggregate.LeadValue)
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.requests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestTiming.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
