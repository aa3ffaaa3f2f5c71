package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"pollofpolls-backend/internal/local"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/store"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pollofpolls/api")

type Store interface {
	LatestPolls(ctx context.Context) (store.Run, []polls.Poll, error)
	LatestAggregate(ctx context.Context) (store.AggregateRecord, error)
	AggregateSeries(ctx context.Context, limit int) ([]store.AggregateRecord, error)
}

type Options struct {
	Store Store
	// Baseline can be nil, in which case the local endpoints respond with 503.
	Baseline *local.Baseline
	Metrics  *Metrics
	// CacheTTL is how long ward projections are kept, defaults to an hour.
	CacheTTL time.Duration
}

// Server serves the stored polls, aggregates and ward projections as JSON.
type Server struct {
	store    Store
	baseline *local.Baseline
	metrics  *Metrics
	cache    *expirable.LRU[string, []local.Projection]
	router   *mux.Router
}

func NewServer(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}

	s := &Server{
		store:    opts.Store,
		baseline: opts.Baseline,
		metrics:  opts.Metrics,
		cache:    expirable.NewLRU[string, []local.Projection](256, nil, opts.CacheTTL),
		router:   mux.NewRouter(),
	}

	s.router.Use(s.metrics.middleware)
	s.router.HandleFunc("/api/polls", s.handlePolls).Methods(http.MethodGet)
	s.router.HandleFunc("/api/aggregates", s.handleAggregates).Methods(http.MethodGet)
	s.router.HandleFunc("/api/aggregates/latest", s.handleLatestAggregate).Methods(http.MethodGet)
	s.router.HandleFunc("/api/local/wards", s.handleWards).Methods(http.MethodGet)
	s.router.HandleFunc("/api/local/lads", s.handleLADs).Methods(http.MethodGet)
	s.router.HandleFunc("/api/local/lads/{lad}", s.handleLAD).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStoreError responds to an error returned by the store.
func writeStoreError(ctx context.Context, w http.ResponseWriter, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no %s available yet", what))
		return
	}
	slog.ErrorContext(ctx, "failed to load "+what, "err", err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load %s", what))
}

func (s *Server) handlePolls(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handlePolls")
	defer span.End()

	run, list, err := s.store.LatestPolls(ctx)
	if err != nil {
		span.RecordError(err)
		writeStoreError(ctx, w, "polls", err)
		return
	}

	res := pollsResponse{
		RunDate:   run.Date.Format(time.DateOnly),
		SourceUrl: run.SourceUrl,
		Polls:     make([]pollJSON, len(list)),
	}
	for i, p := range list {
		res.Polls[i] = toPollJSON(p)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAggregates")
	defer span.End()

	limit := store.DefaultSeriesLimit
	if text := r.URL.Query().Get("limit"); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.store.AggregateSeries(ctx, limit)
	if err != nil {
		span.RecordError(err)
		writeStoreError(ctx, w, "aggregates", err)
		return
	}

	res := aggregatesResponse{Aggregates: make([]aggregateJSON, len(records))}
	for i, record := range records {
		res.Aggregates[i] = toAggregateJSON(record)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLatestAggregate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleLatestAggregate")
	defer span.End()

	record, err := s.store.LatestAggregate(ctx)
	if err != nil {
		span.RecordError(err)
		writeStoreError(ctx, w, "aggregate", err)
		return
	}
	writeJSON(w, http.StatusOK, toAggregateJSON(record))
}

// projections returns the ward projections against the latest aggregate,
// cached per aggregate version and LAD filter.
func (s *Server) projections(ctx context.Context, ladCode string) (store.AggregateRecord, []local.Projection, error) {
	ctx, span := tracer.Start(ctx, "projections")
	defer span.End()

	record, err := s.store.LatestAggregate(ctx)
	if err != nil {
		return store.AggregateRecord{}, nil, err
	}

	key := fmt.Sprintf("%s|%d|%s", record.Date.Format(time.DateOnly), record.UpdatedAt.Unix(), ladCode)
	cached, hit := s.cache.Get(key)
	span.SetAttributes(attribute.Bool("cache_hit", hit))
	if hit {
		return record, cached, nil
	}

	projections := local.ProjectAll(ctx, *s.baseline, record.Aggregate, ladCode)
	s.cache.Add(key, projections)
	return record, projections, nil
}

func (s *Server) handleWards(w http.ResponseWriter, r *http.Request) {
	if s.baseline == nil {
		writeError(w, http.StatusServiceUnavailable, "no ward baseline configured")
		return
	}

	ctx := r.Context()
	ladCode := r.URL.Query().Get("lad")
	record, projections, err := s.projections(ctx, ladCode)
	if err != nil {
		writeStoreError(ctx, w, "aggregate", err)
		return
	}

	writeJSON(w, http.StatusOK, wardsResponse{
		AggregateDate: record.Date.Format(time.DateOnly),
		GeneratedAt:   s.baseline.GeneratedAt,
		Wards:         projections,
	})
}

func (s *Server) handleLADs(w http.ResponseWriter, r *http.Request) {
	if s.baseline == nil {
		writeError(w, http.StatusServiceUnavailable, "no ward baseline configured")
		return
	}
	writeJSON(w, http.StatusOK, ladsResponse{Lads: s.baseline.LADs()})
}

func (s *Server) handleLAD(w http.ResponseWriter, r *http.Request) {
	if s.baseline == nil {
		writeError(w, http.StatusServiceUnavailable, "no ward baseline configured")
		return
	}

	ctx := r.Context()
	ladCode := mux.Vars(r)["lad"]
	record, projections, err := s.projections(ctx, ladCode)
	if err != nil {
		writeStoreError(ctx, w, "aggregate", err)
		return
	}

	summary, ok := local.SummarizeLAD(projections, ladCode)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown local authority %q", ladCode))
		return
	}
	writeJSON(w, http.StatusOK, ladResponse{
		AggregateDate: record.Date.Format(time.DateOnly),
		Summary:       summary,
		Leader:        summary.Leader(),
	})
}
