// Package collector gathers flight records from external sources and falls
// back to synthetic generation when they yield nothing.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/datatypes"

	"flightdash/internal/analytics"
	"flightdash/internal/config"
	"flightdash/internal/db"
	"flightdash/internal/events"
)

// ErrCollectionInProgress is returned when Collect is called while another
// collection is still running.
var ErrCollectionInProgress = errors.New("collection already in progress")

const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

var (
	collectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flightdash",
			Name:      "collections_total",
			Help:      "Collection attempts per source and outcome.",
		},
		[]string{"source", "status"},
	)
	flightsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flightdash",
			Name:      "flights_collected_total",
			Help:      "Flight records collected per source and airline.",
		},
		[]string{"source", "airline"},
	)
	collectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flightdash",
			Name:      "collection_duration_seconds",
			Help:      "Wall time of complete collection runs.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)
	registerOnce sync.Once
)

// RegisterMetrics adds the collector metrics to the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectionsTotal, flightsCollected, collectionDuration)
	})
}

// Source is one origin of flight records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]db.Flight, error)
}

// FlightStore persists what a collection produces.
type FlightStore interface {
	SaveFlights(ctx context.Context, flights []db.Flight) (int64, error)
	ListFlights(ctx context.Context, f db.FlightFilter) ([]db.Flight, error)
	SaveInsights(ctx context.Context, insights []db.Insight) error
	SaveRun(ctx context.Context, run *db.CollectionRun) error
}

// Invalidator drops cached dashboard payloads after new data lands.
type Invalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// Publisher announces finished collections.
type Publisher interface {
	PublishCollection(ctx context.Context, ev events.CollectionEvent) error
}

// Result describes one finished collection.
type Result struct {
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	Total      int            `json:"total"`
	Saved      int64          `json:"saved"`
	Insights   int            `json:"insights"`
	Sources    map[string]int `json:"sources"`
	Errors     []string       `json:"errors"`
	Warnings   []string       `json:"warnings"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Options configures a Collector. Zero values get defaults in New.
type Options struct {
	// Sources are tried in order until MaxPerRequest records are collected.
	Sources        []Source
	Generator      *Generator
	SyntheticCount int
	MaxPerRequest  int
	WindowDays     int
	Cache          Invalidator
	Events         Publisher
	Now            func() time.Time
}

// Collector runs at most one collection at a time.
type Collector struct {
	mu    sync.Mutex
	store FlightStore
	opts  Options
}

// New returns a Collector over store.
func New(store FlightStore, opts Options) *Collector {
	if opts.Generator == nil {
		opts.Generator = NewGenerator(nil, opts.Now, 30)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	return &Collector{store: store, opts: opts}
}

// NewFromConfig wires the configured external sources around one shared,
// rate limited fetcher.
func NewFromConfig(cfg *config.Config, store FlightStore, cache Invalidator, pub Publisher) *Collector {
	gen := NewGenerator(nil, nil, cfg.SyntheticHorizonDays)
	fetcher := NewFetcher(nil, cfg.APIRatePerSecond, cfg.APITimeout)

	var sources []Source
	if cfg.AviationStackAPIKey != "" {
		sources = append(sources, NewAviationStack(fetcher, gen, cfg.AviationStackBaseURL, cfg.AviationStackAPIKey, cfg.MaxFlightsPerRequest))
	}
	if cfg.ScrapeURL != "" {
		sources = append(sources, NewScraper(fetcher, gen, cfg.ScrapeURL))
	}

	return New(store, Options{
		Sources:        sources,
		Generator:      gen,
		SyntheticCount: cfg.SyntheticCount,
		MaxPerRequest:  cfg.MaxFlightsPerRequest,
		WindowDays:     cfg.DashboardDays,
		Cache:          cache,
		Events:         pub,
	})
}

// Collect runs one collection: fetch, fall back to synthetic data, persist
// flights and insights, then announce the run.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	if !c.mu.TryLock() {
		return nil, ErrCollectionInProgress
	}
	defer c.mu.Unlock()

	started := c.opts.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		Status:    StatusSuccess,
		Sources:   map[string]int{},
		Errors:    []string{},
		Warnings:  []string{},
		StartedAt: started,
	}

	flights := c.fetchAll(ctx, res)
	if len(flights) == 0 {
		synth, err := c.opts.Generator.Generate(c.opts.SyntheticCount)
		if err != nil {
			collectionsTotal.WithLabelValues("synthetic", "error").Inc()
			return nil, fmt.Errorf("synthetic fallback: %w", err)
		}
		if len(c.opts.Sources) > 0 {
			res.Warnings = append(res.Warnings, "external sources returned no data, using synthetic records")
		}
		c.count("synthetic", synth, res)
		flights = synth
	}
	res.Total = len(flights)

	saved, err := c.store.SaveFlights(ctx, flights)
	if err != nil {
		return nil, fmt.Errorf("save flights: %w", err)
	}
	res.Saved = saved
	if skipped := int64(res.Total) - saved; skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d records already stored", skipped))
	}

	n, err := c.refreshInsights(ctx, started)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	res.Insights = n

	if len(res.Errors) > 0 {
		res.Status = StatusPartial
	}
	res.FinishedAt = c.opts.Now()

	if err := c.store.SaveRun(ctx, runModel(res)); err != nil {
		return nil, fmt.Errorf("save collection run: %w", err)
	}
	collectionDuration.Observe(res.FinishedAt.Sub(started).Seconds())

	if c.opts.Cache != nil {
		if err := c.opts.Cache.InvalidateDashboard(ctx); err != nil {
			log.Printf("warning: invalidate dashboard cache: %v", err)
		}
	}
	if c.opts.Events != nil {
		if err := c.opts.Events.PublishCollection(ctx, collectionEvent(res)); err != nil {
			log.Printf("warning: publish collection event: %v", err)
		}
	}

	log.Printf("collection %s: %s, %d records, %d saved, %d insights", res.RunID, res.Status, res.Total, res.Saved, res.Insights)
	return res, nil
}

func (c *Collector) fetchAll(ctx context.Context, res *Result) []db.Flight {
	var out []db.Flight
	for _, src := range c.opts.Sources {
		if c.opts.MaxPerRequest > 0 && len(out) >= c.opts.MaxPerRequest {
			break
		}
		got, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("collector: %s failed: %v", src.Name(), err)
			collectionsTotal.WithLabelValues(src.Name(), "error").Inc()
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		got = usable(src.Name(), got, res)
		c.count(src.Name(), got, res)
		out = append(out, got...)
	}
	return out
}

// usable keeps the records of one source that pass Flight.Validate. The
// rest are logged and reported as a warning instead of failing the save.
func usable(source string, flights []db.Flight, res *Result) []db.Flight {
	kept := make([]db.Flight, 0, len(flights))
	for _, f := range flights {
		f.Normalize()
		if err := f.Validate(); err != nil {
			log.Printf("collector: %s: dropping %s %s: %v", source, f.Airline, f.Route, err)
			continue
		}
		kept = append(kept, f)
	}
	if dropped := len(flights) - len(kept); dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: dropped %d invalid records", source, dropped))
	}
	return kept
}

func (c *Collector) count(source string, flights []db.Flight, res *Result) {
	collectionsTotal.WithLabelValues(source, "ok").Inc()
	res.Sources[source] += len(flights)
	for _, f := range flights {
		flightsCollected.WithLabelValues(source, f.Airline).Inc()
	}
}

func (c *Collector) refreshInsights(ctx context.Context, at time.Time) (int, error) {
	records, err := c.store.ListFlights(ctx, db.FlightFilter{
		Since: at.AddDate(0, 0, -c.opts.WindowDays),
	})
	if err != nil {
		return 0, fmt.Errorf("load flights for insights: %w", err)
	}
	insights := analytics.GenerateInsights(records)
	if len(insights) == 0 {
		return 0, nil
	}
	rows := make([]db.Insight, 0, len(insights))
	for _, in := range insights {
		rows = append(rows, in.Model(at))
	}
	if err := c.store.SaveInsights(ctx, rows); err != nil {
		return 0, fmt.Errorf("save insights: %w", err)
	}
	return len(rows), nil
}

func runModel(res *Result) *db.CollectionRun {
	sources, _ := json.Marshal(res.Sources)
	errs, _ := json.Marshal(res.Errors)
	warnings, _ := json.Marshal(res.Warnings)
	return &db.CollectionRun{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Status:     res.Status,
		Total:      res.Total,
		Saved:      res.Saved,
		Insights:   res.Insights,
		Sources:    datatypes.JSON(sources),
		Errors:     datatypes.JSON(errs),
		Warnings:   datatypes.JSON(warnings),
	}
}

func collectionEvent(res *Result) events.CollectionEvent {
	return events.CollectionEvent{
		Type:       events.TypeCollectionCompleted,
		RunID:      res.RunID,
		Status:     res.Status,
		Total:      res.Total,
		Saved:      res.Saved,
		Insights:   res.Insights,
		Sources:    res.Sources,
		Errors:     res.Errors,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}
