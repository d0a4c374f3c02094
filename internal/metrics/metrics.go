// Package metrics exposes classification counters for the node-exporter
// textfile collector.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
)

var (
	defaultOnce     sync.Once
	defaultInstance *Collector
)

type Collector struct {
	registry *prometheus.Registry

	gamesTotal       prometheus.Counter
	openingsTotal    *prometheus.CounterVec
	endgamesTotal    *prometheus.CounterVec
	replayStopsTotal *prometheus.CounterVec
	classifySeconds  prometheus.Histogram

	cacheTotal *prometheus.CounterVec

	backfillGamesTotal   *prometheus.CounterVec
	backfillUpdatedTotal *prometheus.CounterVec
	referenceOpenings    prometheus.Gauge
}

// Default returns the process-wide collector.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultInstance = New()
	})
	return defaultInstance
}

// New returns a collector backed by its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		gamesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "chess_insight_games_classified_total",
			Help: "Total number of games classified",
		}),
		openingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_opening_results_total",
			Help: "Opening detection outcomes",
		}, []string{"result"}),
		endgamesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_endgame_results_total",
			Help: "Endgame detection outcomes",
		}, []string{"result"}),
		replayStopsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_replay_stops_total",
			Help: "Replays by classifier, stop reason and move error kind",
		}, []string{"classifier", "reason", "kind"}),
		classifySeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chess_insight_classify_duration_seconds",
			Help:    "Time spent classifying one game",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_result_cache_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}),
		backfillGamesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_backfill_games_total",
			Help: "Games processed by backfill",
		}, []string{"mode"}),
		backfillUpdatedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chess_insight_backfill_updated_total",
			Help: "Games updated by backfill",
		}, []string{"mode"}),
		referenceOpenings: f.NewGauge(prometheus.GaugeOpts{
			Name: "chess_insight_reference_openings",
			Help: "Number of positions in the loaded reference index",
		}),
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveClassification records one classified game.
func (c *Collector) ObserveClassification(d time.Duration, cls domain.Classification, opening, endgame chess.ReplayResult) {
	c.gamesTotal.Inc()
	c.classifySeconds.Observe(d.Seconds())
	c.openingsTotal.WithLabelValues(foundLabel(cls.Opening != nil)).Inc()
	c.endgamesTotal.WithLabelValues(foundLabel(cls.Endgame != nil)).Inc()
	c.observeStop("opening", opening)
	c.observeStop("endgame", endgame)
}

func (c *Collector) observeStop(classifier string, res chess.ReplayResult) {
	kind := "none"
	if res.Err != nil {
		kind = chess.KindOf(res.Err).String()
	}
	c.replayStopsTotal.WithLabelValues(classifier, res.Reason.String(), kind).Inc()
}

func foundLabel(ok bool) string {
	if ok {
		return "found"
	}
	return "none"
}

func (c *Collector) CacheHit()   { c.cacheTotal.WithLabelValues("hit").Inc() }
func (c *Collector) CacheMiss()  { c.cacheTotal.WithLabelValues("miss").Inc() }
func (c *Collector) CacheError() { c.cacheTotal.WithLabelValues("error").Inc() }

func (c *Collector) ObserveBackfill(mode string, processed, updated int) {
	c.backfillGamesTotal.WithLabelValues(mode).Add(float64(processed))
	c.backfillUpdatedTotal.WithLabelValues(mode).Add(float64(updated))
}

func (c *Collector) SetReferenceOpenings(n int) { c.referenceOpenings.Set(float64(n)) }

// WriteTextfile writes every metric to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
