// Package ingest classifies games and writes the results to a store or a JSONL stream.
package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess/endgame"
	"github.com/park285/chess-insight/internal/chess/openingbook"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/metrics"
	"github.com/park285/chess-insight/internal/movetext"
	"github.com/park285/chess-insight/internal/resultcache"
)

// ResultCache is the subset of *resultcache.Cache the classifier needs.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.Classification, bool, error)
	Set(ctx context.Context, key string, cls domain.Classification) error
}

type Option func(*Classifier)

func WithCache(c ResultCache) Option { return func(cl *Classifier) { cl.cache = c } }

func WithMetrics(m *metrics.Collector) Option { return func(cl *Classifier) { cl.metrics = m } }

func WithLogger(l *zap.Logger) Option {
	return func(cl *Classifier) {
		if l != nil {
			cl.logger = l
		}
	}
}

// Classifier runs the opening matcher and the endgame detector over one
// token list. It is safe for concurrent use.
type Classifier struct {
	matcher  *openingbook.Matcher
	detector *endgame.Detector
	cache    ResultCache
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func NewClassifier(index *openingbook.Index, opts ...Option) *Classifier {
	c := &Classifier{
		matcher:  openingbook.NewMatcher(index),
		detector: endgame.NewDetector(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classifier) Index() *openingbook.Index { return c.matcher.Index() }

// Classify never fails: move errors end a replay early and cache errors
// fall back to computing the result.
func (c *Classifier) Classify(ctx context.Context, moveText string) domain.Classification {
	var key string
	if c.cache != nil {
		key = resultcache.Key(c.matcher.Index().Digest(), moveText)
		cached, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("result_cache_get_failed", zap.String("key", key), zap.Error(err))
			if c.metrics != nil {
				c.metrics.CacheError()
			}
		case ok:
			if c.metrics != nil {
				c.metrics.CacheHit()
			}
			return *cached
		default:
			if c.metrics != nil {
				c.metrics.CacheMiss()
			}
		}
	}

	start := time.Now()
	tokens := movetext.Tokenize(moveText)
	opening, openingRes := c.matcher.DetectWithResult(tokens)
	entry, endgameRes := c.detector.DetectWithResult(tokens)
	cls := domain.Classification{Opening: opening, Endgame: entry, MoveCountPly: len(tokens)}

	if openingRes.Err != nil {
		c.logger.Debug("opening_replay_stopped", zap.Int("ply", openingRes.Plies), zap.Error(openingRes.Err))
	}
	if c.metrics != nil {
		c.metrics.ObserveClassification(time.Since(start), cls, openingRes, endgameRes)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, cls); err != nil {
			c.logger.Warn("result_cache_set_failed", zap.String("key", key), zap.Error(err))
		}
	}
	return cls
}
