package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/metrics"
	"github.com/park285/chess-insight/internal/store"
)

const DefaultBatchSize = 1000

type BackfillOptions struct {
	Mode      store.Mode
	Force     bool
	BatchSize int
	Workers   int
}

type BackfillStats struct {
	RunID     string
	Total     int
	Processed int
	Updated   int
	Elapsed   time.Duration
}

// Backfiller fills derived columns for games already stored.
type Backfiller struct {
	repo       store.Repository
	classifier *Classifier
	metrics    *metrics.Collector
	logger     *zap.Logger
}

func NewBackfiller(repo store.Repository, classifier *Classifier, m *metrics.Collector, logger *zap.Logger) *Backfiller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfiller{repo: repo, classifier: classifier, metrics: m, logger: logger}
}

// Run selects pending games once, then classifies and updates them batch by batch.
// A game whose replay finds nothing for a column is counted as processed but not updated.
func (b *Backfiller) Run(ctx context.Context, opts BackfillOptions) (BackfillStats, error) {
	if _, err := store.ParseMode(string(opts.Mode)); err != nil {
		return BackfillStats{}, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	stats := BackfillStats{RunID: uuid.NewString()}
	log := b.logger.With(zap.String("run_id", stats.RunID), zap.String("mode", string(opts.Mode)))
	start := time.Now()

	ids, err := b.repo.PendingGameIDs(ctx, store.PendingFilter{Mode: opts.Mode, Force: opts.Force})
	if err != nil {
		return stats, fmt.Errorf("select pending games: %w", err)
	}
	stats.Total = len(ids)
	if stats.Total == 0 {
		log.Info("backfill_nothing_pending")
		return stats, nil
	}

	var openingIDs map[chess.Fingerprint]int64
	if opts.Mode.Openings() {
		if openingIDs, err = storedOpeningIDs(ctx, b.repo); err != nil {
			return stats, err
		}
	}
	log.Info("backfill_start", zap.Int("total", stats.Total), zap.Int("batch_size", opts.BatchSize), zap.Bool("force", opts.Force))

	for lo := 0; lo < len(ids); lo += opts.BatchSize {
		hi := min(lo+opts.BatchSize, len(ids))
		games, err := b.repo.GamesByIDs(ctx, ids[lo:hi])
		if err != nil {
			return stats, fmt.Errorf("load games: %w", err)
		}
		results, err := Run(ctx, b.classifier, games, opts.Workers)
		if err != nil {
			return stats, err
		}

		updates := make([]store.Update, 0, len(games))
		for i, g := range games {
			if u := buildUpdate(g.ID, results[i], opts.Mode, openingIDs); !u.Empty() {
				updates = append(updates, u)
			}
		}
		updated := 0
		if len(updates) > 0 {
			if updated, err = b.repo.UpdateClassifications(ctx, updates); err != nil {
				return stats, fmt.Errorf("update games: %w", err)
			}
		}
		stats.Processed += len(games)
		stats.Updated += updated
		if b.metrics != nil {
			b.metrics.ObserveBackfill(string(opts.Mode), len(games), updated)
		}
		log.Info("backfill_progress",
			zap.Int("processed", stats.Processed),
			zap.Int("total", stats.Total),
			zap.Int("updated", stats.Updated),
		)
	}

	stats.Elapsed = time.Since(start)
	log.Info("backfill_done",
		zap.Int("processed", stats.Processed),
		zap.Int("updated", stats.Updated),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

// buildUpdate keeps only the columns of mode that the classification could fill.
// Opening IDs come from openingIDs, the openings stored when the run began.
func buildUpdate(gameID int64, cls domain.Classification, mode store.Mode, openingIDs map[chess.Fingerprint]int64) store.Update {
	u := store.Update{GameID: gameID}
	if mode.Openings() && cls.Opening != nil {
		// 캐시된 Opening.ID 는 재적재 전 값일 수 있어 저장소 기준으로만 찾는다
		if id, ok := openingIDs[cls.Opening.Fingerprint]; ok {
			ply := cls.Opening.Ply
			u.OpeningID, u.OpeningPly = &id, &ply
		}
	}
	if mode.Endgame() && cls.Endgame != nil {
		ply, fen := cls.Endgame.Ply, cls.Endgame.Fingerprint.String()
		u.EndgameMovePly, u.EndgameFEN = &ply, &fen
	}
	if mode.MoveCount() && cls.MoveCountPly > 0 {
		n := cls.MoveCountPly
		u.MoveCountPly = &n
	}
	return u
}

func storedOpeningIDs(ctx context.Context, repo store.Repository) (map[chess.Fingerprint]int64, error) {
	openings, err := repo.ListOpenings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list openings: %w", err)
	}
	ids := make(map[chess.Fingerprint]int64, len(openings))
	for _, o := range openings {
		ids[o.Fingerprint] = o.ID
	}
	return ids, nil
}
