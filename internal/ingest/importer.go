package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/store"
)

type ImportStats struct {
	Read     int
	Inserted int
}

// Import reads games from src, classifies them and inserts them into repo
// with every derived column already filled. Games whose source_id is
// already stored are skipped by the repository.
func Import(ctx context.Context, src *JSONLSource, repo store.Repository, c *Classifier, batchSize, workers int, logger *zap.Logger) (ImportStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	openingIDs, err := storedOpeningIDs(ctx, repo)
	if err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for {
		games, err := src.ReadBatch(batchSize)
		if err != nil {
			return stats, err
		}
		if len(games) == 0 {
			break
		}
		results, err := Run(ctx, c, games, workers)
		if err != nil {
			return stats, err
		}
		for i := range games {
			u := buildUpdate(0, results[i], store.ModeAll, openingIDs)
			g := &games[i]
			g.OpeningID, g.OpeningPly = u.OpeningID, u.OpeningPly
			g.EndgameMovePly, g.MoveCountPly = u.EndgameMovePly, u.MoveCountPly
			if u.EndgameFEN != nil {
				g.EndgameFEN = *u.EndgameFEN
			}
		}
		n, err := repo.InsertGames(ctx, games)
		if err != nil {
			return stats, fmt.Errorf("insert games: %w", err)
		}
		stats.Read += len(games)
		stats.Inserted += n
		logger.Info("import_progress", zap.Int("read", stats.Read), zap.Int("inserted", stats.Inserted))
		if len(games) < batchSize {
			break
		}
	}
	return stats, nil
}

// ClassifyStream classifies every game from src and writes one record per game to sink.
func ClassifyStream(ctx context.Context, src *JSONLSource, sink *JSONLSink, c *Classifier, batchSize, workers int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	written := 0
	for {
		games, err := src.ReadBatch(batchSize)
		if err != nil {
			return written, err
		}
		if len(games) == 0 {
			return written, nil
		}
		results, err := Run(ctx, c, games, workers)
		if err != nil {
			return written, err
		}
		for i, g := range games {
			if err := sink.Write(g, results[i]); err != nil {
				return written, err
			}
			written++
		}
		if len(games) < batchSize {
			return written, nil
		}
	}
}
