// Package app wires the store, result cache, reference index and metrics from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess/openingbook"
	"github.com/park285/chess-insight/internal/config"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/ingest"
	"github.com/park285/chess-insight/internal/metrics"
	"github.com/park285/chess-insight/internal/resultcache"
	"github.com/park285/chess-insight/internal/store"
)

type Deps struct {
	Repo       store.Repository
	Cache      *resultcache.Cache
	Metrics    *metrics.Collector
	Index      *openingbook.Index
	Classifier *ingest.Classifier

	// OpeningSource is the source the index was actually built from.
	OpeningSource config.OpeningSource
}

// New builds every dependency. Without DATABASE_URL the repository is in-memory;
// without REDIS_URL results are not cached.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repo, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := &Deps{Repo: repo, Metrics: metrics.Default()}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		deps.Cache, err = resultcache.Dial(ctx, cfg.RedisURL, cfg.ResultCacheTTL)
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("init result cache: %w", err)
		}
	}

	refs, src, err := LoadOpenings(ctx, cfg, repo)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Index = openingbook.NewIndex(refs)
	deps.OpeningSource = src
	deps.Metrics.SetReferenceOpenings(deps.Index.Len())
	logger.Info("reference_index_loaded",
		zap.String("source", string(src)),
		zap.Int("positions", deps.Index.Len()),
		zap.String("digest", deps.Index.Digest()),
	)

	opts := []ingest.Option{ingest.WithMetrics(deps.Metrics), ingest.WithLogger(logger)}
	if deps.Cache != nil {
		opts = append(opts, ingest.WithCache(deps.Cache))
	}
	deps.Classifier = ingest.NewClassifier(deps.Index, opts...)
	return deps, nil
}

// OpenStore returns Postgres with the schema ensured, or Memory when no database is configured.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (store.Repository, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("database_url_empty_using_memory_store")
		return store.NewMemory(logger), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pg, nil
}

// LoadOpenings reads references from cfg.OpeningSource. Auto tries the
// database, then the catalog directory, then the bundled ECO book.
func LoadOpenings(ctx context.Context, cfg *config.AppConfig, repo store.Repository) ([]domain.Opening, config.OpeningSource, error) {
	switch cfg.OpeningSource {
	case config.OpeningSourceDatabase:
		refs, err := repo.ListOpenings(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("list openings: %w", err)
		}
		return refs, config.OpeningSourceDatabase, nil
	case config.OpeningSourceCatalog:
		refs, err := LoadFileOpenings(cfg, config.OpeningSourceCatalog)
		return refs, config.OpeningSourceCatalog, err
	case config.OpeningSourceECOBook:
		refs, err := openingbook.FromBookECO()
		return refs, config.OpeningSourceECOBook, err
	case config.OpeningSourcePolyglot:
		refs, err := LoadFileOpenings(cfg, config.OpeningSourcePolyglot)
		return refs, config.OpeningSourcePolyglot, err
	case config.OpeningSourceAuto, "":
	default:
		return nil, "", fmt.Errorf("%w: %q", config.ErrInvalidOpeningSource, cfg.OpeningSource)
	}

	if refs, err := repo.ListOpenings(ctx); err != nil {
		return nil, "", fmt.Errorf("list openings: %w", err)
	} else if len(refs) > 0 {
		return refs, config.OpeningSourceDatabase, nil
	}
	dir, err := openingbook.ResolveCatalogDir(cfg.OpeningCatalogDir)
	if err != nil {
		return nil, "", err
	}
	if dir != "" {
		refs, err := openingbook.LoadCatalogDir(dir)
		return refs, config.OpeningSourceCatalog, err
	}
	refs, err := openingbook.FromBookECO()
	return refs, config.OpeningSourceECOBook, err
}

// LoadFileOpenings reads the catalog directory or the polyglot book named by cfg.
func LoadFileOpenings(cfg *config.AppConfig, src config.OpeningSource) ([]domain.Opening, error) {
	switch src {
	case config.OpeningSourceCatalog:
		dir, err := openingbook.ResolveCatalogDir(cfg.OpeningCatalogDir)
		if err != nil {
			return nil, err
		}
		if dir == "" {
			return nil, errors.New("no opening catalog directory found; set CHESS_OPENING_CATALOG_DIR")
		}
		return openingbook.LoadCatalogDir(dir)
	case config.OpeningSourcePolyglot:
		book, err := openingbook.LoadPolyglotFile(cfg.PolyglotBookPath)
		if err != nil {
			return nil, err
		}
		return openingbook.FromPolyglot(book, openingbook.WalkOptions{
			MaxPly:    cfg.PolyglotMaxPly,
			MinWeight: uint16(min(max(cfg.PolyglotMinWeight, 0), 0xffff)),
		})
	case config.OpeningSourceECOBook:
		return openingbook.FromBookECO()
	default:
		return nil, fmt.Errorf("%w: %q cannot be loaded from files", config.ErrInvalidOpeningSource, src)
	}
}

func (d *Deps) Close() error {
	var errs []error
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if d.Repo != nil {
		errs = append(errs, d.Repo.Close())
	}
	return errors.Join(errs...)
}
