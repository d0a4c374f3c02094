package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"CHESS_INSIGHT_CONFIG", "DATABASE_URL", "REDIS_URL", "CHESS_OPENING_SOURCE",
	"CHESS_OPENING_CATALOG_DIR", "CHESS_POLYGLOT_BOOK_PATH", "CHESS_OPENING_MAX_PLY",
	"CHESS_OPENING_MIN_WEIGHT", "CLASSIFY_WORKERS", "BACKFILL_BATCH_SIZE",
	"RESULT_CACHE_TTL", "METRICS_TEXTFILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpeningSource != OpeningSourceAuto || cfg.BackfillBatchSize != 1000 || cfg.ResultCacheTTL != 7*24*time.Hour {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "chess-insight.yaml")
	body := "database_url: postgres://file/db\nopening_source: catalog\nclassify_workers: 3\nbackfill_batch_size: 250\nresult_cache_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_INSIGHT_CONFIG", path)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("RESULT_CACHE_TTL", "60")
	t.Setenv("CLASSIFY_WORKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("database url = %q", cfg.DatabaseURL)
	}
	if cfg.OpeningSource != OpeningSourceCatalog || cfg.ClassifyWorkers != 3 || cfg.BackfillBatchSize != 250 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.ResultCacheTTL != time.Minute {
		t.Fatalf("ttl = %v", cfg.ResultCacheTTL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHESS_OPENING_SOURCE", "lichess")
	if _, err := Load(); !errors.Is(err, ErrInvalidOpeningSource) {
		t.Fatalf("source err = %v", err)
	}

	clearEnv(t)
	t.Setenv("CHESS_OPENING_SOURCE", "database")
	if _, err := Load(); err == nil {
		t.Fatalf("database source without DATABASE_URL accepted")
	}

	clearEnv(t)
	t.Setenv("RESULT_CACHE_TTL", "-5m")
	if _, err := Load(); err == nil {
		t.Fatalf("negative ttl accepted")
	}

	clearEnv(t)
	t.Setenv("CHESS_INSIGHT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestParseOpeningSourceNormalizes(t *testing.T) {
	got, err := ParseOpeningSource(" ECO-Book ")
	if err != nil || got != OpeningSourceECOBook {
		t.Fatalf("ParseOpeningSource = %q, %v", got, err)
	}
}
