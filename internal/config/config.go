package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OpeningSource selects where the reference opening index is loaded from.
type OpeningSource string

const (
	OpeningSourceAuto     OpeningSource = "auto"
	OpeningSourceCatalog  OpeningSource = "catalog"
	OpeningSourceDatabase OpeningSource = "database"
	OpeningSourceECOBook  OpeningSource = "eco-book"
	OpeningSourcePolyglot OpeningSource = "polyglot"
)

var ErrInvalidOpeningSource = errors.New("invalid opening source")

func ParseOpeningSource(s string) (OpeningSource, error) {
	switch v := OpeningSource(strings.ToLower(strings.TrimSpace(s))); v {
	case OpeningSourceAuto, OpeningSourceCatalog, OpeningSourceDatabase, OpeningSourceECOBook, OpeningSourcePolyglot:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOpeningSource, s)
	}
}

type AppConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	OpeningSource     OpeningSource `yaml:"opening_source"`
	OpeningCatalogDir string        `yaml:"opening_catalog_dir"`
	PolyglotBookPath  string        `yaml:"polyglot_book_path"`
	PolyglotMaxPly    int           `yaml:"polyglot_max_ply"`
	PolyglotMinWeight int           `yaml:"polyglot_min_weight"`

	ClassifyWorkers   int           `yaml:"classify_workers"`
	BackfillBatchSize int           `yaml:"backfill_batch_size"`
	ResultCacheTTL    time.Duration `yaml:"result_cache_ttl"`

	MetricsTextfile string `yaml:"metrics_textfile"`
}

func defaults() *AppConfig {
	return &AppConfig{
		OpeningSource:     OpeningSourceAuto,
		PolyglotMaxPly:    16,
		BackfillBatchSize: 1000,
		ResultCacheTTL:    7 * 24 * time.Hour,
	}
}

// Load는 기본값, CHESS_INSIGHT_CONFIG 의 YAML 파일, 환경변수 순으로 설정을 덮어쓴다.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHESS_INSIGHT_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	src, err := ParseOpeningSource(string(cfg.OpeningSource))
	if err != nil {
		return nil, err
	}
	cfg.OpeningSource = src
	if cfg.OpeningSource == OpeningSourceDatabase && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for opening source database")
	}
	if cfg.OpeningSource == OpeningSourcePolyglot && cfg.PolyglotBookPath == "" {
		return nil, errors.New("CHESS_POLYGLOT_BOOK_PATH is required for opening source polyglot")
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_OPENING_SOURCE")); v != "" {
		c.OpeningSource = OpeningSource(v)
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_OPENING_CATALOG_DIR")); v != "" {
		c.OpeningCatalogDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_POLYGLOT_BOOK_PATH")); v != "" {
		c.PolyglotBookPath = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_OPENING_MAX_PLY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PolyglotMaxPly = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_OPENING_MIN_WEIGHT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PolyglotMinWeight = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLASSIFY_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ClassifyWorkers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BACKFILL_BATCH_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BackfillBatchSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RESULT_CACHE_TTL")); v != "" { // 1h 같은 duration 또는 초 단위 정수
		d, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("RESULT_CACHE_TTL: %w", err)
		}
		c.ResultCacheTTL = d
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_TEXTFILE")); v != "" {
		c.MetricsTextfile = v
	}
	return nil
}

func parseTTL(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive: %q", v)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %q", v)
	}
	return d, nil
}
