package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/app"
	appcfg "github.com/park285/chess-insight/internal/config"
	"github.com/park285/chess-insight/internal/ingest"
	"github.com/park285/chess-insight/internal/metrics"
	"github.com/park285/chess-insight/internal/obslog"
	"github.com/park285/chess-insight/internal/store"
)

const usage = `usage: chess-insight <command> [flags]

commands:
  classify       classify JSONL games and write one result per line
  import         classify JSONL games and insert them into the store
  backfill       fill derived columns for games already stored
  load-openings  load reference openings into the store
`

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer obslog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, obslog.L()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		obslog.L().Error("command_failed", zap.Error(err))
		obslog.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}
	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "classify":
		err = runClassify(ctx, cfg, rest, stdin, stdout, logger)
	case "import":
		err = runImport(ctx, cfg, rest, stdin, logger)
	case "backfill":
		err = runBackfill(ctx, cfg, rest, logger)
	case "load-openings":
		err = runLoadOpenings(ctx, cfg, rest, logger)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	if cfg.MetricsTextfile != "" && cmd != "load-openings" {
		return writeMetrics(cfg)
	}
	return nil
}

func writeMetrics(cfg *appcfg.AppConfig) error {
	return metrics.Default().WriteTextfile(cfg.MetricsTextfile)
}

// openInput returns stdin for "" or "-".
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func runClassify(ctx context.Context, cfg *appcfg.AppConfig, args []string, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	in := fs.String("in", "", "JSONL games file (default stdin)")
	out := fs.String("out", "", "JSONL results file (default stdout)")
	workers := fs.Int("workers", cfg.ClassifyWorkers, "parallel classifications (0 = NumCPU)")
	batch := fs.Int("batch-size", cfg.BackfillBatchSize, "games read per batch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, closeIn, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer closeIn()
	w := stdout
	if *out != "" && *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	n, err := ingest.ClassifyStream(ctx, ingest.NewJSONLSource(r), ingest.NewJSONLSink(w), deps.Classifier, *batch, *workers)
	if err != nil {
		return err
	}
	logger.Info("classify_done", zap.Int("games", n))
	return nil
}

func runImport(ctx context.Context, cfg *appcfg.AppConfig, args []string, stdin io.Reader, logger *zap.Logger) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	in := fs.String("in", "", "JSONL games file (default stdin)")
	workers := fs.Int("workers", cfg.ClassifyWorkers, "parallel classifications (0 = NumCPU)")
	batch := fs.Int("batch-size", cfg.BackfillBatchSize, "games inserted per batch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, closeIn, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	stats, err := ingest.Import(ctx, ingest.NewJSONLSource(r), deps.Repo, deps.Classifier, *batch, *workers, logger)
	if err != nil {
		return err
	}
	logger.Info("import_done", zap.Int("read", stats.Read), zap.Int("inserted", stats.Inserted))
	return nil
}

func runBackfill(ctx context.Context, cfg *appcfg.AppConfig, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	mode := fs.String("mode", string(store.ModeAll), "openings | endgame | move-count | all")
	force := fs.Bool("force", false, "reprocess games that already have the columns")
	batch := fs.Int("batch-size", cfg.BackfillBatchSize, "games per batch")
	workers := fs.Int("workers", cfg.ClassifyWorkers, "parallel classifications (0 = NumCPU)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := store.ParseMode(*mode)
	if err != nil {
		return err
	}

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	b := ingest.NewBackfiller(deps.Repo, deps.Classifier, deps.Metrics, logger)
	_, err = b.Run(ctx, ingest.BackfillOptions{Mode: m, Force: *force, BatchSize: *batch, Workers: *workers})
	return err
}

func runLoadOpenings(ctx context.Context, cfg *appcfg.AppConfig, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("load-openings", flag.ContinueOnError)
	source := fs.String("source", string(appcfg.OpeningSourceCatalog), "catalog | eco-book | polyglot")
	dir := fs.String("dir", cfg.OpeningCatalogDir, "catalog directory (source catalog)")
	book := fs.String("book", cfg.PolyglotBookPath, "polyglot book file (source polyglot)")
	clearFirst := fs.Bool("clear", false, "delete stored openings first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	src, err := appcfg.ParseOpeningSource(*source)
	if err != nil {
		return err
	}
	cfg.OpeningCatalogDir, cfg.PolyglotBookPath = *dir, *book

	refs, err := app.LoadFileOpenings(cfg, src)
	if err != nil {
		return err
	}
	repo, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if *clearFirst {
		n, err := repo.ClearOpenings(ctx)
		if err != nil {
			return fmt.Errorf("clear openings: %w", err)
		}
		logger.Info("openings_cleared", zap.Int("deleted", n))
	}
	n, err := repo.InsertOpenings(ctx, refs)
	if err != nil {
		return fmt.Errorf("insert openings: %w", err)
	}
	logger.Info("openings_loaded",
		zap.String("source", string(src)),
		zap.Int("read", len(refs)),
		zap.Int("inserted", n),
		zap.Int("skipped", len(refs)-n),
	)
	return nil
}
