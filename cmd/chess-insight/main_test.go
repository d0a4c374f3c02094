package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess/openingbook"
	"github.com/park285/chess-insight/internal/ingest"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range openingbook.CatalogFiles {
		body := "{}"
		if name == "ecoC.json" {
			body = `{"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2": {"eco": "C20", "name": "King's Pawn Game", "moves": "1. e4 e5", "src": "eco_tsv", "isEcoRoot": true}}`
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	for _, k := range []string{"CHESS_INSIGHT_CONFIG", "DATABASE_URL", "REDIS_URL", "CHESS_POLYGLOT_BOOK_PATH"} {
		t.Setenv(k, "")
	}
	t.Setenv("CHESS_OPENING_SOURCE", "catalog")
	t.Setenv("CHESS_OPENING_CATALOG_DIR", dir)
	t.Setenv("METRICS_TEXTFILE", filepath.Join(t.TempDir(), "chess_insight.prom"))
}

func TestRunClassify(t *testing.T) {
	setupEnv(t)
	in := strings.NewReader(`{"source_id":"a","moves":"1. e4 e5 2. Nf3 Nc6"}` + "\n" + `{"source_id":"b","moves":"1. d4"}` + "\n")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"classify", "-workers", "2"}, in, &out, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	var rec ingest.Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.SourceID != "a" || rec.Opening == nil || rec.Opening.Ply != 2 || rec.Opening.Opening.ECOCode != "C20" || rec.MoveCountPly != 4 {
		t.Fatalf("record = %+v", rec)
	}
	if _, err := os.Stat(os.Getenv("METRICS_TEXTFILE")); err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
}

func TestRunLoadOpeningsIntoMemory(t *testing.T) {
	setupEnv(t)
	if err := run(context.Background(), []string{"load-openings", "-clear"}, nil, &bytes.Buffer{}, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunUsageAndErrors(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer
	if err := run(context.Background(), nil, nil, &out, zap.NewNop()); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("no args err = %v", err)
	}
	if !strings.Contains(out.String(), "backfill") {
		t.Fatalf("usage = %q", out.String())
	}
	if err := run(context.Background(), []string{"serve"}, nil, &out, zap.NewNop()); err == nil {
		t.Fatalf("unknown command accepted")
	}
	if err := run(context.Background(), []string{"backfill", "-mode", "everything"}, nil, &out, zap.NewNop()); err == nil {
		t.Fatalf("bad mode accepted")
	}
}
