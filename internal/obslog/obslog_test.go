package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: zapcore.InfoLevel, Format: "json", Console: true}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("backfill_done", zap.Int("updated", 3))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %q", lines)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "backfill_done" || entry["level"] != "info" || entry["updated"] != float64(3) {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "out.log")
	logger, err := New(Options{Level: zapcore.DebugLevel, Format: "legacy", File: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("endgame_fen_truncated")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "WARN | ") || !strings.Contains(string(raw), "endgame_fen_truncated") {
		t.Fatalf("log file = %q", raw)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{"debug": zapcore.DebugLevel, " WARN ": zapcore.WarnLevel, "bogus": zapcore.InfoLevel}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitFromEnvWithoutOutputs(t *testing.T) {
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "false")
	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}
	if L() == nil {
		t.Fatalf("nil global logger")
	}
}
