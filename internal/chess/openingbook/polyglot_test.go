package openingbook

import (
	"errors"
	"os"
	"testing"

	chesslib "github.com/corentings/chess/v2"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/movetext"
)

func TestPolyglotInputValidation(t *testing.T) {
	if _, err := LoadPolyglotFile(" "); !errors.Is(err, ErrNoPolyglotBook) {
		t.Fatalf("empty path err = %v", err)
	}
	if _, err := LoadPolyglotFile("does-not-exist.bin"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := FromPolyglot(nil, WalkOptions{}); err == nil {
		t.Fatalf("expected error for nil book")
	}
}

// bookFromLine keys each move of a UCI line by the polyglot hash of the
// position it is played from.
func bookFromLine(t *testing.T, weight uint16, line ...string) map[uint64][]chesslib.MoveWithWeight {
	t.Helper()
	hasher := chesslib.NewZobristHasher()
	game := chesslib.NewGame()
	entries := make(map[uint64][]chesslib.MoveWithWeight)
	for _, uci := range line {
		hash, err := hasher.HashPosition(game.FEN())
		if err != nil {
			t.Fatalf("HashPosition: %v", err)
		}
		mv, err := chesslib.UCINotation{}.Decode(nil, uci)
		if err != nil {
			t.Fatalf("decode %s: %v", uci, err)
		}
		key := chesslib.ZobristHashToUint64(hash)
		entries[key] = append(entries[key], chesslib.MoveWithWeight{Move: *mv, Weight: weight})
		if err := game.PushNotationMove(uci, chesslib.UCINotation{}, nil); err != nil {
			t.Fatalf("push %s: %v", uci, err)
		}
	}
	return entries
}

func TestFromPolyglotMovesReplay(t *testing.T) {
	entries := bookFromLine(t, 10, "e2e4", "d7d5", "e4d5", "d8d5")
	for key, mws := range bookFromLine(t, 1, "g1f3") {
		entries[key] = append(entries[key], mws...)
	}
	book := chesslib.NewPolyglotBookFromMap(entries)

	refs, err := FromPolyglot(book, WalkOptions{MaxPly: 6, MinWeight: 2})
	if err != nil {
		t.Fatalf("FromPolyglot: %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("refs = %d, want 4: %+v", len(refs), refs)
	}
	for _, ref := range refs {
		b := chess.NewBoard()
		for _, tok := range movetext.Tokenize(ref.Moves) {
			if err := b.Apply(tok); err != nil {
				t.Fatalf("replay %q: %s: %v", ref.Moves, tok, err)
			}
		}
		if b.Ply() != ref.PlyCount || b.Fingerprint() != ref.Fingerprint {
			t.Fatalf("replay %q reached ply %d %q, want %d %q",
				ref.Moves, b.Ply(), b.Fingerprint(), ref.PlyCount, ref.Fingerprint)
		}
		if ref.Source != SourcePolyglot {
			t.Fatalf("source = %q", ref.Source)
		}
	}
	if got := refs[len(refs)-1].Moves; got != "1. e4 d5 2. exd5 Qxd5" {
		t.Fatalf("deepest line = %q", got)
	}
}

// 실제 북 파일이 있을 때만 실행
func TestFromPolyglotBook(t *testing.T) {
	path := os.Getenv("CHESS_POLYGLOT_BOOK_PATH")
	if path == "" {
		t.Skip("CHESS_POLYGLOT_BOOK_PATH not set")
	}
	book, err := LoadPolyglotFile(path)
	if err != nil {
		t.Fatalf("LoadPolyglotFile: %v", err)
	}
	refs, err := FromPolyglot(book, WalkOptions{MaxPly: 4, MinWeight: 1})
	if err != nil {
		t.Fatalf("FromPolyglot: %v", err)
	}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[string(ref.Fingerprint)] {
			t.Fatalf("duplicate fingerprint %q", ref.Fingerprint)
		}
		seen[string(ref.Fingerprint)] = true
		if ref.PlyCount < 1 || ref.PlyCount > 4 || ref.ECOCode == "" {
			t.Fatalf("unexpected reference %+v", ref)
		}
	}
}
