package chess

import "testing"

func TestFingerprintFromFENCanonicalizesEnPassant(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want Fingerprint
	}{
		{
			name: "no capturing pawn",
			fen:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			want: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -",
		},
		{
			name: "four fields",
			fen:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -",
			want: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -",
		},
		{
			name: "capture available",
			fen:  "rnbqkb1r/ppp1pppp/5n2/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
			want: "rnbqkb1r/ppp1pppp/5n2/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6",
		},
		{
			name: "counters ignored",
			fen:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 17 42",
			want: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FingerprintFromFEN(tc.fen)
			if err != nil {
				t.Fatalf("FingerprintFromFEN: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFingerprintMatchesReplayedBoard(t *testing.T) {
	b := NewBoard()
	applyAll(t, b, "e4", "c5")
	fromFEN, err := FingerprintFromFEN(b.FEN())
	if err != nil {
		t.Fatalf("FingerprintFromFEN: %v", err)
	}
	if fromFEN != b.Fingerprint() {
		t.Fatalf("%q != %q", fromFEN, b.Fingerprint())
	}
}

func TestFingerprintTransposition(t *testing.T) {
	a, b := NewBoard(), NewBoard()
	applyAll(t, a, "Nf3", "d5", "d4")
	applyAll(t, b, "d4", "d5", "Nf3")
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("transposed positions differ: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprintFields(t *testing.T) {
	fp := Fingerprint("8/8/8/8/8/8/8/K6k b - -")
	if fp.Placement() != "8/8/8/8/8/8/8/K6k" || fp.SideToMove() != "b" || fp.Castling() != "-" || fp.EnPassant() != "-" {
		t.Fatalf("unexpected fields of %q", fp)
	}
	if Fingerprint("").SideToMove() != "" {
		t.Fatalf("empty fingerprint should have empty fields")
	}
}

func TestFingerprintFromFENInvalid(t *testing.T) {
	if _, err := FingerprintFromFEN("not a fen"); err == nil {
		t.Fatalf("expected error")
	}
}
