package chess

import (
	"strings"
)

// Fingerprint identifies a position independent of move counters:
// piece placement, side to move, castling rights and en-passant target,
// space separated as in the first four FEN fields.
//
// The en-passant field is "-" unless a legal en-passant capture exists,
// so transpositions through a double pawn push compare equal.
type Fingerprint string

// Fingerprint returns the canonical fingerprint of the current position.
func (b *Board) Fingerprint() Fingerprint {
	fields := strings.Fields(b.game.FEN())
	if len(fields) < 4 {
		return Fingerprint(strings.Join(fields, " "))
	}
	ep := fields[3]
	if ep != "-" && !b.enPassantLegal() {
		ep = "-"
	}
	return Fingerprint(fields[0] + " " + fields[1] + " " + fields[2] + " " + ep)
}

// FingerprintFromFEN parses a FEN (four or six fields) and returns its
// canonical fingerprint. Reference positions are normalized through this
// so they compare with replayed boards.
func FingerprintFromFEN(fen string) (Fingerprint, error) {
	fen = strings.TrimSpace(fen)
	if n := len(strings.Fields(fen)); n == 4 {
		fen += " 0 1"
	}
	b, err := NewBoardFromFEN(fen)
	if err != nil {
		return "", err
	}
	return b.Fingerprint(), nil
}

func (f Fingerprint) field(i int) string {
	parts := strings.SplitN(string(f), " ", 5)
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// Placement returns the piece-placement field.
func (f Fingerprint) Placement() string { return f.field(0) }

// SideToMove returns "w" or "b".
func (f Fingerprint) SideToMove() string { return f.field(1) }

// Castling returns the castling-rights field.
func (f Fingerprint) Castling() string { return f.field(2) }

// EnPassant returns the en-passant field.
func (f Fingerprint) EnPassant() string { return f.field(3) }

func (f Fingerprint) String() string { return string(f) }
