// Package movetext turns PGN-style move text into SAN tokens.
package movetext

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var resultMarkers = map[string]struct{}{
	"1-0":     {},
	"0-1":     {},
	"1/2-1/2": {},
	"*":       {},
}

// gluedNumber matches a move-number label written against its move, "1.e4" or "12...Nf6".
var gluedNumber = regexp.MustCompile(`(^|\s)(\d+\.+)(\S)`)

// Tokenize splits text on whitespace and drops move-number labels and
// result markers. Order is preserved; empty input yields an empty slice.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if isMoveNumber(f) || IsResult(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// PlyCount returns the number of move tokens in text; ok is false when there are none.
func PlyCount(text string) (n int, ok bool) {
	n = len(Tokenize(text))
	return n, n > 0
}

// IsResult reports whether tok is a game-result marker.
func IsResult(tok string) bool {
	_, ok := resultMarkers[tok]
	return ok
}

// SeparateNumbers inserts a space after move-number labels glued to
// their move ("1.e4 e5 2.Nf3" → "1. e4 e5 2. Nf3") so Tokenize can drop them.
func SeparateNumbers(text string) string {
	return gluedNumber.ReplaceAllString(text, "$1$2 $3")
}

// Join renders tokens back into numbered move text, white to move first.
func Join(tokens []string) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i%2 == 0 {
			sb.WriteString(strconv.Itoa(i/2 + 1))
			sb.WriteString(". ")
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

func isMoveNumber(tok string) bool {
	if strings.HasSuffix(tok, ".") {
		return true
	}
	digits := strings.ReplaceAll(tok, ".", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
