package openingbook

import (
	"errors"
	"sort"
	"strings"

	"github.com/corentings/chess/v2/opening"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/movetext"
)

const SourceECOBook = "eco-book"

var ErrEmptyBook = errors.New("opening book produced no references")

// FromBookECO builds references from the ECO table bundled with the rules
// library. Each line is replayed through a Board; lines that fail to
// replay are skipped.
func FromBookECO() ([]domain.Opening, error) {
	book := opening.NewBookECO()
	lines := book.Possible(nil)

	out := make([]domain.Opening, 0, len(lines))
	for _, line := range lines {
		if line == nil {
			continue
		}
		ref, ok := referenceFromLine(line.Code(), line.Title(), line.PGN())
		if !ok {
			continue
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return nil, ErrEmptyBook
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ECOCode == out[j].ECOCode {
			return out[i].PlyCount < out[j].PlyCount
		}
		return out[i].ECOCode < out[j].ECOCode
	})
	return out, nil
}

func referenceFromLine(code, title, pgn string) (domain.Opening, bool) {
	tokens := movetext.Tokenize(movetext.SeparateNumbers(pgn))
	if len(tokens) == 0 {
		return domain.Opening{}, false
	}
	board := chess.NewBoard()
	for _, tok := range tokens {
		if err := board.Apply(tok); err != nil {
			return domain.Opening{}, false
		}
	}
	return domain.Opening{
		Fingerprint: board.Fingerprint(),
		ECOCode:     strings.TrimSpace(code),
		Name:        strings.TrimSpace(title),
		Moves:       movetext.Join(tokens),
		PlyCount:    board.Ply(),
		Source:      SourceECOBook,
	}, true
}
