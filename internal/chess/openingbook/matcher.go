package openingbook

import (
	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/movetext"
)

// Matcher finds the deepest reference position a game passes through.
// It holds no per-game state and may be shared across goroutines.
type Matcher struct {
	index *Index
}

func NewMatcher(index *Index) *Matcher {
	return &Matcher{index: index}
}

func (m *Matcher) Index() *Index { return m.index }

// Detect replays tokens from the starting position and returns the last
// ply whose fingerprint is in the index. A move error ends the replay and
// the best match found before it is returned.
func (m *Matcher) Detect(tokens []string) *domain.OpeningMatch {
	match, _ := m.DetectWithResult(tokens)
	return match
}

// DetectText tokenizes moveText and calls Detect.
func (m *Matcher) DetectText(moveText string) *domain.OpeningMatch {
	return m.Detect(movetext.Tokenize(moveText))
}

// DetectWithResult is Detect that also reports how the replay ended.
// The replay is skipped entirely for empty tokens or an empty index.
func (m *Matcher) DetectWithResult(tokens []string) (*domain.OpeningMatch, chess.ReplayResult) {
	if len(tokens) == 0 || m.index.Len() == 0 {
		return nil, chess.ReplayResult{State: chess.StateStopped, Reason: chess.Exhausted}
	}

	var last *domain.OpeningMatch
	res := chess.Replay(tokens, func(s chess.Step) bool {
		if ref, ok := m.index.Lookup(s.Fingerprint); ok {
			last = &domain.OpeningMatch{Fingerprint: s.Fingerprint, Ply: s.Ply, Opening: &ref}
		}
		return true
	})
	return last, res
}
