// Package endgame finds the ply at which a game first enters the endgame.
package endgame

import (
	"strings"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/movetext"
)

// Threshold is the largest number of knights, bishops, rooks and queens
// (both colours) a position may hold and still count as an endgame.
const Threshold = 6

const countedPieces = "NBRQnbrq"

// IsEndgame reports whether a FEN piece-placement field holds at most
// Threshold minor or major pieces. Pawns and kings are not counted.
func IsEndgame(placement string) bool {
	n := 0
	for i := 0; i < len(placement); i++ {
		if strings.IndexByte(countedPieces, placement[i]) >= 0 {
			n++
			if n > Threshold {
				return false
			}
		}
	}
	return true
}

func IsEndgameFingerprint(fp chess.Fingerprint) bool {
	return IsEndgame(fp.Placement())
}

// Detector has no state; the zero value is ready to use.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect returns the first ply whose position is an endgame. It returns
// nil when the game never gets there, including when a move error stops
// the replay first.
func (d *Detector) Detect(tokens []string) *domain.EndgameEntry {
	entry, _ := d.DetectWithResult(tokens)
	return entry
}

func (d *Detector) DetectText(moveText string) *domain.EndgameEntry {
	return d.Detect(movetext.Tokenize(moveText))
}

func (d *Detector) DetectWithResult(tokens []string) (*domain.EndgameEntry, chess.ReplayResult) {
	var found *domain.EndgameEntry
	res := chess.Replay(tokens, func(s chess.Step) bool {
		if IsEndgameFingerprint(s.Fingerprint) {
			found = &domain.EndgameEntry{Fingerprint: s.Fingerprint, Ply: s.Ply}
			return false
		}
		return true
	})
	return found, res
}
