// Package store persists games, reference openings and classification
// results. Postgres is the production backend; Memory serves tests and
// database-less runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/chess-insight/internal/domain"
)

// MaxFingerprintLen is the width of the game.endgame_fen column.
const MaxFingerprintLen = 100

var (
	ErrInvalidMode = errors.New("invalid backfill mode")
	ErrNilGame     = errors.New("nil game payload")
)

// Mode selects which derived columns a backfill targets.
type Mode string

const (
	ModeOpenings  Mode = "openings"
	ModeEndgame   Mode = "endgame"
	ModeMoveCount Mode = "move-count"
	ModeAll       Mode = "all"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOpenings, ModeEndgame, ModeMoveCount, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) Openings() bool  { return m == ModeOpenings || m == ModeAll }
func (m Mode) Endgame() bool   { return m == ModeEndgame || m == ModeAll }
func (m Mode) MoveCount() bool { return m == ModeMoveCount || m == ModeAll }

// PendingFilter selects games still missing the columns of Mode.
// Force selects every game.
type PendingFilter struct {
	Mode  Mode
	Force bool
}

// pending reports whether g matches f.
func (f PendingFilter) pending(g *domain.Game) bool {
	if f.Force {
		return true
	}
	if f.Mode.Openings() && g.OpeningID == nil {
		return true
	}
	if f.Mode.Endgame() && (g.EndgameMovePly == nil || g.EndgameFEN == "") {
		return true
	}
	if f.Mode.MoveCount() && g.MoveCountPly == nil {
		return true
	}
	return false
}

// Update carries the derived columns of one game. Nil fields are left unchanged.
type Update struct {
	GameID         int64
	OpeningID      *int64
	OpeningPly     *int
	EndgameMovePly *int
	EndgameFEN     *string
	MoveCountPly   *int
}

func (u Update) Empty() bool {
	return u.OpeningID == nil && u.OpeningPly == nil && u.EndgameMovePly == nil &&
		u.EndgameFEN == nil && u.MoveCountPly == nil
}

type Repository interface {
	ListOpenings(ctx context.Context) ([]domain.Opening, error)
	// InsertOpenings skips openings whose fingerprint is already stored and
	// returns how many were inserted.
	InsertOpenings(ctx context.Context, openings []domain.Opening) (int, error)
	ClearOpenings(ctx context.Context) (int, error)

	// InsertGames skips games whose source_id already exists.
	InsertGames(ctx context.Context, games []domain.Game) (int, error)
	PendingGameIDs(ctx context.Context, filter PendingFilter) ([]int64, error)
	GamesByIDs(ctx context.Context, ids []int64) ([]domain.Game, error)
	UpdateClassifications(ctx context.Context, updates []Update) (int, error)
	CountGames(ctx context.Context, filter PendingFilter) (int, error)

	Close() error
}

// TruncateFingerprint cuts s to MaxFingerprintLen bytes. The bool reports whether anything was cut.
func TruncateFingerprint(s string) (string, bool) {
	if len(s) <= MaxFingerprintLen {
		return s, false
	}
	return s[:MaxFingerprintLen], true
}
