package domain

import (
	"time"

	"github.com/park285/chess-insight/internal/chess"
)

// Opening is one catalogued reference position.
type Opening struct {
	ID          int64             `json:"id,omitempty"`
	Fingerprint chess.Fingerprint `json:"fen"`
	ECOCode     string            `json:"eco"`
	Name        string            `json:"name"`
	Moves       string            `json:"moves"`
	PlyCount    int               `json:"ply_count"`
	Source      string            `json:"src,omitempty"`
	IsECORoot   bool              `json:"is_eco_root,omitempty"`
}

type Game struct {
	ID           int64             `json:"id,omitempty"`
	SourceID     string            `json:"source_id"`
	Event        string            `json:"event,omitempty"`
	Site         string            `json:"site,omitempty"`
	Date         string            `json:"date,omitempty"`
	Round        string            `json:"round,omitempty"`
	WhitePlayer  string            `json:"white_player"`
	BlackPlayer  string            `json:"black_player"`
	Result       string            `json:"result"`
	WhiteElo     *int              `json:"white_elo,omitempty"`
	BlackElo     *int              `json:"black_elo,omitempty"`
	TimeControl  string            `json:"time_control,omitempty"`
	Termination  string            `json:"termination,omitempty"`
	Moves        string            `json:"moves"`
	SourceFormat string            `json:"source_format,omitempty"`
	RawHeaders   map[string]string `json:"raw_headers,omitempty"`
	CreatedAt    time.Time         `json:"created_at,omitzero"`

	MoveCountPly   *int   `json:"move_count_ply,omitempty"`
	OpeningID      *int64 `json:"opening_id,omitempty"`
	OpeningPly     *int   `json:"opening_ply,omitempty"`
	EndgameMovePly *int   `json:"endgame_move_ply,omitempty"`
	EndgameFEN     string `json:"endgame_fen,omitempty"`
}

// OpeningMatch is the deepest replayed position found in the reference index.
type OpeningMatch struct {
	Fingerprint chess.Fingerprint `json:"fingerprint"`
	Ply         int               `json:"ply"`
	Opening     *Opening          `json:"opening,omitempty"`
}

// EndgameEntry is the first replayed position that satisfies the endgame predicate.
type EndgameEntry struct {
	Fingerprint chess.Fingerprint `json:"fingerprint"`
	Ply         int               `json:"ply"`
}

// Classification is everything derived from one game's move text.
type Classification struct {
	Opening      *OpeningMatch `json:"opening,omitempty"`
	Endgame      *EndgameEntry `json:"endgame,omitempty"`
	MoveCountPly int           `json:"move_count_ply,omitempty"`
}
