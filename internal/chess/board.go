package chess

import (
	"fmt"

	chesslib "github.com/corentings/chess/v2"
)

// Board is a full-rules position that advances one SAN token at a time.
// A Board is not safe for concurrent use; replays create their own.
type Board struct {
	game *chesslib.Game
	ply  int
}

// NewBoard returns a board at the standard starting position.
func NewBoard() *Board {
	return &Board{game: chesslib.NewGame()}
}

// NewBoardFromFEN returns a board at the given position. Ply counts start at zero.
func NewBoardFromFEN(fen string) (*Board, error) {
	opt, err := chesslib.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &Board{game: chesslib.NewGame(opt)}, nil
}

// Ply returns the number of tokens applied so far.
func (b *Board) Ply() int { return b.ply }

// FEN returns the full FEN of the current position, counters included.
func (b *Board) FEN() string { return b.game.FEN() }

// Apply interprets token as SAN in the current position and plays it.
// The board is unchanged when a *MoveError is returned.
func (b *Board) Apply(token string) error {
	next := b.ply + 1
	san, ok := parseSAN(token)
	if !ok {
		return newMoveError(InvalidSyntax, token, next)
	}

	matched := b.match(san)
	switch len(matched) {
	case 0:
		return newMoveError(NoLegalMove, token, next)
	case 1:
	default:
		e := newMoveError(AmbiguousMove, token, next)
		e.Candidates = matched
		return e
	}

	if err := b.game.PushNotationMove(matched[0], chesslib.UCINotation{}, nil); err != nil {
		return newMoveError(NoLegalMove, token, next)
	}
	b.ply = next
	return nil
}

// match returns the UCI strings of every legal move san describes.
func (b *Board) match(san sanMove) []string {
	board := b.game.Position().Board()
	moves := b.game.ValidMoves()

	var out []string
	for i := range moves {
		c := candidate{
			from:        moves[i].S1(),
			to:          moves[i].S2(),
			piece:       board.Piece(moves[i].S1()).Type(),
			promo:       moves[i].Promo(),
			kingCastle:  moves[i].HasTag(chesslib.KingSideCastle),
			queenCastle: moves[i].HasTag(chesslib.QueenSideCastle),
		}
		if san.matches(c) {
			out = append(out, moves[i].String())
		}
	}
	return out
}

// enPassantLegal reports whether the side to move has a legal en-passant capture.
func (b *Board) enPassantLegal() bool {
	moves := b.game.ValidMoves()
	for i := range moves {
		if moves[i].HasTag(chesslib.EnPassant) {
			return true
		}
	}
	return false
}
