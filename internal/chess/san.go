package chess

import (
	"regexp"
	"strings"

	chesslib "github.com/corentings/chess/v2"
)

var (
	sanPattern    = regexp.MustCompile(`^([NBRQK])?([a-h])?([1-8])?[x-]?([a-h][1-8])(?:=?([NBRQ]))?[+#]?$`)
	castlePattern = regexp.MustCompile(`^(O-O-O|O-O|0-0-0|0-0)[+#]?$`)
)

type castleSide int

const (
	noCastle castleSide = iota
	kingSide
	queenSide
)

// sanMove is a syntactically valid SAN token, not yet bound to a position.
// piece is NoPieceType for a letterless token naming its full from-square
// (g1f3, e7e8=Q): any piece standing there may make it.
type sanMove struct {
	castle   castleSide
	piece    chesslib.PieceType
	fromFile byte
	fromRank byte
	dest     string
	promo    chesslib.PieceType
}

// candidate is one legal move of the current position in the shape sanMove matches against.
type candidate struct {
	from        chesslib.Square
	to          chesslib.Square
	piece       chesslib.PieceType
	promo       chesslib.PieceType
	kingCastle  bool
	queenCastle bool
}

func parseSAN(token string) (sanMove, bool) {
	s := strings.TrimRight(strings.TrimSpace(token), "!?")
	if s == "" {
		return sanMove{}, false
	}

	if m := castlePattern.FindStringSubmatch(s); m != nil {
		side := kingSide
		if len(m[1]) == 5 {
			side = queenSide
		}
		return sanMove{castle: side, piece: chesslib.King, promo: chesslib.NoPieceType}, true
	}

	m := sanPattern.FindStringSubmatch(s)
	if m == nil {
		return sanMove{}, false
	}
	mv := sanMove{
		piece: pieceFromLetter(m[1]),
		dest:  m[4],
		promo: chesslib.NoPieceType,
	}
	if m[2] != "" {
		mv.fromFile = m[2][0]
	}
	if m[3] != "" {
		mv.fromRank = m[3][0]
	}
	if m[1] == "" && mv.fromFile != 0 && mv.fromRank != 0 {
		mv.piece = chesslib.NoPieceType
	}
	if m[5] != "" {
		if mv.piece != chesslib.Pawn && mv.piece != chesslib.NoPieceType {
			return sanMove{}, false
		}
		mv.promo = pieceFromLetter(m[5])
	}
	return mv, true
}

func pieceFromLetter(letter string) chesslib.PieceType {
	switch letter {
	case "N":
		return chesslib.Knight
	case "B":
		return chesslib.Bishop
	case "R":
		return chesslib.Rook
	case "Q":
		return chesslib.Queen
	case "K":
		return chesslib.King
	default:
		return chesslib.Pawn
	}
}

func (s sanMove) matches(c candidate) bool {
	switch s.castle {
	case kingSide:
		return c.kingCastle
	case queenSide:
		return c.queenCastle
	}
	// 기물 문자 수(Kg1)는 캐슬링이 아니고 칸 표기 e1g1 은 캐슬링이다
	if (c.kingCastle || c.queenCastle) && s.piece != chesslib.NoPieceType {
		return false
	}
	if s.piece != chesslib.NoPieceType && c.piece != s.piece {
		return false
	}

	to := c.to.String()
	if to != s.dest {
		return false
	}
	from := c.from.String()
	if s.fromFile != 0 && from[0] != s.fromFile {
		return false
	}
	if s.fromRank != 0 && from[1] != s.fromRank {
		return false
	}
	// 폰은 출발 파일이 없으면 같은 파일 전진만 허용
	if s.piece == chesslib.Pawn && s.fromFile == 0 && from[0] != to[0] {
		return false
	}
	return c.promo == s.promo
}
