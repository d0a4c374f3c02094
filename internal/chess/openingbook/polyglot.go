package openingbook

import (
	"errors"
	"fmt"
	"os"
	"strings"

	chesslib "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/movetext"
)

const SourcePolyglot = "polyglot"

type WalkOptions struct {
	MaxPly    int
	MinWeight uint16
}

// ErrNoPolyglotBook means CHESS_POLYGLOT_BOOK_PATH was left empty.
var ErrNoPolyglotBook = errors.New("no polyglot book configured")

// LoadPolyglotFile reads the whole book into memory.
func LoadPolyglotFile(path string) (*chesslib.PolyglotBook, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoPolyglotBook
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read polyglot book: %w", err)
	}
	book, err := chesslib.LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("polyglot book %s: %w", path, err)
	}
	return book, nil
}

// FromPolyglot walks book lines from the starting position and emits a
// reference for every reached position that the ECO table can name.
// A transposed position is emitted and expanded once.
func FromPolyglot(book *chesslib.PolyglotBook, opts WalkOptions) ([]domain.Opening, error) {
	if book == nil {
		return nil, fmt.Errorf("polyglot book is nil")
	}
	maxPly := opts.MaxPly
	if maxPly <= 0 {
		maxPly = 12
	}
	minWeight := opts.MinWeight
	if minWeight == 0 {
		minWeight = 1
	}

	hasher := chesslib.NewZobristHasher()
	ecoBook := opening.NewBookECO()
	uciNotation := chesslib.UCINotation{}
	algebraic := chesslib.AlgebraicNotation{}

	seen := make(map[chess.Fingerprint]struct{})
	var out []domain.Opening

	var walk func(game *chesslib.Game, path []string) error
	walk = func(game *chesslib.Game, path []string) error {
		if len(path) > 0 {
			fp, err := chess.FingerprintFromFEN(game.FEN())
			if err != nil {
				return err
			}
			if _, dup := seen[fp]; dup {
				return nil
			}
			seen[fp] = struct{}{}
			if eco := ecoBook.Find(game.Moves()); eco != nil {
				out = append(out, domain.Opening{
					Fingerprint: fp,
					ECOCode:     eco.Code(),
					Name:        eco.Title(),
					Moves:       movetext.Join(path),
					PlyCount:    len(path),
					Source:      SourcePolyglot,
				})
			}
		}
		if len(path) >= maxPly {
			return nil
		}

		hashStr, err := hasher.HashPosition(game.FEN())
		if err != nil {
			return fmt.Errorf("compute polyglot hash: %w", err)
		}
		for _, entry := range book.FindMoves(chesslib.ZobristHashToUint64(hashStr)) {
			if entry.Weight < minWeight {
				continue
			}
			raw := chesslib.DecodeMove(entry.Move).ToMove()
			moveStr := raw.String()
			// 태그 없는 북 수는 현재 국면으로 다시 디코드해야 exd5 처럼 캡처가 표기된다
			move, err := uciNotation.Decode(game.Position(), moveStr)
			if err != nil {
				return fmt.Errorf("decode book move %q: %w", moveStr, err)
			}
			moveSAN := algebraic.Encode(game.Position(), move)

			child := game.Clone()
			if err := child.PushNotationMove(moveStr, uciNotation, nil); err != nil {
				return fmt.Errorf("apply book move %q: %w", moveStr, err)
			}
			next := append(append([]string(nil), path...), moveSAN)
			if err := walk(child, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(chesslib.NewGame(), nil); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptyBook
	}
	return out, nil
}
