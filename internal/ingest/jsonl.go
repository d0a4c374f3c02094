package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/park285/chess-insight/internal/domain"
	"github.com/park285/chess-insight/internal/store"
)

const maxLineBytes = 4 << 20

// JSONLSource reads one domain.Game per line. Blank lines are skipped.
type JSONLSource struct {
	sc   *bufio.Scanner
	line int
}

func NewJSONLSource(r io.Reader) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &JSONLSource{sc: sc}
}

// Next returns io.EOF after the last record.
func (s *JSONLSource) Next() (domain.Game, error) {
	for s.sc.Scan() {
		s.line++
		raw := strings.TrimSpace(s.sc.Text())
		if raw == "" {
			continue
		}
		var g domain.Game
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return domain.Game{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		return g, nil
	}
	if err := s.sc.Err(); err != nil {
		return domain.Game{}, fmt.Errorf("read games: %w", err)
	}
	return domain.Game{}, io.EOF
}

// ReadBatch returns up to n games. A short batch with a nil error means
// the source is drained.
func (s *JSONLSource) ReadBatch(n int) ([]domain.Game, error) {
	batch := make([]domain.Game, 0, n)
	for len(batch) < n {
		g, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, g)
	}
	return batch, nil
}

type Record struct {
	SourceID     string               `json:"source_id"`
	Opening      *domain.OpeningMatch `json:"opening"`
	Endgame      *EndgameRecord       `json:"endgame"`
	MoveCountPly int                  `json:"move_count_ply"`
}

// EndgameRecord carries the fingerprint in its stored, possibly truncated form.
type EndgameRecord struct {
	Fingerprint string `json:"fingerprint"`
	Ply         int    `json:"ply"`
}

type JSONLSink struct {
	enc *json.Encoder
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

func (s *JSONLSink) Write(g domain.Game, cls domain.Classification) error {
	rec := Record{SourceID: g.SourceID, Opening: cls.Opening, MoveCountPly: cls.MoveCountPly}
	if cls.Endgame != nil {
		fen, _ := store.TruncateFingerprint(cls.Endgame.Fingerprint.String())
		rec.Endgame = &EndgameRecord{Fingerprint: fen, Ply: cls.Endgame.Ply}
	}
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("write record %q: %w", g.SourceID, err)
	}
	return nil
}
