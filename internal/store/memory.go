package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
)

// Memory is an in-process Repository. Values are copied in and out.
type Memory struct {
	mu     sync.RWMutex
	logger *zap.Logger

	nextOpeningID int64
	nextGameID    int64

	openings      map[int64]*domain.Opening
	openingsByFEN map[chess.Fingerprint]int64
	games         map[int64]*domain.Game
	gamesBySource map[string]int64
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		logger:        logger,
		openings:      make(map[int64]*domain.Opening),
		openingsByFEN: make(map[chess.Fingerprint]int64),
		games:         make(map[int64]*domain.Game),
		gamesBySource: make(map[string]int64),
	}
}

func (m *Memory) ListOpenings(ctx context.Context) ([]domain.Opening, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Opening, 0, len(m.openings))
	for _, o := range m.openings {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertOpenings(ctx context.Context, openings []domain.Opening) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, o := range openings {
		if _, exists := m.openingsByFEN[o.Fingerprint]; exists {
			continue
		}
		m.nextOpeningID++
		cp := o
		cp.ID = m.nextOpeningID
		m.openings[cp.ID] = &cp
		m.openingsByFEN[cp.Fingerprint] = cp.ID
		inserted++
	}
	return inserted, nil
}

// ClearOpenings deletes every opening and, like ON DELETE SET NULL, detaches games from them.
func (m *Memory) ClearOpenings(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.openings)
	m.openings = make(map[int64]*domain.Opening)
	m.openingsByFEN = make(map[chess.Fingerprint]int64)
	for _, g := range m.games {
		g.OpeningID = nil
	}
	return n, nil
}

func (m *Memory) InsertGames(ctx context.Context, games []domain.Game) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, g := range games {
		if _, exists := m.gamesBySource[g.SourceID]; exists {
			continue
		}
		m.nextGameID++
		cp := cloneGame(&g)
		cp.ID = m.nextGameID
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		if fen, cut := TruncateFingerprint(cp.EndgameFEN); cut {
			m.logger.Warn("endgame_fen_truncated", zap.String("source_id", cp.SourceID), zap.Int("len", len(cp.EndgameFEN)))
			cp.EndgameFEN = fen
		}
		m.games[cp.ID] = cp
		m.gamesBySource[cp.SourceID] = cp.ID
		inserted++
	}
	return inserted, nil
}

func (m *Memory) PendingGameIDs(ctx context.Context, filter PendingFilter) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0)
	for id, g := range m.games {
		if filter.pending(g) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) GamesByIDs(ctx context.Context, ids []int64) ([]domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := m.games[id]; ok {
			out = append(out, *cloneGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateClassifications(ctx context.Context, updates []Update) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for _, u := range updates {
		g, ok := m.games[u.GameID]
		if !ok || u.Empty() {
			continue
		}
		if u.OpeningID != nil {
			g.OpeningID = ptr(*u.OpeningID)
		}
		if u.OpeningPly != nil {
			g.OpeningPly = ptr(*u.OpeningPly)
		}
		if u.EndgameMovePly != nil {
			g.EndgameMovePly = ptr(*u.EndgameMovePly)
		}
		if u.EndgameFEN != nil {
			fen, cut := TruncateFingerprint(*u.EndgameFEN)
			if cut {
				m.logger.Warn("endgame_fen_truncated", zap.Int64("game_id", u.GameID), zap.Int("len", len(*u.EndgameFEN)))
			}
			g.EndgameFEN = fen
		}
		if u.MoveCountPly != nil {
			g.MoveCountPly = ptr(*u.MoveCountPly)
		}
		updated++
	}
	return updated, nil
}

func (m *Memory) CountGames(ctx context.Context, filter PendingFilter) (int, error) {
	ids, err := m.PendingGameIDs(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (m *Memory) Close() error { return nil }

func cloneGame(g *domain.Game) *domain.Game {
	cp := *g
	if g.WhiteElo != nil {
		cp.WhiteElo = ptr(*g.WhiteElo)
	}
	if g.BlackElo != nil {
		cp.BlackElo = ptr(*g.BlackElo)
	}
	if g.MoveCountPly != nil {
		cp.MoveCountPly = ptr(*g.MoveCountPly)
	}
	if g.OpeningID != nil {
		cp.OpeningID = ptr(*g.OpeningID)
	}
	if g.OpeningPly != nil {
		cp.OpeningPly = ptr(*g.OpeningPly)
	}
	if g.EndgameMovePly != nil {
		cp.EndgameMovePly = ptr(*g.EndgameMovePly)
	}
	if g.RawHeaders != nil {
		cp.RawHeaders = make(map[string]string, len(g.RawHeaders))
		for k, v := range g.RawHeaders {
			cp.RawHeaders[k] = v
		}
	}
	return &cp
}

func ptr[T any](v T) *T { return &v }
