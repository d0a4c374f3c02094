package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chess-insight/internal/domain"
)

func seedGames(t *testing.T, r Repository, sourceIDs ...string) []int64 {
	t.Helper()
	ctx := context.Background()
	games := make([]domain.Game, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		games = append(games, domain.Game{SourceID: id, WhitePlayer: "w", BlackPlayer: "b", Result: "1-0", Moves: "1. e4 e5"})
	}
	if _, err := r.InsertGames(ctx, games); err != nil {
		t.Fatalf("InsertGames: %v", err)
	}
	ids, err := r.PendingGameIDs(ctx, PendingFilter{Force: true})
	if err != nil {
		t.Fatalf("PendingGameIDs: %v", err)
	}
	return ids
}

func TestMemoryOpeningsIgnoreConflicts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	n, err := m.InsertOpenings(ctx, []domain.Opening{
		{Fingerprint: "a w - -", ECOCode: "A00", Name: "first"},
		{Fingerprint: "b w - -", ECOCode: "A01", Name: "second"},
	})
	if err != nil || n != 2 {
		t.Fatalf("InsertOpenings = %d, %v", n, err)
	}
	n, err = m.InsertOpenings(ctx, []domain.Opening{
		{Fingerprint: "a w - -", Name: "dup"},
		{Fingerprint: "c w - -", Name: "third"},
	})
	if err != nil || n != 1 {
		t.Fatalf("second InsertOpenings = %d, %v", n, err)
	}
	list, _ := m.ListOpenings(ctx)
	names := make([]string, 0, len(list))
	for _, o := range list {
		names = append(names, o.Name)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, names); diff != "" {
		t.Fatalf("openings mismatch (-want +got):\n%s", diff)
	}

	cleared, _ := m.ClearOpenings(ctx)
	if cleared != 3 {
		t.Fatalf("ClearOpenings = %d", cleared)
	}
}

func TestMemoryGamesSkipDuplicateSource(t *testing.T) {
	m := NewMemory(nil)
	ids := seedGames(t, m, "g1", "g2", "g1")
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 games", ids)
	}
}

func TestMemoryPendingByMode(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	ids := seedGames(t, m, "g1", "g2", "g3")

	ply, fen := 41, "8/8/8/8/8/8/8/K6k w - -"
	openingID, openingPly := int64(7), 3
	moves := 2
	_, err := m.UpdateClassifications(ctx, []Update{
		{GameID: ids[0], OpeningID: &openingID, OpeningPly: &openingPly},
		{GameID: ids[1], EndgameMovePly: &ply, EndgameFEN: &fen, MoveCountPly: &moves},
	})
	if err != nil {
		t.Fatalf("UpdateClassifications: %v", err)
	}

	cases := []struct {
		filter PendingFilter
		want   []int64
	}{
		{PendingFilter{Mode: ModeOpenings}, []int64{ids[1], ids[2]}},
		{PendingFilter{Mode: ModeEndgame}, []int64{ids[0], ids[2]}},
		{PendingFilter{Mode: ModeMoveCount}, []int64{ids[0], ids[2]}},
		{PendingFilter{Mode: ModeAll}, ids},
		{PendingFilter{Mode: ModeOpenings, Force: true}, ids},
	}
	for _, tc := range cases {
		got, err := m.PendingGameIDs(ctx, tc.filter)
		if err != nil {
			t.Fatalf("PendingGameIDs(%+v): %v", tc.filter, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("PendingGameIDs(%+v) mismatch (-want +got):\n%s", tc.filter, diff)
		}
		n, _ := m.CountGames(ctx, tc.filter)
		if n != len(tc.want) {
			t.Fatalf("CountGames(%+v) = %d", tc.filter, n)
		}
	}
}

func TestMemoryUpdateLeavesNilFieldsAndTruncates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	ids := seedGames(t, m, "g1")

	ply := 30
	long := strings.Repeat("x", MaxFingerprintLen+20)
	if _, err := m.UpdateClassifications(ctx, []Update{{GameID: ids[0], EndgameMovePly: &ply, EndgameFEN: &long}}); err != nil {
		t.Fatalf("UpdateClassifications: %v", err)
	}
	moves := 12
	if _, err := m.UpdateClassifications(ctx, []Update{{GameID: ids[0], MoveCountPly: &moves}}); err != nil {
		t.Fatalf("UpdateClassifications: %v", err)
	}

	games, err := m.GamesByIDs(ctx, ids)
	if err != nil || len(games) != 1 {
		t.Fatalf("GamesByIDs = %v, %v", games, err)
	}
	g := games[0]
	if g.EndgameMovePly == nil || *g.EndgameMovePly != 30 {
		t.Fatalf("endgame ply lost: %+v", g.EndgameMovePly)
	}
	if len(g.EndgameFEN) != MaxFingerprintLen {
		t.Fatalf("endgame fen len = %d", len(g.EndgameFEN))
	}
	if g.MoveCountPly == nil || *g.MoveCountPly != 12 {
		t.Fatalf("move count = %+v", g.MoveCountPly)
	}

	*g.EndgameMovePly = 99
	again, _ := m.GamesByIDs(ctx, ids)
	if *again[0].EndgameMovePly != 30 {
		t.Fatalf("GamesByIDs returned aliased storage")
	}
}

func TestTruncateFingerprint(t *testing.T) {
	s, cut := TruncateFingerprint("short")
	if cut || s != "short" {
		t.Fatalf("short: %q %v", s, cut)
	}
	s, cut = TruncateFingerprint(strings.Repeat("a", MaxFingerprintLen))
	if cut || len(s) != MaxFingerprintLen {
		t.Fatalf("exact: %d %v", len(s), cut)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"openings", "endgame", "move-count", "all"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("everything"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v", err)
	}
}

func TestPendingClause(t *testing.T) {
	got, err := pendingClause(PendingFilter{Mode: ModeAll})
	if err != nil {
		t.Fatalf("pendingClause: %v", err)
	}
	for _, frag := range []string{"opening_id IS NULL", "endgame_fen = ''", "move_count_ply IS NULL"} {
		if !strings.Contains(got, frag) {
			t.Fatalf("clause %q lacks %q", got, frag)
		}
	}
	if got, _ := pendingClause(PendingFilter{Force: true}); got != "TRUE" {
		t.Fatalf("force clause = %q", got)
	}
	if _, err := pendingClause(PendingFilter{}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("empty mode err = %v", err)
	}
}
