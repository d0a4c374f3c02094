package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
)

// Schema creates the tables Postgres expects. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS opening (
	id          BIGSERIAL PRIMARY KEY,
	fen         VARCHAR(100) NOT NULL UNIQUE,
	eco_code    VARCHAR(10)  NOT NULL,
	name        VARCHAR(255) NOT NULL,
	moves       VARCHAR(500) NOT NULL,
	ply_count   INTEGER      NOT NULL,
	source      VARCHAR(50)  NOT NULL DEFAULT '',
	is_eco_root BOOLEAN      NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS opening_eco_code_idx ON opening (eco_code);
CREATE INDEX IF NOT EXISTS opening_name_idx ON opening (name);

CREATE TABLE IF NOT EXISTS game (
	id               BIGSERIAL PRIMARY KEY,
	source_id        VARCHAR(64)  NOT NULL UNIQUE,
	event            VARCHAR(255) NOT NULL DEFAULT '',
	site             VARCHAR(255) NOT NULL DEFAULT '',
	game_date        VARCHAR(10)  NOT NULL DEFAULT '',
	round            VARCHAR(50)  NOT NULL DEFAULT '',
	white_player     VARCHAR(255) NOT NULL,
	black_player     VARCHAR(255) NOT NULL,
	result           VARCHAR(10)  NOT NULL,
	white_elo        INTEGER,
	black_elo        INTEGER,
	time_control     VARCHAR(50)  NOT NULL DEFAULT '',
	termination      TEXT         NOT NULL DEFAULT '',
	moves            TEXT         NOT NULL,
	source_format    VARCHAR(50)  NOT NULL DEFAULT '',
	raw_headers      JSONB        NOT NULL DEFAULT '{}'::jsonb,
	created_at       TIMESTAMPTZ  NOT NULL DEFAULT now(),
	move_count_ply   INTEGER,
	opening_id       BIGINT REFERENCES opening (id) ON DELETE SET NULL,
	opening_ply      INTEGER,
	endgame_move_ply INTEGER,
	endgame_fen      VARCHAR(100)
);
CREATE INDEX IF NOT EXISTS game_event_idx ON game (event);
CREATE INDEX IF NOT EXISTS game_opening_id_idx ON game (opening_id);
CREATE INDEX IF NOT EXISTS game_move_count_ply_idx ON game (move_count_ply);
`

type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresFromDB(db, logger), nil
}

func NewPostgresFromDB(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) ListOpenings(ctx context.Context) ([]domain.Opening, error) {
	const query = `
		SELECT id, fen, eco_code, name, moves, ply_count, source, is_eco_root
		FROM opening
		ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select openings: %w", err)
	}
	defer rows.Close()

	var out []domain.Opening
	for rows.Next() {
		var (
			o   domain.Opening
			fen string
		)
		if err := rows.Scan(&o.ID, &fen, &o.ECOCode, &o.Name, &o.Moves, &o.PlyCount, &o.Source, &o.IsECORoot); err != nil {
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		o.Fingerprint = chess.Fingerprint(fen)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate openings: %w", err)
	}
	return out, nil
}

func (p *Postgres) InsertOpenings(ctx context.Context, openings []domain.Opening) (int, error) {
	const query = `
		INSERT INTO opening (fen, eco_code, name, moves, ply_count, source, is_eco_root)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fen) DO NOTHING`

	inserted := 0
	err := p.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, o := range openings {
			res, err := stmt.ExecContext(ctx, string(o.Fingerprint), o.ECOCode, o.Name, o.Moves, o.PlyCount, o.Source, o.IsECORoot)
			if err != nil {
				return fmt.Errorf("insert opening %q: %w", o.Fingerprint, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (p *Postgres) ClearOpenings(ctx context.Context) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM opening`)
	if err != nil {
		return 0, fmt.Errorf("delete openings: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (p *Postgres) InsertGames(ctx context.Context, games []domain.Game) (int, error) {
	const query = `
		INSERT INTO game (
			source_id, event, site, game_date, round,
			white_player, black_player, result, white_elo, black_elo,
			time_control, termination, moves, source_format, raw_headers,
			move_count_ply, opening_id, opening_ply, endgame_move_ply, endgame_fen
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb, $16, $17, $18, $19, $20)
		ON CONFLICT (source_id) DO NOTHING`

	inserted := 0
	err := p.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for i := range games {
			g := &games[i]
			headers := g.RawHeaders
			if headers == nil {
				headers = map[string]string{}
			}
			raw, err := json.Marshal(headers)
			if err != nil {
				return fmt.Errorf("marshal raw_headers: %w", err)
			}
			res, err := stmt.ExecContext(ctx,
				g.SourceID, g.Event, g.Site, g.Date, g.Round,
				g.WhitePlayer, g.BlackPlayer, g.Result, nullInt(g.WhiteElo), nullInt(g.BlackElo),
				g.TimeControl, g.Termination, g.Moves, g.SourceFormat, raw,
				nullInt(g.MoveCountPly), nullInt64(g.OpeningID), nullInt(g.OpeningPly), nullInt(g.EndgameMovePly),
				p.endgameFEN(g.SourceID, g.EndgameFEN),
			)
			if err != nil {
				return fmt.Errorf("insert game %q: %w", g.SourceID, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func pendingClause(filter PendingFilter) (string, error) {
	if filter.Force {
		return "TRUE", nil
	}
	var parts []string
	if filter.Mode.Openings() {
		parts = append(parts, "opening_id IS NULL")
	}
	if filter.Mode.Endgame() {
		parts = append(parts, "endgame_move_ply IS NULL OR endgame_fen IS NULL OR endgame_fen = ''")
	}
	if filter.Mode.MoveCount() {
		parts = append(parts, "move_count_ply IS NULL")
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, filter.Mode)
	}
	return "(" + strings.Join(parts, ") OR (") + ")", nil
}

func (p *Postgres) PendingGameIDs(ctx context.Context, filter PendingFilter) ([]int64, error) {
	where, err := pendingClause(filter)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM game WHERE `+where+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select pending games: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending games: %w", err)
	}
	return ids, nil
}

func (p *Postgres) CountGames(ctx context.Context, filter PendingFilter) (int, error) {
	where, err := pendingClause(filter)
	if err != nil {
		return 0, err
	}
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM game WHERE `+where).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

func (p *Postgres) GamesByIDs(ctx context.Context, ids []int64) ([]domain.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
		SELECT
			id, source_id, event, site, game_date, round,
			white_player, black_player, result, white_elo, black_elo,
			time_control, termination, moves, source_format, raw_headers, created_at,
			move_count_ply, opening_id, opening_ply, endgame_move_ply, endgame_fen
		FROM game
		WHERE id = ANY($1)
		ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]domain.Game, 0, len(ids))
	for rows.Next() {
		var (
			g                                 domain.Game
			whiteElo, blackElo, moveCount     sql.NullInt64
			openingID, openingPly, endgamePly sql.NullInt64
			endgameFEN                        sql.NullString
			rawHeaders                        []byte
		)
		if err := rows.Scan(
			&g.ID, &g.SourceID, &g.Event, &g.Site, &g.Date, &g.Round,
			&g.WhitePlayer, &g.BlackPlayer, &g.Result, &whiteElo, &blackElo,
			&g.TimeControl, &g.Termination, &g.Moves, &g.SourceFormat, &rawHeaders, &g.CreatedAt,
			&moveCount, &openingID, &openingPly, &endgamePly, &endgameFEN,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if len(rawHeaders) > 0 {
			if err := json.Unmarshal(rawHeaders, &g.RawHeaders); err != nil {
				return nil, fmt.Errorf("unmarshal raw_headers: %w", err)
			}
		}
		g.WhiteElo = intPtr(whiteElo)
		g.BlackElo = intPtr(blackElo)
		g.MoveCountPly = intPtr(moveCount)
		g.OpeningPly = intPtr(openingPly)
		g.EndgameMovePly = intPtr(endgamePly)
		if openingID.Valid {
			g.OpeningID = ptr(openingID.Int64)
		}
		g.EndgameFEN = endgameFEN.String
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (p *Postgres) UpdateClassifications(ctx context.Context, updates []Update) (int, error) {
	const query = `
		UPDATE game SET
			opening_id       = COALESCE($2, opening_id),
			opening_ply      = COALESCE($3, opening_ply),
			endgame_move_ply = COALESCE($4, endgame_move_ply),
			endgame_fen      = COALESCE($5, endgame_fen),
			move_count_ply   = COALESCE($6, move_count_ply)
		WHERE id = $1`

	updated := 0
	err := p.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, u := range updates {
			if u.Empty() {
				continue
			}
			var fen sql.NullString
			if u.EndgameFEN != nil {
				fen = p.endgameFEN(fmt.Sprintf("id:%d", u.GameID), *u.EndgameFEN)
			}
			res, err := stmt.ExecContext(ctx, u.GameID,
				nullInt64(u.OpeningID), nullInt(u.OpeningPly), nullInt(u.EndgameMovePly), fen, nullInt(u.MoveCountPly))
			if err != nil {
				return fmt.Errorf("update game %d: %w", u.GameID, err)
			}
			n, _ := res.RowsAffected()
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// inTx prepares query in a transaction, runs fn and commits when fn succeeds.
func (p *Postgres) inTx(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) endgameFEN(ref, fen string) sql.NullString {
	if fen == "" {
		return sql.NullString{}
	}
	cut, truncated := TruncateFingerprint(fen)
	if truncated {
		p.logger.Warn("endgame_fen_truncated", zap.String("game", ref), zap.Int("len", len(fen)))
	}
	return sql.NullString{String: cut, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
