package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-Checkers-bot/internal/domain"
)

// ResultStore records finished games.
type ResultStore interface {
	SaveResult(ctx context.Context, g *Game, method string) error
	RecentResults(ctx context.Context, userID string, limit int) ([]*domain.CheckersResult, error)
	Close() error
}

const schema = `CREATE TABLE IF NOT EXISTS checkers_games (
    game_id       TEXT PRIMARY KEY,
    room          TEXT NOT NULL,
    white_id      TEXT NOT NULL,
    white_name    TEXT NOT NULL,
    black_id      TEXT NOT NULL,
    black_name    TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    moves         JSONB NOT NULL DEFAULT '[]',
    pdn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS checkers_games_white_idx ON checkers_games (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS checkers_games_black_idx ON checkers_games (black_id, ended_at DESC);`

// Repository stores finished games in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure checkers_games schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game.
func (r *Repository) SaveResult(ctx context.Context, g *Game, method string) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	res := resultFromGame(g, method)
	movesRaw, _ := json.Marshal(res.Moves)

	q := `INSERT INTO checkers_games (
        game_id, room, white_id, white_name, black_id, black_name,
        result, result_method, moves, pdn,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
      ) ON CONFLICT (game_id) DO UPDATE SET
        room=EXCLUDED.room,
        white_id=EXCLUDED.white_id,
        white_name=EXCLUDED.white_name,
        black_id=EXCLUDED.black_id,
        black_name=EXCLUDED.black_name,
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves=EXCLUDED.moves,
        pdn=EXCLUDED.pdn,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		res.GameID, res.Room,
		res.WhiteID, res.WhiteName,
		res.BlackID, res.BlackName,
		res.Result, res.ResultMethod, string(movesRaw), res.PDN,
		res.StartedAt, res.EndedAt, res.Duration.Milliseconds(),
	)
	return err
}

// RecentResults returns the latest finished games the user played, newest first.
func (r *Repository) RecentResults(ctx context.Context, userID string, limit int) ([]*domain.CheckersResult, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
        game_id, room, white_id, white_name, black_id, black_name,
        result, result_method, moves, pdn, started_at, ended_at, duration_ms
      FROM checkers_games
      WHERE white_id = $1 OR black_id = $1
      ORDER BY ended_at DESC
      LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CheckersResult
	for rows.Next() {
		var (
			res        domain.CheckersResult
			movesRaw   []byte
			durationMS int64
		)
		if err := rows.Scan(
			&res.GameID, &res.Room,
			&res.WhiteID, &res.WhiteName,
			&res.BlackID, &res.BlackName,
			&res.Result, &res.ResultMethod, &movesRaw, &res.PDN,
			&res.StartedAt, &res.EndedAt, &durationMS,
		); err != nil {
			return nil, err
		}
		if len(movesRaw) > 0 {
			if err := json.Unmarshal(movesRaw, &res.Moves); err != nil {
				return nil, fmt.Errorf("decode moves of %s: %w", res.GameID, err)
			}
		}
		res.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &res)
	}
	return out, rows.Err()
}

func resultFromGame(g *Game, method string) *domain.CheckersResult {
	duration := g.UpdatedAt.Sub(g.CreatedAt)
	if duration < 0 {
		duration = 0
	}
	res := &domain.CheckersResult{
		GameID:       g.ID,
		Room:         g.Room,
		WhiteID:      g.WhiteID,
		WhiteName:    g.WhiteName,
		BlackID:      g.BlackID,
		BlackName:    g.BlackName,
		Result:       strings.TrimSpace(g.Outcome),
		ResultMethod: strings.TrimSpace(method),
		Moves:        append([]string(nil), g.Moves...),
		StartedAt:    g.CreatedAt,
		EndedAt:      g.UpdatedAt,
		Duration:     duration,
	}
	res.PDN = buildPDN(res)
	return res
}

func mapResultToPDN(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "2-0"
	case "black":
		return "0-2"
	default:
		return "*"
	}
}

// buildPDN writes the game in Portable Draughts Notation with algebraic squares.
func buildPDN(res *domain.CheckersResult) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	date := res.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	pdnResult := mapResultToPDN(res.Result)
	b.WriteString("[Event \"KakaoCheckers\"]\n")
	b.WriteString("[Site \"Iris\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePDN(res.WhiteName)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePDN(res.BlackName)))
	if strings.TrimSpace(res.ResultMethod) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePDN(strings.ToLower(res.ResultMethod))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", pdnResult))

	for i := 0; i < len(res.Moves); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(res.Moves[i])))
		if i+1 < len(res.Moves) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(res.Moves[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(pdnResult)
	return b.String()
}

func sanitizePDN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
