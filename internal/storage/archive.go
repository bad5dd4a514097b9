package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/elasticity/internal/models"
)

// MemoryPath opens a private in-memory archive.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id            TEXT PRIMARY KEY,
	chat_id       INTEGER NOT NULL,
	product_id    TEXT NOT NULL,
	scenario_id   TEXT NOT NULL,
	optimal_price REAL NOT NULL,
	max_revenue   REAL NOT NULL,
	attempts      INTEGER NOT NULL,
	outcome       TEXT NOT NULL,
	best_fraction REAL NOT NULL,
	finished_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS rounds_chat_finished ON rounds (chat_id, finished_at);
`

// Stats summarises the archived rounds of one chat.
type Stats struct {
	Rounds              int     `json:"rounds"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	AverageAttempts     float64 `json:"average_attempts"`
	AverageBestFraction float64 `json:"average_best_fraction"`
}

// WinRate returns wins over rounds, 0 when nothing was played.
func (s Stats) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rounds)
}

// Archive stores finished rounds in SQLite.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive at path.
func OpenArchive(path string) (*Archive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("archive path is required")
	}

	dsn := path
	if path != MemoryPath {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the SQLite handle.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RecordRound archives a finished round.
func (a *Archive) RecordRound(ctx context.Context, r *models.RoundResult) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid round: %w", err)
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO rounds (
		   id, chat_id, product_id, scenario_id, optimal_price, max_revenue,
		   attempts, outcome, best_fraction, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ChatID, r.ProductID, r.ScenarioID, r.OptimalPrice, r.MaxRevenue,
		r.Attempts, r.Outcome, r.BestFraction, r.FinishedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", r.ID, err)
	}
	return nil
}

// Stats aggregates the chat's archived rounds.
func (a *Archive) Stats(ctx context.Context, chatID int64) (Stats, error) {
	var (
		st          Stats
		avgAttempts sql.NullFloat64
		avgFraction sql.NullFloat64
	)
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        AVG(attempts),
		        AVG(best_fraction)
		   FROM rounds
		  WHERE chat_id = ?`,
		models.OutcomeWin, chatID,
	).Scan(&st.Rounds, &st.Wins, &avgAttempts, &avgFraction)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats for chat %d: %w", chatID, err)
	}

	st.Losses = st.Rounds - st.Wins
	st.AverageAttempts = avgAttempts.Float64
	st.AverageBestFraction = avgFraction.Float64
	return st, nil
}

// Recent returns the chat's latest rounds, newest first.
func (a *Archive) Recent(ctx context.Context, chatID int64, limit int) ([]models.RoundResult, error) {
	if limit <= 0 {
		return []models.RoundResult{}, nil
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, chat_id, product_id, scenario_id, optimal_price, max_revenue,
		        attempts, outcome, best_fraction, finished_at
		   FROM rounds
		  WHERE chat_id = ?
		  ORDER BY finished_at DESC, id
		  LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent rounds for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	results := make([]models.RoundResult, 0, limit)
	for rows.Next() {
		var (
			r        models.RoundResult
			finished int64
		)
		if err := rows.Scan(&r.ID, &r.ChatID, &r.ProductID, &r.ScenarioID, &r.OptimalPrice,
			&r.MaxRevenue, &r.Attempts, &r.Outcome, &r.BestFraction, &finished); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.FinishedAt = time.UnixMilli(finished).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}
