// Package history keeps a SQLite log of recording sessions so operators can
// see which worlds were recorded, for how long, and how often the target
// restarted.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bobolobo/perfmonitor/internal/models"
)

// Store writes and lists session summaries.
type Store struct {
	db *sql.DB
}

// New opens the history database.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS sessions(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world TEXT NOT NULL,
		output TEXT NOT NULL,
		ticks INTEGER NOT NULL,
		max_ticks INTEGER NOT NULL,
		failed_reads INTEGER NOT NULL,
		restarts INTEGER NOT NULL,
		target TEXT NOT NULL,
		pid INTEGER NOT NULL,
		cancelled INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Record appends one session summary.
func (s *Store) Record(ctx context.Context, sum models.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions(world, output, ticks, max_ticks, failed_reads, restarts,
			target, pid, cancelled, started_at, ended_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		sum.World, sum.Output, sum.Ticks, sum.MaxTicks, sum.FailedReads, sum.Restarts,
		sum.Identity.Name, sum.Identity.PID, sum.Cancelled,
		sum.StartedAt.UnixMilli(), sum.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

// List returns the most recent sessions, newest first. A non-positive limit
// returns all sessions.
func (s *Store) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT world, output, ticks, max_ticks, failed_reads, restarts,
			target, pid, cancelled, started_at, ended_at
		FROM sessions ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []models.RunSummary
	for rows.Next() {
		var (
			sum            models.RunSummary
			started, ended int64
		)
		if err := rows.Scan(&sum.World, &sum.Output, &sum.Ticks, &sum.MaxTicks, &sum.FailedReads,
			&sum.Restarts, &sum.Identity.Name, &sum.Identity.PID, &sum.Cancelled, &started, &ended); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.StartedAt = time.UnixMilli(started)
		sum.EndedAt = time.UnixMilli(ended)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
