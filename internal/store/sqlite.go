package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
)

// SQLite keeps both slots in a single-file database, for kiosks that should
// survive restarts without a Redis instance nearby.
type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLite opens (and if needed initializes) the store at path.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// One writer at a time keeps the driver happy on kiosk-class hardware.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite store: %w", err)
	}

	return &SQLite{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) LoadQuiz(ctx context.Context) (quiz.Master, bool) {
	data, ok := s.read(ctx, slotQuiz)
	if !ok {
		return nil, false
	}
	master, ok := decodeQuiz(data)
	if !ok {
		s.logger.Warn().Str("slot", slotQuiz).Msg("discarding malformed quiz blob")
	}
	return master, ok
}

func (s *SQLite) SaveQuiz(ctx context.Context, master quiz.Master) error {
	return s.write(ctx, slotQuiz, master)
}

func (s *SQLite) ClearQuiz(ctx context.Context) error {
	return s.clear(ctx, slotQuiz)
}

func (s *SQLite) LoadBoard(ctx context.Context) ([]leaderboard.Entry, bool) {
	data, ok := s.read(ctx, slotBoard)
	if !ok {
		return nil, false
	}
	entries, ok := decodeBoard(data)
	if !ok {
		s.logger.Warn().Str("slot", slotBoard).Msg("discarding malformed leaderboard blob")
	}
	return entries, ok
}

func (s *SQLite) SaveBoard(ctx context.Context, entries []leaderboard.Entry) error {
	return s.write(ctx, slotBoard, entries)
}

func (s *SQLite) ClearBoard(ctx context.Context) error {
	return s.clear(ctx, slotBoard)
}

func (s *SQLite) read(ctx context.Context, slot string) ([]byte, bool) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE name = ?`, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("slot", slot).Msg("read failed, treating as absent")
		return nil, false
	}
	return data, true
}

func (s *SQLite) write(ctx context.Context, slot string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", slot, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`, slot, data); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	return nil
}

func (s *SQLite) clear(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, slot); err != nil {
		return fmt.Errorf("clear %s: %w", slot, err)
	}
	return nil
}
