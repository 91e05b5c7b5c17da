package counters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps Counters in a key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" opens a
// private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=busy_timeout(5000)"
	} else {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("counters sqlite: mkdir %s: %w", dir, err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("counters sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("counters sqlite: migrate: %w", err)
	}
	slog.Debug("counters sqlite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS counters (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("counters sqlite: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO counters (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("counters sqlite: set %s: %w", key, err)
	}
	return nil
}

// Load reads both keys. Values that do not parse load as zero.
func (s *SQLiteStore) Load(ctx context.Context) (Counters, error) {
	var c Counters
	v, ok, err := s.get(ctx, KeyTotalClosed)
	if err != nil {
		return Counters{}, err
	}
	if ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.TotalClosed = n
		} else {
			slog.Warn("counters value unreadable", "key", KeyTotalClosed, "value", v)
		}
	}
	v, ok, err = s.get(ctx, KeyPreviewMode)
	if err != nil {
		return Counters{}, err
	}
	if ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("counters value unreadable", "key", KeyPreviewMode, "value", v)
		}
		c.PreviewMode = on
	}
	return c, nil
}

func (s *SQLiteStore) SaveLifetimeClosed(ctx context.Context, n int) error {
	return s.set(ctx, KeyTotalClosed, strconv.Itoa(n))
}

func (s *SQLiteStore) SavePreviewMode(ctx context.Context, on bool) error {
	return s.set(ctx, KeyPreviewMode, strconv.FormatBool(on))
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
