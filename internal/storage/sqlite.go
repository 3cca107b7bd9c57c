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

	_ "modernc.org/sqlite"
)

// Store is a lightweight user registry plus lifetime download accounting.
// Rate-limit windows live in memory (internal/gate); this survives restarts
// so the owner's /stats means something.
type Store struct {
	db *sql.DB
}

type User struct {
	TelegramUserID int64
	FirstName      string
	Username       string

	FirstSeen time.Time
	LastSeen  time.Time

	DownloadsTotal int64
	BytesTotal     int64
}

type Stats struct {
	Users          int64
	DownloadsTotal int64
	BytesTotal     int64
}

func Open(ctx context.Context, dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("db path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sql.Open(sqlite): %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  telegram_user_id INTEGER PRIMARY KEY,
  first_name TEXT NOT NULL DEFAULT '',
  username TEXT NOT NULL DEFAULT '',
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL,
  downloads_total INTEGER NOT NULL DEFAULT 0,
  bytes_total INTEGER NOT NULL DEFAULT 0
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertUser records first contact and refreshes name/username on later ones.
func (s *Store) UpsertUser(ctx context.Context, telegramUserID int64, firstName, username string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (telegram_user_id, first_name, username, first_seen, last_seen)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(telegram_user_id) DO UPDATE SET
  first_name=excluded.first_name,
  username=excluded.username,
  last_seen=excluded.last_seen
`, telegramUserID, firstName, username, now, now)
	return err
}

// RecordDownload bumps the user's lifetime counters after a delivered file.
func (s *Store) RecordDownload(ctx context.Context, telegramUserID int64, bytes int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET downloads_total=downloads_total+1, bytes_total=bytes_total+?, last_seen=?
WHERE telegram_user_id=?
`, bytes, now, telegramUserID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record download: unknown user %d", telegramUserID)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, telegramUserID int64) (User, error) {
	var u User
	u.TelegramUserID = telegramUserID

	var firstSeen, lastSeen string
	err := s.db.QueryRowContext(ctx, `
SELECT first_name, username, first_seen, last_seen, downloads_total, bytes_total
FROM users WHERE telegram_user_id=?
`, telegramUserID).Scan(
		&u.FirstName,
		&u.Username,
		&firstSeen,
		&lastSeen,
		&u.DownloadsTotal,
		&u.BytesTotal,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sql.ErrNoRows
		}
		return User{}, err
	}

	u.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen)
	u.LastSeen, _ = time.Parse(time.RFC3339Nano, lastSeen)
	return u, nil
}

// GetStats aggregates across all users, for the owner /stats command.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(downloads_total), 0), COALESCE(SUM(bytes_total), 0) FROM users
`).Scan(&st.Users, &st.DownloadsTotal, &st.BytesTotal)
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}
