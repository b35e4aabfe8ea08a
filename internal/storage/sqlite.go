package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"dmhy/internal/model"
	"dmhy/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrCorrupt reports a database file SQLite cannot read.
var ErrCorrupt = errors.New("corrupt database")

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", classify(err))
	}

	if _, err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, classify(err)
	}

	return &SQLite{db: db}, nil
}

// OpenFile opens the database file at path. A file SQLite cannot read is
// moved aside to "<path>.corrupt-<timestamp>" and a fresh database is created
// in its place.
func OpenFile(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	s, err := NewSQLite(ctx, path)
	if err == nil || !errors.Is(err, ErrCorrupt) || path == ":memory:" {
		return s, err
	}

	moved, qerr := quarantine(path, time.Now())
	if qerr != nil {
		return nil, errors.Join(err, qerr)
	}
	log.Warn("database unreadable, starting empty", "path", path, "moved_to", moved, "error", err)

	return NewSQLite(ctx, path)
}

// quarantine renames path and its WAL sidecar files out of the way.
func quarantine(path string, now time.Time) (string, error) {
	moved := path + ".corrupt-" + now.UTC().Format("20060102T150405Z")
	if err := os.Rename(path, moved); err != nil {
		return "", fmt.Errorf("move corrupt database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(path+suffix, moved+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("move corrupt database: %w", err)
		}
	}
	return moved, nil
}

func classify(err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return err
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadSubscriptions returns all subscriptions ordered by position.
func (s *SQLite) LoadSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, keywords, unkeywords, episode_parser
		 FROM subscriptions ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := []model.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ReplaceSubscriptions overwrites the stored sequence inside one transaction
// and drops seen entries of subscriptions that no longer exist.
func (s *SQLite) ReplaceSubscriptions(ctx context.Context, subs []model.Subscription) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("delete subscriptions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO subscriptions (id, position, title, keywords, unkeywords, episode_parser)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, sub := range subs {
		keywords, err := encodeList(sub.Keywords)
		if err != nil {
			return err
		}
		unkeywords, err := encodeList(sub.Unkeywords)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, sub.ID, i, sub.Title, keywords, unkeywords, sub.EpisodeParser); err != nil {
			return fmt.Errorf("insert subscription %q: %w", sub.Title, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seen_entries WHERE subscription_id NOT IN (SELECT id FROM subscriptions)`,
	); err != nil {
		return fmt.Errorf("delete orphaned seen entries: %w", err)
	}

	return tx.Commit()
}

// MarkSeen records that a feed entry has been reported for a subscription.
func (s *SQLite) MarkSeen(ctx context.Context, subscriptionID, key string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_entries (subscription_id, entry_key, seen_at) VALUES (?, ?, ?)`,
		subscriptionID, key, now,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// IsSeen checks whether a feed entry has already been reported.
func (s *SQLite) IsSeen(ctx context.Context, subscriptionID, key string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_entries WHERE subscription_id = ? AND entry_key = ?`,
		subscriptionID, key,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSubscription(row scannable) (model.Subscription, error) {
	var sub model.Subscription
	var keywords, unkeywords string
	err := row.Scan(&sub.ID, &sub.Title, &keywords, &unkeywords, &sub.EpisodeParser)
	if err != nil {
		return sub, fmt.Errorf("scan subscription: %w", err)
	}
	if sub.Keywords, err = decodeList(keywords); err != nil {
		return sub, fmt.Errorf("decode keywords of %q: %w", sub.Title, err)
	}
	if sub.Unkeywords, err = decodeList(unkeywords); err != nil {
		return sub, fmt.Errorf("decode unkeywords of %q: %w", sub.Title, err)
	}
	return sub, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	list := []string{}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
