package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// AssistantQuestionAction is the analytics action recorded for every
// accepted assistant submission; its label is the matched topic.
const AssistantQuestionAction = "assistant_question"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (and creates if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer avoids SQLITE_BUSY from the background trackers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,  -- hashed, never the raw IP
		user_agent TEXT,
		path TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		category TEXT NOT NULL,
		label TEXT,
		value REAL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_action ON events(action);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordVisit stores one page view.
func (s *SQLiteStore) RecordVisit(ctx context.Context, v Visit) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)`,
		v.HashedIP, v.UserAgent, v.Path, v.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// RecordEvent stores one analytics event.
func (s *SQLiteStore) RecordEvent(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	var value interface{}
	if e.Value != nil {
		value = *e.Value
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (action, category, label, value, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		e.Action, e.Category, e.Label, value, e.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RecordContact stores a contact form submission.
func (s *SQLiteStore) RecordContact(ctx context.Context, c ContactMessage) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, message, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Message, c.Status, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// Stats aggregates dashboard figures.
func (s *SQLiteStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	scalars := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []interface{}{startOfDay.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []interface{}{weekAgo.Unix()}},
		{&stats.TotalEvents, `SELECT COUNT(*) FROM events`, nil},
		{&stats.TotalContacts, `SELECT COUNT(*) FROM contact_messages`, nil},
	}
	for _, sc := range scalars {
		if err := s.db.QueryRowContext(ctx, sc.query, sc.args...).Scan(sc.dest); err != nil {
			return nil, fmt.Errorf("query stats: %w", err)
		}
	}

	var err error
	stats.EventsByAction, err = s.counts(ctx, `
		SELECT action, COUNT(*) FROM events
		GROUP BY action ORDER BY COUNT(*) DESC, action LIMIT 20`)
	if err != nil {
		return nil, err
	}

	stats.TopTopics, err = s.counts(ctx, `
		SELECT COALESCE(label, ''), COUNT(*) FROM events
		WHERE action = ?
		GROUP BY label ORDER BY COUNT(*) DESC, label LIMIT 10`, AssistantQuestionAction)
	if err != nil {
		return nil, err
	}

	stats.RecentContacts, err = s.recentContacts(ctx, 10)
	if err != nil {
		return nil, err
	}

	stats.RecentVisitors, err = s.RecentVisitors(ctx, 50)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStore) counts(ctx context.Context, query string, args ...interface{}) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) recentContacts(ctx context.Context, limit int) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, status, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer rows.Close()

	var out []ContactMessage
	for rows.Next() {
		var c ContactMessage
		var created int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Status, &created); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		c.CreatedAt = time.Unix(created, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentVisitors returns the latest visits, newest first.
func (s *SQLiteStore) RecentVisitors(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		var ts int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		v.Timestamp = time.Unix(ts, 0)
		out = append(out, v)
	}
	return out, rows.Err()
}

// CleanupVisitors deletes visits older than retention.
func (s *SQLiteStore) CleanupVisitors(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	return result.RowsAffected()
}
