package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps client-side preferences and the activity log. Articles
// themselves are never stored here.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	s := &Store{writeDB: writeDB}
	// Schema must exist before the read-only handle can see it.
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	s.readDB = readDB
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS activity (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			op         TEXT NOT NULL,
			article_id TEXT NOT NULL DEFAULT '',
			title      TEXT NOT NULL DEFAULT '',
			ok         INTEGER NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			at         DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Theme returns the saved theme, or "" when none was saved.
func (s *Store) Theme() (string, error) {
	v, err := s.getMeta("theme")
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading theme: %w", err)
	}
	return v, nil
}

func (s *Store) SetTheme(theme string) error {
	if err := s.setMeta("theme", theme); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// Record appends an entry to the activity log.
func (s *Store) Record(a Activity) error {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	ok := 0
	if a.OK {
		ok = 1
	}
	_, err := s.writeDB.Exec(`
		INSERT INTO activity (op, article_id, title, ok, detail, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Op, a.ArticleID, a.Title, ok, a.Detail, a.At.UTC())
	if err != nil {
		return fmt.Errorf("recording %s: %w", a.Op, err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.readDB.Query(`
		SELECT id, op, article_id, title, ok, detail, at
		FROM activity ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a  Activity
			ok int
		)
		if err := rows.Scan(&a.ID, &a.Op, &a.ArticleID, &a.Title, &ok, &a.Detail, &a.At); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.OK = ok == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

// Prune deletes activity older than retention and returns the number of
// rows removed.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC()
	res, err := s.writeDB.Exec("DELETE FROM activity WHERE at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning activity: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.writeDB.Exec("VACUUM")
	}
	return n, nil
}

// Stats returns the activity count and the database size on disk.
func (s *Store) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM activity").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting activity: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat db: %w", err)
	}
	return count, info.Size(), nil
}
