package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestThemeRoundTrip(t *testing.T) {
	db := testDB(t)

	theme, err := db.Theme()
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if theme != "" {
		t.Errorf("expected no saved theme, got %q", theme)
	}

	if err := db.SetTheme("light"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if err := db.SetTheme("dark"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}

	theme, err = db.Theme()
	if err != nil {
		t.Fatalf("Theme: %v", err)
	}
	if theme != "dark" {
		t.Errorf("expected dark, got %q", theme)
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)

	entries := []Activity{
		{Op: OpCreate, ArticleID: "a1", Title: "First", OK: true},
		{Op: OpUpload, ArticleID: "a1", Title: "First", OK: false, Detail: "Imagen no subida"},
		{Op: OpDelete, ArticleID: "a2", OK: true},
	}
	for _, e := range entries {
		if err := db.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Op != OpDelete {
		t.Errorf("expected newest first, got %s", got[0].Op)
	}
	if got[1].OK || got[1].Detail != "Imagen no subida" {
		t.Errorf("expected failed upload entry, got %+v", got[1])
	}
	if got[2].Title != "First" || !got[2].OK {
		t.Errorf("unexpected oldest entry %+v", got[2])
	}
	if got[2].At.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}

func TestRecentLimit(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		db.Record(Activity{Op: OpUpdate, OK: true})
	}
	got, err := db.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestPruneDeletesOldActivity(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	db.Record(Activity{Op: OpCreate, OK: true, At: now.Add(-1 * time.Hour)})
	db.Record(Activity{Op: OpCreate, OK: true, At: now.Add(-48 * time.Hour)})

	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	got, _ := db.Recent(10)
	if len(got) != 1 {
		t.Errorf("expected 1 remaining entry, got %d", len(got))
	}
}

func TestPruneNothingToDelete(t *testing.T) {
	db := testDB(t)
	db.Record(Activity{Op: OpCreate, OK: true})

	deleted, err := db.Prune(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 pruned, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	db.Record(Activity{Op: OpCreate, OK: true})
	db.Record(Activity{Op: OpDelete, OK: true})

	count, size, err := db.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if size == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "deep", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("opening db in nested dir: %v", err)
	}
	db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}
