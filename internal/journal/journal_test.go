package journal

import (
	"os"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-journal-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)

	if err := db.Record("create_article", "pages/note/a.md", "done", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := db.Record("create_article", "pages/note/b.md", "write_content", "boom"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// Most recent first.
	if entries[0].Path != "pages/note/b.md" || entries[0].Error != "boom" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Step != "done" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestRecentLimit(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		if err := db.Record("deploy", ".deploy-version", "done", ""); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := db.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}
}

func TestFailures(t *testing.T) {
	db := testDB(t)
	_ = db.Record("create_article", "pages/note/ok.md", "done", "")
	_ = db.Record("create_article", "pages/note/bad.md", "write_content", "boom")
	_ = db.Record("update_article", "pages/note/worse.md", "write_index", "boom")

	failures, err := db.Failures()
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}
	// Oldest first.
	if failures[0].Path != "pages/note/bad.md" {
		t.Errorf("failures[0] = %+v", failures[0])
	}
}
