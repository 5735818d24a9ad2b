package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type checkpoint struct {
	Records []string `json:"records"`
	Step    int      `json:"step"`
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	db := newTestDB(t)

	in := checkpoint{Records: []string{"INC1", "INC2"}, Step: 2}
	if err := Save(db, "entry_activities", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out checkpoint
	if !Load(db, "entry_activities", &out) {
		t.Fatal("expected load to hit")
	}
	if out.Step != 2 || len(out.Records) != 2 || out.Records[1] != "INC2" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadMissingKeepsDefault(t *testing.T) {
	db := newTestDB(t)

	out := checkpoint{Step: 7}
	if Load(db, "absent", &out) {
		t.Fatal("expected miss for absent slot")
	}
	if out.Step != 7 {
		t.Fatalf("default must survive a miss, got %+v", out)
	}
}

func TestLoadCorruptValueFallsBack(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Exec(`INSERT INTO slots (key, value) VALUES ('bad', '{not json')`); err != nil {
		t.Fatalf("seed corrupt slot: %v", err)
	}

	out := checkpoint{Step: 3}
	if Load(db, "bad", &out) {
		t.Fatal("corrupt slot must read as a miss")
	}
	if out.Step != 3 {
		t.Fatalf("default must survive corruption, got %+v", out)
	}

	// A later save repairs the slot.
	if err := Save(db, "bad", checkpoint{Step: 1}); err != nil {
		t.Fatalf("save over corrupt slot: %v", err)
	}
	var repaired checkpoint
	if !Load(db, "bad", &repaired) || repaired.Step != 1 {
		t.Fatalf("expected repaired slot, got %+v", repaired)
	}
}

func TestSaveOverwrites(t *testing.T) {
	db := newTestDB(t)

	if err := Save(db, "k", checkpoint{Step: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Save(db, "k", checkpoint{Step: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var out checkpoint
	if !Load(db, "k", &out) || out.Step != 2 {
		t.Fatalf("expected last write to win, got %+v", out)
	}
}

func TestClearAndClearAll(t *testing.T) {
	db := newTestDB(t)

	for _, key := range []string{"entry_activities", "entry_currentStep", "review_activities"} {
		if err := Save(db, key, checkpoint{Step: 1}); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	if err := Clear(db, "entry_currentStep"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var out checkpoint
	if Load(db, "entry_currentStep", &out) {
		t.Fatal("cleared slot must miss")
	}

	if err := ClearAll(db, "entry_"); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if Load(db, "entry_activities", &out) {
		t.Fatal("prefix-cleared slot must miss")
	}
	if !Load(db, "review_activities", &out) {
		t.Fatal("other prefixes must survive ClearAll")
	}
}

func TestSnapshotHistory(t *testing.T) {
	db := newTestDB(t)

	for _, rec := range []SnapshotRecord{
		{Year: "2025", Month: "7", Owner: "Payments", FilePath: "/tmp/a.txt"},
		{Year: "2026", Month: "", Owner: "", FilePath: "/tmp/b.txt"},
	} {
		if err := InsertSnapshot(db, rec); err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
	}

	got, err := RecentSnapshots(db, 10)
	if err != nil {
		t.Fatalf("recent snapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].FilePath != "/tmp/b.txt" {
		t.Fatalf("expected newest first, got %+v", got[0])
	}
	if got[1].Year != "2025" || got[1].Month != "7" {
		t.Fatalf("unexpected snapshot row: %+v", got[1])
	}
}
