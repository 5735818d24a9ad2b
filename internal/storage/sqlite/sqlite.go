// Package sqlite is the local persistence adapter: named JSON slots for
// workflow checkpoints and filter selections, plus dashboard snapshot
// history. Reads always degrade to the caller's default; only writes can
// fail, and those failures are recoverable warnings, not stops.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS dashboard_snapshots (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		year       TEXT NOT NULL,
		month      TEXT DEFAULT '',
		owner      TEXT DEFAULT '',
		file_path  TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON dashboard_snapshots(created_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Load reads a slot into out. A missing slot, unreadable row, or value that
// no longer matches out's shape all leave out untouched and return false:
// a stale or corrupt checkpoint must never block startup, the in-memory
// default wins and the next Save overwrites it.
func Load(db *sql.DB, key string, out any) bool {
	var value string
	err := db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Printf("storage load key=%s err=%v (using default)", key, err)
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		log.Printf("storage load key=%s corrupt value (using default): %v", key, err)
		return false
	}
	return true
}

// Save marshals value into its slot. Errors are logged and returned so the
// caller can warn that the checkpoint was not persisted and carry on.
func Save(db *sql.DB, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("storage save key=%s marshal err=%v", key, err)
		return err
	}
	_, err = db.Exec(
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw),
	)
	if err != nil {
		log.Printf("storage save key=%s err=%v", key, err)
	}
	return err
}

func Clear(db *sql.DB, key string) error {
	_, err := db.Exec(`DELETE FROM slots WHERE key = ?`, key)
	return err
}

// ClearAll removes every slot whose key starts with prefix, e.g. all
// checkpoints of one workflow page.
func ClearAll(db *sql.DB, prefix string) error {
	_, err := db.Exec(`DELETE FROM slots WHERE key LIKE ? || '%'`, prefix)
	return err
}

// --- Dashboard snapshot history ---

type SnapshotRecord struct {
	ID        int64
	Year      string
	Month     string
	Owner     string
	FilePath  string
	CreatedAt time.Time
}

func InsertSnapshot(db *sql.DB, rec SnapshotRecord) error {
	_, err := db.Exec(
		`INSERT INTO dashboard_snapshots (year, month, owner, file_path) VALUES (?, ?, ?, ?)`,
		rec.Year, rec.Month, rec.Owner, rec.FilePath,
	)
	return err
}

func RecentSnapshots(db *sql.DB, limit int) ([]SnapshotRecord, error) {
	rows, err := db.Query(
		`SELECT id, year, month, owner, file_path, created_at
		 FROM dashboard_snapshots ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.Year, &rec.Month, &rec.Owner, &rec.FilePath, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
