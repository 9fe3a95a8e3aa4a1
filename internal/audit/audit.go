// Package audit persists an append-only record of every dispatched show/clear
// command for broadcast compliance review, backed by a pure-Go SQLite driver
// the same way the teacher's Plex DVR registration opens its database.
package audit

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one dispatched show/clear event.
type Record struct {
	ID        int64
	TsUnixMs  int64
	Kind      string // "show" | "clear"
	Lines     []string
	SegStartS float64
	SegEndS   float64
}

func nowUnixMs() int64 { return time.Now().UnixMilli() }

// Log is a SQLite-backed append-only dispatch log. A nil *Log is safe to call
// Record/History on: both become no-ops, mirroring how the teacher treats an
// unset CatalogPath as non-fatal rather than requiring callers to nil-check.
type Log struct {
	db *sql.DB
}

// Open creates (if needed) and opens the dispatch log at path. An empty path
// disables the log: Open returns (nil, nil).
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS dispatch_log (
		id INTEGER PRIMARY KEY,
		ts_unix_ms INTEGER NOT NULL,
		kind TEXT NOT NULL,
		lines TEXT NOT NULL,
		seg_start_s REAL NOT NULL,
		seg_end_s REAL NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dispatch_log: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database handle. Safe to call on a nil *Log.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends one dispatch event. Failures are logged, not returned: a
// slow or broken audit write must never affect playback.
func (l *Log) Record(kind string, lines []string, segStart, segEnd float64) {
	if l == nil || l.db == nil {
		return
	}
	joined := joinLines(lines)
	_, err := l.db.Exec(
		`INSERT INTO dispatch_log (ts_unix_ms, kind, lines, seg_start_s, seg_end_s) VALUES (?, ?, ?, ?, ?)`,
		nowUnixMs(), kind, joined, segStart, segEnd,
	)
	if err != nil {
		log.Printf("audit: insert failed: %v", err)
	}
}

// History returns the last limit records, newest first. Returns nil (no
// error) on a nil *Log.
func (l *Log) History(limit int) ([]Record, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	rows, err := l.db.Query(
		`SELECT id, ts_unix_ms, kind, lines, seg_start_s, seg_end_s FROM dispatch_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query dispatch_log: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var joined string
		if err := rows.Scan(&r.ID, &r.TsUnixMs, &r.Kind, &joined, &r.SegStartS, &r.SegEndS); err != nil {
			return nil, fmt.Errorf("scan dispatch_log row: %w", err)
		}
		r.Lines = splitLines(joined)
		out = append(out, r)
	}
	return out, rows.Err()
}

const lineSeparator = "\x1f"

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += lineSeparator
		}
		out += l
	}
	return out
}

func splitLines(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(joined); i++ {
		if joined[i:i+1] == lineSeparator {
			out = append(out, joined[start:i])
			start = i + 1
		}
	}
	out = append(out, joined[start:])
	return out
}
