// Package obsdb reads the observability server's event database. The
// panel is a read-only consumer; the event server owns the schema.
package obsdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one hook event recorded by the observability server.
type Event struct {
	ID        int64
	SourceApp string
	SessionID string
	EventType string
	Summary   string
	Timestamp time.Time
}

// DefaultPath returns the event database location under a project root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".claude", "observability", "events.db")
}

// RecentEvents returns up to limit events, newest first. A missing
// database file returns an empty slice, not an error: the server may
// simply never have run.
func RecentEvents(dbPath string, limit int) ([]Event, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT id, source_app, session_id, event_type, COALESCE(summary, ''), timestamp
		FROM events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts string
		if err := rows.Scan(&ev.ID, &ev.SourceApp, &ev.SessionID, &ev.EventType, &ev.Summary, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Timestamp = parseTimestamp(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// parseTimestamp accepts the formats the event server has written over
// time. Unparseable values yield a zero time rather than an error.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
