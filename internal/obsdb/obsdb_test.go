package obsdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_app TEXT,
		session_id TEXT,
		event_type TEXT,
		summary TEXT,
		timestamp TEXT
	)`)
	require.NoError(t, err)

	for _, row := range [][]string{
		{"demo", "s1", "PreToolUse", "Bash: ls", "2026-08-29T09:00:00Z"},
		{"demo", "s1", "PostToolUse", "Bash finished", "2026-08-29T09:00:01Z"},
		{"demo", "s2", "Stop", "", "2026-08-29 09:05:00"},
	} {
		_, err = db.Exec(
			`INSERT INTO events (source_app, session_id, event_type, summary, timestamp) VALUES (?, ?, ?, ?, ?)`,
			row[0], row[1], row[2], row[3], row[4])
		require.NoError(t, err)
	}
	return path
}

func TestRecentEventsNewestFirst(t *testing.T) {
	events, err := RecentEvents(seedDB(t), 10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Stop", events[0].EventType)
	assert.Equal(t, "PreToolUse", events[2].EventType)
	assert.Equal(t, 2026, events[0].Timestamp.Year())
	assert.Equal(t, time.August, events[2].Timestamp.Month())
}

func TestRecentEventsLimit(t *testing.T) {
	events, err := RecentEvents(seedDB(t), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRecentEventsMissingDB(t *testing.T) {
	events, err := RecentEvents(filepath.Join(t.TempDir(), "nope.db"), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/p", ".claude", "observability", "events.db"), DefaultPath("/p"))
}

func TestParseTimestamp(t *testing.T) {
	assert.False(t, parseTimestamp("2026-08-29T09:00:00Z").IsZero())
	assert.False(t, parseTimestamp("2026-08-29 09:00:00").IsZero())
	assert.True(t, parseTimestamp("yesterday").IsZero())
}
