package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		at REAL NOT NULL,
		name TEXT NOT NULL,
		duration REAL
	);
	CREATE INDEX IF NOT EXISTS events_session ON events(session, at);
`

// SQLite stores events in an events table, one session per run.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Write inserts one event.
func (s *SQLite) Write(e Event) error {
	var dur sql.NullFloat64
	if e.HasDuration {
		dur = sql.NullFloat64{Float64: e.Duration.Seconds(), Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO events (session, at, name, duration) VALUES (?, ?, ?, ?)`,
		e.Session, unixSeconds(e.Time), e.Name, dur)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns a session's events in time order.
func (s *SQLite) Events(session string) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT session, at, name, duration
		FROM events
		WHERE session = ?
		ORDER BY at ASC, id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var at float64
		var dur sql.NullFloat64
		if err := rows.Scan(&e.Session, &at, &e.Name, &dur); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Time = timeFromUnix(at)
		if dur.Valid {
			e.HasDuration = true
			e.Duration = time.Duration(dur.Float64 * float64(time.Second))
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Sessions returns session ids, newest first.
func (s *SQLite) Sessions() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT session FROM events
		GROUP BY session
		ORDER BY MIN(at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
