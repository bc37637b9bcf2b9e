package eventlog

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoHistory is returned by history queries when no SQLite database
// is configured.
var ErrNoHistory = errors.New("eventlog: no sqlite history configured")

// Log fans events out to every sink and keeps the most recent in memory.
// Event times never go backwards within one Log.
type Log struct {
	session string
	logger  *slog.Logger
	history *SQLite // Also in sinks; nil without sqlite_path

	mu     sync.Mutex
	sinks  []Sink
	recent []Event
	size   int
	last   time.Time
	count  int
}

// New creates a log with a fresh session id.
func New(recent int, logger *slog.Logger, sinks ...Sink) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		session: uuid.NewString(),
		logger:  logger,
		sinks:   sinks,
		size:    recent,
	}
}

// Open builds a log from cfg, opening the configured sinks.
func Open(cfg Config, logger *slog.Logger) (*Log, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sinks []Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if cfg.CSVPath != "" {
		c, err := NewCSV(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, c)
	}
	var history *SQLite
	if cfg.SQLitePath != "" {
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s)
		history = s
	}

	l := New(cfg.Recent, logger, sinks...)
	l.history = history
	return l, nil
}

// AddSink attaches another sink. Only events written afterwards reach it.
func (l *Log) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Session returns this run's id.
func (l *Log) Session() string {
	return l.session
}

// Record logs an event without a duration.
func (l *Log) Record(now time.Time, name string) error {
	return l.Write(Event{Time: now, Name: name})
}

// RecordDuration logs an event with a duration.
func (l *Log) RecordDuration(now time.Time, name string, d time.Duration) error {
	return l.Write(Event{Time: now, Name: name, Duration: d, HasDuration: true})
}

// Write stamps e with the session and sends it to every sink.
// A failing sink does not stop the others; all errors are joined.
func (l *Log) Write(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Session = l.session
	if e.Time.Before(l.last) {
		e.Time = l.last
	}
	l.last = e.Time
	l.count++

	if l.size > 0 {
		l.recent = append(l.recent, e)
		if len(l.recent) > l.size {
			l.recent = l.recent[len(l.recent)-l.size:]
		}
	}

	var errs []error
	for _, s := range l.sinks {
		if err := s.Write(e); err != nil {
			errs = append(errs, err)
		}
	}

	l.logger.Info("event", "name", e.Name, "duration", e.DurationText())

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("eventlog: %w", err)
	}
	return nil
}

// Recent returns up to n newest events, oldest first.
func (l *Log) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.recent) {
		n = len(l.recent)
	}
	out := make([]Event, n)
	copy(out, l.recent[len(l.recent)-n:])
	return out
}

// Sessions lists the sessions stored in the history database, newest first.
func (l *Log) Sessions() ([]string, error) {
	if l.history == nil {
		return nil, ErrNoHistory
	}
	return l.history.Sessions()
}

// History returns every stored event of a session in time order.
// An empty session means the current run.
func (l *Log) History(session string) ([]Event, error) {
	if l.history == nil {
		return nil, ErrNoHistory
	}
	if session == "" {
		session = l.session
	}
	return l.history.Events(session)
}

// Count returns how many events were written.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close closes every sink.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.sinks = nil
	return errors.Join(errs...)
}
