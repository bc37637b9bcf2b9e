package alarm

import (
	"context"
	"io"
	"sync"
)

// Mock is an in-memory alarm for tests.
type Mock struct {
	mu      sync.Mutex
	playing bool
	closed  bool
	starts  int
	stops   int
}

// NewMock creates a silent mock alarm.
func NewMock() *Mock {
	return &Mock{}
}

// Start marks the alarm playing and counts the call.
func (m *Mock) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	if !m.playing {
		m.starts++
	}
	m.playing = true
	return nil
}

// Stop marks the alarm silent and counts the call.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing {
		m.stops++
	}
	m.playing = false
	return nil
}

// IsPlaying reports the current state.
func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Close stops and rejects further starts.
func (m *Mock) Close() error {
	m.Stop()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Counts returns how many times the alarm actually started and stopped.
func (m *Mock) Counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

// silent keeps the playing flag so status still reflects the alarm.
type silent struct {
	mu      sync.Mutex
	playing bool
}

func (s *silent) Start(context.Context) error {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	return nil
}

func (s *silent) Stop() error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

func (s *silent) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *silent) Close() error { return s.Stop() }
