package state

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Health describes the recent outcome of one poll stream.
type Health struct {
	LastAttempt         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the stream has failed for multiple cycles.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Snapshot is a copy of every stream's health at one point in time.
type Snapshot struct {
	Streams map[string]Health
}

// Stream returns the health of the named stream; the zero Health when the
// stream has not reported yet.
func (s Snapshot) Stream(name string) Health {
	return s.Streams[name]
}

// Names returns the reporting streams in lexical order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Streams))
	for name := range s.Streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store coordinates health reports from poll streams and reads from the UI.
// The zero value is ready to use.
type Store struct {
	mu      sync.RWMutex
	streams map[string]Health
	now     func() time.Time
}

// Record stores the outcome of one cycle of the named stream. A nil err marks
// success and resets the failure count; otherwise the previous success time
// is kept and the error recorded.
func (s *Store) Record(stream string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streams == nil {
		s.streams = make(map[string]Health)
	}
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}

	h := s.streams[stream]
	h.LastAttempt = now
	if err != nil {
		h.LastError = err
		h.ConsecutiveFailures++
	} else {
		h.LastError = nil
		h.LastSuccess = now
		h.ConsecutiveFailures = 0
	}
	s.streams[stream] = h
}

// Snapshot returns a copy of the current health of all streams.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Streams: make(map[string]Health, len(s.streams))}
	for name, h := range s.streams {
		if h.LastError != nil {
			h.LastError = fmt.Errorf("%w", h.LastError)
		}
		snap.Streams[name] = h
	}
	return snap
}
