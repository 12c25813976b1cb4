package checkpoint

import (
	"sync"
	"time"
)

// Memory keeps entries in process only. Used for sandbox runs and tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty store optionally pre-sizing storage.
func NewMemory(capacity int) *Memory {
	if capacity < 0 {
		capacity = 0
	}
	return &Memory{entries: make([]Entry, 0, capacity)}
}

func (m *Memory) Record(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

// Lookup returns the most recent entry for step and key.
func (m *Memory) Lookup(step, key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Step == step && m.entries[i].Key == key {
			return m.entries[i], true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the recorded entries.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Reset clears all stored entries.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = m.entries[:0]
	m.mu.Unlock()
}

func (m *Memory) Close() error { return nil }
