// Package checkpoint records what a bootstrap run has created so a later run
// can pick up where it stopped.
package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
)

// Entry marks one completed step. Key distinguishes repeated steps, e.g. the ticker.
type Entry struct {
	Step    string           `json:"step"`
	Key     string           `json:"key,omitempty"`
	Address solana.PublicKey `json:"address"`
	Nonce   uint8            `json:"nonce,omitempty"`
	At      time.Time        `json:"at"`
}

// Store is the journal contract the orchestrator depends on.
type Store interface {
	Record(Entry) error
	Lookup(step, key string) (Entry, bool)
	Entries() []Entry
	Close() error
}

func index(step, key string) string { return step + "/" + key }

// Journal appends entries as JSON lines and keeps an index of the latest entry per step.
type Journal struct {
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	entries []Entry
	latest  map[string]Entry
}

// Open loads an existing journal at path, creating it if needed. New entries are appended.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	j := &Journal{file: file, enc: json.NewEncoder(file), latest: make(map[string]Entry)}
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			file.Close()
			return nil, fmt.Errorf("checkpoint %s line %d: %w", path, line, err)
		}
		j.add(e)
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, err
	}
	return j, nil
}

// Create starts an empty journal at path, discarding any previous run.
func Create(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, err
	}
	return Open(path)
}

func (j *Journal) add(e Entry) {
	j.entries = append(j.entries, e)
	j.latest[index(e.Step, e.Key)] = e
}

// Record writes e and syncs it to disk before returning.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return os.ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := j.enc.Encode(e); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	j.add(e)
	return nil
}

func (j *Journal) Lookup(step, key string) (Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.latest[index(step, key)]
	return e, ok
}

func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Close flushes and closes the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
