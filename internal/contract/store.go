// Package contract resolves how many base units one native contract unit of
// an instrument represents, and remembers what it learned across restarts.
package contract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists learned per-symbol contract factors.
type Store interface {
	Get(symbol string) (float64, bool)
	Put(symbol string, factor float64) error
	All() map[string]float64
}

// MemoryStore is a Store without persistence, for tests and backtests.
type MemoryStore struct {
	mu      sync.Mutex
	factors map[string]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{factors: make(map[string]float64)}
}

func (m *MemoryStore) Get(symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.factors[symbol]
	return f, ok
}

func (m *MemoryStore) Put(symbol string, factor float64) error {
	m.mu.Lock()
	m.factors[symbol] = factor
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) All() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.factors))
	for k, v := range m.factors {
		out[k] = v
	}
	return out
}

// FileStore keeps factors in a JSON file, rewritten wholesale on every Put so
// a crash never leaves a half-written map behind the live one.
type FileStore struct {
	mu      sync.Mutex
	path    string
	factors map[string]float64
}

// NewFileStore loads the file if it exists; a missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, factors: make(map[string]float64)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contract store: %w", err)
	}
	if err := json.Unmarshal(data, &fs.factors); err != nil {
		return nil, fmt.Errorf("decode contract store: %w", err)
	}
	return fs, nil
}

func (f *FileStore) Get(symbol string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.factors[symbol]
	return v, ok
}

func (f *FileStore) Put(symbol string, factor float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factors[symbol] = factor
	return f.flushLocked()
}

func (f *FileStore) All() map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.factors))
	for k, v := range f.factors {
		out[k] = v
	}
	return out
}

func (f *FileStore) flushLocked() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("contract store dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(f.factors, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contract store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write contract store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace contract store: %w", err)
	}
	return nil
}
