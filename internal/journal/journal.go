// Package journal records closed trades for later analysis.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Trade is one completed round trip, written when a position closes.
type Trade struct {
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	Size        float64   `json:"size"`
	PartialPnL  float64   `json:"partial_pnl"`
	TotalPnL    float64   `json:"total_pnl"`
	Reason      string    `json:"reason"`
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at"`
	HoldSeconds float64   `json:"hold_seconds"`
}

// Recorder captures trades for later inspection.
type Recorder interface {
	Record(trade Trade)
}

// Ledger stores trades in memory, for tests and the backtester.
type Ledger struct {
	mu     sync.Mutex
	trades []Trade
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{trades: make([]Trade, 0, capacity)}
}

// Record appends a trade to the ledger.
func (l *Ledger) Record(trade Trade) {
	l.mu.Lock()
	l.trades = append(l.trades, trade)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded trades.
func (l *Ledger) Snapshot() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Reset clears all stored trades.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.trades = l.trades[:0]
	l.mu.Unlock()
}

// JSONLRecorder appends trades as JSON lines.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a single trade to the underlying JSONL file.
func (r *JSONLRecorder) Record(trade Trade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return
	}
	_ = r.enc.Encode(trade)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.enc = nil
	return err
}
