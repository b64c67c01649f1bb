// Package position owns the lifecycle of open futures positions: entry
// sizing, stop/target management, partial profit-taking, trailing, and exit.
package position

import (
	"sync"
	"time"
)

// Side of an open position.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Phase is the lifecycle state of a position. A position may exit straight
// from Open; PartialClosed and Trailing are reached only through the partial
// target.
type Phase int

const (
	PhaseOpen Phase = iota
	PhasePartialClosed
	PhaseTrailing
)

func (p Phase) String() string {
	switch p {
	case PhasePartialClosed:
		return "partial_closed"
	case PhaseTrailing:
		return "trailing"
	default:
		return "open"
	}
}

// Trail carries the state meaningful only after a partial close: the most
// favorable price seen and the ATR stop computed from it.
type Trail struct {
	Reference float64
	Stop      float64
}

// Position is the central mutable entity, created on entry order acceptance
// and mutated exclusively by the owning Manager. Size is in native units.
type Position struct {
	Symbol       string
	Side         Side
	Size         float64
	OriginalSize float64
	EntryPrice   float64
	EntryTime    time.Time
	Stop         float64
	Target       float64
	Confidence   float64

	Phase      Phase
	PartialPnL float64
	Trail      Trail
}

// favorable reports whether b is a better price than a for this side.
func (p *Position) favorable(a, b float64) bool {
	if p.Side == Long {
		return b > a
	}
	return b < a
}

// Book holds at most one Position per instrument.
type Book struct {
	mu        sync.Mutex
	positions map[string]*Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]*Position)}
}

func (b *Book) Get(symbol string) (*Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	return p, ok
}

func (b *Book) Set(p *Position) {
	b.mu.Lock()
	b.positions[p.Symbol] = p
	b.mu.Unlock()
}

func (b *Book) Remove(symbol string) {
	b.mu.Lock()
	delete(b.positions, symbol)
	b.mu.Unlock()
}

func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// Symbols returns the instruments with an open position.
func (b *Book) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.positions))
	for s := range b.positions {
		out = append(out, s)
	}
	return out
}
