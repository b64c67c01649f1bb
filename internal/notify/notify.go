// Package notify delivers best-effort trade event alerts. Delivery failures
// are logged and counted, never propagated into trading logic.
package notify

import "scalpbot-go/internal/journal"

// Event kinds carried by a Notifier. All methods are fire-and-forget.
type Notifier interface {
	PositionOpened(symbol, side string, size, entry, stop, target, confidence float64)
	PositionPartiallyClosed(symbol string, closedSize, price, realizedPnL float64)
	PositionClosed(trade journal.Trade)
	SignalDetected(symbol, direction string, confidence, price float64, reason string)
	DailySummary(trades, wins int, pnl float64)
	ErrorAlert(context string, err error)
}

// Noop drops every event.
type Noop struct{}

func (Noop) PositionOpened(string, string, float64, float64, float64, float64, float64) {}
func (Noop) PositionPartiallyClosed(string, float64, float64, float64)                  {}
func (Noop) PositionClosed(journal.Trade)                                               {}
func (Noop) SignalDetected(string, string, float64, float64, string)                    {}
func (Noop) DailySummary(int, int, float64)                                             {}
func (Noop) ErrorAlert(string, error)                                                   {}
