// Package risk holds the guard-rails applied before any entry order.
package risk

// Limits caps per-trade size and daily damage. Zero values disable a limit.
type Limits struct {
	MaxNotionalPerTrade float64
	MaxDailyLoss        float64
	KillSwitchDrawdown  float64
}

// AllowEntry reports whether a new entry of the given notional is permitted
// given today's realized PnL.
func (l Limits) AllowEntry(notional, dailyPnL float64) bool {
	if l.MaxNotionalPerTrade > 0 && notional > l.MaxNotionalPerTrade {
		return false
	}
	if l.MaxDailyLoss > 0 && -dailyPnL >= l.MaxDailyLoss {
		return false
	}
	return true
}

// KillSwitch reports whether the account drawdown from its daily starting
// balance demands an immediate liquidate-and-halt.
func (l Limits) KillSwitch(startBalance, balance float64) bool {
	if l.KillSwitchDrawdown <= 0 || startBalance <= 0 {
		return false
	}
	return (startBalance-balance)/startBalance >= l.KillSwitchDrawdown
}
