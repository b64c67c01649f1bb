package position

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"scalpbot-go/internal/contract"
	"scalpbot-go/internal/exchange"
	"scalpbot-go/internal/indicator"
	"scalpbot-go/internal/journal"
	"scalpbot-go/internal/market"
	"scalpbot-go/internal/metrics"
	"scalpbot-go/internal/notify"
	"scalpbot-go/internal/risk"
	"scalpbot-go/internal/strategy"
)

// stopFallbackPct is the stop/target band applied when ATR is unavailable.
const stopFallbackPct = 0.003

// Config tunes entry sizing and the exit state machine.
type Config struct {
	Leverage        int
	Allocation      float64
	MaxPositions    int
	StopATRMult     float64
	TargetATRMult   float64
	PartialFraction float64
	TimeLimit       time.Duration
	ATRPeriod       int
	RSIPeriod       int
}

// DefaultConfig returns the validated scalping defaults.
func DefaultConfig() Config {
	return Config{
		Leverage:        20,
		Allocation:      0.5,
		MaxPositions:    3,
		StopATRMult:     2.0,
		TargetATRMult:   4.0,
		PartialFraction: 0.5,
		TimeLimit:       10 * time.Minute,
		ATRPeriod:       14,
		RSIPeriod:       14,
	}
}

// Manager drives every position through its lifecycle. All mutation of the
// Book happens from the scheduler's sequential cycle.
type Manager struct {
	cfg      Config
	gw       exchange.Gateway
	resolver *contract.Resolver
	book     *Book
	limits   risk.Limits
	journal  journal.Recorder
	notifier notify.Notifier
	log      zerolog.Logger
}

func NewManager(cfg Config, gw exchange.Gateway, resolver *contract.Resolver, limits risk.Limits, rec journal.Recorder, notifier notify.Notifier, log zerolog.Logger) *Manager {
	if cfg.PartialFraction <= 0 || cfg.PartialFraction >= 1 {
		cfg.PartialFraction = 0.5
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Manager{
		cfg:      cfg,
		gw:       gw,
		resolver: resolver,
		book:     NewBook(),
		limits:   limits,
		journal:  rec,
		notifier: notifier,
		log:      log.With().Str("component", "position").Logger(),
	}
}

// Book exposes the open-position set for the scheduler and reconciliation.
func (m *Manager) Book() *Book { return m.book }

// TryOpen sizes and submits an entry for an actionable signal. It is a no-op
// when a position already exists for the instrument. On order failure no
// state is mutated.
func (m *Manager) TryOpen(ctx context.Context, sig strategy.Signal, series market.Series, trackedCount int, balance, dailyPnL float64, now time.Time) (*Position, error) {
	if _, exists := m.book.Get(sig.Symbol); exists {
		return nil, nil
	}
	if sig.Direction == strategy.Hold || sig.Price <= 0 || trackedCount <= 0 {
		return nil, nil
	}
	if m.cfg.MaxPositions > 0 && m.book.Len() >= m.cfg.MaxPositions {
		m.log.Debug().Str("symbol", sig.Symbol).Int("open", m.book.Len()).Msg("position cap reached")
		return nil, nil
	}

	margin := balance * m.cfg.Allocation / float64(trackedCount)
	notional := margin * float64(m.cfg.Leverage)
	if !m.limits.AllowEntry(notional, dailyPnL) {
		m.log.Debug().Str("symbol", sig.Symbol).Float64("notional", notional).Msg("entry blocked by risk limits")
		return nil, nil
	}
	baseQty := notional / sig.Price
	if baseQty <= 0 {
		return nil, nil
	}
	native := m.resolver.ToNative(ctx, sig.Symbol, baseQty)
	if native < 1 {
		native = 1
	}

	side := exchange.SideBuy
	posSide := Long
	if sig.Direction == strategy.Sell {
		side = exchange.SideSell
		posSide = Short
	}
	res, err := m.gw.PlaceOrder(ctx, exchange.OrderRequest{Symbol: sig.Symbol, Side: side, Quantity: native})
	if err != nil {
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(side)).Inc()

	filled := res.FilledQty
	if filled <= 0 {
		filled = native
	}
	m.resolver.Learn(ctx, sig.Symbol, baseQty, filled)

	entry := res.AvgPrice
	if entry <= 0 {
		entry = sig.Price
	}
	stop, target := m.initialBracket(posSide, entry, series)

	pos := &Position{
		Symbol:       sig.Symbol,
		Side:         posSide,
		Size:         filled,
		OriginalSize: filled,
		EntryPrice:   entry,
		EntryTime:    now,
		Stop:         stop,
		Target:       target,
		Confidence:   sig.Confidence,
		Phase:        PhaseOpen,
	}
	m.book.Set(pos)
	metrics.PositionsOpen.Set(float64(m.book.Len()))

	m.log.Info().
		Str("symbol", pos.Symbol).
		Str("side", posSide.String()).
		Float64("size", filled).
		Float64("entry", entry).
		Float64("stop", stop).
		Float64("target", target).
		Msg("position opened")
	m.notifier.PositionOpened(pos.Symbol, posSide.String(), filled, entry, stop, target, sig.Confidence)
	return pos, nil
}

// initialBracket derives the ATR stop and target, falling back to a fixed
// band when the series is too short for an ATR.
func (m *Manager) initialBracket(side Side, entry float64, series market.Series) (stop, target float64) {
	atr, ok := indicator.ATR(series, m.cfg.ATRPeriod)
	if !ok || atr <= 0 {
		band := entry * stopFallbackPct
		if side == Long {
			return entry - band, entry + band
		}
		return entry + band, entry - band
	}
	if side == Long {
		return entry - atr*m.cfg.StopATRMult, entry + atr*m.cfg.TargetATRMult
	}
	return entry + atr*m.cfg.StopATRMult, entry - atr*m.cfg.TargetATRMult
}

// Tick evaluates exit conditions for one open position at the current price.
// It returns the closed trade when the position leaves the book.
func (m *Manager) Tick(ctx context.Context, symbol string, series market.Series, price float64, now time.Time) (*journal.Trade, error) {
	pos, ok := m.book.Get(symbol)
	if !ok || price <= 0 {
		return nil, nil
	}

	// time limit applies in every phase
	if m.cfg.TimeLimit > 0 && now.Sub(pos.EntryTime) >= m.cfg.TimeLimit {
		return m.closePosition(ctx, pos, price, "time-expired", now), nil
	}

	switch pos.Phase {
	case PhaseOpen:
		if m.stopHit(pos, price) {
			return m.closePosition(ctx, pos, price, "stop-loss", now), nil
		}
		if m.targetHit(pos, price) {
			if err := m.partialClose(ctx, pos, price, series); err != nil {
				// partial stays pending; re-evaluated next tick
				m.log.Warn().Err(err).Str("symbol", symbol).Msg("partial close failed")
			}
			return nil, nil
		}
	case PhasePartialClosed, PhaseTrailing:
		m.updateTrail(pos, price, series)
		if m.reversalDetected(pos, series) {
			return m.closePosition(ctx, pos, price, "reversal", now), nil
		}
		effective := m.effectiveStop(pos)
		if (pos.Side == Long && price <= effective) || (pos.Side == Short && price >= effective) {
			reason := "break-even"
			if pos.Phase == PhaseTrailing {
				reason = "trailing-stop"
			}
			return m.closePosition(ctx, pos, price, reason, now), nil
		}
	}
	return nil, nil
}

func (m *Manager) stopHit(pos *Position, price float64) bool {
	if pos.Side == Long {
		return price <= pos.Stop
	}
	return price >= pos.Stop
}

func (m *Manager) targetHit(pos *Position, price float64) bool {
	if pos.Side == Long {
		return price >= pos.Target
	}
	return price <= pos.Target
}

// partialClose realizes profit on part of the original size, moves the stop
// to break-even, and arms the trail off the current price.
func (m *Manager) partialClose(ctx context.Context, pos *Position, price float64, series market.Series) error {
	closeQty := pos.OriginalSize * m.cfg.PartialFraction
	if closeQty < 1 {
		closeQty = 1
	}
	if closeQty > pos.Size {
		closeQty = pos.Size
	}

	res, err := m.gw.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     pos.Symbol,
		Side:       m.exitSide(pos),
		Quantity:   closeQty,
		ReduceOnly: true,
	})
	if err != nil {
		return err
	}
	metrics.OrdersTotal.WithLabelValues(pos.Symbol, string(m.exitSide(pos))).Inc()
	if res.FilledQty > 0 {
		closeQty = res.FilledQty
	}

	realized := m.pnl(ctx, pos, price, closeQty)
	pos.Size -= closeQty
	pos.PartialPnL += realized
	pos.Stop = pos.EntryPrice
	pos.Phase = PhasePartialClosed
	pos.Trail = Trail{Reference: price, Stop: m.trailStop(pos, price, series)}

	m.log.Info().
		Str("symbol", pos.Symbol).
		Float64("closed", closeQty).
		Float64("realized", realized).
		Float64("remaining", pos.Size).
		Msg("partial close, stop moved to break-even")
	m.notifier.PositionPartiallyClosed(pos.Symbol, closeQty, price, realized)
	return nil
}

// updateTrail ratchets the trailing reference on a new favorable extreme and
// promotes the phase once ATR trailing protects more than break-even.
func (m *Manager) updateTrail(pos *Position, price float64, series market.Series) {
	if pos.favorable(pos.Trail.Reference, price) {
		pos.Trail.Reference = price
		// the stop only ever tightens, even when ATR widens between ticks
		if next := m.trailStop(pos, price, series); pos.favorable(pos.Trail.Stop, next) {
			pos.Trail.Stop = next
		}
	}
	if pos.favorable(pos.EntryPrice, pos.Trail.Stop) {
		pos.Phase = PhaseTrailing
	}
}

func (m *Manager) trailStop(pos *Position, ref float64, series market.Series) float64 {
	atr, ok := indicator.ATR(series, m.cfg.ATRPeriod)
	if !ok || atr <= 0 {
		atr = ref * stopFallbackPct
	}
	if pos.Side == Long {
		return ref - atr*m.cfg.StopATRMult
	}
	return ref + atr*m.cfg.StopATRMult
}

// effectiveStop is the more favorable of break-even and the trail stop, so
// the protective level only ever tightens.
func (m *Manager) effectiveStop(pos *Position) float64 {
	be := pos.EntryPrice
	if pos.favorable(be, pos.Trail.Stop) {
		return pos.Trail.Stop
	}
	return be
}

// reversalDetected checks oscillator divergence on the runner: falling from
// overbought while price falls (long), rising from oversold while price
// rises (short).
func (m *Manager) reversalDetected(pos *Position, series market.Series) bool {
	if len(series) < m.cfg.RSIPeriod+2 {
		return false
	}
	closes := series.Closes()
	curRSI, ok1 := indicator.RSI(closes, m.cfg.RSIPeriod)
	prevRSI, ok2 := indicator.RSI(closes[:len(closes)-1], m.cfg.RSIPeriod)
	if !ok1 || !ok2 {
		return false
	}
	price := closes[len(closes)-1]
	prevPrice := closes[len(closes)-2]
	if pos.Side == Long {
		return prevRSI > 70 && curRSI < prevRSI && price < prevPrice
	}
	return prevRSI < 30 && curRSI > prevRSI && price > prevPrice
}

// closePosition liquidates the remaining size. If the order fails the
// position is removed anyway; reconciliation against the venue is the
// backstop for this deliberately optimistic cleanup.
func (m *Manager) closePosition(ctx context.Context, pos *Position, price float64, reason string, now time.Time) *journal.Trade {
	if pos.Size > 0 {
		_, err := m.gw.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:     pos.Symbol,
			Side:       m.exitSide(pos),
			Quantity:   pos.Size,
			ReduceOnly: true,
		})
		if err != nil {
			m.log.Error().Err(err).Str("symbol", pos.Symbol).Msg("exit order failed, dropping position for reconciliation")
			m.notifier.ErrorAlert("exit order "+pos.Symbol, err)
		} else {
			metrics.OrdersTotal.WithLabelValues(pos.Symbol, string(m.exitSide(pos))).Inc()
		}
	}

	total := pos.PartialPnL + m.pnl(ctx, pos, price, pos.Size)
	trade := journal.Trade{
		Symbol:      pos.Symbol,
		Side:        pos.Side.String(),
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   price,
		Size:        pos.OriginalSize,
		PartialPnL:  pos.PartialPnL,
		TotalPnL:    total,
		Reason:      reason,
		OpenedAt:    pos.EntryTime,
		ClosedAt:    now,
		HoldSeconds: now.Sub(pos.EntryTime).Seconds(),
	}

	m.book.Remove(pos.Symbol)
	metrics.PositionsOpen.Set(float64(m.book.Len()))
	metrics.ExitEventsTotal.WithLabelValues(reason).Inc()

	if m.journal != nil {
		m.journal.Record(trade)
	}
	m.log.Info().
		Str("symbol", pos.Symbol).
		Str("reason", reason).
		Float64("pnl", total).
		Msg("position closed")
	m.notifier.PositionClosed(trade)
	return &trade
}

// Close liquidates one position at the venue's current price.
func (m *Manager) Close(ctx context.Context, symbol, reason string, now time.Time) (*journal.Trade, error) {
	pos, ok := m.book.Get(symbol)
	if !ok {
		return nil, nil
	}
	price, err := m.gw.LastPrice(ctx, symbol)
	if err != nil || price <= 0 {
		price = pos.EntryPrice
	}
	return m.closePosition(ctx, pos, price, reason, now), nil
}

// CloseAll liquidates every open position, used on shutdown and kill switch.
func (m *Manager) CloseAll(ctx context.Context, reason string, now time.Time) []journal.Trade {
	var out []journal.Trade
	for _, symbol := range m.book.Symbols() {
		trade, err := m.Close(ctx, symbol, reason, now)
		if err != nil {
			m.log.Warn().Err(err).Str("symbol", symbol).Msg("close failed")
			continue
		}
		if trade != nil {
			out = append(out, *trade)
		}
	}
	return out
}

// Drop removes a position without placing any order, used by reconciliation
// when the venue no longer reports it.
func (m *Manager) Drop(symbol string) {
	m.book.Remove(symbol)
	metrics.PositionsOpen.Set(float64(m.book.Len()))
}

func (m *Manager) exitSide(pos *Position) exchange.Side {
	if pos.Side == Long {
		return exchange.SideSell
	}
	return exchange.SideBuy
}

// pnl converts a native-size price move into quote-currency profit.
func (m *Manager) pnl(ctx context.Context, pos *Position, exit float64, sizeNative float64) float64 {
	factor := m.resolver.Factor(ctx, pos.Symbol)
	if factor <= 0 {
		factor = 1
	}
	move := exit - pos.EntryPrice
	if pos.Side == Short {
		move = -move
	}
	return move * sizeNative * factor
}
