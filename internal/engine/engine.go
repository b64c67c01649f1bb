// Package engine drives the trading loop: one sequential pass over the
// tracked instruments per cycle, with coarser universe refresh, position
// reconciliation, and daily accounting on top.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scalpbot-go/internal/exchange"
	"scalpbot-go/internal/journal"
	"scalpbot-go/internal/market"
	"scalpbot-go/internal/metrics"
	"scalpbot-go/internal/notify"
	"scalpbot-go/internal/position"
	"scalpbot-go/internal/risk"
	"scalpbot-go/internal/strategy"
)

// Config tunes the scheduler cadence.
type Config struct {
	Interval        string
	HTFBucket       time.Duration
	CandleLimit     int
	Cycle           time.Duration
	SymbolDelay     time.Duration
	Freshness       time.Duration
	UniverseRefresh time.Duration
	ReconcileEvery  time.Duration
	UniverseSize    int
	Leverage        int
	Symbols         []string
}

// DefaultConfig returns the live cadence.
func DefaultConfig() Config {
	return Config{
		Interval:        "1m",
		HTFBucket:       15 * time.Minute,
		CandleLimit:     100,
		Cycle:           5 * time.Second,
		SymbolDelay:     100 * time.Millisecond,
		Freshness:       30 * time.Second,
		UniverseRefresh: time.Hour,
		ReconcileEvery:  5 * time.Minute,
		UniverseSize:    15,
		Leverage:        20,
	}
}

type symbolData struct {
	series    market.Series
	fetchedAt time.Time
}

type dailyStats struct {
	day          time.Time
	trades       int
	wins         int
	pnl          float64
	startBalance float64
}

// Engine owns the scheduling loop. All trading state is mutated only from
// RunCycle, which runs on a single goroutine.
type Engine struct {
	cfg      Config
	gw       exchange.Gateway
	composer *strategy.Composer
	manager  *position.Manager
	notifier notify.Notifier
	limits   risk.Limits
	clock    Clock
	log      zerolog.Logger

	symbols       []string
	history       int
	data          map[string]*symbolData
	daily         dailyStats
	lastUniverse  time.Time
	lastReconcile time.Time
	halted        bool
}

func New(cfg Config, gw exchange.Gateway, composer *strategy.Composer, manager *position.Manager, limits risk.Limits, notifier notify.Notifier, clock Clock, log zerolog.Logger) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	// the cached history must span enough resample buckets for the HTF
	// trend, not just the evaluation window
	history := cfg.CandleLimit
	if ltf, err := time.ParseDuration(cfg.Interval); err == nil && ltf > 0 && cfg.HTFBucket > ltf {
		if need := strategy.TrendDepth * int(cfg.HTFBucket/ltf); need > history {
			history = need
		}
	}
	return &Engine{
		cfg:      cfg,
		gw:       gw,
		composer: composer,
		manager:  manager,
		notifier: notifier,
		limits:   limits,
		clock:    clock,
		log:      log.With().Str("component", "engine").Logger(),
		symbols:  append([]string(nil), cfg.Symbols...),
		history:  history,
		data:     make(map[string]*symbolData),
	}
}

// Symbols returns the currently tracked instrument set.
func (e *Engine) Symbols() []string {
	return append([]string(nil), e.symbols...)
}

// Run executes cycles until the context ends, then liquidates everything and
// emits a final summary. The context is the cooperative stop flag; in-flight
// venue calls are never cancelled mid-cycle.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Strs("symbols", e.symbols).Dur("cycle", e.cfg.Cycle).Msg("engine started")
	for ctx.Err() == nil && !e.halted {
		e.RunCycle(ctx)
		e.clock.Sleep(ctx, e.cfg.Cycle)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	trades := e.manager.CloseAll(shutdownCtx, "shutdown", e.clock.Now())
	for _, tr := range trades {
		e.recordTrade(tr)
	}
	e.notifier.DailySummary(e.daily.trades, e.daily.wins, e.daily.pnl)
	e.log.Info().Int("trades", e.daily.trades).Float64("pnl", e.daily.pnl).Msg("engine stopped")
	return ctx.Err()
}

// RunCycle performs one full pass: daily rollover, universe refresh,
// reconciliation, then the sequential per-symbol evaluation.
func (e *Engine) RunCycle(ctx context.Context) {
	now := e.clock.Now()
	e.rolloverDaily(now)

	if e.cfg.UniverseSize > 0 && (e.lastUniverse.IsZero() || now.Sub(e.lastUniverse) >= e.cfg.UniverseRefresh) {
		e.refreshUniverse(ctx, now)
	}
	if e.cfg.ReconcileEvery > 0 && !e.lastReconcile.IsZero() && now.Sub(e.lastReconcile) >= e.cfg.ReconcileEvery {
		e.reconcile(ctx)
		e.lastReconcile = now
	} else if e.lastReconcile.IsZero() {
		e.lastReconcile = now
	}

	balance, err := e.gw.Balance(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("balance fetch failed, skipping cycle")
		return
	}
	if e.daily.startBalance == 0 {
		e.daily.startBalance = balance
	}
	if e.limits.KillSwitch(e.daily.startBalance, balance) {
		e.log.Error().Float64("start", e.daily.startBalance).Float64("balance", balance).Msg("kill switch tripped, liquidating")
		e.notifier.ErrorAlert("kill switch", fmt.Errorf("drawdown from %.2f to %.2f", e.daily.startBalance, balance))
		for _, tr := range e.manager.CloseAll(ctx, "kill-switch", now) {
			e.recordTrade(tr)
		}
		e.halted = true
		return
	}

	for i, symbol := range e.symbols {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			e.clock.Sleep(ctx, e.cfg.SymbolDelay)
		}
		e.evaluateSymbol(ctx, symbol, balance, e.clock.Now())
	}
	metrics.CyclesTotal.Inc()
}

// evaluateSymbol isolates one instrument: any failure or panic here is
// contained so the rest of the cycle proceeds.
func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, balance float64, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("symbol", symbol).Msg("symbol evaluation panicked")
			e.notifier.ErrorAlert("panic "+symbol, fmt.Errorf("%v", r))
		}
	}()

	series, err := e.freshSeries(ctx, symbol, now)
	if err != nil {
		metrics.DataErrorsTotal.WithLabelValues(symbol).Inc()
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("market data unavailable, skipping")
		return
	}
	price := series.LastClose()
	if price <= 0 {
		return
	}

	if _, open := e.manager.Book().Get(symbol); open {
		if trade, err := e.manager.Tick(ctx, symbol, series, price, now); err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("position tick failed")
		} else if trade != nil {
			e.recordTrade(*trade)
		}
		return
	}

	sig := e.composer.Evaluate(symbol, series, now)
	if sig.Direction == strategy.Hold {
		return
	}
	metrics.SignalsTotal.WithLabelValues(symbol, sig.Direction.String()).Inc()
	e.notifier.SignalDetected(symbol, sig.Direction.String(), sig.Confidence, sig.Price, sig.Reason)

	trend := strategy.HTFTrend(market.Resample(series, e.cfg.HTFBucket))
	if !e.composer.Aligned(sig, trend) {
		e.log.Debug().Str("symbol", symbol).Str("trend", trend.String()).Float64("confidence", sig.Confidence).Msg("signal not aligned with trend")
		return
	}
	if !sig.Actionable(e.composer.Config().MinConfidence) {
		return
	}

	pos, err := e.manager.TryOpen(ctx, sig, series, len(e.symbols), balance, e.daily.pnl, now)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("entry failed")
		return
	}
	if pos != nil {
		e.log.Info().Str("symbol", symbol).Str("side", pos.Side.String()).Float64("confidence", sig.Confidence).Msg("entered position")
	}
}

// freshSeries returns the cached series when it is fresh enough, refreshing
// only the live price; otherwise it refetches candles and merges them in.
func (e *Engine) freshSeries(ctx context.Context, symbol string, now time.Time) (market.Series, error) {
	d := e.data[symbol]
	if d != nil && now.Sub(d.fetchedAt) < e.cfg.Freshness {
		price, err := e.gw.LastPrice(ctx, symbol)
		if err != nil || price <= 0 {
			return d.series, nil
		}
		return d.series.WithLastPrice(price), nil
	}

	fresh, err := e.gw.Candles(ctx, symbol, e.cfg.Interval, e.history)
	if err != nil {
		if d != nil {
			// keep trading off the stale cache rather than going blind
			return d.series, nil
		}
		return nil, err
	}
	if d == nil {
		d = &symbolData{}
		e.data[symbol] = d
	}
	d.series = market.Merge(d.series, fresh, e.history)
	d.fetchedAt = now
	return d.series, nil
}

// refreshUniverse re-ranks instruments by volume, closes positions on
// dropped instruments, and applies leverage to new ones (non-fatal).
func (e *Engine) refreshUniverse(ctx context.Context, now time.Time) {
	stats, err := e.gw.TopVolumeSymbols(ctx, e.cfg.UniverseSize)
	if err != nil {
		e.log.Warn().Err(err).Msg("universe refresh failed, keeping current set")
		return
	}
	next := make([]string, 0, len(stats))
	nextSet := make(map[string]bool, len(stats))
	for _, s := range stats {
		next = append(next, s.Symbol)
		nextSet[s.Symbol] = true
	}
	// never drop an instrument we still hold
	for _, symbol := range e.manager.Book().Symbols() {
		if !nextSet[symbol] {
			if trade, err := e.manager.Close(ctx, symbol, "universe-drop", now); err == nil && trade != nil {
				e.recordTrade(*trade)
			}
		}
	}
	current := make(map[string]bool, len(e.symbols))
	for _, s := range e.symbols {
		current[s] = true
	}
	for _, symbol := range next {
		if current[symbol] {
			continue
		}
		if err := e.gw.SetLeverage(ctx, symbol, e.cfg.Leverage); err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("set leverage failed, proceeding with venue default")
		}
	}
	e.symbols = next
	e.lastUniverse = now
	e.log.Info().Strs("symbols", next).Msg("universe refreshed")
}

// reconcile drops any local position the venue no longer reports.
func (e *Engine) reconcile(ctx context.Context) {
	remote, err := e.gw.OpenPositions(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("reconciliation fetch failed")
		return
	}
	held := make(map[string]bool, len(remote))
	for _, p := range remote {
		held[p.Symbol] = true
	}
	for _, symbol := range e.manager.Book().Symbols() {
		if !held[symbol] {
			e.log.Warn().Str("symbol", symbol).Msg("venue does not report local position, dropping")
			e.manager.Drop(symbol)
		}
	}
}

// rolloverDaily resets the counters at the local-midnight boundary and emits
// a one-shot summary for the finished day.
func (e *Engine) rolloverDaily(now time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if e.daily.day.IsZero() {
		e.daily.day = day
		return
	}
	if day.After(e.daily.day) {
		e.notifier.DailySummary(e.daily.trades, e.daily.wins, e.daily.pnl)
		e.log.Info().Int("trades", e.daily.trades).Int("wins", e.daily.wins).Float64("pnl", e.daily.pnl).Msg("daily rollover")
		e.daily = dailyStats{day: day}
	}
}

func (e *Engine) recordTrade(tr journal.Trade) {
	e.daily.trades++
	if tr.TotalPnL > 0 {
		e.daily.wins++
	}
	e.daily.pnl += tr.TotalPnL
}
