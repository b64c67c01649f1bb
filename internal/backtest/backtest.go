// Package backtest replays a historical candle series through the live
// signal and position pipeline against an in-memory venue.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"scalpbot-go/internal/contract"
	"scalpbot-go/internal/exchange"
	"scalpbot-go/internal/journal"
	"scalpbot-go/internal/market"
	"scalpbot-go/internal/notify"
	"scalpbot-go/internal/position"
	"scalpbot-go/internal/risk"
	"scalpbot-go/internal/strategy"
)

// Config drives one single-instrument replay.
type Config struct {
	Symbol    string
	Warmup    int
	Balance   float64
	HTFBucket int // HTF bucket size in lower-timeframe candles
	Composer  strategy.ComposerConfig
	Position  position.Config
	Limits    risk.Limits
}

// DefaultConfig mirrors the live defaults.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:    symbol,
		Warmup:    30,
		Balance:   1000,
		HTFBucket: 15,
		Composer:  strategy.DefaultComposerConfig(),
		Position:  position.DefaultConfig(),
	}
}

// Report summarizes a replay.
type Report struct {
	Trades      int
	Wins        int
	WinRate     float64
	TotalPnL    float64
	MaxDrawdown float64
}

// Run replays the series candle by candle. Orders fill at the close of the
// candle that triggered them.
func Run(cfg Config, series market.Series, log zerolog.Logger) (Report, []journal.Trade, error) {
	if cfg.Symbol == "" {
		return Report{}, nil, fmt.Errorf("backtest: symbol is required")
	}
	if cfg.Warmup < 1 {
		cfg.Warmup = 30
	}
	if len(series) <= cfg.Warmup {
		return Report{}, nil, fmt.Errorf("backtest: need more than %d candles, have %d", cfg.Warmup, len(series))
	}

	ctx := context.Background()
	stub := exchange.NewStub(cfg.Balance)
	resolver := contract.NewResolver(contract.NewMemoryStore(), stub, log)
	ledger := journal.NewLedger(64)
	manager := position.NewManager(cfg.Position, stub, resolver, cfg.Limits, ledger, notify.Noop{}, log)
	composer := strategy.NewComposer(cfg.Composer)

	htf := time.Duration(cfg.HTFBucket) * interval(series)
	realized := 0.0

	for i := cfg.Warmup; i < len(series); i++ {
		window := series[:i+1]
		price := window.LastClose()
		now := series[i].Time
		stub.SetPrice(cfg.Symbol, price)

		if _, open := manager.Book().Get(cfg.Symbol); open {
			trade, err := manager.Tick(ctx, cfg.Symbol, window, price, now)
			if err != nil {
				return Report{}, nil, err
			}
			if trade != nil {
				realized += trade.TotalPnL
			}
			continue
		}

		sig := composer.Evaluate(cfg.Symbol, window, now)
		if sig.Direction == strategy.Hold {
			continue
		}
		trend := strategy.HTFTrend(market.Resample(window, htf))
		if !composer.Aligned(sig, trend) {
			continue
		}
		if _, err := manager.TryOpen(ctx, sig, window, 1, cfg.Balance+realized, realized, now); err != nil {
			return Report{}, nil, err
		}
	}

	// liquidate any runner at the final close
	last := series[len(series)-1]
	stub.SetPrice(cfg.Symbol, last.Close)
	manager.CloseAll(ctx, "backtest-end", last.Time)

	trades := ledger.Snapshot()
	return summarize(trades), trades, nil
}

// interval infers the candle spacing from the first two candles.
func interval(series market.Series) time.Duration {
	if len(series) < 2 {
		return time.Minute
	}
	d := series[1].Time.Sub(series[0].Time)
	if d <= 0 {
		return time.Minute
	}
	return d
}

func summarize(trades []journal.Trade) Report {
	var r Report
	equity, peak := 0.0, 0.0
	for _, t := range trades {
		r.Trades++
		if t.TotalPnL > 0 {
			r.Wins++
		}
		r.TotalPnL += t.TotalPnL
		equity += t.TotalPnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > r.MaxDrawdown {
			r.MaxDrawdown = dd
		}
	}
	if r.Trades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Trades)
	}
	return r
}
