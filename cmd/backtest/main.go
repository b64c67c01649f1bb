package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"scalpbot-go/internal/backtest"
	"scalpbot-go/internal/config"
	"scalpbot-go/internal/engine"
	"scalpbot-go/internal/exchange"
	"scalpbot-go/internal/risk"
	"scalpbot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	symbol := flag.String("symbol", "BTCUSDT", "instrument to replay")
	limit := flag.Int("limit", 1000, "number of candles to fetch")
	balance := flag.Float64("balance", 1000, "starting balance")
	verbose := flag.Bool("trades", false, "print every trade")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	gw := exchange.NewBinance(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	series, err := gw.Candles(ctx, *symbol, cfg.Trading.Interval, *limit)
	if err != nil {
		log.Fatal().Err(err).Str("symbol", *symbol).Msg("fetch candles")
	}
	log.Info().Int("candles", len(series)).Str("symbol", *symbol).Str("interval", cfg.Trading.Interval).Msg("replaying")

	btCfg := backtest.DefaultConfig(*symbol)
	btCfg.Balance = *balance
	btCfg.Composer = engine.ComposerFromConfig(cfg)
	btCfg.Position = engine.PositionFromConfig(cfg)
	btCfg.Limits = risk.Limits{
		MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
		MaxDailyLoss:        cfg.Risk.MaxDailyLoss,
		KillSwitchDrawdown:  cfg.Risk.KillSwitchDrawdown,
	}
	if ltf, err := time.ParseDuration(cfg.Trading.Interval); err == nil && ltf > 0 {
		if htf, err := time.ParseDuration(cfg.Trading.HTFInterval); err == nil && htf > ltf {
			btCfg.HTFBucket = int(htf / ltf)
		}
	}

	report, trades, err := backtest.Run(btCfg, series, log)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	if *verbose {
		for _, tr := range trades {
			fmt.Printf("%s  %-5s entry %.4f exit %.4f pnl %+.4f  %s\n",
				tr.OpenedAt.Format("2006-01-02 15:04"), tr.Side, tr.EntryPrice, tr.ExitPrice, tr.TotalPnL, tr.Reason)
		}
	}
	fmt.Printf("trades: %d  wins: %d  win rate: %.1f%%\n", report.Trades, report.Wins, report.WinRate*100)
	fmt.Printf("total pnl: %+.4f  max drawdown: %.4f\n", report.TotalPnL, report.MaxDrawdown)
}
