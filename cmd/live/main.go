package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"scalpbot-go/internal/config"
	"scalpbot-go/internal/contract"
	"scalpbot-go/internal/engine"
	"scalpbot-go/internal/exchange"
	"scalpbot-go/internal/journal"
	"scalpbot-go/internal/metrics"
	"scalpbot-go/internal/notify"
	"scalpbot-go/internal/position"
	"scalpbot-go/internal/risk"
	"scalpbot-go/internal/strategy"
	"scalpbot-go/internal/util"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	binance := exchange.NewBinance(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, log)
	gw := exchange.NewStreamingGateway(binance, 10*time.Second)

	stream := exchange.NewPriceStream(cfg.Exchange.Testnet, cfg.Exchange.Symbols, log)
	updates := make(chan exchange.PriceUpdate, 1024)
	go func() {
		if err := stream.Run(ctx, updates); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("price stream stopped")
			cancel()
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				gw.Apply(u)
			}
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.Exchange.ContractsPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("contracts dir")
	}
	store, err := contract.NewFileStore(cfg.Exchange.ContractsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open contract store")
	}
	resolver := contract.NewResolver(store, gw, log)

	recorder, err := journal.NewJSONLRecorder(filepath.Join(cfg.Journal.Dir, time.Now().Format("2006-01-02")+".jsonl"))
	if err != nil {
		log.Fatal().Err(err).Msg("open journal")
	}
	defer recorder.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.Enabled && cfg.Notify.DiscordWebhook != "" {
		notifier = notify.NewDiscord(cfg.Notify.DiscordWebhook, log)
	}

	limits := risk.Limits{
		MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
		MaxDailyLoss:        cfg.Risk.MaxDailyLoss,
		KillSwitchDrawdown:  cfg.Risk.KillSwitchDrawdown,
	}

	manager := position.NewManager(engine.PositionFromConfig(cfg), gw, resolver, limits, recorder, notifier, log)
	composer := strategy.NewComposer(engine.ComposerFromConfig(cfg))
	eng := engine.New(engine.FromConfig(cfg), gw, composer, manager, limits, notifier, nil, log)

	for _, symbol := range cfg.Exchange.Symbols {
		if err := gw.SetLeverage(ctx, symbol, cfg.Trading.Leverage); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("set leverage failed")
		}
	}

	// Keep the stream subscription in step with universe rotation.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stream.SetSymbols(eng.Symbols())
			}
		}
	}()

	log.Info().Str("env", cfg.App.Env).Bool("testnet", cfg.Exchange.Testnet).Msg("scalp engine started")
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("engine exited")
	}
	log.Info().Msg("shutdown complete")
}
