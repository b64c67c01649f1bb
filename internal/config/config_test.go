package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "scalpbot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9190" {
		t.Fatalf("unexpected App.MetricsAddr: %s", cfg.App.MetricsAddr)
	}
	if !cfg.Exchange.Testnet {
		t.Fatalf("expected testnet enabled")
	}
	if len(cfg.Exchange.Symbols) != 1 || cfg.Exchange.Symbols[0] != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT symbol, got %+v", cfg.Exchange.Symbols)
	}
	if cfg.Exchange.UniverseSize != 5 {
		t.Fatalf("unexpected universe size: %d", cfg.Exchange.UniverseSize)
	}
	if cfg.Trading.CycleMs != 250 {
		t.Fatalf("unexpected cycle: %d", cfg.Trading.CycleMs)
	}
	if cfg.Trading.Leverage != 10 {
		t.Fatalf("unexpected leverage: %d", cfg.Trading.Leverage)
	}
	if cfg.Trading.StopATRMult != 1.5 || cfg.Trading.TargetATRMult != 3.0 {
		t.Fatalf("unexpected ATR multipliers: %.2f / %.2f", cfg.Trading.StopATRMult, cfg.Trading.TargetATRMult)
	}
	if cfg.Strategy.MaxConsecutive != 5 {
		t.Fatalf("unexpected max consecutive: %d", cfg.Strategy.MaxConsecutive)
	}
	if cfg.Strategy.MinConfidence != 0.45 {
		t.Fatalf("unexpected min confidence: %.2f", cfg.Strategy.MinConfidence)
	}
	if cfg.Strategy.UseVolumeFilter {
		t.Fatalf("expected volume filter disabled")
	}
	if !cfg.Strategy.Sideways.Enabled {
		t.Fatalf("expected sideways enabled")
	}
	if cfg.Risk.MaxDailyLoss != 50 {
		t.Fatalf("unexpected max daily loss: %.2f", cfg.Risk.MaxDailyLoss)
	}
	if cfg.Notify.DiscordWebhook != "https://example.com/webhook" {
		t.Fatalf("unexpected webhook: %s", cfg.Notify.DiscordWebhook)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// candle_limit and freshness_secs are absent from the fixture
	if cfg.Trading.CandleLimit != 100 {
		t.Fatalf("expected default candle limit, got %d", cfg.Trading.CandleLimit)
	}
	if cfg.Trading.FreshnessSecs != 30 {
		t.Fatalf("expected default freshness, got %d", cfg.Trading.FreshnessSecs)
	}
	// structure overrides lookback only; the rest keep defaults
	if cfg.Strategy.Structure.Lookback != 20 {
		t.Fatalf("expected lookback override, got %d", cfg.Strategy.Structure.Lookback)
	}
	if cfg.Strategy.Structure.ATRPeriod != 14 {
		t.Fatalf("expected default ATR period, got %d", cfg.Strategy.Structure.ATRPeriod)
	}
	if cfg.Strategy.Structure.ChoppyRangeATR != 35.0 {
		t.Fatalf("expected default choppy threshold, got %.2f", cfg.Strategy.Structure.ChoppyRangeATR)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
