package engine

import (
	"testing"
	"time"

	"scalpbot-go/internal/config"
)

func TestFromConfigMapsCadence(t *testing.T) {
	c := config.Default()
	c.Exchange.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	c.Trading.CycleMs = 2500
	c.Trading.HTFInterval = "5m"
	c.Trading.ReconcileSecs = 0

	cfg := FromConfig(&c)
	if cfg.Cycle != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s cycle, got %v", cfg.Cycle)
	}
	if cfg.HTFBucket != 5*time.Minute {
		t.Fatalf("expected 5m HTF bucket, got %v", cfg.HTFBucket)
	}
	if cfg.ReconcileEvery != 0 {
		t.Fatalf("zero reconcile interval must disable reconciliation, got %v", cfg.ReconcileEvery)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "BTCUSDT" {
		t.Fatalf("unexpected symbols: %v", cfg.Symbols)
	}
	if cfg.UniverseRefresh != time.Hour || cfg.UniverseSize != 15 {
		t.Fatalf("unexpected universe cadence: %v size %d", cfg.UniverseRefresh, cfg.UniverseSize)
	}
}

func TestComposerFromConfigMapsNestedBlocks(t *testing.T) {
	c := config.Default()
	c.Strategy.SignalSpacingSecs = 90
	c.Strategy.Structure.ChoppyRangeATR = 40
	c.Strategy.Sideways.Enabled = true

	cfg := ComposerFromConfig(&c)
	if cfg.MinSignalSpacing != 90*time.Second {
		t.Fatalf("expected 90s spacing, got %v", cfg.MinSignalSpacing)
	}
	if cfg.Structure.ChoppyRangeATR != 40 {
		t.Fatalf("expected choppy threshold 40, got %v", cfg.Structure.ChoppyRangeATR)
	}
	if !cfg.Sideways.Enabled {
		t.Fatalf("expected sideways detector enabled")
	}
	if cfg.Pattern.MinConsecutive != 3 || cfg.Pattern.MaxConsecutive != 6 {
		t.Fatalf("unexpected pattern bounds: %+v", cfg.Pattern)
	}
}

func TestPositionFromConfigMapsLifecycle(t *testing.T) {
	c := config.Default()
	c.Trading.TimeLimitSecs = 300
	c.Trading.MaxPositions = 5

	cfg := PositionFromConfig(&c)
	if cfg.TimeLimit != 5*time.Minute {
		t.Fatalf("expected 5m time limit, got %v", cfg.TimeLimit)
	}
	if cfg.MaxPositions != 5 {
		t.Fatalf("expected cap 5, got %d", cfg.MaxPositions)
	}
	if cfg.StopATRMult != 2.0 || cfg.TargetATRMult != 4.0 {
		t.Fatalf("unexpected bracket multipliers: %+v", cfg)
	}
}
