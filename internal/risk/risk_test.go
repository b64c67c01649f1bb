package risk

import "testing"

func TestAllowEntry(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 50, MaxDailyLoss: 100}
	if !limits.AllowEntry(49.9, 0) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.AllowEntry(50.1, 0) {
		t.Fatalf("expected notional above limit to fail")
	}
	if limits.AllowEntry(10, -100) {
		t.Fatalf("expected entry blocked at max daily loss")
	}
	if !limits.AllowEntry(10, -99) {
		t.Fatalf("expected entry allowed under daily loss limit")
	}
}

func TestAllowEntryZeroLimitsDisable(t *testing.T) {
	var limits Limits
	if !limits.AllowEntry(1e9, -1e9) {
		t.Fatalf("zero limits must not block")
	}
}

func TestKillSwitch(t *testing.T) {
	limits := Limits{KillSwitchDrawdown: 0.2}
	if limits.KillSwitch(1000, 850) {
		t.Fatalf("15%% drawdown must not trip a 20%% switch")
	}
	if !limits.KillSwitch(1000, 800) {
		t.Fatalf("20%% drawdown must trip")
	}
	if limits.KillSwitch(0, 0) {
		t.Fatalf("zero start balance must not trip")
	}
}
