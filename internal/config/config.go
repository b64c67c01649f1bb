// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string
	LogLevel    string
}

// Exchange describes futures-exchange connectivity and the symbol universe.
// APIKey and APISecret are normally injected from the environment, not YAML.
type Exchange struct {
	Name          string   `yaml:"name"`
	APIKey        string   `yaml:"api_key"`
	APISecret     string   `yaml:"api_secret"`
	Testnet       bool     `yaml:"testnet"`
	Symbols       []string `yaml:"symbols"`
	UniverseSize  int      `yaml:"universe_size"`
	UniverseSecs  int      `yaml:"universe_refresh_secs"`
	ContractsPath string   `yaml:"contracts_path"`
}

// Trading groups the scheduler cadence and position-lifecycle knobs.
type Trading struct {
	Interval        string  `yaml:"interval"`
	HTFInterval     string  `yaml:"htf_interval"`
	CandleLimit     int     `yaml:"candle_limit"`
	CycleMs         int     `yaml:"cycle_ms"`
	SymbolDelayMs   int     `yaml:"symbol_delay_ms"`
	FreshnessSecs   int     `yaml:"freshness_secs"`
	ReconcileSecs   int     `yaml:"reconcile_secs"`
	Leverage        int     `yaml:"leverage"`
	Allocation      float64 `yaml:"allocation"`
	MaxPositions    int     `yaml:"max_positions"`
	TimeLimitSecs   int     `yaml:"time_limit_secs"`
	StopATRMult     float64 `yaml:"stop_atr_mult"`
	TargetATRMult   float64 `yaml:"target_atr_mult"`
	PartialFraction float64 `yaml:"partial_fraction"`
}

// Structure tunes the market-structure classifier.
type Structure struct {
	Lookback       int     `yaml:"lookback"`
	ATRPeriod      int     `yaml:"atr_period"`
	ChoppyRangeATR float64 `yaml:"choppy_range_atr"`
	TightRangeATR  float64 `yaml:"tight_range_atr"`
	TrendSlopeATR  float64 `yaml:"trend_slope_atr"`
}

// Sideways tunes the range-trading detector and band generator.
type Sideways struct {
	Enabled         bool    `yaml:"enabled"`
	Lookback        int     `yaml:"lookback"`
	RangeATRMult    float64 `yaml:"range_atr_mult"`
	MinOscillations int     `yaml:"min_oscillations"`
	MaxOscillations int     `yaml:"max_oscillations"`
	BandPeriod      int     `yaml:"band_period"`
	BandStdDev      float64 `yaml:"band_std_dev"`
}

// Strategy specifies the signal-pipeline parameters.
type Strategy struct {
	MinConsecutive        int       `yaml:"min_consecutive"`
	MaxConsecutive        int       `yaml:"max_consecutive"`
	BodyRatioThreshold    float64   `yaml:"body_ratio_threshold"`
	MinVolatility         float64   `yaml:"min_volatility"`
	MaxVolatility         float64   `yaml:"max_volatility"`
	VolatilityWindow      int       `yaml:"volatility_window"`
	SignalSpacingSecs     int       `yaml:"signal_spacing_secs"`
	MinConfidence         float64   `yaml:"min_confidence"`
	UseVolumeFilter       bool      `yaml:"use_volume_filter"`
	StrongSignalThreshold float64   `yaml:"strong_signal_threshold"`
	NeutralEntryThreshold float64   `yaml:"neutral_entry_threshold"`
	Structure             Structure `yaml:"structure"`
	Sideways              Sideways  `yaml:"sideways"`
}

// Risk encodes guard-rails for how much size the engine may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MaxDailyLoss        float64 `yaml:"max_daily_loss"`
	KillSwitchDrawdown  float64 `yaml:"kill_switch_drawdown"`
}

// Journal configures trade and event recording.
type Journal struct {
	Dir string `yaml:"dir"`
}

// Notify configures the outbound alert channel.
type Notify struct {
	Enabled        bool   `yaml:"enabled"`
	DiscordWebhook string `yaml:"discord_webhook"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Trading  Trading  `yaml:"trading"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Journal  Journal  `yaml:"journal"`
	Notify   Notify   `yaml:"notify"`
}

// Default returns the validated live-trading defaults. Load decodes on top
// of them, so a sparse YAML file only has to name what it overrides.
func Default() Config {
	return Config{
		App: App{
			Name:        "scalpbot",
			Env:         "dev",
			MetricsAddr: ":9100",
			LogLevel:    "info",
		},
		Exchange: Exchange{
			Name:          "binance",
			UniverseSize:  15,
			UniverseSecs:  3600,
			ContractsPath: "data/contracts.json",
		},
		Trading: Trading{
			Interval:        "1m",
			HTFInterval:     "15m",
			CandleLimit:     100,
			CycleMs:         5000,
			SymbolDelayMs:   100,
			FreshnessSecs:   30,
			ReconcileSecs:   300,
			Leverage:        20,
			Allocation:      0.5,
			MaxPositions:    3,
			TimeLimitSecs:   600,
			StopATRMult:     2.0,
			TargetATRMult:   4.0,
			PartialFraction: 0.5,
		},
		Strategy: Strategy{
			MinConsecutive:        3,
			MaxConsecutive:        6,
			BodyRatioThreshold:    0.8,
			MinVolatility:         0.001,
			MaxVolatility:         0.05,
			VolatilityWindow:      20,
			SignalSpacingSecs:     60,
			MinConfidence:         0.40,
			UseVolumeFilter:       true,
			StrongSignalThreshold: 0.70,
			NeutralEntryThreshold: 0.50,
			Structure: Structure{
				Lookback:       30,
				ATRPeriod:      14,
				ChoppyRangeATR: 35.0,
				TightRangeATR:  3.0,
				TrendSlopeATR:  0.5,
			},
			Sideways: Sideways{
				Lookback:        10,
				RangeATRMult:    1.5,
				MinOscillations: 2,
				MaxOscillations: 4,
				BandPeriod:      20,
				BandStdDev:      2.0,
			},
		},
		Risk: Risk{
			MaxNotionalPerTrade: 2000,
			MaxDailyLoss:        200,
			KillSwitchDrawdown:  0.2,
		},
		Journal: Journal{Dir: "data/journal"},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct over the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
