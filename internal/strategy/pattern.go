package strategy

import "scalpbot-go/internal/market"

// PatternConfig tunes the consecutive-candle detector.
type PatternConfig struct {
	MinConsecutive     int     `yaml:"min_consecutive"`
	MaxConsecutive     int     `yaml:"max_consecutive"`
	BodyRatioThreshold float64 `yaml:"body_ratio_threshold"`
}

// DefaultPatternConfig carries the validated scalping parameters.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{MinConsecutive: 3, MaxConsecutive: 6, BodyRatioThreshold: 0.8}
}

// Pattern is the detector result for one window.
type Pattern struct {
	Confirmed bool
	RunLength int
	Direction Trend // TrendNeutral when no pattern
}

// minPatternHistory is the number of preceding candles required before a
// pattern can confirm; early candles are too sparse to trust.
const minPatternHistory = 10

// patternWindow caps how many trailing moves the detector inspects.
const patternWindow = 6

// DetectPattern finds the trailing run of strictly same-direction closes in
// the last candles of the series and checks the mean body-to-range ratio of
// the final three candles. Equal and opposite moves reset the counter, so
// only the trailing run survives.
func DetectPattern(cfg PatternConfig, s market.Series) Pattern {
	if len(s) <= minPatternHistory {
		return Pattern{}
	}
	window := s.Tail(patternWindow + 1)

	var up, down int
	for i := 0; i+1 < len(window); i++ {
		switch {
		case window[i+1].Close > window[i].Close:
			up++
			down = 0
		case window[i+1].Close < window[i].Close:
			down++
			up = 0
		default:
			// equal close resets both runs; the walk continues
			up, down = 0, 0
		}
	}

	ratios := make([]float64, 0, len(window))
	for _, c := range window {
		r := 0.0
		if total := c.High - c.Low; total > 0 {
			body := c.Close - c.Open
			if body < 0 {
				body = -body
			}
			r = body / total
		}
		ratios = append(ratios, r)
	}
	avgBody := 0.0
	if len(ratios) >= 3 {
		tail := ratios[len(ratios)-3:]
		avgBody = (tail[0] + tail[1] + tail[2]) / 3
	}

	if avgBody < cfg.BodyRatioThreshold {
		return Pattern{}
	}
	if up >= cfg.MinConsecutive && up <= cfg.MaxConsecutive {
		return Pattern{Confirmed: true, RunLength: up, Direction: TrendBullish}
	}
	if down >= cfg.MinConsecutive && down <= cfg.MaxConsecutive {
		return Pattern{Confirmed: true, RunLength: down, Direction: TrendBearish}
	}
	return Pattern{}
}
