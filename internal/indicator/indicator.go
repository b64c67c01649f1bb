// Package indicator implements the windowed numeric functions used by the
// signal engine. All functions are pure and allocation-light; when the input
// is too short for the requested period they report ok=false instead of
// returning a misleading value.
package indicator

import (
	"math"

	"scalpbot-go/internal/market"
)

// EMA returns the exponentially weighted moving average of values with the
// given span, seeded from the first value.
func EMA(values []float64, span int) (float64, bool) {
	if span <= 0 || len(values) == 0 {
		return 0, false
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema, true
}

// RSI computes the relative-strength oscillator over the trailing period
// using simple average gain/loss. When there are no losses in the window the
// oscillator saturates at 100.
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period+1 {
		return 0, false
	}
	window := values[len(values)-period-1:]
	var gain, loss float64
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100, true
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100 - 100/(1+rs), true
}

// ATR averages the per-candle true range over the trailing period. True
// range is max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(candles market.Series, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}
	window := candles[len(candles)-period-1:]
	var sum float64
	for i := 1; i < len(window); i++ {
		sum += trueRange(window[i], window[i-1].Close)
	}
	return sum / float64(period), true
}

func trueRange(c market.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if hc := math.Abs(c.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(c.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// Volatility is the standard deviation of simple returns over the trailing
// window of closes, the composer's tradability gate.
func Volatility(closes []float64, window int) (float64, bool) {
	if window < 2 || len(closes) < window {
		return 0, false
	}
	tail := closes[len(closes)-window:]
	returns := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] == 0 {
			return 0, false
		}
		returns = append(returns, tail[i]/tail[i-1]-1)
	}
	_, std := meanStd(returns)
	return std, true
}

// MeanStd returns the mean and sample standard deviation over the trailing
// window, used for band construction in the sideways generator.
func MeanStd(values []float64, window int) (mean, std float64, ok bool) {
	if window < 2 || len(values) < window {
		return 0, 0, false
	}
	mean, std = meanStd(values[len(values)-window:])
	return mean, std, true
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}

// Slope is the least-squares best-fit slope of values against their index,
// in value units per candle.
func Slope(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	// x = 0..n-1, closed-form simple linear regression
	xMean := float64(n-1) / 2
	var yMean float64
	for _, v := range values {
		yMean += v
	}
	yMean /= float64(n)
	var num, den float64
	for i, v := range values {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
