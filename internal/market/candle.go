// Package market defines the candle data model shared by the signal engine,
// the position lifecycle, and the exchange gateway.
package market

import (
	"sort"
	"time"
)

// Candle is a fixed-interval OHLCV price bar. Candles are immutable once
// produced; a series is strictly increasing in time with no duplicates.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered candle sequence for a single instrument.
type Series []Candle

// Merge combines a cached series with freshly fetched candles, dropping
// duplicates by timestamp and keeping at most maxLen trailing candles.
// Fresh candles win on timestamp collisions.
func Merge(existing, fresh Series, maxLen int) Series {
	if len(fresh) == 0 {
		return bound(existing, maxLen)
	}
	if len(existing) == 0 {
		return bound(sortedCopy(fresh), maxLen)
	}
	byTime := make(map[int64]Candle, len(existing)+len(fresh))
	for _, c := range existing {
		byTime[c.Time.UnixNano()] = c
	}
	for _, c := range fresh {
		byTime[c.Time.UnixNano()] = c
	}
	out := make(Series, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return bound(out, maxLen)
}

func sortedCopy(s Series) Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func bound(s Series, maxLen int) Series {
	if maxLen > 0 && len(s) > maxLen {
		return s[len(s)-maxLen:]
	}
	return s
}

// Resample aggregates a lower-timeframe series into bucket-sized candles:
// first open, max high, min low, last close, summed volume. Buckets are
// aligned to the bucket duration; a trailing partial bucket is included.
func Resample(s Series, bucket time.Duration) Series {
	if len(s) == 0 || bucket <= 0 {
		return nil
	}
	out := make(Series, 0, len(s)/2+1)
	var cur Candle
	var curStart time.Time
	open := false
	for _, c := range s {
		start := c.Time.Truncate(bucket)
		if !open || !start.Equal(curStart) {
			if open {
				out = append(out, cur)
			}
			curStart = start
			cur = Candle{Time: start, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			open = true
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// Tail returns the last n candles (the whole series when shorter).
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) == 0 {
		return nil
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// WithLastPrice returns a copy of the series whose final candle is marked to
// the given live price, used by the scheduler's price-only refresh between
// full data fetches.
func (s Series) WithLastPrice(price float64) Series {
	if len(s) == 0 || price <= 0 {
		return s
	}
	out := make(Series, len(s))
	copy(out, s)
	last := &out[len(out)-1]
	last.Close = price
	if price > last.High {
		last.High = price
	}
	if price < last.Low {
		last.Low = price
	}
	return out
}
