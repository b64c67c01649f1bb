package contract

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"scalpbot-go/internal/exchange"
)

// learnTolerance is the max relative deviation from the cached factor before
// a fill is treated as partial and skipped for learning.
const learnTolerance = 0.10

// knownFactors covers instruments whose quanto multipliers are stable and
// well known, consulted when both the cache and the venue metadata miss.
var knownFactors = map[string]float64{
	"BTCUSDT":  0.001,
	"ETHUSDT":  0.01,
	"SOLUSDT":  1,
	"XRPUSDT":  10,
	"DOGEUSDT": 10,
}

// Resolver converts base-asset quantities into native contract units. The
// factor is base units per native unit; it is a best-effort cache that must
// self-correct, never ground truth.
type Resolver struct {
	store Store
	gw    exchange.Gateway
	log   zerolog.Logger
}

func NewResolver(store Store, gw exchange.Gateway, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		gw:    gw,
		log:   log.With().Str("component", "contract").Logger(),
	}
}

// Factor resolves the conversion factor for a symbol: cache, then venue
// metadata, then the static table, then 1.
func (r *Resolver) Factor(ctx context.Context, symbol string) float64 {
	if f, ok := r.store.Get(symbol); ok && f > 0 {
		return f
	}
	if meta, err := r.gw.ContractMeta(ctx, symbol); err == nil && meta.Multiplier > 0 {
		return meta.Multiplier
	}
	if f, ok := knownFactors[symbol]; ok {
		return f
	}
	return 1
}

// ToNative converts a base-asset quantity into native contract units.
func (r *Resolver) ToNative(ctx context.Context, symbol string, baseQty float64) float64 {
	f := r.Factor(ctx, symbol)
	if f <= 0 {
		return baseQty
	}
	return baseQty / f
}

// Learn updates the cached factor from an observed fill. A fill whose implied
// factor deviates more than 10% from the cached one is assumed partial and
// ignored, so partial executions never corrupt the cache.
func (r *Resolver) Learn(ctx context.Context, symbol string, requestedBase, filledNative float64) {
	if requestedBase <= 0 || filledNative <= 0 {
		return
	}
	implied := requestedBase / filledNative

	if cached, ok := r.store.Get(symbol); ok && cached > 0 {
		if math.Abs(implied/cached-1) > learnTolerance {
			r.log.Debug().
				Str("symbol", symbol).
				Float64("implied", implied).
				Float64("cached", cached).
				Msg("fill looks partial, skipping factor update")
			return
		}
	}
	if err := r.store.Put(symbol, implied); err != nil {
		r.log.Warn().Err(err).Str("symbol", symbol).Msg("persist contract factor failed")
		return
	}
	r.log.Info().Str("symbol", symbol).Float64("factor", implied).Msg("learned contract factor")
}
