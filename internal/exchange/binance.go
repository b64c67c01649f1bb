package exchange

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scalpbot-go/internal/market"
)

// Binance implements Gateway against USDT-margined Binance futures.
type Binance struct {
	client *futures.Client
	log    zerolog.Logger

	metaMu sync.Mutex
	meta   map[string]ContractMeta
}

// NewBinance builds a gateway. Testnet routing is a process-wide switch in
// the SDK and must be set before the client is created.
func NewBinance(apiKey, apiSecret string, testnet bool, log zerolog.Logger) *Binance {
	futures.UseTestnet = testnet
	return &Binance{
		client: futures.NewClient(apiKey, apiSecret),
		log:    log.With().Str("component", "binance").Logger(),
		meta:   make(map[string]ContractMeta),
	}
}

func (b *Binance) Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error) {
	kls, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}
	out := make(market.Series, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			Time:   time.UnixMilli(kl.OpenTime),
			Open:   parseFloat(kl.Open),
			High:   parseFloat(kl.High),
			Low:    parseFloat(kl.Low),
			Close:  parseFloat(kl.Close),
			Volume: parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func (b *Binance) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("price %s: %w", symbol, err)
	}
	for _, p := range prices {
		if p.Symbol == symbol {
			return parseFloat(p.Price), nil
		}
	}
	return 0, fmt.Errorf("price %s: symbol not in response", symbol)
}

// Balance returns the available USDT wallet balance.
func (b *Binance) Balance(ctx context.Context) (float64, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	for _, bal := range balances {
		if bal.Asset == "USDT" {
			return parseFloat(bal.AvailableBalance), nil
		}
	}
	return 0, nil
}

func (b *Binance) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := b.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	if err != nil {
		return fmt.Errorf("set leverage %s: %w", symbol, err)
	}
	return nil
}

func (b *Binance) ContractMeta(ctx context.Context, symbol string) (ContractMeta, error) {
	b.metaMu.Lock()
	cached, ok := b.meta[symbol]
	b.metaMu.Unlock()
	if ok {
		return cached, nil
	}

	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return ContractMeta{}, fmt.Errorf("exchange info: %w", err)
	}
	b.metaMu.Lock()
	defer b.metaMu.Unlock()
	for _, s := range info.Symbols {
		m := ContractMeta{Symbol: s.Symbol, Multiplier: 1}
		if lot := s.LotSizeFilter(); lot != nil {
			m.MinQty = parseFloat(lot.MinQuantity)
			m.StepSize = parseFloat(lot.StepSize)
		}
		b.meta[s.Symbol] = m
	}
	if m, ok := b.meta[symbol]; ok {
		return m, nil
	}
	return ContractMeta{}, fmt.Errorf("exchange info: %s not listed", symbol)
}

func (b *Binance) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	clientID := req.ClientID
	if clientID == "" {
		clientID = "scalp-" + uuid.NewString()[:18]
	}
	side := futures.SideTypeBuy
	if req.Side == SideSell {
		side = futures.SideTypeSell
	}

	meta, err := b.ContractMeta(ctx, req.Symbol)
	if err != nil {
		return OrderResult{}, err
	}

	svc := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(formatQty(req.Quantity, meta.StepSize)).
		NewClientOrderID(clientID).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT)
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return OrderResult{}, fmt.Errorf("order %s %s: %w", req.Side, req.Symbol, err)
	}

	b.log.Info().
		Str("symbol", req.Symbol).
		Str("side", string(req.Side)).
		Str("qty", res.ExecutedQuantity).
		Str("avg_price", res.AvgPrice).
		Int64("order_id", res.OrderID).
		Msg("order filled")

	return OrderResult{
		OrderID:   strconv.FormatInt(res.OrderID, 10),
		FilledQty: parseFloat(res.ExecutedQuantity),
		AvgPrice:  parseFloat(res.AvgPrice),
	}, nil
}

func (b *Binance) OpenPositions(ctx context.Context) ([]PositionInfo, error) {
	risks, err := b.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("position risk: %w", err)
	}
	out := make([]PositionInfo, 0, len(risks))
	for _, r := range risks {
		size := parseFloat(r.PositionAmt)
		if size == 0 {
			continue
		}
		out = append(out, PositionInfo{
			Symbol:        r.Symbol,
			Size:          size,
			EntryPrice:    parseFloat(r.EntryPrice),
			MarkPrice:     parseFloat(r.MarkPrice),
			UnrealizedPnL: parseFloat(r.UnRealizedProfit),
		})
	}
	return out, nil
}

// TopVolumeSymbols ranks USDT-quoted perpetuals by 24h quote volume.
func (b *Binance) TopVolumeSymbols(ctx context.Context, n int) ([]SymbolStat, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticker stats: %w", err)
	}
	out := make([]SymbolStat, 0, len(stats))
	for _, s := range stats {
		if !strings.HasSuffix(s.Symbol, "USDT") {
			continue
		}
		out = append(out, SymbolStat{
			Symbol:      s.Symbol,
			QuoteVolume: parseFloat(s.QuoteVolume),
			LastPrice:   parseFloat(s.LastPrice),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatQty snaps a quantity down to the venue's step size and renders it
// with exactly the precision the step implies.
func formatQty(qty, step float64) string {
	if step <= 0 {
		return strconv.FormatFloat(qty, 'f', -1, 64)
	}
	qty = math.Floor(qty/step) * step
	decimals := 0
	if step < 1 {
		decimals = int(math.Round(-math.Log10(step)))
		if decimals < 0 {
			decimals = 0
		}
		if decimals > 8 {
			decimals = 8
		}
	}
	return strconv.FormatFloat(qty, 'f', decimals, 64)
}
