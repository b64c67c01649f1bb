package exchange

import (
	"context"
	"fmt"
	"sync"

	"scalpbot-go/internal/market"
)

// Stub is a deterministic in-memory Gateway for tests and backtests. All
// mutators are safe for concurrent use.
type Stub struct {
	mu sync.Mutex

	candles   map[string]market.Series // keyed symbol+"/"+interval
	prices    map[string]float64
	balance   float64
	meta      map[string]ContractMeta
	positions []PositionInfo
	stats     []SymbolStat

	Orders    []OrderRequest
	OrderErr  error
	CandleErr error
	leverage  map[string]int
	nextID    int
}

// NewStub starts with the given account balance.
func NewStub(balance float64) *Stub {
	return &Stub{
		candles:  make(map[string]market.Series),
		prices:   make(map[string]float64),
		balance:  balance,
		meta:     make(map[string]ContractMeta),
		leverage: make(map[string]int),
	}
}

func (s *Stub) SetCandles(symbol, interval string, series market.Series) {
	s.mu.Lock()
	s.candles[symbol+"/"+interval] = series
	s.mu.Unlock()
}

func (s *Stub) SetBalance(balance float64) {
	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()
}

func (s *Stub) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

func (s *Stub) SetMeta(m ContractMeta) {
	s.mu.Lock()
	s.meta[m.Symbol] = m
	s.mu.Unlock()
}

func (s *Stub) SetPositions(ps []PositionInfo) {
	s.mu.Lock()
	s.positions = append([]PositionInfo(nil), ps...)
	s.mu.Unlock()
}

func (s *Stub) SetStats(stats []SymbolStat) {
	s.mu.Lock()
	s.stats = append([]SymbolStat(nil), stats...)
	s.mu.Unlock()
}

func (s *Stub) Leverage(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leverage[symbol]
}

func (s *Stub) Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CandleErr != nil {
		return nil, s.CandleErr
	}
	series, ok := s.candles[symbol+"/"+interval]
	if !ok {
		return nil, fmt.Errorf("stub: no candles for %s %s", symbol, interval)
	}
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return append(market.Series(nil), series...), nil
}

func (s *Stub) LastPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("stub: no price for %s", symbol)
	}
	return p, nil
}

func (s *Stub) Balance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *Stub) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	s.mu.Lock()
	s.leverage[symbol] = leverage
	s.mu.Unlock()
	return nil
}

func (s *Stub) ContractMeta(ctx context.Context, symbol string) (ContractMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meta[symbol]; ok {
		return m, nil
	}
	return ContractMeta{Symbol: symbol, Multiplier: 1, MinQty: 1, StepSize: 1}, nil
}

// PlaceOrder fills at the configured last price and records the request.
func (s *Stub) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OrderErr != nil {
		return OrderResult{}, s.OrderErr
	}
	s.Orders = append(s.Orders, req)
	s.nextID++
	return OrderResult{
		OrderID:   fmt.Sprintf("stub-%d", s.nextID),
		FilledQty: req.Quantity,
		AvgPrice:  s.prices[req.Symbol],
	}, nil
}

func (s *Stub) OpenPositions(ctx context.Context) ([]PositionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PositionInfo(nil), s.positions...), nil
}

func (s *Stub) TopVolumeSymbols(ctx context.Context, n int) ([]SymbolStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := append([]SymbolStat(nil), s.stats...)
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats, nil
}
