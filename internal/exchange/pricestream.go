package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	mainnetStreamURL = "wss://fstream.binance.com/stream"
	testnetStreamURL = "wss://stream.binancefuture.com/stream"
)

// PriceStream pushes mark-price updates for a symbol set over a channel. The
// engine uses it to freshen the last candle between kline refreshes.
type PriceStream struct {
	baseURL string
	log     zerolog.Logger

	mu      sync.Mutex
	symbols []string
}

// NewPriceStream targets the mainnet or testnet futures stream endpoint.
func NewPriceStream(testnet bool, symbols []string, log zerolog.Logger) *PriceStream {
	url := mainnetStreamURL
	if testnet {
		url = testnetStreamURL
	}
	return &PriceStream{
		baseURL: url,
		log:     log.With().Str("component", "pricestream").Logger(),
		symbols: append([]string(nil), symbols...),
	}
}

// SetSymbols swaps the tracked symbol set; the change takes effect on the
// next (re)connect.
func (p *PriceStream) SetSymbols(symbols []string) {
	p.mu.Lock()
	p.symbols = append([]string(nil), symbols...)
	p.mu.Unlock()
}

func (p *PriceStream) streamURL() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.symbols) == 0 {
		return "", 0
	}
	streams := make([]string, len(p.symbols))
	for i, sym := range p.symbols {
		streams[i] = strings.ToLower(sym) + "@markPrice@1s"
	}
	return fmt.Sprintf("%s?streams=%s", p.baseURL, strings.Join(streams, "/")), len(p.symbols)
}

// Run connects and pushes updates until the context ends, reconnecting with
// capped exponential backoff on any stream failure.
func (p *PriceStream) Run(ctx context.Context, out chan<- PriceUpdate) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		url, n := p.streamURL()
		if n == 0 {
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := p.consume(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn().Err(err).Msg("price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		backoff = time.Second
	}
}

type streamEnvelope struct {
	Stream string        `json:"stream"`
	Data   markPriceData `json:"data"`
}

type markPriceData struct {
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
	EventTime int64  `json:"E"`
}

func (p *PriceStream) consume(ctx context.Context, url string, out chan<- PriceUpdate) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	p.log.Info().Msg("connected price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					p.log.Warn().Err(err).Msg("price stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			p.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		px, err := strconv.ParseFloat(env.Data.MarkPrice, 64)
		if err != nil || env.Data.Symbol == "" {
			continue
		}

		select {
		case out <- PriceUpdate{Symbol: env.Data.Symbol, Price: px, Ts: time.UnixMilli(env.Data.EventTime)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
