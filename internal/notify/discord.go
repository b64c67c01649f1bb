package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"scalpbot-go/internal/journal"
)

// Embed colors matching the event severity.
const (
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorBlue   = 0x3498db
	colorOrange = 0xe67e22
	colorGray   = 0x95a5a6
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Discord posts trade events to a webhook. Every send runs on the caller's
// goroutine with a short timeout; failures increment Failures and are logged
// at warn, nothing more.
type Discord struct {
	webhookURL string
	client     *http.Client
	log        zerolog.Logger

	Failures atomic.Uint64
}

func NewDiscord(webhookURL string, log zerolog.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log.With().Str("component", "notify").Logger(),
	}
}

func (d *Discord) PositionOpened(symbol, side string, size, entry, stop, target, confidence float64) {
	color := colorGreen
	if side == "short" {
		color = colorRed
	}
	d.send(embed{
		Title: fmt.Sprintf("Opened %s %s", side, symbol),
		Color: color,
		Fields: []embedField{
			{Name: "Size", Value: fmt.Sprintf("%.4f", size), Inline: true},
			{Name: "Entry", Value: fmt.Sprintf("%.6f", entry), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%.2f", confidence), Inline: true},
			{Name: "Stop", Value: fmt.Sprintf("%.6f", stop), Inline: true},
			{Name: "Target", Value: fmt.Sprintf("%.6f", target), Inline: true},
		},
	})
}

func (d *Discord) PositionPartiallyClosed(symbol string, closedSize, price, realizedPnL float64) {
	d.send(embed{
		Title: fmt.Sprintf("Partial close %s", symbol),
		Color: colorBlue,
		Fields: []embedField{
			{Name: "Closed", Value: fmt.Sprintf("%.4f", closedSize), Inline: true},
			{Name: "Price", Value: fmt.Sprintf("%.6f", price), Inline: true},
			{Name: "Realized PnL", Value: fmt.Sprintf("%+.4f", realizedPnL), Inline: true},
		},
	})
}

func (d *Discord) PositionClosed(trade journal.Trade) {
	color := colorGreen
	if trade.TotalPnL < 0 {
		color = colorRed
	}
	d.send(embed{
		Title:       fmt.Sprintf("Closed %s %s (%s)", trade.Side, trade.Symbol, trade.Reason),
		Description: fmt.Sprintf("PnL %+.4f over %.0fs", trade.TotalPnL, trade.HoldSeconds),
		Color:       color,
		Fields: []embedField{
			{Name: "Entry", Value: fmt.Sprintf("%.6f", trade.EntryPrice), Inline: true},
			{Name: "Exit", Value: fmt.Sprintf("%.6f", trade.ExitPrice), Inline: true},
			{Name: "Size", Value: fmt.Sprintf("%.4f", trade.Size), Inline: true},
		},
	})
}

func (d *Discord) SignalDetected(symbol, direction string, confidence, price float64, reason string) {
	d.send(embed{
		Title:       fmt.Sprintf("Signal %s %s", direction, symbol),
		Description: reason,
		Color:       colorGray,
		Fields: []embedField{
			{Name: "Confidence", Value: fmt.Sprintf("%.2f", confidence), Inline: true},
			{Name: "Price", Value: fmt.Sprintf("%.6f", price), Inline: true},
		},
	})
}

func (d *Discord) DailySummary(trades, wins int, pnl float64) {
	winRate := 0.0
	if trades > 0 {
		winRate = float64(wins) / float64(trades) * 100
	}
	d.send(embed{
		Title: "Daily summary",
		Color: colorBlue,
		Fields: []embedField{
			{Name: "Trades", Value: fmt.Sprintf("%d", trades), Inline: true},
			{Name: "Win rate", Value: fmt.Sprintf("%.1f%%", winRate), Inline: true},
			{Name: "PnL", Value: fmt.Sprintf("%+.4f", pnl), Inline: true},
		},
	})
}

func (d *Discord) ErrorAlert(context string, err error) {
	d.send(embed{
		Title:       "Error: " + context,
		Description: err.Error(),
		Color:       colorOrange,
	})
}

func (d *Discord) send(e embed) {
	if d.webhookURL == "" {
		return
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		d.Failures.Add(1)
		return
	}
	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.Failures.Add(1)
		d.log.Warn().Err(err).Str("event", e.Title).Msg("notification delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.Failures.Add(1)
		d.log.Warn().Int("status", resp.StatusCode).Str("event", e.Title).Msg("notification rejected")
	}
}
