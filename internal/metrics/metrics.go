package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scalpbot_cycles_total", Help: "Completed scheduler cycles"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpbot_signals_total", Help: "Actionable signals emitted"},
		[]string{"symbol", "side"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpbot_orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	DataErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpbot_data_errors_total", Help: "Market-data fetch failures"},
		[]string{"symbol"},
	)
	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "scalpbot_positions_open", Help: "Positions currently held"},
	)
	ExitEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalpbot_exit_events_total", Help: "Position exit events by reason"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, SignalsTotal, OrdersTotal, DataErrorsTotal, PositionsOpen, ExitEventsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
