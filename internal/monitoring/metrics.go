package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsi_bot_trades_total",
			Help: "Total number of closed trades",
		},
		[]string{"symbol", "side", "status"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rsi_bot_trade_pnl",
			Help:    "Distribution of realized trade PnL",
			Buckets: prometheus.LinearBuckets(-100, 20, 11),
		},
		[]string{"symbol"},
	)

	balance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsi_bot_balance",
			Help: "Realized account balance",
		},
		[]string{"symbol"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsi_bot_current_price",
			Help: "Last close price of the trading symbol",
		},
		[]string{"symbol"},
	)

	// Signal metrics
	pendingSignal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsi_bot_pending_signal",
			Help: "Pending signal direction: 1 long, -1 short, 0 idle",
		},
		[]string{"symbol"},
	)

	signalsArmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsi_bot_signals_armed_total",
			Help: "Total number of armed pending signals",
		},
		[]string{"symbol", "side"},
	)

	// Risk metrics
	emergencyMode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsi_bot_emergency_mode",
			Help: "1 while the risk governor is in emergency mode",
		},
		[]string{"symbol"},
	)

	dailyLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rsi_bot_daily_loss",
			Help: "Realized loss accumulated today",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsi_bot_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(balance)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(pendingSignal)
	prometheus.MustRegister(signalsArmed)
	prometheus.MustRegister(emergencyMode)
	prometheus.MustRegister(dailyLoss)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTradeClosed records a closed trade.
func RecordTradeClosed(symbol, side, status string, pnl float64) {
	tradesTotal.WithLabelValues(symbol, side, status).Inc()
	tradePnL.WithLabelValues(symbol).Observe(pnl)
}

// UpdateBalance updates the realized balance gauge.
func UpdateBalance(symbol string, value float64) {
	balance.WithLabelValues(symbol).Set(value)
}

// UpdatePrice updates the current price metric
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// UpdatePendingSignal updates the pending signal gauge.
func UpdatePendingSignal(symbol string, direction float64) {
	pendingSignal.WithLabelValues(symbol).Set(direction)
}

// RecordSignalArmed records a newly armed signal.
func RecordSignalArmed(symbol, side string) {
	signalsArmed.WithLabelValues(symbol, side).Inc()
}

// UpdateEmergencyMode sets the emergency gauge.
func UpdateEmergencyMode(symbol string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	emergencyMode.WithLabelValues(symbol).Set(v)
}

// UpdateDailyLoss updates the daily loss gauge.
func UpdateDailyLoss(symbol string, loss float64) {
	dailyLoss.WithLabelValues(symbol).Set(loss)
}

// RecordError records an error metric
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
