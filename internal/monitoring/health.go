package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker serves the /healthz endpoint.
type HealthChecker struct {
	mu          sync.RWMutex
	lastBar     time.Time
	lastPrice   float64
	isConnected bool
	emergency   bool
	errors      []string
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastBar     time.Time `json:"last_bar"`
	LastPrice   float64   `json:"last_price"`
	IsConnected bool      `json:"is_connected"`
	Emergency   bool      `json:"emergency"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// SetConnected updates the stream connectivity flag.
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// RecordBar notes a processed bar close.
func (h *HealthChecker) RecordBar(price float64, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastBar = at
	h.lastPrice = price
}

// SetEmergency updates the emergency flag.
func (h *HealthChecker) SetEmergency(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emergency = active
}

// RecordFailure appends an error to the health report, keeping the
// last few only.
func (h *HealthChecker) RecordFailure(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastBar) > time.Hour {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastBar:     h.lastBar,
		LastPrice:   h.lastPrice,
		IsConnected: h.isConnected,
		Emergency:   h.emergency,
		Uptime:      time.Since(startTime).String(),
		Errors:      h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
