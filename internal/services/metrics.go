package services

import (
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	totalRequests   atomic.Int64
	totalModelCalls atomic.Int64
	totalFallbacks  atomic.Int64
	totalErrors     atomic.Int64
	totalLatency    atomic.Int64
	lastRequestTime atomic.Int64

	wsConnections atomic.Int64
	wsMessages    atomic.Int64
	wsErrors      atomic.Int64
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

func NewMetrics() *Metrics {
	return &Metrics{}
}

func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics()
	})
	return metricsInstance
}

func (m *Metrics) IncrementRequests() {
	m.totalRequests.Add(1)
	m.lastRequestTime.Store(time.Now().Unix())
}

func (m *Metrics) IncrementModelCalls() {
	m.totalModelCalls.Add(1)
}

func (m *Metrics) IncrementFallbacks() {
	m.totalFallbacks.Add(1)
}

func (m *Metrics) IncrementErrors() {
	m.totalErrors.Add(1)
}

func (m *Metrics) RecordLatency(duration time.Duration) {
	m.totalLatency.Add(duration.Milliseconds())
}

func (m *Metrics) GetTotalRequests() int64 {
	return m.totalRequests.Load()
}

func (m *Metrics) GetTotalModelCalls() int64 {
	return m.totalModelCalls.Load()
}

func (m *Metrics) GetTotalFallbacks() int64 {
	return m.totalFallbacks.Load()
}

func (m *Metrics) GetTotalErrors() int64 {
	return m.totalErrors.Load()
}

func (m *Metrics) GetAvgLatency() float64 {
	requests := m.totalRequests.Load()
	if requests == 0 {
		return 0
	}
	return float64(m.totalLatency.Load()) / float64(requests)
}

func (m *Metrics) GetLastRequestTime() int64 {
	return m.lastRequestTime.Load()
}

// IncrementWebSocketConnections increments WebSocket connection count
func (m *Metrics) IncrementWebSocketConnections() {
	m.wsConnections.Add(1)
}

// DecrementWebSocketConnections decrements WebSocket connection count
func (m *Metrics) DecrementWebSocketConnections() {
	m.wsConnections.Add(-1)
}

// IncrementWebSocketMessages increments WebSocket message count
func (m *Metrics) IncrementWebSocketMessages() {
	m.wsMessages.Add(1)
}

// IncrementWebSocketErrors increments WebSocket error count
func (m *Metrics) IncrementWebSocketErrors() {
	m.wsErrors.Add(1)
}

// Snapshot returns all counters for the /metrics endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"total_requests":    m.totalRequests.Load(),
		"total_model_calls": m.totalModelCalls.Load(),
		"total_fallbacks":   m.totalFallbacks.Load(),
		"total_errors":      m.totalErrors.Load(),
		"avg_latency_ms":    m.GetAvgLatency(),
		"last_request_time": m.lastRequestTime.Load(),
		"ws_connections":    m.wsConnections.Load(),
		"ws_messages":       m.wsMessages.Load(),
		"ws_errors":         m.wsErrors.Load(),
	}
}
