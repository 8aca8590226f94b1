package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	requestsTotal atomic.Uint64
	errorsTotal   atomic.Uint64
	quoteFetches  atomic.Uint64
	chatCalls     atomic.Uint64
	tradesTotal   atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	streamConnected atomic.Int32 // 1 = connected, 0 = disconnected
}

// RecordRequest records a served HTTP request with its latency.
func (m *Metrics) RecordRequest(latencyNs int64) {
	m.requestsTotal.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordQuoteFetch records one upstream quote fetch.
func (m *Metrics) RecordQuoteFetch() {
	m.quoteFetches.Add(1)
}

// RecordChatCall records one LLM round-trip.
func (m *Metrics) RecordChatCall() {
	m.chatCalls.Add(1)
}

// RecordTrade records one executed trade.
func (m *Metrics) RecordTrade() {
	m.tradesTotal.Add(1)
}

// SetStreamConnected sets the quote stream connection gauge.
func (m *Metrics) SetStreamConnected(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	RequestsTotal   uint64    `json:"requests_total"`
	ErrorsTotal     uint64    `json:"errors_total"`
	QuoteFetches    uint64    `json:"quote_fetches"`
	ChatCalls       uint64    `json:"chat_calls"`
	TradesTotal     uint64    `json:"trades_total"`
	AvgLatencyNs    int64     `json:"avg_latency_ns"`
	StreamConnected bool      `json:"stream_connected"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avg int64
	if count := m.latencyCount.Load(); count > 0 {
		avg = m.latencySumNs.Load() / int64(count)
	}
	return MetricsSnapshot{
		RequestsTotal:   m.requestsTotal.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		QuoteFetches:    m.quoteFetches.Load(),
		ChatCalls:       m.chatCalls.Load(),
		TradesTotal:     m.tradesTotal.Load(),
		AvgLatencyNs:    avg,
		StreamConnected: m.streamConnected.Load() == 1,
		Timestamp:       time.Now(),
	}
}
