// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Frame drop reasons.
const (
	DropUnroutable = "unroutable"
	DropMalformed  = "malformed"
)

// Metrics holds the prometheus collectors of the client and server halves.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CallsOpened     *prometheus.CounterVec
	CallsActive     *prometheus.GaugeVec
	FramesDropped   *prometheus.CounterVec
	ChannelFailures *prometheus.CounterVec

	CallsServed    *prometheus.CounterVec
	StreamsActive  *prometheus.GaugeVec
	StreamFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushmux",
			Subsystem: "client",
			Name:      "calls_opened_total",
			Help:      "Calls sent to an endpoint.",
		}, []string{"endpoint"}),
		CallsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pushmux",
			Subsystem: "client",
			Name:      "calls_active",
			Help:      "Entries in the dispatch table.",
		}, []string{"endpoint"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushmux",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped without delivery.",
		}, []string{"endpoint", "reason"}),
		ChannelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushmux",
			Subsystem: "client",
			Name:      "channel_failures_total",
			Help:      "Channels that reached the failed state.",
		}, []string{"endpoint"}),
		CallsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushmux",
			Subsystem: "server",
			Name:      "calls_total",
			Help:      "Calls started by the server.",
		}, []string{"endpoint", "method"}),
		StreamsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pushmux",
			Subsystem: "server",
			Name:      "streams_active",
			Help:      "Method invocations currently producing items.",
		}, []string{"endpoint"}),
		StreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushmux",
			Subsystem: "server",
			Name:      "stream_failures_total",
			Help:      "Calls ended with an error frame.",
		}, []string{"endpoint", "method"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.CallsOpened, m.CallsActive, m.FramesDropped, m.ChannelFailures,
			m.CallsServed, m.StreamsActive, m.StreamFailures,
		)
	}
	return m
}

func (m *Metrics) callOpened(endpoint string) {
	if m == nil {
		return
	}
	m.CallsOpened.WithLabelValues(endpoint).Inc()
	m.CallsActive.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) callReleased(endpoint string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CallsActive.WithLabelValues(endpoint).Sub(float64(n))
}

// FrameDropped counts an inbound frame dropped for reason.
func (m *Metrics) FrameDropped(endpoint, reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(endpoint, reason).Inc()
}

func (m *Metrics) channelFailed(endpoint string) {
	if m == nil {
		return
	}
	m.ChannelFailures.WithLabelValues(endpoint).Inc()
}

// StreamStarted records a server side call start.
func (m *Metrics) StreamStarted(endpoint, method string) {
	if m == nil {
		return
	}
	m.CallsServed.WithLabelValues(endpoint, method).Inc()
	m.StreamsActive.WithLabelValues(endpoint).Inc()
}

// StreamEnded records a server side call end, failed is true when it ended
// with an error frame.
func (m *Metrics) StreamEnded(endpoint, method string, failed bool) {
	if m == nil {
		return
	}
	m.StreamsActive.WithLabelValues(endpoint).Dec()
	if failed {
		m.StreamFailures.WithLabelValues(endpoint, method).Inc()
	}
}
