// Package metrics exports tool call metrics to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "filebridge"

// Collector records tool call counts, latency and concurrency. A nil
// *Collector is valid and records nothing.
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewCollector registers the tool metrics with registerer, reusing
// collectors that are already registered. A nil registerer means
// prometheus.DefaultRegisterer.
func NewCollector(registerer prometheus.Registerer) (*Collector, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "calls_total",
		Help:      "Tool calls partitioned by tool name and outcome.",
	}, []string{"tool", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "duration_seconds",
		Help:      "Tool execution latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
	inFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "in_flight",
		Help:      "Tool invocations currently executing.",
	}, []string{"tool"})

	var err error
	if calls, err = register(registerer, calls); err != nil {
		return nil, err
	}
	if duration, err = register(registerer, duration); err != nil {
		return nil, err
	}
	if inFlight, err = register(registerer, inFlight); err != nil {
		return nil, err
	}
	return &Collector{calls: calls, duration: duration, inFlight: inFlight}, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Started marks an invocation of tool as executing.
func (c *Collector) Started(tool string) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(tool).Inc()
}

// Finished records the outcome of an invocation started with Started.
// outcome is "success" or the error kind.
func (c *Collector) Finished(tool, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(tool).Dec()
	c.duration.WithLabelValues(tool).Observe(d.Seconds())
	c.calls.WithLabelValues(tool, outcome).Inc()
}

// Rejected counts a call that never reached execution.
func (c *Collector) Rejected(tool, outcome string) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(tool, outcome).Inc()
}
