// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics adapts the teacher's metrics.Metrics{Registry}
// wrapper (originally at the module root) into the shared
// registration helper producer.metricsSet and consumer.metricsSet
// build their collector bundles on top of.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps a prometheus.Registerer so an engine can register its
// whole collector set through one call, the same shape as the
// teacher's metrics.Metrics{Registry}/Register pair.
type Metrics struct {
	Registry prometheus.Registerer
}

// NewMetrics wraps reg. reg may be nil; Register and RegisterAll then
// become no-ops, letting callers (and tests) skip metrics entirely
// without special-casing every call site.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{Registry: reg}
}

// Register registers a single collector.
func (m *Metrics) Register(collector prometheus.Collector) error {
	if m.Registry == nil {
		return nil
	}
	return m.Registry.Register(collector)
}

// RegisterAll registers every collector in cs, stopping at the first
// error.
func (m *Metrics) RegisterAll(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}
