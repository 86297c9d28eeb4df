// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package producer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/psync/internal/metrics"
)

// metricsSet is the producer's collector bundle, grounded on the
// teacher's metrics.Metrics{Registry}/Register pattern but holding the
// specific gauges/counters the pending-entry scan and sync/hello
// handlers need.
type metricsSet struct {
	pendingEntries prometheus.Gauge
	nacksSent      prometheus.Counter
	helloRequests  prometheus.Counter
	syncRequests   prometheus.Counter
	decodeFailures prometheus.Counter
}

func newMetricsSet(reg prometheus.Registerer) (*metricsSet, error) {
	m := &metricsSet{
		pendingEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "psync_producer",
			Name:      "pending_entries",
			Help:      "Number of sync requests currently held pending.",
		}),
		nacksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_producer",
			Name:      "nacks_sent_total",
			Help:      "NACK replies sent for undecodable diffs.",
		}),
		helloRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_producer",
			Name:      "hello_requests_total",
			Help:      "Hello interests received.",
		}),
		syncRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_producer",
			Name:      "sync_requests_total",
			Help:      "Sync interests received.",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_producer",
			Name:      "decode_failures_total",
			Help:      "Sync interests whose name components failed to parse or decode.",
		}),
	}
	err := metrics.NewMetrics(reg).RegisterAll(
		m.pendingEntries,
		m.nacksSent,
		m.helloRequests,
		m.syncRequests,
		m.decodeFailures,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
