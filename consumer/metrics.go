// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consumer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/psync/internal/metrics"
)

// metricsSet is the consumer's collector bundle, mirroring
// producer.metricsSet's shape but counting the consumer's own
// request/reissue/NACK activity.
type metricsSet struct {
	helloInterestsSent prometheus.Counter
	syncInterestsSent  prometheus.Counter
	nacksReceived      prometheus.Counter
	timeouts           prometheus.Counter
	updatesReceived    prometheus.Counter
}

func newMetricsSet(reg prometheus.Registerer) (*metricsSet, error) {
	m := &metricsSet{
		helloInterestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_consumer",
			Name:      "hello_interests_sent_total",
			Help:      "Hello interests sent.",
		}),
		syncInterestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_consumer",
			Name:      "sync_interests_sent_total",
			Help:      "Sync interests sent.",
		}),
		nacksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_consumer",
			Name:      "nacks_received_total",
			Help:      "NACK sync replies received.",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_consumer",
			Name:      "timeouts_total",
			Help:      "Hello or sync interests that timed out.",
		}),
		updatesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psync_consumer",
			Name:      "missing_data_updates_total",
			Help:      "Non-empty MissingData batches delivered to onUpdate.",
		}),
	}
	err := metrics.NewMetrics(reg).RegisterAll(
		m.helloInterestsSent,
		m.syncInterestsSent,
		m.nacksReceived,
		m.timeouts,
		m.updatesReceived,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
