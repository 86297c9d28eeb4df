// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consumer implements the consumer side of the sync state
// machine (spec.md section 4.6): the hello/sync request loop, the
// subscription Bloom filter, and the MissingData events surfaced to
// the caller.
package consumer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/psync/api/health"
	"github.com/luxfi/psync/bloom"
	"github.com/luxfi/psync/face"
	nolog "github.com/luxfi/psync/log"
	"github.com/luxfi/psync/ndn"
	"github.com/luxfi/psync/wire"
)

// MissingData is one update the consumer learned about: prefix has
// advanced from lowExclusive to highInclusive.
type MissingData struct {
	Prefix        string
	LowExclusive  uint64
	HighInclusive uint64
}

// LogicConsumer is the consumer-side sync engine. Like LogicRepo, it
// assumes a single-threaded cooperative caller (spec.md section 5);
// it performs no internal locking.
type LogicConsumer struct {
	cfg  Config
	face face.Face
	log  luxlog.Logger
	ctx  context.Context

	metrics *metricsSet

	onUpdate       func([]MissingData)
	onReceiveHello func(map[string]uint64)

	known     map[string]uint64
	lastIBLT  []byte
	helloSent bool

	subscriptions []string
	bf            *bloom.BloomFilter
}

var _ health.Checkable = (*LogicConsumer)(nil)

// NewLogicConsumer builds a LogicConsumer. onUpdate and onReceiveHello
// may be nil. logger may be nil to use a no-op logger.
func NewLogicConsumer(cfg Config, f face.Face, logger luxlog.Logger, reg prometheus.Registerer, onUpdate func([]MissingData), onReceiveHello func(map[string]uint64)) (*LogicConsumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	m, err := newMetricsSet(reg)
	if err != nil {
		return nil, fmt.Errorf("consumer: register metrics: %w", err)
	}
	return &LogicConsumer{
		cfg:            cfg,
		face:           f,
		log:            logger,
		metrics:        m,
		onUpdate:       onUpdate,
		onReceiveHello: onReceiveHello,
		known:          make(map[string]uint64),
		bf:             bloom.New(cfg.N, cfg.P),
	}, nil
}

// AddSL subscribes to prefix, inserting it into the subscription set
// and its Bloom filter.
func (c *LogicConsumer) AddSL(prefix string) {
	c.subscriptions = append(c.subscriptions, prefix)
	c.bf.Insert([]byte(prefix))
}

// Start issues the first hello interest. ctx is retained for the
// lifetime of the loop: every subsequent hello/sync reissue uses it.
func (c *LogicConsumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	return c.sendHelloInterest()
}

func (c *LogicConsumer) sendHelloInterest() error {
	c.metrics.helloInterestsSent.Inc()
	name := ndn.AppendHello(ndn.ParseName(c.cfg.SyncPrefix))
	err := c.face.ExpressInterest(c.ctx, ndn.Interest{
		Name:        name,
		CanBePrefix: true,
		MustBeFresh: true,
		Lifetime:    c.cfg.InterestLifetime,
	}, c.onHelloData, c.onHelloNack, c.onHelloTimeout)
	if err != nil {
		return fmt.Errorf("consumer: express hello interest: %w", err)
	}
	c.helloSent = true
	return nil
}

func (c *LogicConsumer) onHelloData(d ndn.Data) {
	c.lastIBLT = []byte(ndn.LastComponent(d.Name))
	parsed, err := parsePrefixSeqLines(d.Content)
	if err != nil {
		c.log.Warn("malformed hello content", "err", err)
		return
	}
	c.known = parsed
	if c.onReceiveHello != nil {
		c.onReceiveHello(copySeqMap(parsed))
	}
	if err := c.sendSyncInterest(); err != nil {
		c.log.Warn("send sync interest after hello failed", "err", err)
	}
}

func (c *LogicConsumer) onHelloNack(reason string) {
	c.log.Debug("hello interest nacked, reissuing", "reason", reason)
	if err := c.sendHelloInterest(); err != nil {
		c.log.Warn("reissue hello interest failed", "err", err)
	}
}

func (c *LogicConsumer) onHelloTimeout() {
	c.metrics.timeouts.Inc()
	if err := c.sendHelloInterest(); err != nil {
		c.log.Warn("reissue hello interest failed", "err", err)
	}
}

// sendSyncInterest issues a standing sync interest. Its precondition
// (spec.md section 4.6) is that a hello has been sent and a prior
// IBLT component has been learned; it is a silent no-op otherwise.
func (c *LogicConsumer) sendSyncInterest() error {
	if !c.helloSent || len(c.lastIBLT) == 0 {
		c.log.Debug("sendSyncInterest skipped: no hello reply learned yet")
		return nil
	}
	c.metrics.syncInterestsSent.Inc()
	pPermille := int(math.Round(c.cfg.P * 1000))
	bfComponent := wire.EncodeBloomComponent(c.bf)
	name := ndn.AppendSync(ndn.ParseName(c.cfg.SyncPrefix), c.cfg.N, pPermille, bfComponent, c.lastIBLT)
	err := c.face.ExpressInterest(c.ctx, ndn.Interest{
		Name:        name,
		CanBePrefix: true,
		MustBeFresh: true,
		Lifetime:    c.cfg.InterestLifetime,
	}, c.onSyncData, c.onSyncNack, c.onSyncTimeout)
	if err != nil {
		return fmt.Errorf("consumer: express sync interest: %w", err)
	}
	return nil
}

func (c *LogicConsumer) onSyncData(d ndn.Data) {
	c.lastIBLT = []byte(ndn.LastComponent(d.Name))

	if string(d.Content) == ndn.NackContent {
		c.metrics.nacksReceived.Inc()
		if err := c.sendSyncInterest(); err != nil {
			c.log.Warn("reissue sync interest after nack failed", "err", err)
		}
		return
	}

	parsed, err := parsePrefixSeqLines(d.Content)
	if err != nil {
		c.log.Warn("malformed sync content", "err", err)
		return
	}

	var batch []MissingData
	for prefix, seq := range parsed {
		oldSeq, known := c.known[prefix]
		if !known || seq > oldSeq {
			batch = append(batch, MissingData{Prefix: prefix, LowExclusive: oldSeq, HighInclusive: seq})
		}
		c.known[prefix] = seq
	}

	if len(batch) > 0 {
		c.metrics.updatesReceived.Inc()
		if c.onUpdate != nil {
			c.onUpdate(batch)
		}
	}

	if err := c.sendSyncInterest(); err != nil {
		c.log.Warn("reissue sync interest failed", "err", err)
	}
}

func (c *LogicConsumer) onSyncNack(reason string) {
	c.log.Debug("sync interest nacked, reissuing", "reason", reason)
	if err := c.sendSyncInterest(); err != nil {
		c.log.Warn("reissue sync interest failed", "err", err)
	}
}

func (c *LogicConsumer) onSyncTimeout() {
	c.metrics.timeouts.Inc()
	if err := c.sendSyncInterest(); err != nil {
		c.log.Warn("reissue sync interest after timeout failed", "err", err)
	}
}

// Health reports the known prefix count and subscription size,
// implementing api/health.Checkable.
func (c *LogicConsumer) Health(context.Context) (interface{}, error) {
	return &health.Report{
		Healthy: true,
		Details: map[string]interface{}{
			"knownPrefixes": len(c.known),
			"subscriptions": len(c.subscriptions),
		},
	}, nil
}

func copySeqMap(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func parsePrefixSeqLines(content []byte) (map[string]uint64, error) {
	out := make(map[string]uint64)
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("consumer: malformed content line %q", line)
		}
		seq, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("consumer: malformed seq in line %q: %w", line, err)
		}
		out[parts[0]] = seq
	}
	return out, nil
}
