// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package producer implements the producer side of the sync state
// machine (spec.md section 4.5): the authoritative IBLT over published
// (prefix, seq) pairs, the prefix registry, and the pending-entries
// table that holds long-lived sync requests until an update answers
// them, NACKs them, or their expiration fires.
package producer

import (
	"context"
	"fmt"
	"strings"
	"time"

	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/api/health"
	"github.com/luxfi/psync/bloom"
	"github.com/luxfi/psync/face"
	"github.com/luxfi/psync/iblt"
	nolog "github.com/luxfi/psync/log"
	"github.com/luxfi/psync/ndn"
	"github.com/luxfi/psync/psync"
	"github.com/luxfi/psync/wire"
)

// PendingEntry is the producer's memory of a sync request it has not
// yet answered: the consumer's subscription filter, the IBLT snapshot
// carried in the request, and the scheduler handle for its expiration.
type PendingEntry struct {
	bf       *bloom.BloomFilter
	iblt     *iblt.IBLT
	interest ndn.Interest
	expire   face.EventHandle
}

// LogicRepo is the producer-side sync engine. It is not safe for
// concurrent use: spec.md section 5 specifies a single-threaded
// cooperative model with no implicit synchronization, so callers must
// serialize calls to it (typically by driving it from a single face
// event loop). face/memface does not serialize timer-driven callbacks:
// pending-entry expirations run on their own goroutines.
type LogicRepo struct {
	cfg   Config
	face  face.Face
	sched face.Scheduler
	kc    face.KeyChain
	store DataStore
	log   luxlog.Logger

	metrics *metricsSet

	authoritative *iblt.IBLT
	registry      *psync.Registry
	pending       map[string]*PendingEntry
}

var _ health.Checkable = (*LogicRepo)(nil)

// NewLogicRepo builds a LogicRepo and registers its hello/sync
// interest filters with f. reg may be nil to skip metrics
// registration; logger may be nil to use a no-op logger.
func NewLogicRepo(cfg Config, f face.Face, sched face.Scheduler, kc face.KeyChain, store DataStore, logger luxlog.Logger, reg prometheus.Registerer) (*LogicRepo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	if store == nil {
		store = NewMemStore()
	}
	m, err := newMetricsSet(reg)
	if err != nil {
		return nil, fmt.Errorf("producer: register metrics: %w", err)
	}

	r := &LogicRepo{
		cfg:           cfg,
		face:          f,
		sched:         sched,
		kc:            kc,
		store:         store,
		log:           logger,
		metrics:       m,
		authoritative: iblt.New(cfg.Expected),
		registry:      psync.NewRegistry(),
		pending:       make(map[string]*PendingEntry),
	}

	syncPrefix := ndn.ParseName(cfg.SyncPrefix)
	if err := f.SetInterestFilter(ndn.AppendHello(syncPrefix), r.onHelloInterest); err != nil {
		return nil, fmt.Errorf("producer: register hello filter: %w", err)
	}
	if err := f.SetInterestFilter(syncPrefix.AppendString(ndn.SyncComponent), r.onSyncInterest); err != nil {
		return nil, fmt.Errorf("producer: register sync filter: %w", err)
	}
	return r, nil
}

// AddSyncNode registers prefix at sequence 0, inserting its hash into
// the authoritative IBLT and registering an interest filter to serve
// application-data fetches under it. Registering an already-known
// prefix is a no-op.
func (r *LogicRepo) AddSyncNode(prefix string) error {
	key, added := r.registry.Add(prefix)
	if !added {
		return nil
	}
	r.authoritative.Insert(key)
	if err := r.face.SetInterestFilter(ndn.ParseName(prefix), r.onApplicationInterest); err != nil {
		return fmt.Errorf("producer: register application filter for %s: %w", prefix, err)
	}
	return nil
}

// RemoveSyncNode erases prefix's current hash from the authoritative
// IBLT and drops it from the registry. Removing an unknown prefix is
// a no-op, and add-then-remove leaves the authoritative IBLT exactly
// as it was before either call (spec.md section 8 scenario 5).
func (r *LogicRepo) RemoveSyncNode(prefix string) error {
	key, removed := r.registry.Remove(prefix)
	if !removed {
		return nil
	}
	r.authoritative.Erase(key)
	return nil
}

// PublishData signs and stores a new Data named prefix/seq+1, then
// advances the registry and scans pending entries for a response. A
// publish against a prefix never added via AddSyncNode is silently
// dropped, per spec.md section 7 (left as an open question, not
// hardened into an error).
func (r *LogicRepo) PublishData(prefix string, content []byte, freshness time.Duration) error {
	seq, ok := r.registry.Seq(prefix)
	if !ok {
		r.log.Debug("publish against unknown prefix dropped", "prefix", prefix)
		return nil
	}
	newSeq := seq + 1
	name := ndn.ParseName(prefix).AppendNumber(newSeq)
	d := ndn.Data{Name: name, Content: content, FreshnessPeriod: freshness}
	if err := r.sign(&d); err != nil {
		return fmt.Errorf("producer: sign application data for %s: %w", prefix, err)
	}
	r.store.Put(name, d)
	r.updateSeq(prefix, newSeq)
	return nil
}

func (r *LogicRepo) updateSeq(prefix string, newSeq uint64) {
	oldKey, newKey, ok := r.registry.Advance(prefix, newSeq)
	if !ok {
		return
	}
	r.authoritative.Erase(oldKey)
	r.authoritative.Insert(newKey)
	r.scanPending(prefix)
}

// scanPending implements spec.md section 4.5's pending-entry scan: for
// every pending entry, recompute the diff against the now-current
// authoritative IBLT and either answer, NACK, or leave it. Doomed keys
// (answered or NACKed) are collected and only deleted after the loop
// completes, per spec.md section 9's "collect then erase" note.
func (r *LogicRepo) scanPending(justAdvanced string) {
	type outcome struct {
		key  string
		nack bool
	}
	var doomed []outcome

	for key, entry := range r.pending {
		diff, err := r.authoritative.Subtract(entry.iblt)
		if err != nil {
			doomed = append(doomed, outcome{key: key, nack: true})
			continue
		}
		positive, negative, ok := diff.ListEntries()
		if !ok {
			doomed = append(doomed, outcome{key: key, nack: true})
			continue
		}
		if entry.bf.Contains([]byte(justAdvanced)) || len(positive)+len(negative) >= r.cfg.Threshold() {
			content := r.buildContent(entry.bf, positive)
			r.respondSync(entry.interest.Name, content)
			doomed = append(doomed, outcome{key: key})
		}
	}

	for _, o := range doomed {
		entry, ok := r.pending[o.key]
		if !ok {
			continue
		}
		if o.nack {
			r.sendNack(entry.interest)
			r.metrics.nacksSent.Inc()
		}
		r.sched.CancelEvent(entry.expire)
		delete(r.pending, o.key)
	}
	r.metrics.pendingEntries.Set(float64(len(r.pending)))
}

func (r *LogicRepo) onApplicationInterest(i ndn.Interest, peer ids.NodeID) {
	d, ok := r.store.Get(i.Name)
	if !ok {
		return
	}
	if err := r.face.Put(d); err != nil {
		r.log.Warn("put application data failed", "err", err, "peer", peer)
	}
}

func (r *LogicRepo) onHelloInterest(_ ndn.Interest, peer ids.NodeID) {
	r.metrics.helloRequests.Inc()
	name := ndn.AppendHelloData(ndn.ParseName(r.cfg.SyncPrefix), wire.EncodeIBLTComponent(r.authoritative))
	d := ndn.Data{Name: name, Content: r.helloContent(), NoCache: true}
	if err := r.sign(&d); err != nil {
		r.log.Warn("sign hello data failed", "err", err, "peer", peer)
		return
	}
	if err := r.face.Put(d); err != nil {
		r.log.Warn("put hello data failed", "err", err, "peer", peer)
	}
}

func (r *LogicRepo) helloContent() []byte {
	var sb strings.Builder
	for prefix, seq := range r.registry.Snapshot() {
		sb.WriteString(prefix)
		sb.WriteByte(' ')
		sb.WriteString(ndn.FormatSeq(seq))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func (r *LogicRepo) onSyncInterest(i ndn.Interest, peer ids.NodeID) {
	r.metrics.syncRequests.Inc()

	n, pPermille, bfBytes, ibltBytes, err := ndn.ParseSync(i.Name)
	if err != nil {
		r.log.Debug("malformed sync interest", "err", err, "peer", peer)
		r.metrics.decodeFailures.Inc()
		r.sendNack(i)
		return
	}
	bf, err := wire.DecodeBloom(bfBytes, n, float64(pPermille)/1000)
	if err != nil {
		r.log.Debug("bloom decode failed", "err", err, "peer", peer)
		r.metrics.decodeFailures.Inc()
		r.sendNack(i)
		return
	}
	consumerIBLT, err := wire.DecodeIBLT(ibltBytes, r.authoritative.Len())
	if err != nil {
		r.log.Debug("iblt decode failed", "err", err, "peer", peer)
		r.metrics.decodeFailures.Inc()
		r.sendNack(i)
		return
	}

	diff, err := r.authoritative.Subtract(consumerIBLT)
	if err != nil {
		r.metrics.decodeFailures.Inc()
		r.sendNack(i)
		return
	}
	positive, negative, ok := diff.ListEntries()
	if !ok {
		r.metrics.nacksSent.Inc()
		r.sendNack(i)
		return
	}

	content := r.buildContent(bf, positive)
	if len(positive)+len(negative) >= r.cfg.Threshold() || len(content) > 0 {
		r.respondSync(i.Name, content)
		return
	}
	r.registerPending(i, bf, consumerIBLT)
}

// buildContent renders the "<prefix> <seq>\n"-per-line body for every
// hash in positive whose prefix is both known to the registry and
// contained in bf, per spec.md section 4.5.
func (r *LogicRepo) buildContent(bf *bloom.BloomFilter, positive []uint32) []byte {
	var sb strings.Builder
	for _, key := range positive {
		prefix, ok := r.registry.PrefixFor(key)
		if !ok || !bf.Contains([]byte(prefix)) {
			continue
		}
		seq, ok := r.registry.Seq(prefix)
		if !ok {
			continue
		}
		sb.WriteString(prefix)
		sb.WriteByte(' ')
		sb.WriteString(ndn.FormatSeq(seq))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func (r *LogicRepo) registerPending(i ndn.Interest, bf *bloom.BloomFilter, consumerIBLT *iblt.IBLT) {
	name := i.Name.String()
	lifetime := i.Lifetime
	if lifetime <= 0 {
		lifetime = r.cfg.InterestLifetime
	}
	entry := &PendingEntry{bf: bf, iblt: consumerIBLT, interest: i}
	entry.expire = r.sched.ScheduleEvent(lifetime, func() {
		delete(r.pending, name)
		r.metrics.pendingEntries.Set(float64(len(r.pending)))
	})
	r.pending[name] = entry
	r.metrics.pendingEntries.Set(float64(len(r.pending)))
}

func (r *LogicRepo) respondSync(requestName ndn.Name, content []byte) {
	name := ndn.AppendIBLTComponent(requestName, wire.EncodeIBLTComponent(r.authoritative))
	d := ndn.Data{Name: name, Content: content}
	if err := r.sign(&d); err != nil {
		r.log.Warn("sign sync data failed", "err", err)
		return
	}
	if err := r.face.Put(d); err != nil {
		r.log.Warn("put sync data failed", "err", err)
	}
}

func (r *LogicRepo) sendNack(i ndn.Interest) {
	name := ndn.AppendIBLTComponent(i.Name, wire.EncodeIBLTComponent(r.authoritative))
	d := ndn.Data{Name: name, Content: []byte(ndn.NackContent)}
	if err := r.sign(&d); err != nil {
		r.log.Warn("sign nack failed", "err", err)
		return
	}
	if err := r.face.Put(d); err != nil {
		r.log.Warn("put nack failed", "err", err)
	}
}

func (r *LogicRepo) sign(d *ndn.Data) error {
	if r.kc == nil {
		return nil
	}
	return r.kc.Sign(d)
}

// Health reports the number of registered prefixes and pending
// entries, implementing api/health.Checkable.
func (r *LogicRepo) Health(context.Context) (interface{}, error) {
	return &health.Report{
		Healthy: true,
		Details: map[string]interface{}{
			"registeredPrefixes": r.registry.Len(),
			"pendingEntries":     len(r.pending),
		},
	}, nil
}
