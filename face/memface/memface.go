// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memface is an in-process implementation of face.Face and
// face.Scheduler over a shared Bus, used by tests and cmd/psyncdemo in
// place of a real network face. Bus guards its own state with one
// mutex and releases it before invoking any callback, so a handler
// invoked synchronously from ExpressInterest may itself call Put or
// ExpressInterest without deadlocking. Callbacks are not serialized
// against each other: interest timeouts and ScheduleEvent actions run
// on their own timer goroutines, concurrently with the caller's.
package memface

import (
	"context"
	"sync"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/face"
	"github.com/luxfi/psync/ndn"
)

type filterEntry struct {
	prefix  ndn.Name
	handler func(ndn.Interest, ids.NodeID)
}

type pendingInterest struct {
	name        ndn.Name
	canBePrefix bool
	onData      func(ndn.Data)
	onNack      func(string)
	onTimeout   func()
	timer       *time.Timer
	resolved    bool
}

// Bus is the shared in-memory medium multiple Face instances attach
// to. It routes ExpressInterest calls to matching SetInterestFilter
// handlers and Put calls back to matching pending interests.
type Bus struct {
	mu       sync.Mutex
	filters  []filterEntry
	pending  map[int]*pendingInterest
	nextID   int
	nextTick int64
	timers   map[face.EventHandle]*time.Timer
}

// NewBus creates an empty shared medium.
func NewBus() *Bus {
	return &Bus{pending: make(map[int]*pendingInterest)}
}

// Face is a Bus-bound face.Face/face.Scheduler implementation
// identified by self when delivering inbound Interests to handlers.
type Face struct {
	bus  *Bus
	self ids.NodeID
}

// NewFace returns a face attached to bus, identified as self.
func NewFace(bus *Bus, self ids.NodeID) *Face {
	return &Face{bus: bus, self: self}
}

var _ face.Face = (*Face)(nil)
var _ face.Scheduler = (*Face)(nil)

// ExpressInterest registers the pending completion, arms a timeout
// timer for i.Lifetime, then synchronously dispatches to any matching
// filter handler. If the handler calls Put for a matching name before
// returning, the interest resolves immediately and the timer is
// stopped before it can fire.
func (f *Face) ExpressInterest(_ context.Context, i ndn.Interest, onData func(ndn.Data), onNack func(string), onTimeout func()) error {
	f.bus.mu.Lock()
	id := f.bus.nextID
	f.bus.nextID++
	p := &pendingInterest{
		name:        i.Name,
		canBePrefix: i.CanBePrefix,
		onData:      onData,
		onNack:      onNack,
		onTimeout:   onTimeout,
	}
	f.bus.pending[id] = p
	lifetime := i.Lifetime
	if lifetime <= 0 {
		lifetime = 4000 * time.Millisecond
	}
	p.timer = time.AfterFunc(lifetime, func() {
		f.bus.mu.Lock()
		if p.resolved {
			f.bus.mu.Unlock()
			return
		}
		p.resolved = true
		delete(f.bus.pending, id)
		f.bus.mu.Unlock()
		if p.onTimeout != nil {
			p.onTimeout()
		}
	})

	handler := f.bus.matchFilter(i.Name)
	f.bus.mu.Unlock()

	if handler != nil {
		handler(i, f.self)
	}
	return nil
}

func (b *Bus) matchFilter(name ndn.Name) func(ndn.Interest, ids.NodeID) {
	var best *filterEntry
	for idx := range b.filters {
		fe := &b.filters[idx]
		if fe.prefix.IsPrefixOf(name) {
			if best == nil || fe.prefix.Len() > best.prefix.Len() {
				best = fe
			}
		}
	}
	if best == nil {
		return nil
	}
	return best.handler
}

// SetInterestFilter registers onInterest for Interests under prefix.
func (f *Face) SetInterestFilter(prefix ndn.Name, onInterest func(ndn.Interest, ids.NodeID)) error {
	f.bus.mu.Lock()
	defer f.bus.mu.Unlock()
	for idx := range f.bus.filters {
		if f.bus.filters[idx].prefix.Equal(prefix) {
			f.bus.filters[idx].handler = onInterest
			return nil
		}
	}
	f.bus.filters = append(f.bus.filters, filterEntry{prefix: prefix, handler: onInterest})
	return nil
}

// Put resolves the earliest-registered pending interest whose name
// matches d.Name, calling its onData (or, for the NACK sentinel body,
// still onData — NACK is an ordinary Data reply per spec.md section 7,
// not a network-layer Nack). At most one interest is resolved per Put.
func (f *Face) Put(d ndn.Data) error {
	f.bus.mu.Lock()
	var toCall func(ndn.Data)
	first := -1
	for id, p := range f.bus.pending {
		if !p.resolved && matches(p, d.Name) && (first == -1 || id < first) {
			first = id
		}
	}
	if first != -1 {
		p := f.bus.pending[first]
		p.resolved = true
		p.timer.Stop()
		delete(f.bus.pending, first)
		toCall = p.onData
	}
	f.bus.mu.Unlock()
	if toCall != nil {
		toCall(d)
	}
	return nil
}

func matches(p *pendingInterest, name ndn.Name) bool {
	if p.canBePrefix {
		return p.name.IsPrefixOf(name)
	}
	return p.name.Equal(name)
}

// ScheduleEvent implements face.Scheduler using a real timer; it is
// independent of the per-interest timeout timers above, matching
// spec.md section 4.7's separate scheduler collaborator.
func (f *Face) ScheduleEvent(d time.Duration, action func()) face.EventHandle {
	f.bus.mu.Lock()
	f.bus.nextTick++
	handle := face.EventHandle(f.bus.nextTick)
	f.bus.mu.Unlock()

	timer := time.AfterFunc(d, func() {
		f.bus.mu.Lock()
		_, still := f.bus.scheduled(handle)
		if still {
			f.bus.unschedule(handle)
		}
		f.bus.mu.Unlock()
		if still {
			action()
		}
	})
	f.bus.mu.Lock()
	f.bus.schedule(handle, timer)
	f.bus.mu.Unlock()
	return handle
}

// CancelEvent cancels a previously scheduled event. Canceling an
// already-fired or already-canceled handle is a no-op.
func (f *Face) CancelEvent(h face.EventHandle) {
	f.bus.mu.Lock()
	defer f.bus.mu.Unlock()
	if timer, ok := f.bus.scheduled(h); ok {
		timer.Stop()
		f.bus.unschedule(h)
	}
}

// scheduled/schedule/unschedule track live timers by handle, kept
// separate from the pending-interest map above.
func (b *Bus) scheduled(h face.EventHandle) (*time.Timer, bool) {
	t, ok := b.timers[h]
	return t, ok
}

func (b *Bus) schedule(h face.EventHandle, t *time.Timer) {
	if b.timers == nil {
		b.timers = make(map[face.EventHandle]*time.Timer)
	}
	b.timers[h] = t
}

func (b *Bus) unschedule(h face.EventHandle) {
	delete(b.timers, h)
}
