// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package face specifies the collaborator interfaces the producer and
// consumer engines drive: the network face (send/receive named
// Interests and Data), the scheduler (timed callbacks), and the
// keychain (signing). Implementations live outside this module in
// production; face/memface provides an in-process one for tests and
// the demo command.
//
// Grounded on the teacher's networking/sender.Sender (callback-based
// request dispatch), networking/router.ChainRouter's
// AppRequest/AppResponse/AppRequestFailed completion triad, and
// networking/timeout.Manager's RegisterRequest/RegisterResponse
// register-then-cancel shape, generalized from node-to-node consensus
// messages to content-centric Interest/Data.
package face

import (
	"context"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/ndn"
)

// Face abstracts sending/receiving named Interests and Data. All three
// methods return immediately; completion (for ExpressInterest) and
// delivery (for the filter handler) arrive asynchronously on the same
// event loop, per spec.md section 5.
type Face interface {
	// ExpressInterest sends i and arranges for exactly one of onData,
	// onNack, or onTimeout to be invoked when a matching reply, a Nack,
	// or the interest's lifetime elapses first.
	ExpressInterest(ctx context.Context, i ndn.Interest, onData func(ndn.Data), onNack func(reason string), onTimeout func()) error

	// SetInterestFilter registers onInterest for every inbound Interest
	// whose name has prefix as a component-wise prefix. Registering the
	// same prefix twice replaces the previous handler.
	SetInterestFilter(prefix ndn.Name, onInterest func(ndn.Interest, ids.NodeID)) error

	// Put sends d, typically in response to a previously received
	// Interest.
	Put(d ndn.Data) error
}

// EventHandle is an opaque, comparable token identifying a scheduled
// event so it can be canceled later.
type EventHandle int64

// Scheduler times pending-entry expirations. Cancel is idempotent:
// canceling an already-fired or already-canceled handle is a no-op.
type Scheduler interface {
	ScheduleEvent(d time.Duration, action func()) EventHandle
	CancelEvent(h EventHandle)
}

// KeyChain signs outbound Data in place.
type KeyChain interface {
	Sign(d *ndn.Data) error
}
