// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consumer

import (
	"errors"
	"time"
)

// DefaultInterestLifetime is the lifetime given to hello and sync
// interests when Config carries none, per spec.md section 6.
const DefaultInterestLifetime = 4000 * time.Millisecond

// SubscribeAllN and SubscribeAllP select "subscribe-all" mode per
// spec.md section 4.6: a deliberately tiny, high-false-positive-rate
// subscription filter. No special-case code branches on this pair —
// bloom.Contains never false-negatives, so a filter this undersized
// simply answers "yes" to nearly every query once a handful of
// prefixes are inserted, which is the whole trick. The constants
// exist so callers can opt in by name instead of guessing values.
const (
	SubscribeAllN = 1
	SubscribeAllP = 0.001
)

var (
	// ErrSyncPrefixRequired is returned by Config.Validate when
	// SyncPrefix is empty.
	ErrSyncPrefixRequired = errors.New("consumer: sync prefix is required")
	// ErrInvalidN is returned when N is not positive.
	ErrInvalidN = errors.New("consumer: N must be positive")
	// ErrInvalidP is returned when P is outside (0, 1).
	ErrInvalidP = errors.New("consumer: P must be in (0, 1)")
)

// Config parameterizes a LogicConsumer's subscription filter and
// timing.
type Config struct {
	// SyncPrefix is the producer's sync prefix, e.g. "/psync".
	SyncPrefix string
	// N is the projected number of subscribed prefixes, sizing the
	// subscription Bloom filter.
	N int
	// P is the desired false-positive rate for the subscription
	// filter.
	P float64
	// InterestLifetime is used for hello/sync interests when nonzero;
	// defaults to DefaultInterestLifetime.
	InterestLifetime time.Duration
}

// Validate checks required fields and applies defaults in place.
func (c *Config) Validate() error {
	if c.SyncPrefix == "" {
		return ErrSyncPrefixRequired
	}
	if c.N <= 0 {
		return ErrInvalidN
	}
	if c.P <= 0 || c.P >= 1 {
		return ErrInvalidP
	}
	if c.InterestLifetime <= 0 {
		c.InterestLifetime = DefaultInterestLifetime
	}
	return nil
}
