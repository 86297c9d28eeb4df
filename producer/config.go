// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package producer

import (
	"errors"
	"time"
)

// DefaultInterestLifetime is the lifetime a pending entry is given
// when the triggering Interest carries none, per spec.md section 6.
const DefaultInterestLifetime = 4000 * time.Millisecond

var (
	// ErrSyncPrefixRequired is returned by Config.Validate when
	// SyncPrefix is empty.
	ErrSyncPrefixRequired = errors.New("producer: sync prefix is required")
	// ErrExpectedMustBePositive is returned by Config.Validate when
	// Expected is not a positive entry count.
	ErrExpectedMustBePositive = errors.New("producer: expected entry count must be positive")
)

// Config parameterizes a LogicRepo.
type Config struct {
	// SyncPrefix is the name under which hello and sync interests are
	// served, e.g. "/psync".
	SyncPrefix string
	// Expected is the projected number of (prefix, seq) pairs the
	// authoritative IBLT is sized for.
	Expected int
	// InterestLifetime is used for pending-entry expiration when an
	// incoming sync interest carries no lifetime of its own. Defaults
	// to DefaultInterestLifetime when zero.
	InterestLifetime time.Duration
}

// Validate checks required fields and applies defaults in place.
func (c *Config) Validate() error {
	if c.SyncPrefix == "" {
		return ErrSyncPrefixRequired
	}
	if c.Expected <= 0 {
		return ErrExpectedMustBePositive
	}
	if c.InterestLifetime <= 0 {
		c.InterestLifetime = DefaultInterestLifetime
	}
	return nil
}

// Threshold is the decode-threshold constant from spec.md section 4.5:
// a diff of this size or larger forces a reply even without a
// subscription hit.
func (c Config) Threshold() int {
	return c.Expected / 2
}
