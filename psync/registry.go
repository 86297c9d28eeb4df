// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package psync holds the producer engine's prefix registry: the
// authoritative prefix->seq map plus its two
// back-reference maps into the IBLT's 32-bit key space, per spec.md
// section 3 and section 9's "keep them in a single owning struct"
// note. Nothing here is protocol-specific; it is a small graph of
// three maps that the engines mutate only through its methods.
package psync

import (
	"fmt"

	"github.com/luxfi/psync/hash"
)

// Registry owns prefix -> seq, prefix/seq -> key_hash, and
// key_hash -> prefix together, so the three never drift out of sync.
// The zero value is not usable; construct with NewRegistry.
type Registry struct {
	seq          map[string]uint64
	prefixToHash map[string]uint32
	hashToPrefix map[uint32]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		seq:          make(map[string]uint64),
		prefixToHash: make(map[string]uint32),
		hashToPrefix: make(map[uint32]string),
	}
}

// KeyFor computes H_check(prefix + "/" + seq), the 32-bit key the
// IBLT tracks for a given (prefix, seq) pair.
func KeyFor(prefix string, seq uint64) uint32 {
	return hash.Check([]byte(fmt.Sprintf("%s/%d", prefix, seq)))
}

// Has reports whether prefix is registered.
func (r *Registry) Has(prefix string) bool {
	_, ok := r.seq[prefix]
	return ok
}

// Seq returns the current sequence for prefix and whether it exists.
func (r *Registry) Seq(prefix string) (uint64, bool) {
	s, ok := r.seq[prefix]
	return s, ok
}

// Add registers prefix at seq 0 and returns the key the caller must
// insert into the authoritative IBLT. It is a no-op returning
// (0, false) if prefix is already registered.
func (r *Registry) Add(prefix string) (key uint32, added bool) {
	if r.Has(prefix) {
		return 0, false
	}
	key = KeyFor(prefix, 0)
	r.seq[prefix] = 0
	r.prefixToHash[prefix] = key
	r.hashToPrefix[key] = prefix
	return key, true
}

// Remove drops prefix from all three maps and returns the key that
// must be erased from the authoritative IBLT. It returns
// (0, false) if prefix was not registered.
func (r *Registry) Remove(prefix string) (key uint32, removed bool) {
	key, ok := r.prefixToHash[prefix]
	if !ok {
		return 0, false
	}
	delete(r.seq, prefix)
	delete(r.prefixToHash, prefix)
	delete(r.hashToPrefix, key)
	return key, true
}

// Advance bumps prefix's sequence to newSeq and returns the old and
// new keys the caller must erase and insert, respectively. It is a
// no-op returning (0, 0, false) if prefix is not registered.
func (r *Registry) Advance(prefix string, newSeq uint64) (oldKey, newKey uint32, ok bool) {
	oldSeq, exists := r.seq[prefix]
	if !exists {
		return 0, 0, false
	}
	oldKey = KeyFor(prefix, oldSeq)
	newKey = KeyFor(prefix, newSeq)
	r.seq[prefix] = newSeq
	delete(r.hashToPrefix, oldKey)
	r.prefixToHash[prefix] = newKey
	r.hashToPrefix[newKey] = prefix
	return oldKey, newKey, true
}

// PrefixFor reverses a key recovered from IBLT decoding back to the
// prefix name it belongs to.
func (r *Registry) PrefixFor(key uint32) (string, bool) {
	p, ok := r.hashToPrefix[key]
	return p, ok
}

// Snapshot returns a defensive copy of the prefix->seq map, suitable
// for rendering a hello reply's content lines.
func (r *Registry) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(r.seq))
	for k, v := range r.seq {
		out[k] = v
	}
	return out
}

// Len returns the number of registered prefixes.
func (r *Registry) Len() int { return len(r.seq) }
