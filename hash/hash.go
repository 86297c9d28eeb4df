// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hash provides the keyed hash primitive the IBLT and Bloom
// filter use to place and check keys. It is the only place in this
// module that touches a general-purpose hash function; every other
// package asks this one for indices and check values.
package hash

import "github.com/spaolacci/murmur3"

// NHash is the number of independent sub-tables an IBLT cell is split
// across, and the number of seeds reserved for IBLT bucket placement
// (0..NHash-1).
const NHash = 3

// SeedCheck is the seed reserved for the IBLT's per-key check hash.
// No other component may reuse this seed when hashing through H.
const SeedCheck = 11

// H is a keyed 32-bit hash over b, seeded by seed. It is deterministic
// and near-uniform over uint32 for any fixed seed.
func H(seed uint32, b []byte) uint32 {
	return murmur3.Sum32WithSeed(b, seed)
}

// Check returns H(SeedCheck, b), the IBLT's per-key check hash.
func Check(b []byte) uint32 {
	return H(SeedCheck, b)
}

// LE32 encodes v as 4 little-endian bytes.
func LE32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
