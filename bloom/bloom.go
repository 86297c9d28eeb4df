// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bloom implements the Bloom filter the consumer uses to
// encode its subscription set, with optimal-parameter computation from
// a projected element count and desired false-positive rate.
package bloom

import (
	"errors"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/luxfi/psync/hash"
)

// SaltBase is the fixed seed offset for the filter's k hash salts, so
// that bloom index computation never collides with the IBLT's seed
// range (0..hash.NHash) or its check-hash seed (hash.SeedCheck).
const SaltBase = 1000

// ErrSizeMismatch is returned by Deserialize when the supplied bytes
// do not match the byte-rounded table size computed from (n, p).
var ErrSizeMismatch = errors.New("bloom: table size mismatch")

// BloomFilter is an M-bit table checked/set by k independently seeded
// hashes.
type BloomFilter struct {
	n int
	p float64
	m uint
	k uint

	table *bitset.BitSet
}

// New derives (M, k) from the projected element count n and desired
// false-positive rate p via the closed-form optimum, rounds M up to a
// byte boundary, and returns an empty filter.
func New(n int, p float64) *BloomFilter {
	m, k := optimalParams(n, p)
	return &BloomFilter{
		n:     n,
		p:     p,
		m:     m,
		k:     k,
		table: bitset.New(m),
	}
}

func optimalParams(n int, p float64) (m, k uint) {
	if n <= 0 {
		n = 1
	}
	mBits := math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	m = uint(mBits)
	if m == 0 {
		m = 8
	}
	// Round up to a byte boundary.
	if rem := m % 8; rem != 0 {
		m += 8 - rem
	}
	k = uint(math.Round(float64(m) / float64(n) * math.Ln2))
	if k == 0 {
		k = 1
	}
	return m, k
}

// N returns the projected element count this filter was sized for.
func (bf *BloomFilter) N() int { return bf.n }

// P returns the false-positive rate this filter was sized for.
func (bf *BloomFilter) P() float64 { return bf.p }

// M returns the bit table size.
func (bf *BloomFilter) M() uint { return bf.m }

// K returns the number of hash salts.
func (bf *BloomFilter) K() uint { return bf.k }

func (bf *BloomFilter) indices(b []byte) []uint {
	idx := make([]uint, bf.k)
	for i := uint(0); i < bf.k; i++ {
		idx[i] = uint(hash.H(SaltBase+uint32(i), b)) % bf.m
	}
	return idx
}

// Insert sets the k bits b hashes to.
func (bf *BloomFilter) Insert(b []byte) {
	for _, i := range bf.indices(b) {
		bf.table.Set(i)
	}
}

// Contains reports whether all k bits b hashes to are set.
func (bf *BloomFilter) Contains(b []byte) bool {
	for _, i := range bf.indices(b) {
		if !bf.table.Test(i) {
			return false
		}
	}
	return true
}

// Table returns the underlying bit table.
func (bf *BloomFilter) Table() *bitset.BitSet {
	return bf.table
}

// Serialize returns the wire form of the bit table: just the raw
// bytes, M/8 of them. (n, p) travel alongside in the name, per spec.
func (bf *BloomFilter) Serialize() []byte {
	buf := make([]byte, bf.m/8)
	words := bf.table.Bytes()
	for wi, w := range words {
		for bi := 0; bi < 8; bi++ {
			byteIdx := wi*8 + bi
			if byteIdx >= len(buf) {
				break
			}
			buf[byteIdx] = byte(w >> (8 * bi))
		}
	}
	return buf
}

// Deserialize rebuilds a filter from its wire bytes plus the (n, p)
// carried in the name.
func Deserialize(b []byte, n int, p float64) (*BloomFilter, error) {
	bf := New(n, p)
	if uint(len(b)) != bf.m/8 {
		return nil, ErrSizeMismatch
	}
	words := make([]uint64, (len(b)+7)/8)
	for i, v := range b {
		words[i/8] |= uint64(v) << (8 * uint(i%8))
	}
	bf.table = bitset.From(words)
	return bf, nil
}
