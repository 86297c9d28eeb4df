// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package iblt implements the Invertible Bloom Lookup Table used to
// reconcile a producer's and a consumer's views of (prefix, seq) pairs:
// a fixed-length array of HashCell buckets that supports insert, erase,
// cell-wise subtraction, and peeling decode.
package iblt

import (
	"errors"

	"github.com/luxfi/psync/hash"
	"github.com/luxfi/psync/utils/set"
)

// ErrLengthMismatch is returned by Subtract when the two tables were
// not built with the same cell count. Equals reports such tables as
// unequal rather than returning an error.
var ErrLengthMismatch = errors.New("iblt: cell count mismatch")

// HashCell is one bucket of the table. It is empty iff all three
// fields are zero, and pure iff it holds (with high probability)
// exactly one surviving key.
type HashCell struct {
	Count    int32
	KeySum   uint32
	KeyCheck uint32
}

// Empty reports whether the cell has never been touched by a net
// insert or erase.
func (c HashCell) Empty() bool {
	return c.Count == 0 && c.KeySum == 0 && c.KeyCheck == 0
}

// Pure reports whether the cell is known, with high probability, to
// hold exactly one key: its count is +-1 and its check hash matches
// its key sum.
func (c HashCell) Pure() bool {
	if c.Count != 1 && c.Count != -1 {
		return false
	}
	return c.KeyCheck == hash.Check(hash.LE32(c.KeySum))
}

// IBLT is a fixed-size table of HashCells split into hash.NHash equal
// sub-ranges, one per seed.
type IBLT struct {
	cells []HashCell
}

// New builds an IBLT sized for expected entries, oversized 1.5x and
// rounded up to a multiple of hash.NHash per spec.
func New(expected int) *IBLT {
	n := expected + expected/2
	for n%hash.NHash != 0 {
		n++
	}
	if n == 0 {
		n = hash.NHash
	}
	return &IBLT{cells: make([]HashCell, n)}
}

// Len returns the number of cells in the table.
func (t *IBLT) Len() int {
	return len(t.cells)
}

// Cells returns the underlying cell slice. Callers must not retain a
// reference across a mutating call; use Clone to snapshot.
func (t *IBLT) Cells() []HashCell {
	return t.cells
}

// FromCells builds an IBLT directly from a cell slice, as produced by
// the wire decoder. The caller is responsible for the slice length
// being a multiple of hash.NHash.
func FromCells(cells []HashCell) *IBLT {
	return &IBLT{cells: cells}
}

// Clone returns an independent copy of t.
func (t *IBLT) Clone() *IBLT {
	out := make([]HashCell, len(t.cells))
	copy(out, t.cells)
	return &IBLT{cells: out}
}

func (t *IBLT) apply(sign int32, key uint32) {
	kvec := hash.LE32(key)
	check := hash.Check(kvec)
	bucketsPerHash := len(t.cells) / hash.NHash
	for j := 0; j < hash.NHash; j++ {
		start := j * bucketsPerHash
		idx := start + int(hash.H(uint32(j), kvec))%bucketsPerHash
		c := &t.cells[idx]
		c.Count += sign
		c.KeySum ^= key
		c.KeyCheck ^= check
	}
}

// Insert adds key to the table.
func (t *IBLT) Insert(key uint32) {
	t.apply(1, key)
}

// Erase removes key from the table.
func (t *IBLT) Erase(key uint32) {
	t.apply(-1, key)
}

// Subtract returns the cell-wise difference t - other. Both tables
// must have the same cell count.
func (t *IBLT) Subtract(other *IBLT) (*IBLT, error) {
	if len(t.cells) != len(other.cells) {
		return nil, ErrLengthMismatch
	}
	out := t.Clone()
	for i := range out.cells {
		out.cells[i].Count -= other.cells[i].Count
		out.cells[i].KeySum ^= other.cells[i].KeySum
		out.cells[i].KeyCheck ^= other.cells[i].KeyCheck
	}
	return out, nil
}

// Equals reports whether t and other have identical cell contents.
func (t *IBLT) Equals(other *IBLT) bool {
	if len(t.cells) != len(other.cells) {
		return false
	}
	for i := range t.cells {
		if t.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// ListEntries runs the peeling decoder on a copy of t. ok is true iff
// the table decoded to all-empty cells; when ok is false, positive and
// negative hold whatever partial recovery the peeling made and must
// be treated as unusable by the caller (spec.md's undecodable-diff
// path).
func (t *IBLT) ListEntries() (positive, negative []uint32, ok bool) {
	peeled := t.Clone()
	pos := set.NewSet[uint32](0)
	neg := set.NewSet[uint32](0)

	for {
		erased := 0
		for i := range peeled.cells {
			c := peeled.cells[i]
			if !c.Pure() {
				continue
			}
			if c.Count == 1 {
				pos.Add(c.KeySum)
			} else {
				neg.Add(c.KeySum)
			}
			peeled.apply(-c.Count, c.KeySum)
			erased++
		}
		if erased == 0 {
			break
		}
	}

	for _, c := range peeled.cells {
		if !c.Empty() {
			return pos.List(), neg.List(), false
		}
	}
	return pos.List(), neg.List(), true
}
