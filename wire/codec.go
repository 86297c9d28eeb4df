// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/psync/bloom"
	"github.com/luxfi/psync/iblt"
)

// ErrSizeMismatch is returned when a decoded table's cell/byte count
// does not match the receiver's configured size. Per spec.md 4.4/6,
// this is a parse error that callers must turn into a NACK.
var ErrSizeMismatch = errors.New("wire: size mismatch")

const cellBytes = 12 // count:i32 LE, keySum:u32 LE, keyCheck:u32 LE

// EncodeIBLT returns the raw 12*m-byte cell array for t, three
// little-endian uint32s per cell (count cast two's-complement).
func EncodeIBLT(t *iblt.IBLT) []byte {
	cells := t.Cells()
	out := make([]byte, len(cells)*cellBytes)
	for i, c := range cells {
		off := i * cellBytes
		binary.LittleEndian.PutUint32(out[off:], uint32(c.Count))
		binary.LittleEndian.PutUint32(out[off+4:], c.KeySum)
		binary.LittleEndian.PutUint32(out[off+8:], c.KeyCheck)
	}
	return out
}

// DecodeIBLT parses a raw cell array into an IBLT with m cells. It
// uses the corrected stride-4 loop (index i, advance by 4 bytes per
// field) rather than the off-by-one-nibble bug in the original source
// (spec.md section 9).
func DecodeIBLT(b []byte, m int) (*iblt.IBLT, error) {
	if len(b) != m*cellBytes {
		return nil, ErrSizeMismatch
	}
	cells := make([]iblt.HashCell, m)
	for i := 0; i < m; i++ {
		off := i * cellBytes
		cells[i] = iblt.HashCell{
			Count:    int32(binary.LittleEndian.Uint32(b[off:])),
			KeySum:   binary.LittleEndian.Uint32(b[off+4:]),
			KeyCheck: binary.LittleEndian.Uint32(b[off+8:]),
		}
	}
	return iblt.FromCells(cells), nil
}

// EncodeIBLTComponent is EncodeIBLT wrapped in a single varnum-prefixed
// component, the authoritative wire form per spec.md section 9 (never
// the source's two-trailing-components inconsistency).
func EncodeIBLTComponent(t *iblt.IBLT) []byte {
	return PutBlock(nil, EncodeIBLT(t))
}

// DecodeIBLTComponent reads a varnum-prefixed IBLT component for a
// table of m cells.
func DecodeIBLTComponent(b []byte, m int) (*iblt.IBLT, error) {
	data, _, err := ReadBlock(b)
	if err != nil {
		return nil, err
	}
	return DecodeIBLT(data, m)
}

// EncodeBloom returns the raw bit-table bytes for bf. (n, p) are
// carried separately in the name, per spec.md section 4.3/6.
func EncodeBloom(bf *bloom.BloomFilter) []byte {
	return bf.Serialize()
}

// DecodeBloom rebuilds a filter from raw bit-table bytes plus the
// (n, p) recovered from earlier name components.
func DecodeBloom(b []byte, n int, p float64) (*bloom.BloomFilter, error) {
	return bloom.Deserialize(b, n, p)
}

// EncodeBloomComponent wraps EncodeBloom in a size-prefix varnum.
func EncodeBloomComponent(bf *bloom.BloomFilter) []byte {
	return PutBlock(nil, EncodeBloom(bf))
}

// DecodeBloomComponent reads a varnum-prefixed bloom component.
func DecodeBloomComponent(b []byte, n int, p float64) (*bloom.BloomFilter, error) {
	data, _, err := ReadBlock(b)
	if err != nil {
		return nil, err
	}
	return DecodeBloom(data, n, p)
}
