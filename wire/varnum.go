// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire centralizes the binary encodings the sync protocol
// places inside name components: the size-prefix varnum scheme, and
// the IBLT/Bloom table encodings built on top of it. No other package
// inlines varnum logic, per spec.md's cross-cutting-concern note.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated is returned when a reader runs out of bytes mid-varnum.
var ErrTruncated = errors.New("wire: truncated varnum")

const (
	marker16 = 253
	marker32 = 254
	marker64 = 255
)

// PutVarNum appends the size-prefix encoding of v to buf and returns
// the extended slice: one byte if v < 253, otherwise a marker byte
// followed by 2, 4, or 8 big-endian bytes.
func PutVarNum(buf []byte, v uint64) []byte {
	switch {
	case v < marker16:
		return append(buf, byte(v))
	case v <= 0xffff:
		buf = append(buf, marker16)
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(v))
		return append(buf, tmp[:]...)
	case v <= 0xffffffff:
		buf = append(buf, marker32)
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(v))
		return append(buf, tmp[:]...)
	default:
		buf = append(buf, marker64)
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], v)
		return append(buf, tmp[:]...)
	}
}

// ReadVarNum decodes a size-prefix varnum from the front of b and
// returns its value plus the number of bytes consumed.
func ReadVarNum(b []byte) (v uint64, n int, err error) {
	if len(b) < 1 {
		return 0, 0, ErrTruncated
	}
	switch first := b[0]; {
	case first < marker16:
		return uint64(first), 1, nil
	case first == marker16:
		if len(b) < 3 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.BigEndian.Uint16(b[1:3])), 3, nil
	case first == marker32:
		if len(b) < 5 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.BigEndian.Uint32(b[1:5])), 5, nil
	default: // marker64
		if len(b) < 9 {
			return 0, 0, ErrTruncated
		}
		return binary.BigEndian.Uint64(b[1:9]), 9, nil
	}
}

// PutBlock writes a size-prefixed block: the varnum length of data
// followed by data itself.
func PutBlock(buf []byte, data []byte) []byte {
	buf = PutVarNum(buf, uint64(len(data)))
	return append(buf, data...)
}

// ReadBlock reads a size-prefixed block from the front of b and
// returns the data plus the number of bytes consumed (prefix + data).
func ReadBlock(b []byte) (data []byte, n int, err error) {
	size, prefixLen, err := ReadVarNum(b)
	if err != nil {
		return nil, 0, err
	}
	end := prefixLen + int(size)
	if len(b) < end {
		return nil, 0, ErrTruncated
	}
	return b[prefixLen:end], end, nil
}
