// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ndn supplies the minimal named-data types the sync engines
// operate on: hierarchical Names built of opaque Components, and the
// Interest/Data pair the face abstraction exchanges. It is not a full
// NDN stack; it implements exactly the wire scheme spec.md section 6
// names and nothing more.
package ndn

import (
	"strconv"
	"strings"

	"github.com/luxfi/psync/wire"
)

// Component is one opaque segment of a Name.
type Component []byte

// Name is an ordered sequence of Components.
type Name []Component

// ParseName splits a "/"-delimited string into a Name. A leading "/"
// is optional; empty segments are skipped so "/a//b" behaves as "/a/b".
func ParseName(s string) Name {
	var n Name
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			continue
		}
		n = append(n, Component(part))
	}
	return n
}

// String renders the name back to "/"-delimited form. Binary
// components (size-prefixed wire blocks) render as their raw bytes;
// this is for logging, not for building names to parse.
func (n Name) String() string {
	var sb strings.Builder
	for _, c := range n {
		sb.WriteByte('/')
		sb.Write(c)
	}
	return sb.String()
}

// Append returns a new Name with the given components appended. The
// receiver is left unmodified.
func (n Name) Append(comps ...Component) Name {
	out := make(Name, len(n), len(n)+len(comps))
	copy(out, n)
	return append(out, comps...)
}

// AppendString appends a single UTF-8 component.
func (n Name) AppendString(s string) Name {
	return n.Append(Component(s))
}

// Prefix returns the first k components of n. k must be <= len(n).
func (n Name) Prefix(k int) Name {
	out := make(Name, k)
	copy(out, n[:k])
	return out
}

// Len returns the number of components.
func (n Name) Len() int { return len(n) }

// Equal reports whether n and other have identical components.
func (n Name) Equal(other Name) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if string(n[i]) != string(other[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether n is a component-wise prefix of other.
func (n Name) IsPrefixOf(other Name) bool {
	if len(n) > len(other) {
		return false
	}
	return n.Equal(other.Prefix(len(n)))
}

// AppendNumber appends the number component scheme spec.md section 6
// uses for application-data names (<prefix>/<seq_as_number_component>):
// a varnum encoding of seq, wrapped as an opaque component.
func (n Name) AppendNumber(seq uint64) Name {
	return n.Append(Component(wire.PutVarNum(nil, seq)))
}

// ParseNumber decodes a component built by AppendNumber.
func ParseNumber(c Component) (uint64, error) {
	v, _, err := wire.ReadVarNum(c)
	return v, err
}

// FormatSeq renders a sequence number the way hello/sync Data content
// lines do: plain decimal text, not the binary number component.
func FormatSeq(seq uint64) string {
	return strconv.FormatUint(seq, 10)
}
