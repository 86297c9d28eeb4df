// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ndn

import "time"

// Interest is an outbound or inbound request for Data matching a name.
type Interest struct {
	Name        Name
	MustBeFresh bool
	CanBePrefix bool
	Lifetime    time.Duration
}

// Data is a named, possibly signed content object.
type Data struct {
	Name            Name
	Content         []byte
	FreshnessPeriod time.Duration
	// NoCache is this module's explicit form of spec.md's "caching
	// disabled" requirement on hello replies (section 4.5, 6, and
	// scenario 6 of section 8).
	NoCache bool
	// Signature is opaque to this package; the keychain collaborator
	// fills it in, this engine never inspects it.
	Signature []byte
}
