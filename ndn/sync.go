// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ndn

import (
	"errors"
	"strconv"

	"github.com/luxfi/psync/wire"
)

// HelloComponent and SyncComponent are the fixed name components that
// distinguish a hello interest from a sync interest under syncPrefix,
// per spec.md section 6.
const (
	HelloComponent = "hello"
	SyncComponent  = "sync"
)

// NackContent is the sentinel Data body signaling an undecodable
// diff (spec.md section 7). The consumer's sync-data handler accepts
// it as an ordinary reply.
const NackContent = "NACK 0"

// ErrMalformedSyncName is returned when a sync interest's trailing
// components don't parse, per spec.md section 7's "parse error on
// sync interest" case: the caller must answer with a NACK.
var ErrMalformedSyncName = errors.New("ndn: malformed sync interest name")

// AppendHello builds <syncPrefix>/hello.
func AppendHello(syncPrefix Name) Name {
	return syncPrefix.AppendString(HelloComponent)
}

// AppendHelloData builds <syncPrefix>/hello/<iblt_component>, where
// ibltComponent is one name component holding the varnum size prefix
// followed by the table bytes.
func AppendHelloData(syncPrefix Name, ibltComponent []byte) Name {
	return AppendHello(syncPrefix).Append(Component(ibltComponent))
}

// AppendSync builds:
//
//	<syncPrefix>/sync/<n>/<p*1000>/<bf_component>/<iblt_component>
//
// bfComponent and ibltComponent are each one name component holding a
// varnum size prefix followed by the table bytes.
func AppendSync(syncPrefix Name, n int, pPermille int, bfComponent, ibltComponent []byte) Name {
	return syncPrefix.
		AppendString(SyncComponent).
		AppendString(strconv.Itoa(n)).
		AppendString(strconv.Itoa(pPermille)).
		Append(Component(bfComponent)).
		Append(Component(ibltComponent))
}

// ParseSync extracts (n, pPermille, bfBytes, ibltBytes) from the
// trailing components of a sync interest name appended by AppendSync.
// It returns ErrMalformedSyncName on any shape or parse failure.
func ParseSync(name Name) (n int, pPermille int, bfBytes, ibltBytes []byte, err error) {
	if name.Len() < 5 {
		return 0, 0, nil, nil, ErrMalformedSyncName
	}
	tail := name[name.Len()-5:]
	if string(tail[0]) != SyncComponent {
		return 0, 0, nil, nil, ErrMalformedSyncName
	}
	n, errN := strconv.Atoi(string(tail[1]))
	p, errP := strconv.Atoi(string(tail[2]))
	if errN != nil || errP != nil || n < 0 || p < 0 {
		return 0, 0, nil, nil, ErrMalformedSyncName
	}
	bf, _, errBF := wire.ReadBlock(tail[3])
	if errBF != nil {
		return 0, 0, nil, nil, ErrMalformedSyncName
	}
	iblt, _, errIBLT := wire.ReadBlock(tail[4])
	if errIBLT != nil {
		return 0, 0, nil, nil, ErrMalformedSyncName
	}
	return n, p, bf, iblt, nil
}

// AppendIBLTComponent appends a single varnum-prefixed IBLT component,
// the wire form spec.md section 9 specifies authoritatively for both
// hello data and sync data.
func AppendIBLTComponent(name Name, ibltComponent []byte) Name {
	return name.Append(Component(ibltComponent))
}

// LastComponent returns the final component of name, or nil if empty.
func LastComponent(name Name) Component {
	if name.Len() == 0 {
		return nil
	}
	return name[name.Len()-1]
}
