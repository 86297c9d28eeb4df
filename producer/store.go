// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package producer

import (
	"sync"

	"github.com/luxfi/psync/ndn"
)

// DataStore is the in-memory Data store collaborator spec.md section 1
// names as out of scope for durability, but which the engine still
// needs to serve application-data fetches against.
type DataStore interface {
	Put(name ndn.Name, d ndn.Data)
	Get(name ndn.Name) (ndn.Data, bool)
}

// MemStore is a trivial mutex-guarded DataStore. Names are write-once:
// a later Put under the same name silently overwrites, matching
// spec.md section 5's "write-once per name (sequence numbers
// monotonically increase)" assumption — the engine never republishes
// under an existing seq, so overwrite is never actually exercised.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]ndn.Data
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]ndn.Data)}
}

// Put stores d under name.
func (s *MemStore) Put(name ndn.Name, d ndn.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]ndn.Data)
	}
	s.data[name.String()] = d
}

// Get retrieves the Data stored under name, if any.
func (s *MemStore) Get(name ndn.Name) (ndn.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[name.String()]
	return d, ok
}

var _ DataStore = (*MemStore)(nil)
