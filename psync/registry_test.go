package psync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddThenRemoveIsIdentity(t *testing.T) {
	r := NewRegistry()
	key, added := r.Add("/a")
	require.True(t, added)
	require.Equal(t, KeyFor("/a", 0), key)

	removedKey, removed := r.Remove("/a")
	require.True(t, removed)
	require.Equal(t, key, removedKey)
	require.Equal(t, 0, r.Len())
	_, ok := r.PrefixFor(key)
	require.False(t, ok)
}

func TestAddTwiceIsNoOp(t *testing.T) {
	r := NewRegistry()
	_, added := r.Add("/a")
	require.True(t, added)
	_, added = r.Add("/a")
	require.False(t, added)
	require.Equal(t, 1, r.Len())
}

func TestAdvanceUpdatesBothDirections(t *testing.T) {
	r := NewRegistry()
	r.Add("/a")
	oldKey, newKey, ok := r.Advance("/a", 1)
	require.True(t, ok)
	require.Equal(t, KeyFor("/a", 0), oldKey)
	require.Equal(t, KeyFor("/a", 1), newKey)

	_, stale := r.PrefixFor(oldKey)
	require.False(t, stale)
	p, fresh := r.PrefixFor(newKey)
	require.True(t, fresh)
	require.Equal(t, "/a", p)

	seq, ok := r.Seq("/a")
	require.True(t, ok)
	require.Equal(t, uint64(1), seq)
}

func TestAdvanceUnknownPrefixIsNoOp(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.Advance("/ghost", 5)
	require.False(t, ok)
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	r := NewRegistry()
	r.Add("/a")
	snap := r.Snapshot()
	snap["/a"] = 99
	seq, _ := r.Seq("/a")
	require.Equal(t, uint64(0), seq)
}
