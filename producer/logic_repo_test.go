package producer

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/bloom"
	"github.com/luxfi/psync/face/memface"
	"github.com/luxfi/psync/iblt"
	"github.com/luxfi/psync/ndn"
	"github.com/luxfi/psync/wire"
)

func emptyBloom(t *testing.T) *bloom.BloomFilter {
	t.Helper()
	return bloom.New(1, 0.001)
}

func bloomSubscribing(t *testing.T, prefixes ...string) *bloom.BloomFilter {
	t.Helper()
	bf := bloom.New(len(prefixes), 0.001)
	for _, p := range prefixes {
		bf.Insert([]byte(p))
	}
	return bf
}

func bloomComponent(t *testing.T, bf *bloom.BloomFilter) []byte {
	t.Helper()
	return wire.EncodeBloomComponent(bf)
}

func ibltComponent(t *testing.T, table *iblt.IBLT) []byte {
	t.Helper()
	return wire.EncodeIBLTComponent(table)
}

func pPermilleOf(bf *bloom.BloomFilter) int {
	return int(math.Round(bf.P() * 1000))
}

func newRepo(t *testing.T, bus *memface.Bus, syncPrefix string, expected int) *LogicRepo {
	t.Helper()
	f := memface.NewFace(bus, ids.NodeID{})
	r, err := NewLogicRepo(Config{SyncPrefix: syncPrefix, Expected: expected}, f, f, nil, nil, nil, nil)
	require.NoError(t, err)
	return r
}

func TestAddSyncNodeThenRemoveIsIdentity(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)

	before := r.authoritative.Clone()
	require.NoError(t, r.AddSyncNode("/x"))
	require.NoError(t, r.RemoveSyncNode("/x"))

	require.True(t, r.authoritative.Equals(before))
	require.Equal(t, 0, r.registry.Len())
}

func TestAddSyncNodeTwiceIsNoOp(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)

	require.NoError(t, r.AddSyncNode("/a"))
	require.NoError(t, r.AddSyncNode("/a"))
	require.Equal(t, 1, r.registry.Len())
}

func TestPublishAgainstUnknownPrefixIsSilentNoOp(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)

	require.NoError(t, r.PublishData("/ghost", []byte("x"), time.Second))
	_, ok := r.registry.Seq("/ghost")
	require.False(t, ok)
}

func TestPublishDataAdvancesSeqAndIBLT(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)
	require.NoError(t, r.AddSyncNode("/a"))

	require.NoError(t, r.PublishData("/a", []byte("hello"), time.Second))
	seq, ok := r.registry.Seq("/a")
	require.True(t, ok)
	require.Equal(t, uint64(1), seq)

	d, found := r.store.(*MemStore).Get(ndn.ParseName("/a").AppendNumber(1))
	require.True(t, found)
	require.Equal(t, []byte("hello"), d.Content)
}

func TestHelloInterestReturnsPrefixList(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)
	require.NoError(t, r.AddSyncNode("/a"))
	require.NoError(t, r.AddSyncNode("/b"))

	consumer := memface.NewFace(bus, ids.NodeID{})
	var got ndn.Data
	done := make(chan struct{})
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:        ndn.AppendHello(ndn.ParseName("/psync")),
		CanBePrefix: true,
		Lifetime:    time.Second,
	}, func(d ndn.Data) {
		got = d
		close(done)
	}, nil, func() { t.Fatal("unexpected timeout") }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("no hello reply")
	}
	require.True(t, got.NoCache)
	require.Contains(t, string(got.Content), "/a 0")
	require.Contains(t, string(got.Content), "/b 0")
}

func TestSyncInterestWithMatchingIBLTGoesPending(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)
	require.NoError(t, r.AddSyncNode("/a"))

	consumerIBLT := r.authoritative.Clone()
	bf := emptyBloom(t)
	syncName := ndn.AppendSync(ndn.ParseName("/psync"), bf.N(), pPermilleOf(bf), bloomComponent(t, bf), ibltComponent(t, consumerIBLT))

	consumer := memface.NewFace(bus, ids.NodeID{})
	timedOut := make(chan struct{})
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:        syncName,
		CanBePrefix: true,
		Lifetime:    30 * time.Millisecond,
	}, func(ndn.Data) {
		t.Fatal("unexpected immediate reply: diff should be empty and below threshold")
	}, nil, func() {
		close(timedOut)
	}))

	require.Equal(t, 1, len(r.pending))
	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("pending entry never timed out")
	}
}

func TestPublishTriggersPendingResponseWhenSubscribed(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 80)
	require.NoError(t, r.AddSyncNode("/a"))

	consumerIBLT := r.authoritative.Clone()
	bf := bloomSubscribing(t, "/a")
	syncName := ndn.AppendSync(ndn.ParseName("/psync"), bf.N(), pPermilleOf(bf), bloomComponent(t, bf), ibltComponent(t, consumerIBLT))

	consumer := memface.NewFace(bus, ids.NodeID{})
	received := make(chan ndn.Data, 1)
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:        syncName,
		CanBePrefix: true,
		Lifetime:    time.Second,
	}, func(d ndn.Data) {
		received <- d
	}, nil, func() { t.Fatal("unexpected timeout") }))
	require.Equal(t, 1, len(r.pending))

	require.NoError(t, r.PublishData("/a", []byte("payload"), time.Second))

	select {
	case d := <-received:
		require.Contains(t, string(d.Content), "/a 1")
	case <-time.After(time.Second):
		t.Fatal("publish never produced a pending response")
	}
	require.Equal(t, 0, len(r.pending))
}

// TestSyncInterestFlushesImmediatelyOnceThresholdExceeded covers spec.md
// section 8 scenario 3: once the diff size reaches the repo's threshold,
// the repo answers right away instead of holding the interest pending,
// even though the requesting Bloom filter matches none of the differing
// prefixes.
func TestSyncInterestFlushesImmediatelyOnceThresholdExceeded(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 4)
	require.Equal(t, 2, r.cfg.Threshold())
	require.NoError(t, r.AddSyncNode("/a"))
	require.NoError(t, r.AddSyncNode("/b"))
	require.NoError(t, r.AddSyncNode("/c"))

	consumerIBLT := iblt.New(4)
	bf := emptyBloom(t)
	syncName := ndn.AppendSync(ndn.ParseName("/psync"), bf.N(), pPermilleOf(bf), bloomComponent(t, bf), ibltComponent(t, consumerIBLT))

	consumer := memface.NewFace(bus, ids.NodeID{})
	received := make(chan ndn.Data, 1)
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:        syncName,
		CanBePrefix: true,
		Lifetime:    30 * time.Millisecond,
	}, func(d ndn.Data) {
		received <- d
	}, nil, func() {
		t.Fatal("threshold should have forced an immediate reply, not a timeout")
	}))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("no immediate reply despite threshold being exceeded")
	}
	require.Equal(t, 0, len(r.pending))
}

// TestSyncInterestWithUndecodableDiffSendsNack covers spec.md section 8
// scenario 4: a diff too large for the table to peel must produce a NACK
// reply rather than a pending entry or a panic.
func TestSyncInterestWithUndecodableDiffSendsNack(t *testing.T) {
	bus := memface.NewBus()
	r := newRepo(t, bus, "/psync", 2)
	for i := 0; i < 20; i++ {
		require.NoError(t, r.AddSyncNode(fmt.Sprintf("/p%d", i)))
	}

	consumerIBLT := iblt.New(2)
	require.Equal(t, r.authoritative.Len(), consumerIBLT.Len())
	bf := emptyBloom(t)
	syncName := ndn.AppendSync(ndn.ParseName("/psync"), bf.N(), pPermilleOf(bf), bloomComponent(t, bf), ibltComponent(t, consumerIBLT))

	consumer := memface.NewFace(bus, ids.NodeID{})
	received := make(chan ndn.Data, 1)
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:        syncName,
		CanBePrefix: true,
		Lifetime:    time.Second,
	}, func(d ndn.Data) {
		received <- d
	}, nil, func() { t.Fatal("unexpected timeout") }))

	select {
	case d := <-received:
		require.Equal(t, ndn.NackContent, string(d.Content))
	case <-time.After(time.Second):
		t.Fatal("no NACK reply for undecodable diff")
	}
	require.Equal(t, 0, len(r.pending))
}
