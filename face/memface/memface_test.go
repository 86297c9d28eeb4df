package memface

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/ndn"
)

func TestExpressInterestResolvesSynchronouslyFromHandler(t *testing.T) {
	bus := NewBus()
	producer := NewFace(bus, ids.NodeID{})
	consumer := NewFace(bus, ids.NodeID{})

	require.NoError(t, producer.SetInterestFilter(ndn.ParseName("/psync"), func(i ndn.Interest, _ ids.NodeID) {
		require.NoError(t, producer.Put(ndn.Data{Name: i.Name, Content: []byte("hi")}))
	}))

	var got ndn.Data
	received := make(chan struct{})
	err := consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:     ndn.ParseName("/psync/hello"),
		Lifetime: time.Second,
	}, func(d ndn.Data) {
		got = d
		close(received)
	}, nil, func() {
		t.Fatal("unexpected timeout")
	})
	require.NoError(t, err)

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("onData never called")
	}
	require.Equal(t, []byte("hi"), got.Content)
}

func TestExpressInterestTimesOutWithNoFilter(t *testing.T) {
	bus := NewBus()
	consumer := NewFace(bus, ids.NodeID{})

	timedOut := make(chan struct{})
	err := consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:     ndn.ParseName("/nobody/listens"),
		Lifetime: 20 * time.Millisecond,
	}, func(ndn.Data) {
		t.Fatal("unexpected data")
	}, nil, func() {
		close(timedOut)
	})
	require.NoError(t, err)

	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("onTimeout never called")
	}
}

func TestPendingInterestResolvesLaterFromAsynchronousPut(t *testing.T) {
	bus := NewBus()
	producer := NewFace(bus, ids.NodeID{})
	consumer := NewFace(bus, ids.NodeID{})

	var heldName ndn.Name
	require.NoError(t, producer.SetInterestFilter(ndn.ParseName("/psync"), func(i ndn.Interest, _ ids.NodeID) {
		heldName = i.Name // don't reply yet: simulates a pending sync entry
	}))

	received := make(chan struct{})
	require.NoError(t, consumer.ExpressInterest(context.Background(), ndn.Interest{
		Name:     ndn.ParseName("/psync/sync/1/1000/x/y"),
		Lifetime: time.Second,
	}, func(ndn.Data) {
		close(received)
	}, nil, func() {
		t.Fatal("unexpected timeout")
	}))

	require.NotNil(t, heldName)
	require.NoError(t, producer.Put(ndn.Data{Name: heldName, Content: []byte("later")}))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("onData never called after late Put")
	}
}

func TestCancelEventPreventsAction(t *testing.T) {
	bus := NewBus()
	f := NewFace(bus, ids.NodeID{})

	fired := false
	h := f.ScheduleEvent(20*time.Millisecond, func() { fired = true })
	f.CancelEvent(h)

	time.Sleep(60 * time.Millisecond)
	require.False(t, fired)
}

func TestScheduleEventFires(t *testing.T) {
	bus := NewBus()
	f := NewFace(bus, ids.NodeID{})

	done := make(chan struct{})
	f.ScheduleEvent(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled action never fired")
	}
}
