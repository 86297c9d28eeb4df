// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command psyncdemo wires a producer and a consumer to the same
// in-process face/memface bus and walks spec.md section 8 scenario 1:
// a consumer subscribed to one of two producer prefixes receives a
// MissingData event when the producer publishes on its subscribed
// prefix, and stays silent for the other.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/psync/consumer"
	"github.com/luxfi/psync/face/memface"
	"github.com/luxfi/psync/producer"
)

func main() {
	syncPrefix := flag.String("sync-prefix", "/psync", "the producer's sync prefix")
	expected := flag.Int("expected", 80, "expected (prefix, seq) pair count, sizes the authoritative IBLT")
	subscribe := flag.String("subscribe", "/a", "prefix the demo consumer subscribes to")
	flag.Parse()

	if err := run(*syncPrefix, *expected, *subscribe); err != nil {
		fmt.Fprintln(os.Stderr, "psyncdemo:", err)
		os.Exit(1)
	}
}

func run(syncPrefix string, expected int, subscribe string) error {
	bus := memface.NewBus()

	pf := memface.NewFace(bus, ids.NodeID{})
	repo, err := producer.NewLogicRepo(producer.Config{SyncPrefix: syncPrefix, Expected: expected}, pf, pf, nil, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("build producer: %w", err)
	}
	if err := repo.AddSyncNode("/a"); err != nil {
		return fmt.Errorf("add /a: %w", err)
	}
	if err := repo.AddSyncNode("/b"); err != nil {
		return fmt.Errorf("add /b: %w", err)
	}

	cf := memface.NewFace(bus, ids.NodeID{})
	done := make(chan struct{})
	c, err := consumer.NewLogicConsumer(consumer.Config{SyncPrefix: syncPrefix, N: 1, P: 0.001}, cf, nil, nil,
		func(updates []consumer.MissingData) {
			for _, u := range updates {
				fmt.Printf("missing data: prefix=%s low=%d high=%d\n", u.Prefix, u.LowExclusive, u.HighInclusive)
			}
			close(done)
		},
		func(known map[string]uint64) {
			fmt.Printf("hello reply: %d known prefixes\n", len(known))
		},
	)
	if err != nil {
		return fmt.Errorf("build consumer: %w", err)
	}
	c.AddSL(subscribe)

	if err := c.Start(context.Background()); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	// Give the hello/sync handshake a moment to settle before
	// publishing, mirroring scenario 1's "consumer sends sync" step.
	time.Sleep(20 * time.Millisecond)

	if err := repo.PublishData("/a", []byte("demo payload"), time.Second); err != nil {
		return fmt.Errorf("publish /a: %w", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timed out waiting for missing data update")
	}
	return nil
}
