package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotCache_ReadReturnsLatestPublished(t *testing.T) {
	c := NewSnapshotCache()

	c.Publish(TelemetrySnapshot{FrameCount: 1})
	assert.Equal(t, uint64(1), c.Read().FrameCount)

	c.Publish(TelemetrySnapshot{FrameCount: 2})
	assert.Equal(t, uint64(2), c.Read().FrameCount)
}

func TestSnapshotCache_ConcurrentPublishAndReadDoNotRace(t *testing.T) {
	c := NewSnapshotCache()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(0); i < 1000; i++ {
			c.Publish(TelemetrySnapshot{FrameCount: i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = c.Read()
		}
	}()
	wg.Wait()
}
