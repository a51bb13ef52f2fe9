// snapshot.go - triple-buffer atomic-swap handoff for cross-context
// telemetry reads, adapted from a lock-free video framebuffer handoff:
// the producer (event/audio context) owns writeIdx, the consumer (render
// context) owns readIdx via readingIdx, and sharedIdx holds whichever
// buffer is currently in transit between them. Both sides exchange
// indices with Swap, so the render side never blocks the audio side.
package main

import "sync/atomic"

// TelemetrySnapshot is a point-in-time copy of everything the status
// view needs; see telemetry.go for the fields' meaning.
type TelemetrySnapshot struct {
	FrameCount      uint64
	TotalEvents     uint64
	TotalBytes      uint64
	MinFrameNanos   int64
	AvgFrameNanos   int64
	MaxFrameNanos   int64
	QueueDepth      int
	QueuePeakDepth  int
	DroppedCount    uint32
	ResyncCount     uint32
	BufferOverflows uint32
	FrameDrift      int64
	ReadThroughputKbps float64
	Paused          bool
	ModelA, ModelB  string
}

// SnapshotCache publishes TelemetrySnapshot values from the event/audio
// context to the render context without locking.
type SnapshotCache struct {
	bufs       [3]TelemetrySnapshot
	sharedIdx  atomic.Int32 // buffer in shared slot, exchanged via Swap
	readingIdx atomic.Int32 // consumer's currently-owned buffer index
	writeIdx   int          // producer's write buffer, not shared
}

// NewSnapshotCache sets up the three-way handoff with the producer
// starting on buffer 0, a buffer in transit, and the consumer starting
// on a third.
func NewSnapshotCache() *SnapshotCache {
	c := &SnapshotCache{writeIdx: 0}
	c.sharedIdx.Store(1)
	c.readingIdx.Store(2)
	return c
}

// Publish is called only from the event/audio context. It writes the
// latest snapshot into the producer's buffer and swaps it into the
// shared slot.
func (c *SnapshotCache) Publish(snap TelemetrySnapshot) {
	c.bufs[c.writeIdx] = snap
	c.writeIdx = int(c.sharedIdx.Swap(int32(c.writeIdx)))
}

// Read is called only from the render context. It swaps the shared slot
// into the consumer's ownership and returns that buffer's contents.
func (c *SnapshotCache) Read() TelemetrySnapshot {
	held := c.readingIdx.Load()
	newHeld := c.sharedIdx.Swap(held)
	c.readingIdx.Store(newHeld)
	return c.bufs[newHeld]
}
