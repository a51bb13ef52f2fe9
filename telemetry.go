// telemetry.go - C8: per-frame and cumulative counters, published to the
// render context through a SnapshotCache and formatted as status lines
// for the logger/status view.
package main

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Telemetry accumulates the counters described in §4.8. It is written
// only from the event/audio context; reads for display go through the
// SnapshotCache that Publish fills.
type Telemetry struct {
	queue  *EventQueue
	cache  *SnapshotCache
	logger *log.Logger

	frameCount     uint64
	totalEvents    uint64
	totalBytes     uint64
	minFrameNanos  int64
	maxFrameNanos  int64
	sumFrameNanos  int64
	queuePeakDepth int
	resyncCount    uint32
	bufferOverflow uint32

	hostFrameOffset int64
	haveOffset      bool
	lastHostFrame   uint32
	localFrameCtr   uint32

	paused bool
	modelA, modelB string
}

// NewTelemetry wires a telemetry sink to the queue it observes and the
// cache it publishes snapshots through.
func NewTelemetry(queue *EventQueue, cache *SnapshotCache, logger *log.Logger) *Telemetry {
	return &Telemetry{queue: queue, cache: cache, logger: logger, minFrameNanos: -1, modelA: "6581", modelB: "6581"}
}

// RecordFrame updates per-frame and cumulative counters. Implements the
// FrameTelemetry interface consumed by FrameParser.
func (t *Telemetry) RecordFrame(events, bytes int, durationNanos int64, hostFrameIndex uint32) {
	t.frameCount++
	t.totalEvents += uint64(events)
	t.totalBytes += uint64(bytes)
	t.sumFrameNanos += durationNanos
	if t.minFrameNanos < 0 || durationNanos < t.minFrameNanos {
		t.minFrameNanos = durationNanos
	}
	if durationNanos > t.maxFrameNanos {
		t.maxFrameNanos = durationNanos
	}
	if depth := t.queue.Depth(); depth > t.queuePeakDepth {
		t.queuePeakDepth = depth
	}

	if !t.haveOffset {
		t.hostFrameOffset = int64(hostFrameIndex) - int64(t.localFrameCtr)
		t.haveOffset = true
	}
	t.lastHostFrame = hostFrameIndex
	t.localFrameCtr++
}

// RecordResync counts one MagicLost/OversizedCount recovery.
func (t *Telemetry) RecordResync() { t.resyncCount++ }

// RecordBufferOverflow counts one parser internal-buffer half-discard.
func (t *Telemetry) RecordBufferOverflow() { t.bufferOverflow++ }

// SetPaused mirrors the flow controller's current pause state for display.
func (t *Telemetry) SetPaused(paused bool) { t.paused = paused }

// SetModels mirrors the current per-cell chip models for display.
func (t *Telemetry) SetModels(a, b ChipModel) {
	t.modelA, t.modelB = a.String(), b.String()
}

// drift returns the difference between the host's frame index and the
// local frame counter, offset by the sticky value captured on the first
// frame (§4.8).
func (t *Telemetry) drift() int64 {
	if !t.haveOffset {
		return 0
	}
	return int64(t.lastHostFrame) - (int64(t.localFrameCtr) + t.hostFrameOffset)
}

// Publish snapshots the current counters into the cross-context cache.
// Called periodically (main.go: once a second) from the event/audio
// context.
func (t *Telemetry) Publish() {
	avg := int64(0)
	if t.frameCount > 0 {
		avg = t.sumFrameNanos / int64(t.frameCount)
	}
	min := t.minFrameNanos
	if min < 0 {
		min = 0
	}
	t.cache.Publish(TelemetrySnapshot{
		FrameCount:      t.frameCount,
		TotalEvents:     t.totalEvents,
		TotalBytes:      t.totalBytes,
		MinFrameNanos:   min,
		AvgFrameNanos:   avg,
		MaxFrameNanos:   t.maxFrameNanos,
		QueueDepth:      t.queue.Depth(),
		QueuePeakDepth:  t.queuePeakDepth,
		DroppedCount:    t.queue.DroppedCount(),
		ResyncCount:     t.resyncCount,
		BufferOverflows: t.bufferOverflow,
		FrameDrift:      t.drift(),
		Paused:          t.paused,
		ModelA:          t.modelA,
		ModelB:          t.modelB,
	})
}

// StatusLine formats a snapshot as a single human-readable line, the
// "opaque status line" the render context consumes (§4.8 treats
// telemetry as write-only from C2-C7's side; formatting lives here).
func StatusLine(s TelemetrySnapshot) string {
	return fmt.Sprintf(
		"frames=%d events=%d bytes=%d queue=%d/%d peak drops=%d resync=%d drift=%d paused=%t model=%s/%s",
		s.FrameCount, s.TotalEvents, s.TotalBytes, s.QueueDepth, s.QueuePeakDepth,
		s.DroppedCount, s.ResyncCount, s.FrameDrift, s.Paused, s.ModelA, s.ModelB,
	)
}

// LogStatusLine emits one status line through the shared logger. It reads
// only the snapshot cache and is called from the render context, off the
// audio hot path.
func (t *Telemetry) LogStatusLine() {
	if t.logger == nil {
		return
	}
	snap := t.cache.Read()
	t.logger.Debug("status", "line", StatusLine(snap))
}
