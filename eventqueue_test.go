package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEventQueue_PushPop(t *testing.T) {
	q := NewEventQueue(4)
	q.Push(0b01, 0x04, 0x11, 10)
	require.Equal(t, 1, q.Depth())

	ev, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint8(0x04), ev.addr)
	assert.Equal(t, uint8(0x11), ev.value)
	assert.Equal(t, uint32(10), ev.delta)

	popped, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, ev, popped)
	assert.Equal(t, 0, q.Depth())

	_, ok = q.Pop()
	assert.False(t, ok, "pop on an empty queue should report failure, not panic")
}

func TestEventQueue_AddrMaskedTo5Bits(t *testing.T) {
	q := NewEventQueue(4)
	q.Push(0, 0xFF, 0, 0)
	ev, _ := q.Peek()
	assert.Equal(t, uint8(0x1F), ev.addr)
}

// TestEventQueue_Overflow_S2 reproduces spec §8 scenario S2: capacity 4,
// push deltas [100,200,300,400,500]. The oldest is dropped once; its
// delta folds into the new head so the queue's total delta is preserved.
func TestEventQueue_Overflow_S2(t *testing.T) {
	q := NewEventQueue(4)
	deltas := []uint32{100, 200, 300, 400, 500}
	for _, d := range deltas {
		q.Push(0, 0, 0, d)
	}

	require.Equal(t, uint32(1), q.DroppedCount())
	require.Equal(t, 4, q.Depth())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint32(300), head.delta, "100 (dropped) folded into 200 (new head)")

	var total uint32
	for q.Depth() > 0 {
		ev, _ := q.Pop()
		total += ev.delta
	}
	assert.Equal(t, uint32(1500), total)
}

func TestEventQueue_Reset_PreservesDroppedCount(t *testing.T) {
	q := NewEventQueue(2)
	q.Push(0, 0, 0, 1)
	q.Push(0, 0, 0, 2)
	q.Push(0, 0, 0, 3) // forces one drop

	require.Equal(t, uint32(1), q.DroppedCount())
	q.Reset()
	assert.Equal(t, 0, q.Depth())
	assert.Equal(t, uint32(1), q.DroppedCount(), "dropped_count is cumulative, monotonic per §8 property 10")
}

// TestEventQueue_DeltaConservationUnderOverflow is §8 property 1: for any
// producer sequence whose total would exceed capacity N, the sum of
// delta values still held plus the deltas folded away by drops equals
// the producer-side total.
func TestEventQueue_DeltaConservationUnderOverflow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 16).Draw(t, "capacity")
		deltas := rapid.SliceOfN(rapid.Uint32Range(0, 1000), 1, 64).Draw(t, "deltas")

		q := NewEventQueue(capacity)
		var producerTotal uint64
		for _, d := range deltas {
			q.Push(0, 0, 0, d)
			producerTotal += uint64(d)
		}

		var remaining uint64
		for q.Depth() > 0 {
			ev, _ := q.Pop()
			remaining += uint64(ev.delta)
		}

		assert.Equal(t, producerTotal, remaining,
			"drop-oldest-merge must preserve total elapsed cycles across all drops")
	})
}

// TestEventQueue_OrderingPreserved is §8 property 2: surviving events
// keep the producer's relative order.
func TestEventQueue_OrderingPreserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 8).Draw(t, "capacity")
		n := rapid.IntRange(1, 40).Draw(t, "n")

		q := NewEventQueue(capacity)
		for i := 0; i < n; i++ {
			q.Push(0, uint8(i%32), uint8(i), 1)
		}

		var seen []uint8
		for q.Depth() > 0 {
			ev, _ := q.Pop()
			seen = append(seen, ev.value)
		}

		for i := 1; i < len(seen); i++ {
			assert.Less(t, int(seen[i-1]), int(seen[i]),
				"surviving events must stay in producer-relative order")
		}
	})
}
