package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowController_Watermarks(t *testing.T) {
	q := NewEventQueue(1024)
	f := NewFlowController(q)

	require.False(t, f.Paused())
	assert.True(t, f.Poll())

	for i := 0; i < 1024-128; i++ {
		q.Push(0, 0, 0, 1)
	}
	assert.False(t, f.Poll(), "reaching the high watermark must assert the halt signal")
	assert.True(t, f.Paused())

	for q.Depth() > 256 {
		q.Pop()
	}
	assert.True(t, f.Poll(), "falling to the low watermark must release the halt signal")
	assert.False(t, f.Paused())
}

func TestFlowController_NoOscillationBetweenWatermarks(t *testing.T) {
	q := NewEventQueue(1024)
	f := NewFlowController(q)

	for i := 0; i < 1024-128; i++ {
		q.Push(0, 0, 0, 1)
	}
	f.Poll()
	require.True(t, f.Paused())

	// Drain to just below high but still above low - must stay paused.
	for q.Depth() > 500 {
		q.Pop()
	}
	assert.False(t, f.Poll())
	assert.True(t, f.Paused(), "hysteresis: must not resume until the low watermark")
}
