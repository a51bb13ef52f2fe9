package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestControlHandler_CycleModeIdempotence is §8 property 6 / scenario S4:
// CYCLE_MODE advances through exactly {6581, 8580, split} in order and
// returns to start after three invocations.
func TestControlHandler_CycleModeIdempotence(t *testing.T) {
	s, _, _ := newTestScheduler(64, sidClockPAL, 44100)
	a, b := &mockSIDCell{}, &mockSIDCell{}
	h := NewControlHandler(s, a, b)

	modelA, modelB := h.CurrentModels()
	assert.Equal(t, ModelMOS6581, modelA)
	assert.Equal(t, ModelMOS6581, modelB)

	h.HandleCommand(opCycleMode, 0, 0, 0)
	modelA, modelB = h.CurrentModels()
	assert.Equal(t, ModelMOS8580, modelA)
	assert.Equal(t, ModelMOS8580, modelB)
	assert.Equal(t, ModelMOS8580, a.model)
	assert.Equal(t, ModelMOS8580, b.model)

	h.HandleCommand(opCycleMode, 0, 0, 0)
	modelA, modelB = h.CurrentModels()
	assert.Equal(t, ModelMOS6581, modelA)
	assert.Equal(t, ModelMOS8580, modelB, "split mode: cell A=6581, cell B=8580")

	h.HandleCommand(opCycleMode, 0, 0, 0)
	modelA, modelB = h.CurrentModels()
	assert.Equal(t, ModelMOS6581, modelA)
	assert.Equal(t, ModelMOS6581, modelB, "three invocations return to the start")
}

func TestControlHandler_CycleModePreservesQueue(t *testing.T) {
	s, _, _ := newTestScheduler(64, sidClockPAL, 44100)
	a, b := &mockSIDCell{}, &mockSIDCell{}
	h := NewControlHandler(s, a, b)

	s.QueueEvent(chipMaskCellA, 0x01, 0xFF, 500)
	require.Equal(t, 1, s.GetQueueDepth())

	h.HandleCommand(opCycleMode, 0, 0, 0)
	assert.Equal(t, 1, s.GetQueueDepth(), "CYCLE_MODE must not touch pending events")
}

func TestControlHandler_SetVoiceMask(t *testing.T) {
	s, _, _ := newTestScheduler(64, sidClockPAL, 44100)
	a, b := &mockSIDCell{}, &mockSIDCell{}
	h := NewControlHandler(s, a, b)

	h.HandleCommand(opSetVoiceMask, 0x05, 0, 0)
	assert.Equal(t, uint8(0x05), s.voiceMask)
}

func TestControlHandler_SetFilter(t *testing.T) {
	s, _, _ := newTestScheduler(64, sidClockPAL, 44100)
	a, b := &mockSIDCell{}, &mockSIDCell{}
	h := NewControlHandler(s, a, b)

	h.HandleCommand(opSetFilter, 0, 0, 0)
	assert.False(t, a.filterOn)
	assert.False(t, b.filterOn)

	h.HandleCommand(opSetFilter, 1, 0, 0)
	assert.True(t, a.filterOn)
	assert.True(t, b.filterOn)
}

// TestControlHandler_NoteOnNoteOff exercises the wired MIDI voice path
// (§9 Open Questions "always-live" resolution): NOTE_ON/NOTE_OFF command
// records reach the VoiceAllocator through the same dispatch C6 already
// uses for CYCLE_MODE and friends, targeting both cells.
func TestControlHandler_NoteOnNoteOff(t *testing.T) {
	s, cellA, cellB := newTestScheduler(64, sidClockPAL, 44100)
	h := NewControlHandler(s, cellA, cellB)

	h.HandleCommand(opNoteOn, 69, 127, 0) // A4, max velocity
	require.Greater(t, s.GetQueueDepth(), 0, "NoteOn must queue register writes")

	for s.GetQueueDepth() > 0 {
		s.RenderSample()
	}
	require.NotEmpty(t, cellA.writes)
	require.NotEmpty(t, cellB.writes)
	last := cellA.writes[len(cellA.writes)-1]
	assert.Equal(t, uint8(regV1Ctrl), last.addr)
	assert.NotEqual(t, uint8(0), last.value&ctrlGate, "NoteOn must set the gate bit")

	h.HandleCommand(opNoteOff, 69, 0, 0)
	for s.GetQueueDepth() > 0 {
		s.RenderSample()
	}
	last = cellA.writes[len(cellA.writes)-1]
	assert.Equal(t, uint8(regV1Ctrl), last.addr)
	assert.Equal(t, uint8(0), last.value&ctrlGate, "NoteOff must clear the gate bit")
}

func TestControlHandler_UnknownOpcodeIsIgnored(t *testing.T) {
	s, _, _ := newTestScheduler(64, sidClockPAL, 44100)
	a, b := &mockSIDCell{}, &mockSIDCell{}
	h := NewControlHandler(s, a, b)

	assert.NotPanics(t, func() {
		h.HandleCommand(0xEE, 1, 2, 3)
	})
	modelA, modelB := h.CurrentModels()
	assert.Equal(t, ModelMOS6581, modelA)
	assert.Equal(t, ModelMOS6581, modelB)
}
