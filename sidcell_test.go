package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceSIDCell_WriteAndReadState(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regV1FreqLo, 0x50)
	c.Write(regModeVol, 0x0F)

	state := c.ReadState()
	assert.Equal(t, uint8(0x50), state.Registers[regV1FreqLo])
	assert.Equal(t, uint8(0x0F), state.Registers[regModeVol])
}

func TestReferenceSIDCell_WriteOutOfRangeIgnored(t *testing.T) {
	c := NewReferenceSIDCell()
	// 0x1F is a valid 5-bit address past the 25-register bank.
	assert.NotPanics(t, func() {
		c.Write(0x1F, 0xFF)
	})
	assert.Equal(t, NewReferenceSIDCell().ReadState(), c.ReadState())
}

func TestReferenceSIDCell_ResetClearsRegisters(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regV1FreqLo, 0xAB)
	c.Reset()
	state := c.ReadState()
	assert.Equal(t, uint8(0), state.Registers[regV1FreqLo])
}

func TestReferenceSIDCell_SilentWithoutGate(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regV1FreqHi, 0x10)
	c.Write(regV1Ctrl, ctrlTriangle) // gate never set
	c.Write(regModeVol, 0x0F)

	c.Clock(1000)
	assert.Equal(t, int32(0), c.Output(), "envelope never leaves idle without a gate-on edge")
}

func TestReferenceSIDCell_GateOnProducesNonZeroOutput(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regV1FreqLo, 0x50)
	c.Write(regV1FreqHi, 0x10)
	c.Write(regV1AD, 0x00) // fast attack/decay
	c.Write(regV1SR, 0xF0) // full sustain
	c.Write(regModeVol, 0x0F)
	c.Write(regV1Ctrl, ctrlSawtooth|ctrlGate)

	c.Clock(5000)
	require.NotPanics(t, func() { c.Output() })
	assert.NotEqual(t, int32(0), c.Output())
}

func TestReferenceSIDCell_ModelSwitchAffectsFilterCutoff(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regFilterCutoffHi, 0x80)

	c.SetChipModel(ModelMOS6581)
	cutoff6581 := c.filterCutoffHz()

	c.SetChipModel(ModelMOS8580)
	cutoff8580 := c.filterCutoffHz()

	assert.NotEqual(t, cutoff6581, cutoff8580, "6581 and 8580 must follow distinct cutoff curves")
}

func TestReferenceSIDCell_ClockAdvancesAccumulator(t *testing.T) {
	c := NewReferenceSIDCell()
	c.Write(regV1FreqLo, 0xFF)
	c.Write(regV1FreqHi, 0xFF)

	before := c.voices[0].accumulator
	c.Clock(1)
	assert.NotEqual(t, before, c.voices[0].accumulator)
}
