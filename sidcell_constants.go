// sidcell_constants.go - MOS 6581/8580 register layout and ADSR timing tables.

package main

// SID register offsets within a 25-register voice+filter bank (0..24).
const (
	regV1FreqLo = 0x00
	regV1FreqHi = 0x01
	regV1PWLo   = 0x02
	regV1PWHi   = 0x03 // bits 0-3 only
	regV1Ctrl   = 0x04
	regV1AD     = 0x05
	regV1SR     = 0x06

	regV2FreqLo = 0x07
	regV2FreqHi = 0x08
	regV2PWLo   = 0x09
	regV2PWHi   = 0x0A
	regV2Ctrl   = 0x0B
	regV2AD     = 0x0C
	regV2SR     = 0x0D

	regV3FreqLo = 0x0E
	regV3FreqHi = 0x0F
	regV3PWLo   = 0x10
	regV3PWHi   = 0x11
	regV3Ctrl   = 0x12
	regV3AD     = 0x13
	regV3SR     = 0x14

	regFilterCutoffLo = 0x15 // bits 0-2 only
	regFilterCutoffHi = 0x16
	regResFilt        = 0x17 // resonance (bits 4-7), routing (bits 0-3)
	regModeVol        = 0x18 // volume (bits 0-3), filter mode (bits 4-7)

	sidRegisterCount = 25
)

// SID clock frequencies (Hz).
const (
	sidClockPAL  = 985248
	sidClockNTSC = 1022727
)

// Chip model selection.
type ChipModel int

const (
	ModelMOS6581 ChipModel = iota
	ModelMOS8580
)

func (m ChipModel) String() string {
	if m == ModelMOS8580 {
		return "8580"
	}
	return "6581"
}

// Voice control register bits.
const (
	ctrlGate     = 0x01
	ctrlSync     = 0x02
	ctrlRingMod  = 0x04
	ctrlTest     = 0x08
	ctrlTriangle = 0x10
	ctrlSawtooth = 0x20
	ctrlPulse    = 0x40
	ctrlNoise    = 0x80
)

// Filter routing/resonance register bits.
const (
	filtV1  = 0x01
	filtV2  = 0x02
	filtV3  = 0x04
	filtExt = 0x08
	filtRes = 0xF0
)

// Mode/volume register bits.
const (
	modeVolMask = 0x0F
	modeLP      = 0x10
	modeBP      = 0x20
	modeHP      = 0x40
	mode3Off    = 0x80
)

// ADSR timing tables, in milliseconds, indexed by the 4-bit register value.
var attackMs = [16]float64{
	2, 8, 16, 24, 38, 56, 68, 80,
	100, 250, 500, 800, 1000, 3000, 5000, 8000,
}

var decayReleaseMs = [16]float64{
	6, 24, 48, 72, 114, 168, 204, 240,
	300, 750, 1500, 2400, 3000, 9000, 15000, 24000,
}

// envelope stage of a single voice's ADSR generator.
type envelopeStage int

const (
	stageIdle envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)
