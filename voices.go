// voices.go - optional MIDI-style note allocator, a second always-live
// entry point into the host-event queue alongside the raw wire parser
// (see SPEC_FULL.md §9 Open Questions resolution).
package main

import "math"

// voiceSlot tracks one allocatable SID voice for the MIDI path.
type voiceSlot struct {
	active     bool
	note       uint8
	velocity   uint8
	generation uint64
}

// VoiceAllocator maps MIDI-style NoteOn/NoteOff calls onto raw SID
// register writes, stealing voices LRU-by-generation when all three
// slots of a channel (SID cell) are active. It never talks to a cell
// directly; like the wire parser, it only ever appends to the shared
// EventScheduler's queue.
type VoiceAllocator struct {
	scheduler *EventScheduler
	chipMask  uint8
	slots     [3]voiceSlot
	clock     uint64
}

// NewVoiceAllocator binds an allocator to the scheduler and the chip
// mask its writes should target (e.g. chipMaskCellA, chipMaskBoth).
func NewVoiceAllocator(scheduler *EventScheduler, chipMask uint8) *VoiceAllocator {
	return &VoiceAllocator{scheduler: scheduler, chipMask: chipMask}
}

// NoteOn allocates (or steals) a voice for the given MIDI note and
// programs its frequency, gate and envelope via immediate (delta=0)
// register writes.
func (a *VoiceAllocator) NoteOn(note, velocity uint8) {
	a.clock++
	slot := a.pickSlot()
	a.slots[slot] = voiceSlot{active: true, note: note, velocity: velocity, generation: a.clock}

	freq := noteToSIDFreq(note)
	base := uint8(slot * 7)
	a.scheduler.QueueEvent(a.chipMask, base+0, uint8(freq&0xFF), 0)
	a.scheduler.QueueEvent(a.chipMask, base+1, uint8(freq>>8), 0)
	a.scheduler.QueueEvent(a.chipMask, base+5, 0x09, 0) // attack=0, decay=9 (quick)
	a.scheduler.QueueEvent(a.chipMask, base+6, 0xF0, 0) // sustain=15, release=0
	vol := velocity >> 3                                 // 7-bit velocity -> 4-bit volume
	a.scheduler.QueueEvent(a.chipMask, regModeVol, vol, 0)
	a.scheduler.QueueEvent(a.chipMask, base+4, ctrlTriangle|ctrlGate, 0)
}

// NoteOff releases the slot holding the given note, if any, by clearing
// its gate bit (triggering the release stage).
func (a *VoiceAllocator) NoteOff(note uint8) {
	for i := range a.slots {
		if a.slots[i].active && a.slots[i].note == note {
			a.slots[i].active = false
			base := uint8(i * 7)
			a.scheduler.QueueEvent(a.chipMask, base+4, ctrlTriangle, 0)
			return
		}
	}
}

// pickSlot returns a free slot if one exists, else steals the one with
// the oldest generation.
func (a *VoiceAllocator) pickSlot() int {
	for i := range a.slots {
		if !a.slots[i].active {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(a.slots); i++ {
		if a.slots[i].generation < a.slots[oldest].generation {
			oldest = i
		}
	}
	return oldest
}

// noteToSIDFreq converts a MIDI note number to a 16-bit SID frequency
// register value at the PAL clock, using equal temperament against A4
// (note 69) = 440Hz: Fout = 440 * 2^((note-69)/12); freqReg = Fout *
// 16777216 / clockHz.
func noteToSIDFreq(note uint8) uint16 {
	semitone := float64(int(note) - 69)
	hz := 440.0 * math.Pow(2, semitone/12.0)
	reg := hz * 16777216.0 / float64(sidClockPAL)
	if reg > 65535 {
		return 65535
	}
	if reg < 0 {
		return 0
	}
	return uint16(reg)
}
