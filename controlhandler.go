// controlhandler.go - C6: applies out-of-band FDIS control commands.
package main

// Control opcodes (§4.6). opNoteOn/opNoteOff are this host's
// CLI/control-plane entry point into the MIDI-style voice allocator
// (SPEC_FULL.md §9 Open Questions resolution: the allocator is wired
// through the same 4-byte command channel as CYCLE_MODE and friends,
// rather than opening a second socket).
const (
	opCycleMode    = 0x01
	opSetVoiceMask = 0x02
	opSetFilter    = 0x03
	opNoteOn       = 0x04 // param0=note, param1=velocity
	opNoteOff      = 0x05 // param0=note
)

// ControlHandler dispatches 4-byte command records against the
// scheduler's policy state. Unknown opcodes are ignored (their bytes
// were already consumed by the parser).
type ControlHandler struct {
	scheduler *EventScheduler
	cellA     SIDCell
	cellB     SIDCell
	modelIdx  int // 0=6581, 1=8580, 2=split
	voices    *VoiceAllocator
}

// split-mode model cycle order (§8 property 6, §4.6).
var modelCycle = [3][2]ChipModel{
	{ModelMOS6581, ModelMOS6581},
	{ModelMOS8580, ModelMOS8580},
	{ModelMOS6581, ModelMOS8580}, // split: cell A = 6581, cell B = 8580
}

// NewControlHandler binds a handler to the scheduler and the two cells it
// must reinitialize on CYCLE_MODE. It also owns the MIDI-style voice
// allocator that NOTE_ON/NOTE_OFF commands drive, targeting both cells.
func NewControlHandler(scheduler *EventScheduler, cellA, cellB SIDCell) *ControlHandler {
	return &ControlHandler{
		scheduler: scheduler,
		cellA:     cellA,
		cellB:     cellB,
		voices:    NewVoiceAllocator(scheduler, chipMaskBoth),
	}
}

// HandleCommand dispatches one decoded command record.
func (h *ControlHandler) HandleCommand(opcode, param0, param1, param2 uint8) {
	_ = param2
	switch opcode {
	case opCycleMode:
		h.cycleMode()
	case opSetVoiceMask:
		h.scheduler.SetVoiceMask(param0)
	case opSetFilter:
		h.scheduler.SetFilterEnabled(param0 != 0)
	case opNoteOn:
		h.voices.NoteOn(param0, param1)
	case opNoteOff:
		h.voices.NoteOff(param0)
	}
}

// CurrentModels reports the chip model currently assigned to each cell,
// for display purposes only.
func (h *ControlHandler) CurrentModels() (a, b ChipModel) {
	models := modelCycle[h.modelIdx]
	return models[0], models[1]
}

// cycleMode advances through {6581, 8580, split} in order, reinitializing
// both cells' model selection while leaving the pending-event queue
// intact (§4.6, §S4).
func (h *ControlHandler) cycleMode() {
	h.modelIdx = (h.modelIdx + 1) % len(modelCycle)
	models := modelCycle[h.modelIdx]
	if h.cellA != nil {
		h.cellA.SetChipModel(models[0])
	}
	if h.cellB != nil {
		h.cellB.SetChipModel(models[1])
	}
}
