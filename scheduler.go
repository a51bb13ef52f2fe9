// scheduler.go - C2: owns two SID cells and the cycle-accurate clock that
// reconciles the SID clock domain against the audio sample-rate domain.
package main

import "math"

// A chip mask selects which SID cells a register write applies to. Zero is
// reinterpreted as broadcast (§4.2 edge cases).
const (
	chipMaskCellA = 0x01
	chipMaskCellB = 0x02
	chipMaskBoth  = chipMaskCellA | chipMaskCellB
)

// EventScheduler renders one stereo sample per call, applying any SID
// register writes that become due along the way.
type EventScheduler struct {
	cells [2]SIDCell
	queue *EventQueue

	cyclesPerSample float64
	cycleResidual   float64
	cyclesToNext    uint64 // cycles remaining before queue.Peek() fires; math.MaxUint64 means "infinity"
	haveNext        bool

	outputGain float64

	voiceMask uint8 // bit i = voice i muted, applied to both cells
	filterOn  bool
}

const cyclesInfinite = math.MaxUint64

// NewEventScheduler wires two SID cells and a queue together at the given
// clock/sample-rate pair.
func NewEventScheduler(cellA, cellB SIDCell, queue *EventQueue, clockHz uint32, sampleRate int, outputGain float64) *EventScheduler {
	s := &EventScheduler{
		cells:      [2]SIDCell{cellA, cellB},
		queue:      queue,
		outputGain: outputGain,
		filterOn:   true,
	}
	s.SetRates(clockHz, sampleRate)
	s.refreshNext()
	return s
}

// SetRates updates the cycle-to-sample ratio; the residual is preserved
// across the change (it is zeroed only by a forced forward-progress step
// or by ResetQueueState).
func (s *EventScheduler) SetRates(clockHz uint32, sampleRate int) {
	if sampleRate <= 0 {
		sampleRate = 1
	}
	s.cyclesPerSample = float64(clockHz) / float64(sampleRate)
}

// QueueEvent appends a pending write; overflow handling lives in EventQueue.
func (s *EventScheduler) QueueEvent(chipMask, addr, value uint8, delta uint32) {
	// Cycles already counted down against the current head must survive
	// the push (including a drop that merges the head's delta forward).
	var elapsed uint64
	if head, ok := s.queue.Peek(); ok && s.haveNext {
		elapsed = uint64(head.delta) - s.cyclesToNext
	}
	s.queue.Push(chipMask, addr, value, delta)
	s.refreshNext()
	if s.haveNext {
		s.cyclesToNext -= elapsed
	}
}

// PushRegisterEvent is the frame parser's half of the ParserSink
// interface; it is just QueueEvent under the name the wire layer expects.
func (s *EventScheduler) PushRegisterEvent(chipMask, addr, value uint8, delta uint32) {
	s.QueueEvent(chipMask, addr, value, delta)
}

func (s *EventScheduler) refreshNext() {
	ev, ok := s.queue.Peek()
	s.haveNext = ok
	if ok {
		s.cyclesToNext = uint64(ev.delta)
	} else {
		s.cyclesToNext = cyclesInfinite
	}
}

// GetQueueDepth reports the number of events still pending.
func (s *EventScheduler) GetQueueDepth() int { return s.queue.Depth() }

// GetDroppedEventCount reports the cumulative overflow-drop count.
func (s *EventScheduler) GetDroppedEventCount() uint32 { return s.queue.DroppedCount() }

// ResetQueueState clears the pending-event queue without touching cell
// state (used on host disconnect, §3 lifecycle).
func (s *EventScheduler) ResetQueueState() {
	s.queue.Reset()
	s.cycleResidual = 0
	s.refreshNext()
}

// GetMonitor reports both cells' register/envelope snapshots for
// telemetry, per C1's read_state() (§4.2). A nil cell (scheduler built
// with one chip missing) reports the zero SIDState.
func (s *EventScheduler) GetMonitor() (cellA, cellB SIDState) {
	if s.cells[0] != nil {
		cellA = s.cells[0].ReadState()
	}
	if s.cells[1] != nil {
		cellB = s.cells[1].ReadState()
	}
	return cellA, cellB
}

// SetVoiceMask mutes/unmutes voices across both cells (global, not
// per-cell - see SPEC_FULL.md §9 Open Questions resolution).
func (s *EventScheduler) SetVoiceMask(mask uint8) { s.voiceMask = mask & 0x07 }

// SetFilterEnabled toggles whether filter-routed register writes apply
// their filter effect on both cells.
func (s *EventScheduler) SetFilterEnabled(enabled bool) {
	s.filterOn = enabled
	for _, c := range s.cells {
		if c != nil {
			c.EnableFilter(enabled)
		}
	}
}

// applyEvent dispatches one popped event's register write to the cells
// selected by its chip mask, honoring the global voice mute mask by
// silencing the gate bit of muted voices before forwarding.
func (s *EventScheduler) applyEvent(ev pendingEvent) {
	mask := ev.chipMask & chipMaskBoth
	if mask == 0 {
		mask = chipMaskBoth
	}
	value := ev.value
	if voiceOfRegister(ev.addr) >= 0 && s.voiceMask&(1<<uint(voiceOfRegister(ev.addr))) != 0 && isControlRegister(ev.addr) {
		value &^= ctrlGate
	}
	if mask&chipMaskCellA != 0 && s.cells[0] != nil {
		s.cells[0].Write(ev.addr, value)
	}
	if mask&chipMaskCellB != 0 && s.cells[1] != nil {
		s.cells[1].Write(ev.addr, value)
	}
}

func isControlRegister(addr uint8) bool {
	switch addr {
	case regV1Ctrl, regV2Ctrl, regV3Ctrl:
		return true
	default:
		return false
	}
}

func voiceOfRegister(addr uint8) int {
	switch addr {
	case regV1Ctrl:
		return 0
	case regV2Ctrl:
		return 1
	case regV3Ctrl:
		return 2
	default:
		return -1
	}
}

// drainZeroDelta applies every head event whose delta is already zero,
// in insertion order, with no intervening clock call (§8 property 3).
func (s *EventScheduler) drainZeroDelta() {
	for {
		ev, ok := s.queue.Peek()
		if !ok || ev.delta != 0 {
			return
		}
		s.queue.Pop()
		s.applyEvent(ev)
		s.refreshNext()
	}
}

// RenderSample produces one stereo frame. It implements the §4.2
// algorithm: accumulate the fractional cycles-per-sample ratio, clock
// both cells up to the next due event (or the full sample budget),
// applying events exactly when they become due.
func (s *EventScheduler) RenderSample() (left, right int16) {
	s.cycleResidual += s.cyclesPerSample
	cycles := uint64(math.Floor(s.cycleResidual))
	s.cycleResidual -= float64(cycles)
	if cycles < 1 {
		cycles = 1
		s.cycleResidual = 0
	}

	s.drainZeroDelta()

	for cycles > 0 {
		run := cycles
		if s.haveNext && s.cyclesToNext < run {
			run = s.cyclesToNext
		}
		if run == 0 {
			run = 1
		}
		for _, c := range s.cells {
			if c != nil {
				c.Clock(uint32(run))
			}
		}
		cycles -= run
		if s.haveNext {
			s.cyclesToNext -= run
			if s.cyclesToNext == 0 {
				if ev, ok := s.queue.Pop(); ok {
					s.applyEvent(ev)
				}
				s.refreshNext()
				s.drainZeroDelta()
			}
		}
	}

	var outL, outR float64
	if s.cells[0] != nil {
		outL = float64(s.cells[0].Output()) * s.outputGain
	}
	if s.cells[1] != nil {
		outR = float64(s.cells[1].Output()) * s.outputGain
	}
	return clampInt16(outL), clampInt16(outR)
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
