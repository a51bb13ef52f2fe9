// frameparser.go - C5: a resynchronizing, pull-based FDIS frame parser.
//
// Byte handling style (buffered accumulation, partial-read resume, and
// resync-by-advancing-one-byte on a bad header) follows the read-loop
// idiom of a termios-based serial reader rather than a one-shot decode -
// bytes trickle in from a non-blocking USB-CDC read and the parser must
// tolerate being fed a handful of bytes at a time.
package main

import "encoding/binary"

const (
	fdisMagic        = 0x53494446 // wire bytes 'F','D','I','S' read as a little-endian u32
	fdisMagicCommand = 0xFFFF
	maxEventCount    = 8192
	eventRecordLen6  = 6 // addr:u8 value:u8 delta:u32
	eventRecordLen8  = 8 // chip:u8 addr:u8 value:u8 pad:u8 delta:u32
	commandRecordLen = 4
	headerLen10      = 10 // magic:u32 count:u16 frame:u32
	headerLen12      = 12 // magic:u32 count:u16 pad:u16 frame:u32
)

// WireProfile selects the event-record width negotiated at construction
// time (see SPEC_FULL.md §9 Open Questions resolution - no in-band
// negotiation byte exists in any source tool).
type WireProfile int

const (
	WireProfileCompact6 WireProfile = iota // 6-byte event record (default)
	WireProfileChip8                       // 8-byte event record with explicit chip byte
)

// HeaderProfile selects the header width at construction time. §6 gives
// two coexisting header shapes with no in-band byte to tell them apart
// (offset [4:6] is the count field in both, so a byte-level guess at
// parse time cannot disambiguate them - see DESIGN.md, C5 "Header
// width"). The profile is fixed once per FrameParser,
// mirroring how WireProfile fixes the event-record width.
type HeaderProfile int

const (
	HeaderProfileCompact10 HeaderProfile = iota // 10-byte header (default - the primary tool's form, §6)
	HeaderProfileExtended12                     // 12-byte header with a reserved pad field
)

type parserState int

const (
	stateScanMagic parserState = iota
	stateReadHeader
	stateReadEvents
	stateReadCommand
)

// ParserSink receives decoded events and commands. EventScheduler and
// ControlHandler satisfy the pieces of this directly; main.go combines
// them into one ParserSink with the hostSink adapter.
type ParserSink interface {
	PushRegisterEvent(chipMask, addr, value uint8, delta uint32)
	HandleCommand(opcode, param0, param1, param2 uint8)
}

// FrameTelemetry receives per-frame accounting (§4.5).
type FrameTelemetry interface {
	RecordFrame(events int, bytes int, durationNanos int64, frameIndex uint32)
	RecordResync()
	RecordBufferOverflow()
}

// FrameParser implements the FDIS state machine described in §4.5/§6.
type FrameParser struct {
	profile       WireProfile
	headerProfile HeaderProfile
	sink          ParserSink
	telemetry     FrameTelemetry

	buf       []byte
	bufLen    int
	state     parserState
	headerLen int // fixed for the life of the parser - see HeaderProfile

	count           uint16
	frameIdx        uint32
	eventsLeft      int
	frameEvents     int
	frameStartNanos int64
}

// NewFrameParser allocates a parser with an internal buffer of size B.
func NewFrameParser(profile WireProfile, headerProfile HeaderProfile, sink ParserSink, telemetry FrameTelemetry, bufferSize int) *FrameParser {
	if bufferSize < headerLen12 {
		bufferSize = 4096
	}
	headerLen := headerLen10
	if headerProfile == HeaderProfileExtended12 {
		headerLen = headerLen12
	}
	return &FrameParser{
		profile:       profile,
		headerProfile: headerProfile,
		sink:          sink,
		telemetry:     telemetry,
		buf:           make([]byte, bufferSize),
		headerLen:     headerLen,
	}
}

// Feed appends newly read bytes and runs the state machine to completion
// (i.e. until no further progress can be made with the bytes on hand).
// nowNanos is a monotonic timestamp used only for per-frame duration
// accounting; the parser does not otherwise depend on wall time.
func (p *FrameParser) Feed(data []byte, nowNanos int64) {
	p.append(data)
	p.run(nowNanos)
}

func (p *FrameParser) append(data []byte) {
	room := len(p.buf) - p.bufLen
	if len(data) > room {
		p.overflowDiscardHalf()
		room = len(p.buf) - p.bufLen
		if len(data) > room {
			data = data[:room]
		}
	}
	copy(p.buf[p.bufLen:], data)
	p.bufLen += len(data)
}

// overflowDiscardHalf drops the oldest half of the buffered bytes, a
// coarse resync aid for pathologically slow consumers (§4.5).
func (p *FrameParser) overflowDiscardHalf() {
	half := p.bufLen / 2
	copy(p.buf, p.buf[half:p.bufLen])
	p.bufLen -= half
	if p.telemetry != nil {
		p.telemetry.RecordBufferOverflow()
	}
}

func (p *FrameParser) run(nowNanos int64) {
	for {
		switch p.state {
		case stateScanMagic:
			if !p.scanMagic() {
				return
			}
			p.state = stateReadHeader
			p.frameStartNanos = nowNanos
		case stateReadHeader:
			if !p.readHeader(nowNanos) {
				return
			}
		case stateReadEvents:
			if !p.readEvents(nowNanos) {
				return
			}
		case stateReadCommand:
			if !p.readCommand(nowNanos) {
				return
			}
		}
	}
}

// scanMagic slides one byte at a time until the first 4 buffered bytes
// equal the FDIS magic, consuming (and counting as a resync) every byte
// it discards along the way.
func (p *FrameParser) scanMagic() bool {
	for p.bufLen >= 4 {
		if binary.LittleEndian.Uint32(p.buf[:4]) == fdisMagic {
			return true
		}
		p.consume(1)
		if p.telemetry != nil {
			p.telemetry.RecordResync()
		}
	}
	return false
}

func (p *FrameParser) consume(n int) {
	copy(p.buf, p.buf[n:p.bufLen])
	p.bufLen -= n
}

// readHeader reads a header of the fixed width this parser was
// constructed with (see HeaderProfile). The two header variants share
// the count field at the same offset [4:6] with no other in-band
// signal to tell them apart, so the width is a construction-time
// decision, never a per-header guess (DESIGN.md, C5).
func (p *FrameParser) readHeader(nowNanos int64) bool {
	if p.bufLen < p.headerLen {
		return false
	}
	count := binary.LittleEndian.Uint16(p.buf[4:6])
	if count > maxEventCount && count != fdisMagicCommand {
		// Transport.OversizedCount: drop one byte and resync (§7).
		p.consume(1)
		p.state = stateScanMagic
		if p.telemetry != nil {
			p.telemetry.RecordResync()
		}
		return true
	}
	var frame uint32
	if p.headerProfile == HeaderProfileExtended12 {
		frame = binary.LittleEndian.Uint32(p.buf[8:12])
	} else {
		frame = binary.LittleEndian.Uint32(p.buf[6:10])
	}
	p.commitHeader(p.headerLen, count, frame)
	return true
}

func (p *FrameParser) commitHeader(headerLen int, count uint16, frame uint32) {
	p.consume(headerLen)
	p.count = count
	p.frameIdx = frame
	p.frameEvents = 0
	if count == fdisMagicCommand {
		p.state = stateReadCommand
	} else {
		p.eventsLeft = int(count)
		p.state = stateReadEvents
	}
}

func (p *FrameParser) eventRecordLen() int {
	if p.profile == WireProfileChip8 {
		return eventRecordLen8
	}
	return eventRecordLen6
}

func (p *FrameParser) readEvents(nowNanos int64) bool {
	recLen := p.eventRecordLen()
	for p.eventsLeft > 0 {
		if p.bufLen < recLen {
			return false
		}
		var chipMask, addr, value uint8
		var delta uint32
		if p.profile == WireProfileChip8 {
			chipMask = p.buf[0]
			addr = p.buf[1]
			value = p.buf[2]
			delta = binary.LittleEndian.Uint32(p.buf[4:8])
		} else {
			chipMask = 0
			addr = p.buf[0]
			value = p.buf[1]
			delta = binary.LittleEndian.Uint32(p.buf[2:6])
		}
		p.consume(recLen)
		p.eventsLeft--
		p.frameEvents++
		if p.sink != nil {
			p.sink.PushRegisterEvent(chipMask, addr, value, delta)
		}
	}
	p.finishFrame(nowNanos, p.frameEvents*recLen)
	return true
}

func (p *FrameParser) readCommand(nowNanos int64) bool {
	if p.bufLen < commandRecordLen {
		return false
	}
	opcode, p0, p1, p2 := p.buf[0], p.buf[1], p.buf[2], p.buf[3]
	p.consume(commandRecordLen)
	if p.sink != nil {
		p.sink.HandleCommand(opcode, p0, p1, p2)
	}
	p.finishFrame(nowNanos, commandRecordLen)
	return true
}

func (p *FrameParser) finishFrame(nowNanos int64, payloadBytes int) {
	if p.telemetry != nil {
		durationNanos := nowNanos - p.frameStartNanos
		if durationNanos < 0 {
			durationNanos = 0
		}
		p.telemetry.RecordFrame(p.frameEvents, payloadBytes, durationNanos, p.frameIdx)
	}
	p.state = stateScanMagic
}
