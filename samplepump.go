// samplepump.go - C3: pulls free output buffers and fills them via the
// event scheduler, one stereo frame at a time.
package main

// AudioBuffer is a fixed-size buffer of stereo frames.
type AudioBuffer struct {
	Left, Right []int16
	SampleCount int
}

// BufferPool is a small fixed pool of reusable AudioBuffers, acquired
// non-blockingly by the sample pump and returned after the sink drains
// them. Single-producer (pump) / single-consumer (sink) discipline.
type BufferPool struct {
	buffers []*AudioBuffer
	free    chan *AudioBuffer
	ready   chan *AudioBuffer
	maxLen  int
}

// NewBufferPool allocates bufferCount buffers of maxSampleCount stereo
// frames each, and pre-fills none (the caller primes the pool after
// construction per §4.3 "pre-fill two buffers on init").
func NewBufferPool(bufferCount, maxSampleCount int) *BufferPool {
	p := &BufferPool{
		free:   make(chan *AudioBuffer, bufferCount),
		ready:  make(chan *AudioBuffer, bufferCount),
		maxLen: maxSampleCount,
	}
	for i := 0; i < bufferCount; i++ {
		buf := &AudioBuffer{Left: make([]int16, maxSampleCount), Right: make([]int16, maxSampleCount)}
		p.buffers = append(p.buffers, buf)
		p.free <- buf
	}
	return p
}

// acquireFree is non-blocking: returns (nil, false) if no buffer is free.
func (p *BufferPool) acquireFree() (*AudioBuffer, bool) {
	select {
	case b := <-p.free:
		return b, true
	default:
		return nil, false
	}
}

// AcquireReady is non-blocking: returns (nil, false) if nothing is ready.
// Called by the audio sink.
func (p *BufferPool) AcquireReady() (*AudioBuffer, bool) {
	select {
	case b := <-p.ready:
		return b, true
	default:
		return nil, false
	}
}

// Release returns a drained buffer to the free list. Called by the sink
// once it has consumed a buffer returned from AcquireReady.
func (p *BufferPool) Release(b *AudioBuffer) {
	select {
	case p.free <- b:
	default:
	}
}

// SamplePump pulls a free buffer, fills it completely from the scheduler,
// and hands it to the ready queue. One call = one buffer's worth of work
// (or a no-op if the pool has no free buffer).
type SamplePump struct {
	scheduler *EventScheduler
	pool      *BufferPool
}

// NewSamplePump binds a pump to a scheduler and pool, and pre-fills two
// buffers with silence to avoid an initial underrun.
func NewSamplePump(scheduler *EventScheduler, pool *BufferPool) *SamplePump {
	pump := &SamplePump{scheduler: scheduler, pool: pool}
	for i := 0; i < 2; i++ {
		if b, ok := pool.acquireFree(); ok {
			for j := range b.Left {
				b.Left[j], b.Right[j] = 0, 0
			}
			b.SampleCount = pool.maxLen
			pool.ready <- b
		}
	}
	return pump
}

// Pump fills one buffer if one is free; returns false if the pool had
// none available (a no-op, not an error - see Audio.NoFreeBuffer, §7).
func (p *SamplePump) Pump() bool {
	b, ok := p.pool.acquireFree()
	if !ok {
		return false
	}
	for i := 0; i < p.pool.maxLen; i++ {
		left, right := p.scheduler.RenderSample()
		b.Left[i] = left
		b.Right[i] = right
	}
	b.SampleCount = p.pool.maxLen
	select {
	case p.pool.ready <- b:
	default:
		// ready queue full; return the buffer to free rather than block.
		p.pool.Release(b)
	}
	return true
}
