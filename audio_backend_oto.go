//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer is C3's sink: it reads stereo buffers the sample pump has
// already filled via BufferPool.AcquireReady and streams them to the
// system audio device.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	pool    *BufferPool
	started bool
	mutex   sync.Mutex // only for setup/control operations

	current    *AudioBuffer // in-flight buffer on the Read() hot path
	currentPos int
}

// NewOtoPlayer opens a stereo float32 oto context at sampleRate.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{
		ctx:     ctx,
		started: false,
	}, nil
}

// SetupPlayer binds the sink to the pool the sample pump fills.
func (op *OtoPlayer) SetupPlayer(pool *BufferPool) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.pool = pool
	op.player = op.ctx.NewPlayer(op)
}

// Read implements io.Reader for oto. It is invoked on oto's own
// goroutine and must not block: once the in-flight buffer runs dry it
// pulls the next ready one from the pool, falling back to silence if
// none is ready yet (Audio.NoFreeBuffer, §7) rather than waiting.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	written := 0
	for written < len(p) {
		if op.current == nil || op.currentPos >= op.current.SampleCount {
			if op.current != nil {
				op.pool.Release(op.current)
				op.current = nil
			}
			next, ok := op.pool.AcquireReady()
			if !ok {
				for i := written; i < len(p); i++ {
					p[i] = 0
				}
				return len(p), nil
			}
			op.current = next
			op.currentPos = 0
		}

		l := float32(op.current.Left[op.currentPos]) / 32768.0
		r := float32(op.current.Right[op.currentPos]) / 32768.0
		op.currentPos++
		written += putFloat32LE(p[written:], l)
		written += putFloat32LE(p[written:], r)
	}
	return written, nil
}

func putFloat32LE(p []byte, v float32) int {
	bits := math.Float32bits(v)
	p[0] = byte(bits)
	p[1] = byte(bits >> 8)
	p[2] = byte(bits >> 16)
	p[3] = byte(bits >> 24)
	return 4
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
