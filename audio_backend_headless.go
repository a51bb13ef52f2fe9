//go:build headless

// audio_backend_headless.go - no-op audio sink for headless builds
// (CI, servers without a sound device): drains ready buffers back to
// the pool without ever touching a real output device.
package main

type OtoPlayer struct {
	started bool
	pool    *BufferPool
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(pool *BufferPool) {
	op.pool = pool
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	if op.pool != nil {
		if buf, ok := op.pool.AcquireReady(); ok {
			op.pool.Release(buf)
		}
	}
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
