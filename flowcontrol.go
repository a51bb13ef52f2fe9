// flowcontrol.go - C7: watermark hysteresis over the host-event queue
// depth, gating whether the transport loop may pull more USB bytes.
package main

// FlowController asserts "halt host reads" when the queue grows past a
// high watermark and only releases it once depth falls to a lower one,
// avoiding rapid oscillation right at the boundary.
type FlowController struct {
	queue  *EventQueue
	high   int
	low    int
	paused bool
}

// NewFlowController derives the standard watermarks from capacity:
// high = capacity-128, low = 256 (§4.7).
func NewFlowController(queue *EventQueue) *FlowController {
	capacity := queue.Capacity()
	high := capacity - 128
	if high < 1 {
		high = capacity
	}
	return &FlowController{queue: queue, high: high, low: 256}
}

// Poll re-evaluates the pause state against current queue depth and
// returns whether the transport may read more bytes right now.
func (f *FlowController) Poll() bool {
	depth := f.queue.Depth()
	if !f.paused && depth >= f.high {
		f.paused = true
	} else if f.paused && depth <= f.low {
		f.paused = false
	}
	return !f.paused
}

// Paused reports the last-computed pause state without recomputing it.
func (f *FlowController) Paused() bool { return f.paused }
