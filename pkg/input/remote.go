package input

import (
	"sync"
)

// Remote is a Device fed from another goroutine, for example the dashboard's
// websocket. Presses accumulate until the scheduler takes a snapshot; axes
// hold their last value.
type Remote struct {
	mu      sync.Mutex
	pending map[string]struct{}
	axes    map[string]float64
}

// NewRemote creates an idle remote controller.
func NewRemote() *Remote {
	return &Remote{
		pending: make(map[string]struct{}),
		axes:    make(map[string]float64),
	}
}

// Press records a button press edge.
func (r *Remote) Press(name string) {
	r.mu.Lock()
	r.pending[name] = struct{}{}
	r.mu.Unlock()
}

// SetAxis records an axis position, clamped to [-1, 1].
func (r *Remote) SetAxis(name string, value float64) {
	r.mu.Lock()
	r.axes[name] = clampAxis(value)
	r.mu.Unlock()
}

// Center returns every axis to zero.
func (r *Remote) Center() {
	r.mu.Lock()
	r.axes = make(map[string]float64)
	r.mu.Unlock()
}

// Presses implements Device.
func (r *Remote) Presses() Presses {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]struct{})
	r.mu.Unlock()

	if len(pending) == 0 {
		return Presses{}
	}
	return Presses{names: pending}
}

// Axis implements Axes. Unknown axes read as zero.
func (r *Remote) Axis(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.axes[name]
}

var _ Device = (*Remote)(nil)
