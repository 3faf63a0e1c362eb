// Package input provides the controller abstraction the scheduler reads once
// per tick: an immutable, edge-triggered set of button presses plus
// continuous axis values.
package input

import (
	"slices"
	"sort"
	"strings"
)

// Button names, matching a DualShock style pad.
const (
	ButtonHome     = "home"
	ButtonCross    = "cross"
	ButtonCircle   = "circle"
	ButtonSquare   = "square"
	ButtonTriangle = "triangle"
	ButtonLeft     = "dleft"
	ButtonRight    = "dright"
	ButtonUp       = "dup"
	ButtonDown     = "ddown"
)

// Axis names. Values are in [-1, 1].
const (
	AxisLeftX  = "lx"
	AxisLeftY  = "ly"
	AxisRightX = "rx"
	AxisRightY = "ry"
)

var (
	buttons = []string{
		ButtonHome, ButtonCross, ButtonCircle, ButtonSquare, ButtonTriangle,
		ButtonLeft, ButtonRight, ButtonUp, ButtonDown,
	}
	axes = []string{AxisLeftX, AxisLeftY, AxisRightX, AxisRightY}
)

// Buttons returns every known button name.
func Buttons() []string { return append([]string(nil), buttons...) }

// AxisNames returns every known axis name.
func AxisNames() []string { return append([]string(nil), axes...) }

// IsButton reports whether name is a known button.
func IsButton(name string) bool { return slices.Contains(buttons, name) }

// IsAxis reports whether name is a known axis.
func IsAxis(name string) bool { return slices.Contains(axes, name) }

// Presses is the set of buttons pressed since the previous snapshot. It is
// never modified after construction.
type Presses struct {
	names map[string]struct{}
}

// NewPresses builds a snapshot from button names.
func NewPresses(names ...string) Presses {
	if len(names) == 0 {
		return Presses{}
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return Presses{names: set}
}

// Has reports whether name was pressed.
func (p Presses) Has(name string) bool {
	_, ok := p.names[name]
	return ok
}

// Len returns the number of distinct buttons pressed.
func (p Presses) Len() int {
	return len(p.names)
}

// Names returns the pressed buttons in sorted order.
func (p Presses) Names() []string {
	out := make([]string, 0, len(p.names))
	for n := range p.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// String implements fmt.Stringer.
func (p Presses) String() string {
	return "[" + strings.Join(p.Names(), " ") + "]"
}

// Axes reads continuous controls by name.
type Axes interface {
	Axis(name string) float64
}

// Device is an input collaborator. Presses returns everything pressed since
// the previous call and starts a new collection window.
type Device interface {
	Axes
	Presses() Presses
}

// clampAxis limits v to [-1, 1].
func clampAxis(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
