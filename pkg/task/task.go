// Package task runs robot behaviors one at a time.
//
// A Task goes through three phases: Init once when it becomes active, Poll
// on every following tick until it hands over to another task, and Shutdown
// as it is replaced. The Manager owns the active task, rebuilds a Context
// every tick and turns any fault into an ErrorTask so nothing escapes the
// loop.
package task

import (
	"time"

	"github.com/teslashibe/go-viridia/pkg/display"
	"github.com/teslashibe/go-viridia/pkg/drive"
	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/robot"
	"github.com/teslashibe/go-viridia/pkg/vision"
)

// Task is a single-minded robot behavior.
type Task interface {
	// Name is used on the display and in logs.
	Name() string

	// Init runs exactly once, on the first tick after the task becomes active.
	Init(ctx *Context) error

	// Poll performs one step. Return nil to keep running, or the task to
	// switch to. Poll should return promptly, it gates the whole robot.
	Poll(ctx *Context, tick int) (Task, error)

	// Shutdown runs when the task is replaced.
	Shutdown(ctx *Context) error
}

// Base provides a name and no-op lifecycle methods for embedding.
type Base struct {
	name string
}

// NewBase returns a Base with the given name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name implements Task.
func (b Base) Name() string {
	if b.name == "" {
		return "New Task"
	}
	return b.name
}

// Init implements Task.
func (Base) Init(*Context) error { return nil }

// Shutdown implements Task.
func (Base) Shutdown(*Context) error { return nil }

// Resources are the shared peripheral handles, built once at startup.
type Resources struct {
	Drive   *drive.Drive
	Chassis drive.Chassis
	Motors  robot.Motors
	Lights  robot.Lights
	Display display.Display
	Vision  vision.LineSource
	Input   input.Device
}

// Context is what a task sees during one tick. A new one is built every
// tick; the press set is a snapshot that nothing mutates.
type Context struct {
	// Timestamp is when the context was built.
	Timestamp time.Time

	Drive   *drive.Drive
	Chassis drive.Chassis
	Motors  robot.Motors
	Lights  robot.Lights
	Display display.Display
	Vision  vision.LineSource

	presses input.Presses
	axes    input.Axes
}

// NewContext builds a context from res, with presses as this tick's edges.
func NewContext(res Resources, presses input.Presses, now time.Time) *Context {
	return &Context{
		Timestamp: now,
		Drive:     res.Drive,
		Chassis:   res.Chassis,
		Motors:    res.Motors,
		Lights:    res.Lights,
		Display:   res.Display,
		Vision:    res.Vision,
		presses:   presses,
		axes:      res.Input,
	}
}

// Pressed reports whether button was pressed since the previous tick.
func (c *Context) Pressed(button string) bool {
	return c.presses.Has(button)
}

// Presses returns this tick's press snapshot.
func (c *Context) Presses() input.Presses {
	return c.presses
}

// Axis reads a controller axis, zero when there is no input device.
func (c *Context) Axis(name string) float64 {
	if c.axes == nil {
		return 0
	}
	return c.axes.Axis(name)
}

// Show writes to the display if there is one.
func (c *Context) Show(line1, line2 string) {
	if c.Display != nil {
		c.Display.Show(line1, line2)
	}
}
