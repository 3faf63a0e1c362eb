package task

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/teslashibe/go-viridia/pkg/robot"
)

// ClearStateTask puts the robot back into a neutral state and then hands
// over to Next on its first poll. The manager wraps every switch it forces
// in one of these.
type ClearStateTask struct {
	Base
	Next Task
}

// ClearState returns a task that resets peripherals then yields to next.
func ClearState(next Task) *ClearStateTask {
	return &ClearStateTask{Base: NewBase("Clear state"), Next: next}
}

// Init disables the drive, idles the lights, zeroes the heading offset and
// clears any acceleration limit.
func (t *ClearStateTask) Init(ctx *Context) error {
	var errs []error
	if ctx.Drive != nil {
		ctx.Drive.SetHeadingOffset(0)
		ctx.Drive.SetAccelerationLimit(nil)
		if err := ctx.Drive.Disable(); err != nil {
			errs = append(errs, err)
		}
	}
	if ctx.Lights != nil {
		if err := ctx.Lights.SetMode(robot.LightsIdle); err != nil {
			errs = append(errs, fmt.Errorf("lights: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Poll implements Task.
func (t *ClearStateTask) Poll(*Context, int) (Task, error) {
	if t.Next == nil {
		return Exit(), nil
	}
	return t.Next, nil
}

// ErrorTask shows a captured fault and stays put until the home button is
// pressed.
type ErrorTask struct {
	Base
	Err error
}

// NewErrorTask returns a task displaying err.
func NewErrorTask(err error) *ErrorTask {
	return &ErrorTask{Base: NewBase("Error"), Err: err}
}

// Init shows the fault and turns the ring red.
func (t *ErrorTask) Init(ctx *Context) error {
	msg := "unknown fault"
	if t.Err != nil {
		msg = t.Err.Error()
	}
	ctx.Show("Error", msg)
	if ctx.Lights != nil {
		_ = ctx.Lights.SetHue(robot.HueRed, robot.DefaultHueSpread)
	}
	return nil
}

// Poll implements Task.
func (t *ErrorTask) Poll(*Context, int) (Task, error) {
	return nil, nil
}

// ExitTask marks the end of a behavior. The manager never runs it: returning
// one from Poll sends the robot back to the home task via ClearState.
type ExitTask struct {
	Base
}

// Exit returns an ExitTask.
func Exit() *ExitTask {
	return &ExitTask{Base: NewBase("Exit")}
}

// Poll implements Task.
func (*ExitTask) Poll(*Context, int) (Task, error) {
	return nil, nil
}

// PauseTask waits at least Duration from its Init, then yields to Next.
type PauseTask struct {
	Base
	Duration time.Duration
	Next     Task

	start time.Time
}

// Pause returns a task that waits d then yields to next, or to Exit when next
// is nil.
func Pause(d time.Duration, next Task) *PauseTask {
	if next == nil {
		next = Exit()
	}
	return &PauseTask{Base: NewBase("Pause"), Duration: d, Next: next}
}

// Init records the start time.
func (t *PauseTask) Init(ctx *Context) error {
	t.start = ctx.Timestamp
	return nil
}

// Poll implements Task.
func (t *PauseTask) Poll(ctx *Context, _ int) (Task, error) {
	if ctx.Timestamp.Sub(t.start) >= t.Duration {
		return t.Next, nil
	}
	return nil, nil
}

// PanicError is a panic recovered from inside a task.
type PanicError struct {
	Task  string
	Phase string
	Value any
	Stack []byte
}

func newPanicError(task, phase string, v any) *PanicError {
	return &PanicError{Task: task, Phase: phase, Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s %s: panic: %v", e.Task, e.Phase, e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Interval reports when at least Every has passed since it last fired.
type Interval struct {
	Every time.Duration
	last  time.Time
}

// NewInterval creates an Interval that fires on its first check.
func NewInterval(every time.Duration) *Interval {
	return &Interval{Every: every}
}

// ShouldRun reports whether the interval has elapsed at now, and if so
// restarts it.
func (i *Interval) ShouldRun(now time.Time) bool {
	if !i.last.IsZero() && now.Sub(i.last) < i.Every {
		return false
	}
	i.last = now
	return true
}

// Reset makes the next check fire.
func (i *Interval) Reset() {
	i.last = time.Time{}
}
