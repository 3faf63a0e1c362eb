package tasks

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/motion"
	"github.com/teslashibe/go-viridia/pkg/robot"
	"github.com/teslashibe/go-viridia/pkg/task"
)

// ManualConfig tunes joystick driving.
type ManualConfig struct {
	// AccelTime is how long the acceleration limit takes to reach full speed.
	AccelTime time.Duration

	// PoseUpdate is the minimum gap between dead reckoning reads.
	PoseUpdate time.Duration

	// PoseDisplay is the minimum gap between pose readouts.
	PoseDisplay time.Duration
}

// DefaultManualConfig returns the stock joystick settings.
func DefaultManualConfig() ManualConfig {
	return ManualConfig{
		AccelTime:   time.Second,
		PoseUpdate:  100 * time.Millisecond,
		PoseDisplay: 200 * time.Millisecond,
	}
}

// Display messages for mode changes.
const (
	msgRelative     = "Relative motion engaged"
	msgAbsolute     = "Absolute motion engaged"
	msgBearingReset = "Absolute bearing reset"
	msgLimitOn      = "Motion limit enabled"
	msgLimitOff     = "Motion limit disabled"
)

// ManualMotion drives from the sticks. The left stick translates, the right
// stick's x axis rotates. Triangle selects robot-relative steering, square
// locks steering to the current bearing, circle resets the pose and cross
// toggles the acceleration limit.
type ManualMotion struct {
	task.Base
	cfg ManualConfig

	maxTrn, maxRot float64

	absolute    bool
	bearingZero float64
	limited     bool
	status      string

	poseUpdate  *task.Interval
	poseDisplay *task.Interval
}

// NewManualMotion creates a joystick driving task.
func NewManualMotion(cfg ManualConfig) *ManualMotion {
	return &ManualMotion{
		Base:        task.NewBase("Manual motion"),
		cfg:         cfg,
		poseUpdate:  task.NewInterval(cfg.PoseUpdate),
		poseDisplay: task.NewInterval(cfg.PoseDisplay),
	}
}

// Absolute reports whether steering is locked to a bearing.
func (t *ManualMotion) Absolute() bool { return t.absolute }

// Limited reports whether the acceleration limit is on.
func (t *ManualMotion) Limited() bool { return t.limited }

// Init implements task.Task.
func (t *ManualMotion) Init(ctx *task.Context) error {
	if ctx.Drive == nil {
		return errNoDrive
	}
	t.maxTrn = ctx.Drive.MaxTranslationSpeed()
	t.maxRot = ctx.Drive.MaxRotationSpeed()
	t.absolute, t.bearingZero = false, 0
	t.limited = false
	t.status = msgRelative
	t.poseUpdate.Reset()
	t.poseDisplay.Reset()

	ctx.Drive.SetAccelerationLimit(nil)
	ctx.Drive.ResetPose()
	if _, err := ctx.Drive.UpdatePose(); err != nil {
		return err
	}
	if ctx.Lights != nil {
		if err := ctx.Lights.SetMode(robot.LightsDirection); err != nil {
			return err
		}
	}
	ctx.Show(t.status, "")
	return ctx.Drive.Enable()
}

// Poll implements task.Task.
func (t *ManualMotion) Poll(ctx *task.Context, _ int) (task.Task, error) {
	d := ctx.Drive

	switch {
	case ctx.Pressed(input.ButtonTriangle):
		t.absolute = false
		t.status = msgRelative
	case ctx.Pressed(input.ButtonSquare):
		t.absolute = true
		t.bearingZero = d.Pose().Orientation
		t.status = msgAbsolute
	case ctx.Pressed(input.ButtonCircle):
		d.ResetPose()
		t.bearingZero = 0
		t.status = msgBearingReset
	case ctx.Pressed(input.ButtonCross):
		t.limited = !t.limited
		if t.limited {
			d.SetAccelerationTime(t.cfg.AccelTime)
			t.status = msgLimitOn
		} else {
			d.SetAccelerationLimit(nil)
			t.status = msgLimitOff
		}
	}

	if t.poseUpdate.ShouldRun(ctx.Timestamp) {
		if _, err := d.UpdatePose(); err != nil {
			return nil, err
		}
	}

	translate := r2.Scale(t.maxTrn, r2.Vec{X: ctx.Axis(input.AxisLeftX), Y: ctx.Axis(input.AxisLeftY)})
	if t.absolute {
		translate = motion.Rotate(translate, t.bearingZero-d.Pose().Orientation)
	}
	m := motion.Motion{
		Translation: translate,
		Rotation:    ctx.Axis(input.AxisRightX) * t.maxRot,
	}

	applied, err := d.Apply(&m)
	if err != nil {
		return nil, err
	}

	if ctx.Lights != nil && r2.Norm(applied.Translation) > 0 {
		_ = ctx.Lights.SetDirection(math.Atan2(applied.Translation.X, applied.Translation.Y))
	}
	if t.poseDisplay.ShouldRun(ctx.Timestamp) {
		ctx.Show(t.status, formatPose(d.Pose()))
	}
	return nil, nil
}

// Shutdown stops the wheels.
func (t *ManualMotion) Shutdown(ctx *task.Context) error {
	if ctx.Drive == nil {
		return nil
	}
	ctx.Drive.SetAccelerationLimit(nil)
	return ctx.Drive.Disable()
}

func formatPose(p motion.Pose) string {
	return fmt.Sprintf("x=%.0f y=%.0f %.0f°", p.Position.X, p.Position.Y, degrees(p.Orientation))
}
