package tasks

import (
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-viridia/pkg/motion"
	"github.com/teslashibe/go-viridia/pkg/task"
)

// CalibrationConfig sets the test runs. Linear calibration drives straight,
// which only depends on wheel size; angular calibration spins on the spot,
// which also depends on the wheel spacing, so run it second.
type CalibrationConfig struct {
	LinearSpeed    float64 // mm/s
	LinearDuration time.Duration
	AngularRate    float64 // rad/s
	AngularTime    time.Duration
}

// DefaultCalibrationConfig returns a 450mm straight run and one full turn.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		LinearSpeed:    150,
		LinearDuration: 3 * time.Second,
		AngularRate:    math.Pi / 2,
		AngularTime:    4 * time.Second,
	}
}

// timedRun drives one motion for a fixed time, then stops and reports.
type timedRun struct {
	task.Base
	motion   motion.Motion
	duration time.Duration
	report   func(ctx *task.Context, p motion.Pose)

	start time.Time
	done  bool
}

func (r *timedRun) Init(ctx *task.Context) error {
	if ctx.Drive == nil {
		return errNoDrive
	}
	r.start = ctx.Timestamp
	r.done = false

	ctx.Drive.SetHeadingOffset(0)
	ctx.Drive.SetAccelerationLimit(nil)
	ctx.Drive.ResetPose()
	if _, err := ctx.Drive.UpdatePose(); err != nil {
		return err
	}
	ctx.Show(r.Name(), "Running")
	return ctx.Drive.Enable()
}

func (r *timedRun) Poll(ctx *task.Context, _ int) (task.Task, error) {
	if r.done {
		return nil, nil
	}

	pose, err := ctx.Drive.UpdatePose()
	if err != nil {
		return nil, err
	}

	if ctx.Timestamp.Sub(r.start) < r.duration {
		_, err := ctx.Drive.Apply(&r.motion)
		return nil, err
	}

	if _, err := ctx.Drive.Stop(); err != nil {
		return nil, err
	}
	r.done = true
	r.report(ctx, pose)
	return nil, nil
}

func (r *timedRun) Shutdown(ctx *task.Context) error {
	if ctx.Drive == nil {
		return nil
	}
	return ctx.Drive.Disable()
}

// Done reports whether the run has finished.
func (r *timedRun) Done() bool { return r.done }

// LinearCalibration drives forward at a fixed speed and then shows how far
// dead reckoning thinks the robot went. Compare with a tape measure.
type LinearCalibration struct {
	timedRun
}

// NewLinearCalibration creates the straight line run.
func NewLinearCalibration(cfg CalibrationConfig) *LinearCalibration {
	expected := cfg.LinearSpeed * cfg.LinearDuration.Seconds()
	return &LinearCalibration{timedRun{
		Base:     task.NewBase("Linear calibration"),
		motion:   motion.Forward(cfg.LinearSpeed),
		duration: cfg.LinearDuration,
		report: func(ctx *task.Context, p motion.Pose) {
			ctx.Show(
				fmt.Sprintf("x=%.0f y=%.0f", p.Position.X, p.Position.Y),
				fmt.Sprintf("expected y=%.0f", expected))
		},
	}}
}

// AngularCalibration spins on the spot at a fixed rate for a fixed time and
// shows the measured angle against the commanded one.
type AngularCalibration struct {
	timedRun
}

// NewAngularCalibration creates the spin run.
func NewAngularCalibration(cfg CalibrationConfig) *AngularCalibration {
	expected := cfg.AngularRate * cfg.AngularTime.Seconds()
	return &AngularCalibration{timedRun{
		Base:     task.NewBase("Angular calibration"),
		motion:   motion.Turn(cfg.AngularRate),
		duration: cfg.AngularTime,
		report: func(ctx *task.Context, p motion.Pose) {
			ratio := 0.0
			if expected != 0 {
				ratio = p.Orientation / expected
			}
			ctx.Show(
				fmt.Sprintf("%.1f° of %.1f°", degrees(p.Orientation), degrees(expected)),
				fmt.Sprintf("ratio %.3f", ratio))
		},
	}}
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
