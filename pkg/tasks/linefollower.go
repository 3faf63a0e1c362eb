package tasks

import (
	"errors"
	"math"

	"github.com/teslashibe/go-viridia/pkg/drive"
	"github.com/teslashibe/go-viridia/pkg/motion"
	"github.com/teslashibe/go-viridia/pkg/robot"
	"github.com/teslashibe/go-viridia/pkg/task"
	"github.com/teslashibe/go-viridia/pkg/vision"
)

var errNoCamera = errors.New("no line camera configured")

// LineFollowerConfig tunes line following. The camera looks backwards, so the
// follower drives with the chassis' rear as its front.
type LineFollowerConfig struct {
	HeadingOffset float64 // radians, where the camera points
	LateralRange  float64 // mm from centre to the edge of the scan band
	Lookahead     float64 // mm from the robot centre to the scan band
	Speed         float64 // mm/s
	TurnSpeed     float64 // rad/s, also used to search for a lost line
	MinDistance   float64 // mm
}

// DefaultLineFollowerConfig matches the rear camera mount: the band is about
// 70mm ahead and spans 70mm either side.
func DefaultLineFollowerConfig() LineFollowerConfig {
	return LineFollowerConfig{
		HeadingOffset: math.Pi,
		LateralRange:  70,
		Lookahead:     70,
		Speed:         100,
		TurnSpeed:     drive.DefaultTurnSpeed,
		MinDistance:   drive.DefaultMinDistance,
	}
}

// LineFollower steers towards the left-most visible line. When the line is
// lost it spins towards the side it was last seen on.
type LineFollower struct {
	task.Base
	cfg LineFollowerConfig

	lastRight bool
}

// NewLineFollower creates a line following task.
func NewLineFollower(cfg LineFollowerConfig) *LineFollower {
	return &LineFollower{Base: task.NewBase("Line follower"), cfg: cfg, lastRight: true}
}

// Init implements task.Task.
func (t *LineFollower) Init(ctx *task.Context) error {
	if ctx.Drive == nil {
		return errNoDrive
	}
	if ctx.Vision == nil {
		return errNoCamera
	}
	t.lastRight = true

	ctx.Drive.SetHeadingOffset(t.cfg.HeadingOffset)
	ctx.Drive.SetAccelerationLimit(nil)
	ctx.Drive.ResetPose()
	if ctx.Lights != nil {
		if err := ctx.Lights.SetMode(robot.LightsDirection); err != nil {
			return err
		}
	}
	ctx.Show(t.Name(), "")
	return ctx.Drive.Enable()
}

// Poll implements task.Task.
func (t *LineFollower) Poll(ctx *task.Context, _ int) (task.Task, error) {
	lines, err := ctx.Vision.Lines()
	if errors.Is(err, vision.ErrNoFrame) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		rate := t.cfg.TurnSpeed
		if !t.lastRight {
			rate = -rate
		}
		_, err := ctx.Drive.Apply(motion.Turn(rate).Ptr())
		ctx.Show(t.Name(), "Searching")
		return nil, err
	}

	x := lines[0] * t.cfg.LateralRange
	y := t.cfg.Lookahead
	if _, err := ctx.Drive.Seek(x, y, t.cfg.Speed, t.cfg.TurnSpeed, t.cfg.MinDistance); err != nil {
		return nil, err
	}
	t.lastRight = x >= 0

	if ctx.Lights != nil {
		_ = ctx.Lights.SetDirection(ctx.Drive.HeadingOffset() + math.Atan2(x, y))
	}
	ctx.Show(t.Name(), "Following")
	return nil, nil
}

// Shutdown stops the wheels and restores the chassis front.
func (t *LineFollower) Shutdown(ctx *task.Context) error {
	if ctx.Drive == nil {
		return nil
	}
	ctx.Drive.SetHeadingOffset(0)
	return ctx.Drive.Disable()
}
