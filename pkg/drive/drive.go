// Package drive turns a behavior's desired motion into safe wheel commands
// and raw wheel angles into a dead-reckoned pose.
//
// A Drive is owned by the scheduler goroutine and is not safe for concurrent
// use.
package drive

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-viridia/pkg/motion"
	"github.com/teslashibe/go-viridia/pkg/robot"
)

// DefaultActuatorScale converts rev/s to RPM with the sign flip the motor
// controllers expect for the way the wheels are mounted.
const DefaultActuatorScale = -60.0

// Chassis is the kinematics model the drive relies on.
type Chassis interface {
	motion.ForwardKinematics
	WheelSpeeds(m motion.Motion) motion.WheelSpeeds
	MaxTranslationSpeed() float64
	MaxRotationSpeed() float64
}

// Config holds the drive's fixed parameters.
type Config struct {
	// ActuatorScale multiplies each wheel's rev/s before it reaches the motors.
	ActuatorScale float64
}

// DefaultConfig returns the configuration for the stock motor controllers.
func DefaultConfig() Config {
	return Config{ActuatorScale: DefaultActuatorScale}
}

// Drive is the motion-control facade used by tasks.
type Drive struct {
	motors  robot.Motors
	chassis Chassis
	scale   float64

	// Now is the clock used for acceleration limiting. Defaults to time.Now.
	Now func() time.Time

	front     float64
	limit     *motion.AccelerationLimit
	reckoning *motion.DeadReckoning

	// Limiter memory: the last motion handed to the chassis and when.
	lastApplied motion.Motion
	lastTime    time.Time
}

// New creates a drive over motors using chassis for kinematics.
func New(motors robot.Motors, chassis Chassis, cfg Config) *Drive {
	scale := cfg.ActuatorScale
	if scale == 0 {
		scale = DefaultActuatorScale
	}
	return &Drive{
		motors:    motors,
		chassis:   chassis,
		scale:     scale,
		Now:       time.Now,
		reckoning: motion.NewDeadReckoning(chassis),
	}
}

// MaxTranslationSpeed is the chassis' top speed in mm/s.
func (d *Drive) MaxTranslationSpeed() float64 {
	return d.chassis.MaxTranslationSpeed()
}

// MaxRotationSpeed is the chassis' top rotation rate in rad/s.
func (d *Drive) MaxRotationSpeed() float64 {
	return d.chassis.MaxRotationSpeed()
}

// SetHeadingOffset sets where "front" is, radians clockwise from the
// chassis' own front. Every translation is rotated by this before use.
func (d *Drive) SetHeadingOffset(angle float64) {
	d.front = angle
}

// HeadingOffset returns the current heading offset.
func (d *Drive) HeadingOffset() float64 {
	return d.front
}

// SetAccelerationLimit installs limit, or removes it when nil. It takes effect
// on the next Apply.
func (d *Drive) SetAccelerationLimit(limit *motion.AccelerationLimit) {
	if limit == nil {
		d.limit = nil
		return
	}
	l := *limit
	d.limit = &l
}

// SetAccelerationTime installs the limit that reaches full speed from a
// standing start in accel; zero or negative clears the limit.
func (d *Drive) SetAccelerationTime(accel time.Duration) {
	d.SetAccelerationLimit(motion.LimitForAccelTime(d.MaxTranslationSpeed(), d.MaxRotationSpeed(), accel))
}

// AccelerationLimit returns the installed limit, or nil.
func (d *Drive) AccelerationLimit() *motion.AccelerationLimit {
	if d.limit == nil {
		return nil
	}
	l := *d.limit
	return &l
}

// Apply sends m to the wheels and returns the motion actually applied after
// acceleration limiting, in the robot frame before the heading offset.
// A nil m means no decision this tick: nothing is sent and no state changes.
func (d *Drive) Apply(m *motion.Motion) (motion.Motion, error) {
	if m == nil {
		return motion.Still(), nil
	}

	requested := motion.Motion{
		Translation: motion.Rotate(m.Translation, d.front),
		Rotation:    m.Rotation,
	}

	now := d.Now()
	applied := requested
	if d.limit != nil {
		var elapsed time.Duration
		if !d.lastTime.IsZero() {
			elapsed = now.Sub(d.lastTime)
		}
		applied = d.limit.Clamp(d.lastApplied, requested, elapsed)
	}

	if err := d.send(d.chassis.WheelSpeeds(applied).Speeds); err != nil {
		return motion.Still(), err
	}
	d.lastApplied = applied
	d.lastTime = now

	return motion.Motion{
		Translation: motion.Rotate(applied.Translation, -d.front),
		Rotation:    applied.Rotation,
	}, nil
}

// Stop applies the zero motion, subject to any acceleration limit.
func (d *Drive) Stop() (motion.Motion, error) {
	return d.Apply(motion.Still().Ptr())
}

// Enable zeroes the wheels and switches closed-loop control on.
func (d *Drive) Enable() error {
	if err := d.zero(); err != nil {
		return err
	}
	if err := d.motors.Enable(); err != nil {
		return fmt.Errorf("drive: enable motors: %w", err)
	}
	return nil
}

// Disable zeroes the wheels and switches closed-loop control off. It is always
// safe to call, including before Enable. Disable is attempted even if zeroing
// the wheels fails.
func (d *Drive) Disable() error {
	zeroErr := d.zero()
	if err := d.motors.Disable(); err != nil {
		return fmt.Errorf("drive: disable motors: %w", err)
	}
	return zeroErr
}

// UpdatePose reads wheel angles and folds the delta into the pose estimate.
func (d *Drive) UpdatePose() (motion.Pose, error) {
	angles, err := d.motors.ReadAngles()
	if err != nil {
		return d.reckoning.Pose(), fmt.Errorf("drive: read angles: %w", err)
	}
	return d.reckoning.Update(angles)
}

// Pose returns the current estimate without reading the motors.
func (d *Drive) Pose() motion.Pose {
	return d.reckoning.Pose()
}

// ResetPose makes the current position the origin, facing along +y.
func (d *Drive) ResetPose() {
	d.reckoning.Reset()
}

// zero sends zero speeds and resets the limiter memory to "stationary now".
func (d *Drive) zero() error {
	n := len(d.chassis.WheelSpeeds(motion.Still()).Speeds)
	if err := d.send(make([]float64, n)); err != nil {
		return err
	}
	d.lastApplied = motion.Still()
	d.lastTime = d.Now()
	return nil
}

func (d *Drive) send(speeds []float64) error {
	out := make([]float64, len(speeds))
	for i, s := range speeds {
		out[i] = s * d.scale
	}
	if err := d.motors.SetSpeeds(out); err != nil {
		return fmt.Errorf("drive: set speeds: %w", err)
	}
	return nil
}
