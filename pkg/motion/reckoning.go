package motion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ForwardKinematics maps wheel speeds (rev/s) back to the robot-frame Motion
// that would produce them.
type ForwardKinematics interface {
	MotionFromWheelSpeeds(speeds []float64) Motion
}

// DeadReckoning integrates wheel angle deltas into a running Pose.
// It is time agnostic: a delta is treated as one second at constant speed,
// so the result only depends on how far each wheel turned.
type DeadReckoning struct {
	kinematics ForwardKinematics

	pose Pose
	last []float64 // nil until the first reading after construction or Reset
}

// NewDeadReckoning creates an estimator starting at the origin.
func NewDeadReckoning(kinematics ForwardKinematics) *DeadReckoning {
	return &DeadReckoning{kinematics: kinematics}
}

// Pose returns the current estimate.
func (d *DeadReckoning) Pose() Pose {
	return d.pose
}

// Reset zeroes the pose and forgets the angle baseline. The next Update only
// records a new baseline.
func (d *DeadReckoning) Reset() {
	d.pose = Pose{}
	d.last = nil
}

// Update folds in a new set of cumulative wheel angles (revolutions).
func (d *DeadReckoning) Update(angles []float64) (Pose, error) {
	if d.last == nil {
		d.last = append([]float64(nil), angles...)
		return d.pose, nil
	}
	if len(angles) != len(d.last) {
		return d.pose, fmt.Errorf("dead reckoning: got %d wheel angles, want %d", len(angles), len(d.last))
	}

	deltas := make([]float64, len(angles))
	moved := false
	for i, a := range angles {
		deltas[i] = a - d.last[i]
		if deltas[i] != 0 {
			moved = true
		}
	}
	copy(d.last, angles)

	if moved {
		d.pose = Advance(d.pose, d.kinematics.MotionFromWheelSpeeds(deltas), 1)
	}
	return d.pose, nil
}

// Advance returns the pose reached by holding m for dt seconds from p. With a
// rotation component the robot follows a circular arc around the instantaneous
// centre of rotation.
func Advance(p Pose, m Motion, dt float64) Pose {
	trn := r2.Scale(dt, m.Translation)
	rot := m.Rotation * dt

	if math.Abs(rot) < 1e-12 {
		return Pose{
			Position:    r2.Add(p.Position, Rotate(trn, p.Orientation)),
			Orientation: p.Orientation,
		}
	}

	// Centre of rotation sits a quarter turn clockwise from the translation,
	// at distance |trn|/rot.
	centre := r2.Add(p.Position, Rotate(r2.Scale(1/rot, Rotate(trn, math.Pi/2)), p.Orientation))
	rel := r2.Sub(p.Position, centre)
	return Pose{
		Position:    r2.Add(centre, Rotate(rel, rot)),
		Orientation: p.Orientation + rot,
	}
}
