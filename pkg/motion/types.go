// Package motion provides the value types shared by the drive and the tasks:
// - Pose is the dead-reckoned position and orientation of the robot
// - Motion is a requested translation and rotation in the robot's frame
// - WheelSpeeds is what the chassis model turns a Motion into
//
// Frame conventions: +y is the robot's front, +x is its right hand side.
// Rotations and orientations are positive clockwise when viewed from above,
// so a positive rotation turns the robot towards +x.
package motion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose is a 2D position (mm) plus orientation (radians, unbounded).
type Pose struct {
	Position    r2.Vec
	Orientation float64
}

// String formats the pose for display sinks and logs.
func (p Pose) String() string {
	return fmt.Sprintf("x=%.1f y=%.1f θ=%.3f", p.Position.X, p.Position.Y, p.Orientation)
}

// Motion is a requested translation (mm/s, robot frame) and rotation (rad/s).
type Motion struct {
	Translation r2.Vec
	Rotation    float64
}

// Still returns the zero motion.
func Still() Motion {
	return Motion{}
}

// Forward returns a straight ahead motion at speed mm/s.
func Forward(speed float64) Motion {
	return Motion{Translation: r2.Vec{Y: speed}}
}

// Turn returns an in-place rotation at rate rad/s.
func Turn(rate float64) Motion {
	return Motion{Rotation: rate}
}

// IsStill reports whether the motion is exactly zero.
func (m Motion) IsStill() bool {
	return m.Translation.X == 0 && m.Translation.Y == 0 && m.Rotation == 0
}

// Ptr returns a pointer to a copy of m, for APIs where nil means "no decision".
func (m Motion) Ptr() *Motion {
	return &m
}

// String formats the motion for logs.
func (m Motion) String() string {
	return fmt.Sprintf("trn=(%.1f,%.1f) rot=%.3f", m.Translation.X, m.Translation.Y, m.Rotation)
}

// WheelSpeeds holds per-wheel angular speeds in revolutions per second, in the
// chassis model's wheel order. Scaling is the factor (0, 1] that was applied to
// the requested motion to bring every wheel within its speed limit.
type WheelSpeeds struct {
	Speeds  []float64
	Scaling float64
}

// Rotate rotates v clockwise by angle radians.
func Rotate(v r2.Vec, angle float64) r2.Vec {
	if angle == 0 {
		return v
	}
	s, c := math.Sincos(angle)
	return r2.Vec{
		X: v.X*c + v.Y*s,
		Y: -v.X*s + v.Y*c,
	}
}
