package drive

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-viridia/pkg/motion"
)

// Seek defaults.
const (
	DefaultTurnSpeed   = math.Pi // rad/s when turning on the spot
	DefaultMinDistance = 10.0    // mm
)

// lateralEpsilon is how close to zero (mm) a lateral offset must be to count
// as straight ahead.
const lateralEpsilon = 1e-6

// Steer computes a pursuit motion towards a target at (x, y) mm in the robot
// frame (+y ahead, +x right). It keeps no state: each call works only from the
// current offsets.
//
//   - closer than minDistance (when positive): stop
//   - lateral offset near zero and ahead: straight on at speed
//   - behind, or |x| >= y: turn on the spot at ±turnSpeed towards the target
//   - otherwise: drive forward at speed along the arc through the target
func Steer(x, y, speed, turnSpeed, minDistance float64) motion.Motion {
	if minDistance > 0 && math.Hypot(x, y) < minDistance {
		return motion.Still()
	}
	if math.Abs(x) < lateralEpsilon && y >= 0 {
		return motion.Forward(speed)
	}
	if y <= 0 || math.Abs(x) >= y {
		if x >= 0 {
			return motion.Turn(turnSpeed)
		}
		return motion.Turn(-turnSpeed)
	}

	// Arc tangent to the current heading passing through the target.
	radius := (x*x + y*y) / (2 * math.Abs(x))
	angle := math.Asin(x / y)
	arcLength := math.Abs(angle) * radius
	return motion.Motion{
		Translation: r2.Vec{Y: speed},
		Rotation:    angle * speed / arcLength,
	}
}

// Seek steers towards (x, y) in the robot frame, applies the result and
// returns the steering motion before any acceleration limit.
func (d *Drive) Seek(x, y, speed, turnSpeed, minDistance float64) (motion.Motion, error) {
	m := Steer(x, y, speed, turnSpeed, minDistance)
	if _, err := d.Apply(&m); err != nil {
		return m, err
	}
	return m, nil
}

// SeekWorld is Seek with the target in the dead-reckoned world frame. It uses
// the current estimate without reading the motors.
func (d *Drive) SeekWorld(x, y, speed, turnSpeed, minDistance float64) (motion.Motion, error) {
	local := ToRobotFrame(d.Pose(), r2.Vec{X: x, Y: y})
	return d.Seek(local.X, local.Y, speed, turnSpeed, minDistance)
}

// ToRobotFrame expresses a world point relative to pose.
func ToRobotFrame(pose motion.Pose, world r2.Vec) r2.Vec {
	return motion.Rotate(r2.Sub(world, pose.Position), -pose.Orientation)
}
