package motion

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// AccelerationLimit bounds how fast a requested Motion may change.
// Linear is in mm/s² and applies to the translation vector as a whole,
// Angular is in rad/s².
type AccelerationLimit struct {
	Linear  float64
	Angular float64
}

// LimitForAccelTime returns the limit that takes accel to go from a standing
// start to full speed in any component of the motion.
func LimitForAccelTime(maxTranslation, maxRotation float64, accel time.Duration) *AccelerationLimit {
	if accel <= 0 {
		return nil
	}
	secs := accel.Seconds()
	return &AccelerationLimit{
		Linear:  maxTranslation / secs,
		Angular: maxRotation / secs,
	}
}

// Clamp returns next moved towards prev so that neither the translation
// change nor the rotation change exceeds what the limit allows in elapsed.
// The translation delta is clamped by length, which also bounds each axis.
// A non-positive elapsed time allows no change at all.
func (l AccelerationLimit) Clamp(prev, next Motion, elapsed time.Duration) Motion {
	dt := elapsed.Seconds()
	if dt < 0 {
		dt = 0
	}

	out := next

	maxLinear := l.Linear * dt
	delta := r2.Sub(next.Translation, prev.Translation)
	if n := r2.Norm(delta); n > maxLinear {
		if n == 0 || maxLinear <= 0 {
			out.Translation = prev.Translation
		} else {
			out.Translation = r2.Add(prev.Translation, r2.Scale(maxLinear/n, delta))
		}
	}

	maxAngular := l.Angular * dt
	out.Rotation = prev.Rotation + clampStep(next.Rotation-prev.Rotation, maxAngular)

	return out
}

func clampStep(delta, maxStep float64) float64 {
	if maxStep < 0 {
		maxStep = 0
	}
	if delta > maxStep {
		return maxStep
	}
	if delta < -maxStep {
		return -maxStep
	}
	return delta
}
