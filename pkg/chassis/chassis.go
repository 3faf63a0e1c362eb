// Package chassis models holonomic (omni-wheel) drive kinematics.
// It converts a robot-frame motion into per-wheel angular speeds and back.
package chassis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-viridia/pkg/motion"
)

// ErrSingular is returned when the wheel layout cannot resolve every motion.
var ErrSingular = errors.New("chassis: wheel layout is singular")

// directionSamples is how many headings MaxTranslationSpeed checks.
const directionSamples = 360

// Wheel describes one omni wheel.
type Wheel struct {
	Position r2.Vec  // centre of contact patch in the robot frame, mm
	Drive    r2.Vec  // unit vector of the wheel's driven direction
	Radius   float64 // mm
	MaxSpeed float64 // rev/s
}

// circumference in mm.
func (w Wheel) circumference() float64 {
	return 2 * math.Pi * w.Radius
}

// Holonomic is a chassis with any number (at least three) of omni wheels.
type Holonomic struct {
	wheels []Wheel

	forward *mat.Dense // wheels x 3, maps (tx, ty, rot) to rev/s
	inverse *mat.Dense // 3 x wheels, least squares pseudo-inverse

	maxTranslation float64
	maxRotation    float64
}

// New builds a chassis from an explicit wheel layout.
func New(wheels []Wheel) (*Holonomic, error) {
	if len(wheels) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 wheels, got %d", ErrSingular, len(wheels))
	}

	n := len(wheels)
	forward := mat.NewDense(n, 3, nil)
	for i, w := range wheels {
		if w.Radius <= 0 || w.MaxSpeed <= 0 {
			return nil, fmt.Errorf("chassis: wheel %d needs a positive radius and max speed", i)
		}
		d := r2.Unit(w.Drive)
		c := w.circumference()
		forward.Set(i, 0, d.X/c)
		forward.Set(i, 1, d.Y/c)
		forward.Set(i, 2, (d.X*w.Position.Y-d.Y*w.Position.X)/c)
	}

	// inverse = (AᵀA)⁻¹Aᵀ
	var ata mat.Dense
	ata.Mul(forward.T(), forward)
	var ataInv mat.Dense
	if err := ataInv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	inverse := mat.NewDense(3, n, nil)
	inverse.Mul(&ataInv, forward.T())

	h := &Holonomic{
		wheels:  append([]Wheel(nil), wheels...),
		forward: forward,
		inverse: inverse,
	}
	h.maxRotation = h.computeMaxRotation()
	h.maxTranslation = h.computeMaxTranslation()
	return h, nil
}

// RegularTriangular builds the usual three wheel chassis: wheels spaced 120°
// apart at wheelDistance from the centre, one of them at the front, each
// driving tangentially (clockwise).
func RegularTriangular(wheelDistance, wheelRadius, maxRPS float64) (*Holonomic, error) {
	wheels := make([]Wheel, 3)
	for i := range wheels {
		angle := float64(i) * 2 * math.Pi / 3
		pos := motion.Rotate(r2.Vec{Y: wheelDistance}, angle)
		wheels[i] = Wheel{
			Position: pos,
			Drive:    motion.Rotate(r2.Unit(pos), math.Pi/2),
			Radius:   wheelRadius,
			MaxSpeed: maxRPS,
		}
	}
	return New(wheels)
}

// Wheels returns the number of wheels.
func (h *Holonomic) Wheels() int {
	return len(h.wheels)
}

// WheelSpeeds returns the per-wheel speeds for m, scaled down uniformly if any
// wheel would exceed its maximum.
func (h *Holonomic) WheelSpeeds(m motion.Motion) motion.WheelSpeeds {
	raw := h.rawSpeeds(m.Translation.X, m.Translation.Y, m.Rotation)

	scaling := 1.0
	for i, s := range raw {
		if ratio := math.Abs(s) / h.wheels[i].MaxSpeed; ratio > 1 && 1/ratio < scaling {
			scaling = 1 / ratio
		}
	}
	if scaling < 1 {
		for i := range raw {
			raw[i] *= scaling
		}
	}
	return motion.WheelSpeeds{Speeds: raw, Scaling: scaling}
}

// MotionFromWheelSpeeds is the least squares inverse of WheelSpeeds, without
// any scaling.
func (h *Holonomic) MotionFromWheelSpeeds(speeds []float64) motion.Motion {
	if len(speeds) != len(h.wheels) {
		return motion.Still()
	}
	var out mat.VecDense
	out.MulVec(h.inverse, mat.NewVecDense(len(speeds), append([]float64(nil), speeds...)))
	return motion.Motion{
		Translation: r2.Vec{X: out.AtVec(0), Y: out.AtVec(1)},
		Rotation:    out.AtVec(2),
	}
}

// MaxTranslationSpeed is the fastest speed (mm/s) reachable in every direction
// without rotating.
func (h *Holonomic) MaxTranslationSpeed() float64 {
	return h.maxTranslation
}

// MaxRotationSpeed is the fastest in-place rotation (rad/s).
func (h *Holonomic) MaxRotationSpeed() float64 {
	return h.maxRotation
}

func (h *Holonomic) rawSpeeds(tx, ty, rot float64) []float64 {
	speeds := make([]float64, len(h.wheels))
	for i := range speeds {
		speeds[i] = h.forward.At(i, 0)*tx + h.forward.At(i, 1)*ty + h.forward.At(i, 2)*rot
	}
	return speeds
}

// slowest returns the largest multiple of the unit motion (tx, ty, rot) that
// keeps every wheel within limits.
func (h *Holonomic) slowest(tx, ty, rot float64) float64 {
	best := math.Inf(1)
	for i, s := range h.rawSpeeds(tx, ty, rot) {
		if s == 0 {
			continue
		}
		if v := h.wheels[i].MaxSpeed / math.Abs(s); v < best {
			best = v
		}
	}
	return best
}

func (h *Holonomic) computeMaxRotation() float64 {
	return h.slowest(0, 0, 1)
}

func (h *Holonomic) computeMaxTranslation() float64 {
	best := math.Inf(1)
	for i := 0; i < directionSamples; i++ {
		s, c := math.Sincos(float64(i) * 2 * math.Pi / directionSamples)
		if v := h.slowest(s, c, 0); v < best {
			best = v
		}
	}
	return best
}
