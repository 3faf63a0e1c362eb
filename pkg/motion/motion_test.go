package motion

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func vecEquals(a, b r2.Vec) bool {
	return floatEquals(a.X, b.X) && floatEquals(a.Y, b.Y)
}

// scaleKinematics treats each wheel delta as a direct contribution:
// wheel 0 drives x, wheel 1 drives y, wheel 2 drives rotation.
type scaleKinematics struct{}

func (scaleKinematics) MotionFromWheelSpeeds(s []float64) Motion {
	return Motion{Translation: r2.Vec{X: s[0], Y: s[1]}, Rotation: s[2]}
}

func TestRotate_Clockwise(t *testing.T) {
	got := Rotate(r2.Vec{Y: 1}, math.Pi/2)
	if !vecEquals(got, r2.Vec{X: 1}) {
		t.Errorf("forward rotated a quarter turn: got %v, want (1,0)", got)
	}

	got = Rotate(r2.Vec{Y: 1}, math.Pi)
	if !vecEquals(got, r2.Vec{Y: -1}) {
		t.Errorf("forward rotated half a turn: got %v, want (0,-1)", got)
	}

	v := r2.Vec{X: 3, Y: -2}
	if back := Rotate(Rotate(v, 0.7), -0.7); !vecEquals(back, v) {
		t.Errorf("rotate then unrotate: got %v, want %v", back, v)
	}
}

func TestLimit_ClampsLargeJumps(t *testing.T) {
	l := AccelerationLimit{Linear: 100, Angular: 2}
	prev := Still()

	tests := []struct {
		name string
		next Motion
	}{
		{"forward", Forward(10000)},
		{"diagonal", Motion{Translation: r2.Vec{X: -5000, Y: 5000}}},
		{"spin", Turn(-50)},
		{"everything", Motion{Translation: r2.Vec{X: 900, Y: -1200}, Rotation: 9}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := l.Clamp(prev, tc.next, 100*time.Millisecond)
			if d := r2.Norm(r2.Sub(out.Translation, prev.Translation)); d > 10+floatTolerance {
				t.Errorf("translation change %v exceeds 10", d)
			}
			if d := math.Abs(out.Rotation - prev.Rotation); d > 0.2+floatTolerance {
				t.Errorf("rotation change %v exceeds 0.2", d)
			}
		})
	}
}

func TestLimit_PassesSmallChanges(t *testing.T) {
	l := AccelerationLimit{Linear: 100, Angular: 2}
	prev := Forward(50)
	next := Motion{Translation: r2.Vec{Y: 55}, Rotation: 0.1}

	out := l.Clamp(prev, next, 100*time.Millisecond)
	if out != next {
		t.Errorf("got %v, want unchanged %v", out, next)
	}
}

func TestLimit_ZeroElapsedHoldsPrevious(t *testing.T) {
	l := AccelerationLimit{Linear: 100, Angular: 2}
	prev := Motion{Translation: r2.Vec{X: 1, Y: 2}, Rotation: 0.5}

	out := l.Clamp(prev, Forward(1000), 0)
	if out != prev {
		t.Errorf("got %v, want %v", out, prev)
	}
}

func TestLimitForAccelTime(t *testing.T) {
	if l := LimitForAccelTime(1000, 4, 0); l != nil {
		t.Errorf("zero accel time: got %v, want nil", l)
	}
	l := LimitForAccelTime(1000, 4, 500*time.Millisecond)
	if !floatEquals(l.Linear, 2000) || !floatEquals(l.Angular, 8) {
		t.Errorf("got %+v, want {2000 8}", *l)
	}
}

func TestDeadReckoning_FirstUpdateIsBaseline(t *testing.T) {
	d := NewDeadReckoning(scaleKinematics{})

	pose, err := d.Update([]float64{10, 20, 30})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if pose != (Pose{}) {
		t.Errorf("got %v, want origin", pose)
	}
}

func TestDeadReckoning_DependsOnlyOnDeltas(t *testing.T) {
	a := NewDeadReckoning(scaleKinematics{})
	b := NewDeadReckoning(scaleKinematics{})

	deltas := [][]float64{{0, 10, 0}, {2, 5, 0.3}, {0, 0, -0.1}, {-1, 8, 0}}
	offsetA := []float64{0, 0, 0}
	offsetB := []float64{1234.5, -98.25, 77}

	feed := func(d *DeadReckoning, start []float64) Pose {
		cur := append([]float64(nil), start...)
		if _, err := d.Update(cur); err != nil {
			t.Fatalf("Update: %v", err)
		}
		var p Pose
		for _, delta := range deltas {
			for i := range cur {
				cur[i] += delta[i]
			}
			var err error
			if p, err = d.Update(cur); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
		return p
	}

	pa := feed(a, offsetA)
	pb := feed(b, offsetB)
	if !vecEquals(pa.Position, pb.Position) || !floatEquals(pa.Orientation, pb.Orientation) {
		t.Errorf("poses differ: %v vs %v", pa, pb)
	}
}

func TestDeadReckoning_ResetThenStillIsOrigin(t *testing.T) {
	d := NewDeadReckoning(scaleKinematics{})
	d.Update([]float64{0, 0, 0})
	d.Update([]float64{5, 50, 1})
	if d.Pose() == (Pose{}) {
		t.Fatal("expected a non-origin pose before reset")
	}

	d.Reset()
	d.Update([]float64{5, 50, 1})
	pose, _ := d.Update([]float64{5, 50, 1})
	if pose != (Pose{}) {
		t.Errorf("got %v, want origin", pose)
	}
}

func TestDeadReckoning_WheelCountMismatch(t *testing.T) {
	d := NewDeadReckoning(scaleKinematics{})
	d.Update([]float64{0, 0, 0})
	if _, err := d.Update([]float64{0, 0}); err == nil {
		t.Error("expected an error for a short reading")
	}
}

func TestAdvance_Straight(t *testing.T) {
	p := Advance(Pose{Orientation: math.Pi / 2}, Forward(100), 1)
	if !vecEquals(p.Position, r2.Vec{X: 100}) {
		t.Errorf("facing right and driving forward: got %v, want (100,0)", p.Position)
	}
}

func TestAdvance_QuarterCircle(t *testing.T) {
	// Radius 100mm, sweep a quarter turn clockwise.
	rate := math.Pi / 2
	m := Motion{Translation: r2.Vec{Y: 100 * rate}, Rotation: rate}

	p := Advance(Pose{}, m, 1)
	if !vecEquals(p.Position, r2.Vec{X: 100, Y: 100}) {
		t.Errorf("got %v, want (100,100)", p.Position)
	}
	if !floatEquals(p.Orientation, rate) {
		t.Errorf("orientation: got %v, want %v", p.Orientation, rate)
	}
}

func TestAdvance_PureRotationStaysPut(t *testing.T) {
	start := Pose{Position: r2.Vec{X: 3, Y: 4}, Orientation: 1}
	p := Advance(start, Turn(2), 0.5)
	if !vecEquals(p.Position, start.Position) {
		t.Errorf("position moved: %v", p.Position)
	}
	if !floatEquals(p.Orientation, 2) {
		t.Errorf("orientation: got %v, want 2", p.Orientation)
	}
}
