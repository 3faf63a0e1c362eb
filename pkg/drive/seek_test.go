package drive

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/teslashibe/go-viridia/pkg/motion"
)

func TestSteer_StraightAhead(t *testing.T) {
	for _, y := range []float64{10.5, 50, 1000, 1e6} {
		m := Steer(0, y, 120, math.Pi, DefaultMinDistance)
		if m.Rotation != 0 {
			t.Errorf("y=%v: rotation %v, want 0", y, m.Rotation)
		}
		if !floatEquals(r2.Norm(m.Translation), 120) {
			t.Errorf("y=%v: speed %v, want 120", y, r2.Norm(m.Translation))
		}
	}
}

func TestSteer_ArrivedStops(t *testing.T) {
	for _, p := range []r2.Vec{{}, {X: 9.9}, {Y: -9.9}, {X: 5, Y: 5}, {X: -7, Y: -7}, {X: 0.1, Y: -9}} {
		m := Steer(p.X, p.Y, 100, math.Pi, 10)
		if !m.IsStill() {
			t.Errorf("target %v inside min distance: got %v, want still", p, m)
		}
	}
}

func TestSteer_TurnOnTheSpot(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"right of front at the ratio boundary", 100, 100, math.Pi},
		{"left of front at the ratio boundary", -100, 100, -math.Pi},
		{"far right", 300, 20, math.Pi},
		{"behind right", 50, -200, math.Pi},
		{"behind left", -50, -200, -math.Pi},
		{"directly behind", 0, -200, math.Pi},
		{"abeam left", -200, 0, -math.Pi},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Steer(tc.x, tc.y, 100, math.Pi, 10)
			if m.Translation != (r2.Vec{}) {
				t.Errorf("translation %v, want none", m.Translation)
			}
			if m.Rotation != tc.want {
				t.Errorf("rotation %v, want %v", m.Rotation, tc.want)
			}
		})
	}
}

func TestSteer_Arc(t *testing.T) {
	m := Steer(10, 100, 100, math.Pi, 10)

	if !floatEquals(m.Translation.Y, 100) || m.Translation.X != 0 {
		t.Errorf("translation %v, want (0,100)", m.Translation)
	}
	// Rotation equals speed over the radius of the arc through the target.
	radius := (10.0*10 + 100*100) / 20
	if !floatEquals(m.Rotation, 100/radius) {
		t.Errorf("rotation %v, want %v", m.Rotation, 100/radius)
	}

	left := Steer(-10, 100, 100, math.Pi, 10)
	if !floatEquals(left.Rotation, -m.Rotation) {
		t.Errorf("mirror target: rotation %v, want %v", left.Rotation, -m.Rotation)
	}
}

func TestSteer_JustInsideBoundaryArcs(t *testing.T) {
	m := Steer(99.9, 100, 100, math.Pi, 10)
	if m.Translation.Y != 100 || m.Rotation <= 0 {
		t.Errorf("got %v, want a forward arc to the right", m)
	}
}

func TestSeek_AppliesMotion(t *testing.T) {
	d, mm, _, _ := newTestDrive(t)

	m, err := d.Seek(0, 500, 80, math.Pi, 10)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if m != motion.Forward(80) {
		t.Errorf("got %v, want forward 80", m)
	}
	if mm.speedCalls() != 1 {
		t.Errorf("speed calls: got %d, want 1", mm.speedCalls())
	}
}

func TestToRobotFrame(t *testing.T) {
	pose := motion.Pose{Position: r2.Vec{X: 100}, Orientation: math.Pi / 2}
	got := ToRobotFrame(pose, r2.Vec{X: 200})
	if !floatEquals(got.X, 0) || !floatEquals(got.Y, 100) {
		t.Errorf("got %v, want (0,100)", got)
	}
}

func TestSeekWorld_AtOriginMatchesSeek(t *testing.T) {
	d, _, _, _ := newTestDrive(t)

	world, err := d.SeekWorld(20, 200, 100, math.Pi, 10)
	if err != nil {
		t.Fatalf("SeekWorld: %v", err)
	}
	if want := Steer(20, 200, 100, math.Pi, 10); world != want {
		t.Errorf("got %v, want %v", world, want)
	}
}
