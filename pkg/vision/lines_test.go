package vision

import (
	"math"
	"testing"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name    string
		counts  []int
		minArea int
		want    []float64
	}{
		{"empty band", make([]int, 8), 1, nil},
		{"no columns", nil, 1, nil},
		{"centred line", []int{0, 0, 0, 5, 5, 0, 0, 0}, 1, []float64{0}},
		{"left edge", []int{4, 0, 0, 0}, 1, []float64{-0.75}},
		{"two lines left to right", []int{3, 3, 0, 0, 0, 0, 3, 3}, 1, []float64{-0.75, 0.75}},
		{"small blob dropped", []int{1, 0, 0, 0, 0, 0, 9, 9}, 5, []float64{0.75}},
		{"weighted centroid", []int{0, 1, 3, 0}, 1, []float64{0.125}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Segments(tc.counts, tc.minArea)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if math.Abs(got[i]-tc.want[i]) > 1e-9 {
					t.Errorf("line %d: got %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFixed(t *testing.T) {
	f := NewFixed(-0.5)
	lines, err := f.Lines()
	if err != nil || len(lines) != 1 || lines[0] != -0.5 {
		t.Fatalf("got %v, %v", lines, err)
	}

	f.Set()
	if lines, _ := f.Lines(); len(lines) != 0 {
		t.Errorf("after Set(): got %v", lines)
	}
}
