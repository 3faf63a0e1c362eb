// Package vision finds dark (or light) lines crossing a horizontal scan band
// of a camera frame. The camera capture itself lives in vision/opencv; this
// package holds the contract and the pure segmentation step.
package vision

import (
	"errors"
	"sync"
)

// ErrNoFrame is returned when a source has no frame ready. Callers treat it
// as "no decision this tick" rather than a fault.
var ErrNoFrame = errors.New("vision: no frame")

// LineSource reports lateral line offsets in [-1, 1], left to right, for the
// current frame. An empty result means no line is visible.
type LineSource interface {
	Lines() ([]float64, error)
}

// Config controls line detection.
type Config struct {
	Device int // camera index
	Width  int // capture width, pixels
	Height int // capture height, pixels

	Threshold    uint8 // binarisation threshold 0-255
	Invert       bool  // true when lines are darker than the floor
	BlurKernel   int   // odd Gaussian kernel size, 0 disables
	ScanHeight   int   // rows in the scan band
	ScanPosition int   // first row of the scan band, from the top
	WidthPad     int   // columns ignored at each side
	MinArea      int   // pixels a segment needs to count as a line
}

// DefaultConfig matches a 128x128 rear camera looking at black tape.
func DefaultConfig() Config {
	return Config{
		Device:       0,
		Width:        128,
		Height:       128,
		Threshold:    50,
		Invert:       true,
		BlurKernel:   9,
		ScanHeight:   20,
		ScanPosition: 0,
		WidthPad:     0,
		MinArea:      40,
	}
}

// Segments groups adjacent columns with at least one "on" pixel into line
// segments and returns the centroid of each segment with at least minArea
// pixels, normalised so the left edge of the band is -1 and the right edge is
// +1. counts holds the number of on pixels per column.
func Segments(counts []int, minArea int) []float64 {
	width := len(counts)
	if width == 0 {
		return nil
	}

	var lines []float64
	area, moment := 0, 0.0
	flush := func() {
		if area > 0 && area >= minArea {
			cx := moment / float64(area)
			lines = append(lines, (cx+0.5)/float64(width)*2-1)
		}
		area, moment = 0, 0
	}

	for col, n := range counts {
		if n <= 0 {
			flush()
			continue
		}
		area += n
		moment += float64(col * n)
	}
	flush()
	return lines
}

// Fixed is a LineSource that always reports the same lines. It can be
// changed at runtime from another goroutine.
type Fixed struct {
	mu    sync.Mutex
	lines []float64
}

// NewFixed creates a source reporting lines.
func NewFixed(lines ...float64) *Fixed {
	return &Fixed{lines: lines}
}

// Set replaces the reported lines.
func (f *Fixed) Set(lines ...float64) {
	f.mu.Lock()
	f.lines = append([]float64(nil), lines...)
	f.mu.Unlock()
}

// Lines implements LineSource.
func (f *Fixed) Lines() ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.lines...), nil
}
