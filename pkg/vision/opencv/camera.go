// Package opencv implements vision.LineSource on a local camera using GoCV.
package opencv

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-viridia/pkg/vision"
)

// Camera captures frames and scans them for lines.
type Camera struct {
	cfg vision.Config

	mu      sync.Mutex // protects capture and the mats
	capture *gocv.VideoCapture
	frame   gocv.Mat
	gray    gocv.Mat
	mask    gocv.Mat
}

// Open starts the camera described by cfg.
func Open(cfg vision.Config) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("opencv: open camera %d: %w", cfg.Device, err)
	}
	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	return &Camera{
		cfg:     cfg,
		capture: capture,
		frame:   gocv.NewMat(),
		gray:    gocv.NewMat(),
		mask:    gocv.NewMat(),
	}, nil
}

// Lines implements vision.LineSource.
func (c *Camera) Lines() ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, fmt.Errorf("opencv: camera closed")
	}
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, vision.ErrNoFrame
	}

	gocv.CvtColor(c.frame, &c.gray, gocv.ColorBGRToGray)
	if k := c.cfg.BlurKernel; k > 1 {
		if k%2 == 0 {
			k++
		}
		gocv.GaussianBlur(c.gray, &c.gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}

	band, ok := scanBand(c.cfg, c.gray.Cols(), c.gray.Rows())
	if !ok {
		return nil, nil
	}
	region := c.gray.Region(band)
	defer region.Close()

	kind := gocv.ThresholdBinary
	if c.cfg.Invert {
		kind = gocv.ThresholdBinaryInv
	}
	gocv.Threshold(region, &c.mask, float32(c.cfg.Threshold), 255, kind)

	counts := make([]int, c.mask.Cols())
	for row := 0; row < c.mask.Rows(); row++ {
		for col := range counts {
			if c.mask.GetUCharAt(row, col) != 0 {
				counts[col]++
			}
		}
	}
	return vision.Segments(counts, c.cfg.MinArea), nil
}

// Close releases the camera.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	c.frame.Close()
	c.gray.Close()
	c.mask.Close()
	return err
}

// scanBand returns the part of a width x height frame to scan.
func scanBand(cfg vision.Config, width, height int) (image.Rectangle, bool) {
	r := image.Rect(cfg.WidthPad, cfg.ScanPosition, width-cfg.WidthPad, cfg.ScanPosition+cfg.ScanHeight)
	r = r.Intersect(image.Rect(0, 0, width, height))
	return r, !r.Empty()
}

var _ vision.LineSource = (*Camera)(nil)
