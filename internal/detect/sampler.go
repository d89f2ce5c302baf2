package detect

import (
	"context"
	"image"
	"time"

	"github.com/markerscan/markerd/internal/geo"
	"github.com/markerscan/markerd/internal/model"
	"github.com/markerscan/markerd/pkg/aruco"
	"github.com/markerscan/markerd/pkg/core"
)

// GridSampler is a reference Detector for rectified frames: it treats
// the whole frame as one axis-aligned marker candidate, samples it into
// an 8x8 module grid, and looks the payload up in the dictionary.
//
// It performs no corner search or perspective correction, so it only
// recognizes markers that fill the frame squarely; production
// deployments inject a real detector instead.
type GridSampler struct {
	// Threshold splits module mean intensity into black and white.
	// Zero selects the midpoint default of 128.
	Threshold uint8
}

// NewGridSampler creates a GridSampler with the default threshold.
func NewGridSampler() *GridSampler {
	return &GridSampler{}
}

func (s *GridSampler) threshold() uint8 {
	if s.Threshold == 0 {
		return 128
	}
	return s.Threshold
}

// Detect samples the frame and returns at most one detection.
func (s *GridSampler) Detect(ctx context.Context, frame image.Image, dict *aruco.Dictionary) ([]core.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, nil
	}

	bounds := frame.Bounds()
	if bounds.Dx() < model.GridSize || bounds.Dy() < model.GridSize {
		return nil, nil
	}

	modules, ok := s.sampleModules(frame)
	if !ok {
		return nil, nil
	}

	var bits model.BitMatrix
	for i := 0; i < model.PayloadSize; i++ {
		for j := 0; j < model.PayloadSize; j++ {
			bits[i][j] = modules[i+1][j+1]
		}
	}

	id, rotation, found := dict.Identify(bits)
	if !found {
		return nil, nil
	}

	corners := [4]core.Point{
		{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)},
		{X: float64(bounds.Max.X), Y: float64(bounds.Min.Y)},
		{X: float64(bounds.Max.X), Y: float64(bounds.Max.Y)},
		{X: float64(bounds.Min.X), Y: float64(bounds.Max.Y)},
	}

	return []core.Detection{{
		MarkerID:  id,
		Corners:   corners,
		Center:    geo.QuadCenter(corners),
		Area:      geo.QuadArea(corners),
		Rotation:  rotation,
		Timestamp: time.Now(),
	}}, nil
}

// Close implements Detector. The sampler holds no resources.
func (s *GridSampler) Close() error { return nil }

// sampleModules thresholds the frame into an 8x8 binary module grid
// (1=black). Returns ok=false when the border ring is not fully black,
// which rules the frame out as a marker candidate.
func (s *GridSampler) sampleModules(frame image.Image) ([model.GridSize][model.GridSize]uint8, bool) {
	var modules [model.GridSize][model.GridSize]uint8

	bounds := frame.Bounds()
	for row := 0; row < model.GridSize; row++ {
		for col := 0; col < model.GridSize; col++ {
			x0 := bounds.Min.X + col*bounds.Dx()/model.GridSize
			x1 := bounds.Min.X + (col+1)*bounds.Dx()/model.GridSize
			y0 := bounds.Min.Y + row*bounds.Dy()/model.GridSize
			y1 := bounds.Min.Y + (row+1)*bounds.Dy()/model.GridSize

			if meanGray(frame, x0, y0, x1, y1) < uint32(s.threshold()) {
				modules[row][col] = 1
			}
		}
	}

	for k := 0; k < model.GridSize; k++ {
		if modules[0][k] == 0 || modules[model.GridSize-1][k] == 0 ||
			modules[k][0] == 0 || modules[k][model.GridSize-1] == 0 {
			return modules, false
		}
	}
	return modules, true
}

// meanGray averages the 8-bit luminance over a pixel rect.
func meanGray(frame image.Image, x0, y0, x1, y1 int) uint32 {
	var sum, count uint64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, _ := frame.At(x, y).RGBA()
			// Integer luma approximation on 16-bit channel values.
			luma := (299*uint64(r) + 587*uint64(g) + 114*uint64(b)) / 1000
			sum += luma >> 8
			count++
		}
	}
	if count == 0 {
		return 255
	}
	return uint32(sum / count)
}
