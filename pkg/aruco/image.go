package aruco

import (
	"fmt"
	"image"
	"image/color"

	"github.com/markerscan/markerd/internal/model"
)

// GenerateImageMarker renders the dictionary entry at id as a grayscale
// image of sidePixels x sidePixels: a one-module black border around the
// 6x6 payload, scaled nearest-neighbor like the external library's
// marker image generator.
func (d *Dictionary) GenerateImageMarker(id, sidePixels int) (*image.Gray, error) {
	const modules = MarkerBits + 2

	if sidePixels < modules {
		return nil, fmt.Errorf("aruco: side %d smaller than %d modules", sidePixels, modules)
	}

	bits, err := d.BitsFromEntry(id, 0)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, sidePixels, sidePixels))
	for y := 0; y < sidePixels; y++ {
		for x := 0; x < sidePixels; x++ {
			img.SetGray(x, y, color.Gray{Y: moduleIntensity(bits, x*modules/sidePixels, y*modules/sidePixels)})
		}
	}
	return img, nil
}

// moduleIntensity returns the intensity of one marker module: border
// modules are black, payload modules follow the bit convention
// (1=black, 0=white).
func moduleIntensity(bits model.BitMatrix, col, row int) uint8 {
	const modules = MarkerBits + 2

	if row == 0 || col == 0 || row == modules-1 || col == modules-1 {
		return uint8(model.Black)
	}
	if bits[row-1][col-1] == 1 {
		return uint8(model.Black)
	}
	return uint8(model.White)
}
