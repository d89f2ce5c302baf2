package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// decodeFrameImage decodes a base64 data URL as produced by a canvas
// capture (data:image/jpeg;base64,...). A bare base64 string without
// the data URL prefix is accepted too.
func decodeFrameImage(dataURL string) (image.Image, error) {
	encoded := dataURL
	if strings.HasPrefix(dataURL, "data:") {
		idx := strings.IndexByte(dataURL, ',')
		if idx < 0 {
			return nil, fmt.Errorf("data URL missing payload")
		}
		encoded = dataURL[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// downscale shrinks an image to fit within maxWidth x maxHeight,
// preserving aspect ratio. Images already within bounds are returned
// unchanged. Nearest neighbor is good enough here: the detector
// thresholds whole modules, not edges.
func downscale(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth <= 0 || maxHeight <= 0 {
		return img
	}
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, newW, newH))
	for y := 0; y < newH; y++ {
		srcY := bounds.Min.Y + y*h/newH
		for x := 0; x < newW; x++ {
			srcX := bounds.Min.X + x*w/newW
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
