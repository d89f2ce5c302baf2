package server

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeFrameImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 9))
	raw := encodePNG(t, src)
	encoded := base64.StdEncoding.EncodeToString(raw)

	for _, input := range []string{
		"data:image/png;base64," + encoded,
		encoded,
	} {
		img, err := decodeFrameImage(input)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 9, img.Bounds().Dy())
	}
}

func TestDecodeFrameImageErrors(t *testing.T) {
	_, err := decodeFrameImage("data:image/png;base64")
	assert.Error(t, err, "data URL without payload")

	_, err = decodeFrameImage("!!not-base64!!")
	assert.Error(t, err)

	_, err = decodeFrameImage(base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)
}

func TestDownscaleKeepsAspectRatio(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	out := downscale(src, 640, 480)

	assert.Equal(t, 640, out.Bounds().Dx())
	assert.Equal(t, 360, out.Bounds().Dy())
}

func TestDownscaleLeavesSmallFramesAlone(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 320, 240))
	assert.Same(t, image.Image(src), downscale(src, 640, 480))
}

func TestDownscaleSamplesPixels(t *testing.T) {
	// Left half black, right half white.
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			src.Set(x, y, color.White)
		}
	}

	out := downscale(src, 10, 10)
	left := color.GrayModel.Convert(out.At(1, 5)).(color.Gray)
	right := color.GrayModel.Convert(out.At(8, 5)).(color.Gray)
	assert.EqualValues(t, 0, left.Y)
	assert.EqualValues(t, 255, right.Y)
}
