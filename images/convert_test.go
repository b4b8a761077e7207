package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(10, 20, 14, 23))
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 5), B: 7, A: 255})
		}
	}
	return img
}

func TestFromImageRGBA(t *testing.T) {
	img := getTestImage()

	v, err := FromImage(img, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Height)
	assert.Equal(t, 4, v.Width)
	assert.Equal(t, []uint8{110, 105, 7, 255}, v.Pixel(1, 1))

	rgb, err := FromImage(img, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint8{110, 105, 7}, rgb.Pixel(1, 1))
}

func TestFromImageGrayRoundTrip(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 5, 2))
	for i := range g.Pix {
		g.Pix[i] = uint8(i * 3)
	}
	v, err := FromImage(g, 1)
	require.NoError(t, err)

	back, err := ToImage(v)
	require.NoError(t, err)
	assert.Equal(t, g.Pix, back.(*image.Gray).Pix)
}

func TestToImageThreeChannelsOpaque(t *testing.T) {
	v, err := NewView[uint8](1, 2, 3)
	require.NoError(t, err)
	copy(v.Data, []uint8{1, 2, 3, 4, 5, 6})

	m, err := ToImage(v)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{4, 5, 6, 255}, m.(*image.NRGBA).NRGBAAt(1, 0))
}

func TestFromImageNil(t *testing.T) {
	_, err := FromImage(nil, 3)
	assert.Error(t, err)
}

func TestToFloat(t *testing.T) {
	v, err := NewView[uint8](1, 2, 1)
	require.NoError(t, err)
	copy(v.Data, []uint8{0, 255})

	f, err := ToFloat(v, 1.0/255)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, f.At(0, 0, 0), 1e-6)
	assert.InDelta(t, 1.0, f.At(0, 1, 0), 1e-6)
}
