package images

import (
	"image"
	"image/color"

	"github.com/nvr-ai/go-cv/status"
)

// FromImage converts a standard library image into an 8-bit view.
//
// Arguments:
// - img: The source image; its bounds may have a non-zero origin.
// - channels: 1 for luma, 3 for RGB, 4 for non-premultiplied RGBA.
//
// Returns:
// - A compact view holding the converted pixels.
// - error if img is nil or channels is unsupported.
func FromImage(img image.Image, channels int) (*View[uint8], error) {
	if img == nil {
		return nil, status.Invalidf("nil image")
	}
	b := img.Bounds()
	v, err := NewView[uint8](b.Dy(), b.Dx(), channels)
	if err != nil {
		return nil, err
	}

	if g, ok := img.(*image.Gray); ok && channels == 1 {
		for y := 0; y < v.Height; y++ {
			off := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(v.Row(y), g.Pix[off:off+v.Width])
		}
		return v, nil
	}
	if n, ok := img.(*image.NRGBA); ok && channels == 4 {
		for y := 0; y < v.Height; y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(v.Row(y), n.Pix[off:off+v.Width*4])
		}
		return v, nil
	}

	for y := 0; y < v.Height; y++ {
		for x := 0; x < v.Width; x++ {
			px := v.Pixel(y, x)
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if channels == 1 {
				px[0] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			px[0], px[1], px[2] = n.R, n.G, n.B
			if channels == 4 {
				px[3] = n.A
			}
		}
	}
	return v, nil
}

// ToImage converts an 8-bit view into a standard library image: *image.Gray for
// one channel, *image.NRGBA (opaque for three channels) otherwise.
//
// Returns:
// - The image with bounds (0, 0, Width, Height).
// - error if the view is invalid.
func ToImage(v *View[uint8]) (image.Image, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	r := image.Rect(0, 0, v.Width, v.Height)
	switch v.Channels {
	case 1:
		g := image.NewGray(r)
		for y := 0; y < v.Height; y++ {
			copy(g.Pix[y*g.Stride:], v.Row(y))
		}
		return g, nil
	case 4:
		n := image.NewNRGBA(r)
		for y := 0; y < v.Height; y++ {
			copy(n.Pix[y*n.Stride:], v.Row(y))
		}
		return n, nil
	default:
		n := image.NewNRGBA(r)
		for y := 0; y < v.Height; y++ {
			dst := n.Pix[y*n.Stride:]
			for x := 0; x < v.Width; x++ {
				px := v.Pixel(y, x)
				dst[x*4+0] = px[0]
				dst[x*4+1] = px[1]
				dst[x*4+2] = px[2]
				dst[x*4+3] = 0xff
			}
		}
		return n, nil
	}
}

// ToFloat converts an 8-bit view into a float32 view with the same layout,
// multiplying every sample by scale.
func ToFloat(v *View[uint8], scale float32) (*View[float32], error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	out, err := NewView[float32](v.Height, v.Width, v.Channels)
	if err != nil {
		return nil, err
	}
	for y := 0; y < v.Height; y++ {
		src, dst := v.Row(y), out.Row(y)
		for i := range src {
			dst[i] = float32(src[i]) * scale
		}
	}
	return out, nil
}
