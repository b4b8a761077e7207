package kernels

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/logging"
	"github.com/nvr-ai/go-cv/status"
	"github.com/nvr-ai/go-cv/stream"
)

// Padding is the number of pixels added on each side by CopyMakeBorder.
type Padding struct {
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
}

// UniformPadding pads every side by n pixels.
func UniformPadding(n int) Padding {
	return Padding{Top: n, Bottom: n, Left: n, Right: n}
}

// Validate rejects negative sides.
func (p Padding) Validate() error {
	if p.Top < 0 || p.Bottom < 0 || p.Left < 0 || p.Right < 0 {
		return status.Invalidf("negative padding %+v", p)
	}
	return nil
}

// OutputSize returns the padded dimensions of a height x width image.
func (p Padding) OutputSize(height, width int) (int, int) {
	return height + p.Top + p.Bottom, width + p.Left + p.Right
}

// CopyMakeBorder enqueues on s a copy of src into the centre of dst, filling
// the padding around it according to border. dst must be
// (src.Height+Top+Bottom) x (src.Width+Left+Right) with src's channel count.
// Strides of src and dst are independent; the buffers must not overlap.
//
// Arguments:
// - s: The stream to run on.
// - src, dst: Source and destination views.
// - pad: Pixels added on each side; zero on every side is a plain copy.
// - border: The extrapolation policy.
// - value: The fill value used by BorderConstant.
//
// Returns:
// - An Event completing once dst is written.
// - status.ErrInvalidValue or status.ErrUnsupported if the arguments are
// rejected, in which case nothing is enqueued and dst is untouched.
//
// @example
//
//	dst, _ := images.NewView[uint8](src.Height+2, src.Width+2, src.Channels)
//	ev, err := kernels.CopyMakeBorder(s, src, dst, kernels.UniformPadding(1), kernels.BorderReflect101, 0)
//	if err != nil {
//		return err
//	}
//	return ev.Wait(ctx)
func CopyMakeBorder[T images.Pixel](
	s *stream.Stream,
	src, dst *images.View[T],
	pad Padding,
	border BorderType,
	value T,
) (*stream.Event, error) {
	if err := validateCopyMakeBorder(s, src, dst, pad, border); err != nil {
		return nil, errors.Wrap(err, "copy make border")
	}

	logging.Logger().Debug("kernel dispatch",
		"op", "copy_make_border",
		"stream", s.Name(),
		"desc", src.Descriptor().String(),
		"src", [2]int{src.Width, src.Height},
		"dst", [2]int{dst.Width, dst.Height},
		"border", border.String())

	megapixels := float64(dst.Width*dst.Height) / 1e6
	return s.Enqueue("copy_make_border", func(p *stream.Pool) error {
		p.ParallelForBatched(dst.Height, s.RowsPerBatch(), func(start, end int) {
			for y := start; y < end; y++ {
				borderRow(src, dst, y, pad, border, value)
			}
		})
		if prof := s.Profiler(); prof != nil {
			prof.RecordMetric("copy_make_border.megapixels", megapixels)
		}
		return nil
	})
}

func validateCopyMakeBorder[T images.Pixel](
	s *stream.Stream,
	src, dst *images.View[T],
	pad Padding,
	border BorderType,
) error {
	if s == nil {
		return status.Invalidf("nil stream")
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "dst")
	}
	if !border.Valid() {
		return status.Invalidf("border type %d", int(border))
	}
	if err := pad.Validate(); err != nil {
		return err
	}
	h, w := pad.OutputSize(src.Height, src.Width)
	if dst.Height != h || dst.Width != w || dst.Channels != src.Channels {
		return status.Invalidf("dst is %dx%dx%d, want %dx%dx%d",
			dst.Width, dst.Height, dst.Channels, w, h, src.Channels)
	}
	if overlap(src.Data, dst.Data) {
		return status.Invalidf("src and dst overlap")
	}
	return nil
}

// borderRow writes output row y. The centre span is a straight row copy; only
// the left and right bands go through MapIndex per pixel.
func borderRow[T images.Pixel](src, dst *images.View[T], y int, pad Padding, border BorderType, value T) {
	c := src.Channels
	out := dst.Row(y)

	sy := MapIndex(y-pad.Top, src.Height, border)
	if sy == UseBorderValue {
		for i := range out {
			out[i] = value
		}
		return
	}
	in := src.Row(sy)

	copy(out[pad.Left*c:(pad.Left+src.Width)*c], in)
	for x := 0; x < pad.Left; x++ {
		borderPixel(out[x*c:x*c+c], in, x-pad.Left, src.Width, border, value)
	}
	for x := pad.Left + src.Width; x < dst.Width; x++ {
		borderPixel(out[x*c:x*c+c], in, x-pad.Left, src.Width, border, value)
	}
}

func borderPixel[T images.Pixel](out, in []T, sx, width int, border BorderType, value T) {
	j := MapIndex(sx, width, border)
	if j == UseBorderValue {
		for i := range out {
			out[i] = value
		}
		return
	}
	c := len(out)
	copy(out, in[j*c:j*c+c])
}
