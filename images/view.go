package images

import (
	"github.com/nvr-ai/go-cv/status"
)

// View is a strided, interleaved image buffer. Pixel (y, x) channel c lives at
// Data[y*Stride + x*Channels + c]. Stride is counted in elements and may exceed
// Width*Channels when rows are padded for alignment.
//
// A View is owned by the caller. Kernels borrow it for the duration of one
// enqueued call and never retain it afterwards.
type View[T Pixel] struct {
	Data     []T
	Height   int
	Width    int
	Channels int
	Stride   int
}

// NewView allocates a compact view (Stride == width*channels).
//
// Arguments:
// - height, width: Image dimensions in pixels, both > 0.
// - channels: Interleaved channels, one of 1, 3, 4.
//
// Returns:
// - The zero-filled view.
// - error if the dimensions or channel count are invalid.
func NewView[T Pixel](height, width, channels int) (*View[T], error) {
	return NewAlignedView[T](height, width, channels, 1)
}

// NewAlignedView allocates a view whose stride is rounded up to a multiple of
// align elements, the layout produced by pitched allocators.
//
// Arguments:
// - height, width: Image dimensions in pixels, both > 0.
// - channels: Interleaved channels, one of 1, 3, 4.
// - align: Row alignment in elements, values < 1 mean 1.
//
// Returns:
// - The zero-filled view.
// - error if the dimensions or channel count are invalid.
//
// @example
//
//	v, err := images.NewAlignedView[float32](480, 640, 3, 64)
//	// v.Stride == 1920, v.Width*v.Channels == 1920
func NewAlignedView[T Pixel](height, width, channels, align int) (*View[T], error) {
	if height <= 0 || width <= 0 {
		return nil, status.Invalidf("image size %dx%d", width, height)
	}
	if err := (Descriptor{DepthOf[T](), channels}).Validate(); err != nil {
		return nil, err
	}
	if align < 1 {
		align = 1
	}
	stride := (width*channels + align - 1) / align * align
	return &View[T]{
		Data:     make([]T, height*stride),
		Height:   height,
		Width:    width,
		Channels: channels,
		Stride:   stride,
	}, nil
}

// WrapView wraps caller memory without copying it.
//
// Returns:
// - The view over data.
// - error if the layout does not fit in data.
func WrapView[T Pixel](data []T, height, width, channels, stride int) (*View[T], error) {
	v := &View[T]{
		Data:     data,
		Height:   height,
		Width:    width,
		Channels: channels,
		Stride:   stride,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Descriptor returns the runtime layout of the view.
func (v *View[T]) Descriptor() Descriptor {
	return Descriptor{Depth: DepthOf[T](), Channels: v.Channels}
}

// Dims returns the height and width of the view.
func (v *View[T]) Dims() (height, width int) {
	return v.Height, v.Width
}

// Validate checks the addressing invariants of the view.
func (v *View[T]) Validate() error {
	if v == nil {
		return status.Invalidf("nil view")
	}
	if v.Data == nil {
		return status.Invalidf("nil view data")
	}
	if v.Height <= 0 || v.Width <= 0 {
		return status.Invalidf("image size %dx%d", v.Width, v.Height)
	}
	if err := v.Descriptor().Validate(); err != nil {
		return err
	}
	rowLen := v.Width * v.Channels
	if v.Stride < rowLen {
		return status.Invalidf("stride %d < width*channels %d", v.Stride, rowLen)
	}
	if need := (v.Height-1)*v.Stride + rowLen; len(v.Data) < need {
		return status.Invalidf("buffer holds %d elements, layout needs %d", len(v.Data), need)
	}
	return nil
}

// RowLen returns the number of meaningful elements in a row.
func (v *View[T]) RowLen() int {
	return v.Width * v.Channels
}

// Row returns the meaningful elements of row y, excluding stride padding.
func (v *View[T]) Row(y int) []T {
	start := y * v.Stride
	return v.Data[start : start+v.RowLen() : start+v.RowLen()]
}

// Pixel returns the channels of pixel (y, x).
func (v *View[T]) Pixel(y, x int) []T {
	off := y*v.Stride + x*v.Channels
	return v.Data[off : off+v.Channels : off+v.Channels]
}

// At returns channel c of pixel (y, x).
func (v *View[T]) At(y, x, c int) T {
	return v.Data[y*v.Stride+x*v.Channels+c]
}

// Set writes channel c of pixel (y, x).
func (v *View[T]) Set(y, x, c int, value T) {
	v.Data[y*v.Stride+x*v.Channels+c] = value
}

// Fill sets every meaningful element to value. Stride padding is left alone.
func (v *View[T]) Fill(value T) {
	for y := 0; y < v.Height; y++ {
		row := v.Row(y)
		for i := range row {
			row[i] = value
		}
	}
}

// Clone returns a compact copy of the view.
func (v *View[T]) Clone() *View[T] {
	out := &View[T]{
		Data:     make([]T, v.Height*v.RowLen()),
		Height:   v.Height,
		Width:    v.Width,
		Channels: v.Channels,
		Stride:   v.RowLen(),
	}
	for y := 0; y < v.Height; y++ {
		copy(out.Row(y), v.Row(y))
	}
	return out
}

// SameShape reports whether o has the same height, width and channels.
func (v *View[T]) SameShape(o *View[T]) bool {
	return v.Height == o.Height && v.Width == o.Width && v.Channels == o.Channels
}

// Equal reports whether both views hold the same pixels. Strides may differ.
// NaN samples never compare equal.
func (v *View[T]) Equal(o *View[T]) bool {
	if !v.SameShape(o) {
		return false
	}
	for y := 0; y < v.Height; y++ {
		a, b := v.Row(y), o.Row(y)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Buffer is a type-erased view. *View[uint8] and *View[float32] implement it;
// the kernels resolve a Buffer back to its concrete view through a closed
// dispatch table.
type Buffer interface {
	Descriptor() Descriptor
	Dims() (height, width int)
	Validate() error
}

var (
	_ Buffer = (*View[uint8])(nil)
	_ Buffer = (*View[float32])(nil)
)
