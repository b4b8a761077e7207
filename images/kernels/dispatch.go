package kernels

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/status"
	"github.com/nvr-ai/go-cv/stream"
)

type (
	borderFunc func(s *stream.Stream, src, dst images.Buffer, pad Padding, border BorderType, value float64) (*stream.Event, error)
	erodeFunc  func(s *stream.Stream, src, dst images.Buffer, elem Element, border BorderType, value float64, iterations int) (*stream.Event, error)
)

// The dispatch tables are closed over images.SupportedDescriptors: every
// supported layout has exactly one entry and nothing else is reachable.
var (
	borderTable = map[images.Descriptor]borderFunc{
		{Depth: images.DepthUint8, Channels: 1}:   copyMakeBorderAs[uint8],
		{Depth: images.DepthUint8, Channels: 3}:   copyMakeBorderAs[uint8],
		{Depth: images.DepthUint8, Channels: 4}:   copyMakeBorderAs[uint8],
		{Depth: images.DepthFloat32, Channels: 1}: copyMakeBorderAs[float32],
		{Depth: images.DepthFloat32, Channels: 3}: copyMakeBorderAs[float32],
		{Depth: images.DepthFloat32, Channels: 4}: copyMakeBorderAs[float32],
	}
	erodeTable = map[images.Descriptor]erodeFunc{
		{Depth: images.DepthUint8, Channels: 1}:   erodeAs[uint8],
		{Depth: images.DepthUint8, Channels: 3}:   erodeAs[uint8],
		{Depth: images.DepthUint8, Channels: 4}:   erodeAs[uint8],
		{Depth: images.DepthFloat32, Channels: 1}: erodeAs[float32],
		{Depth: images.DepthFloat32, Channels: 3}: erodeAs[float32],
		{Depth: images.DepthFloat32, Channels: 4}: erodeAs[float32],
	}
)

// CopyMakeBorderBuffer is CopyMakeBorder over type-erased buffers. value is
// saturated into the pixel domain of src.
//
// Returns:
// - An Event completing once dst is written.
// - status.ErrUnsupported for a layout outside the supported matrix.
// - status.ErrInvalidValue for any other rejected argument.
func CopyMakeBorderBuffer(
	s *stream.Stream,
	src, dst images.Buffer,
	pad Padding,
	border BorderType,
	value float64,
) (*stream.Event, error) {
	desc, err := resolveBuffers(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "copy make border")
	}
	fn, ok := borderTable[desc]
	if !ok {
		return nil, errors.Wrap(status.Unsupportedf("layout %s", desc), "copy make border")
	}
	return fn(s, src, dst, pad, border, value)
}

// ErodeBuffer is Erode over type-erased buffers. value is saturated into the
// pixel domain of src; a nil elem means a dense 3x3 Rect.
//
// Returns:
// - An Event completing once dst is written.
// - status.ErrUnsupported for a layout outside the supported matrix.
// - status.ErrInvalidValue for any other rejected argument.
func ErodeBuffer(
	s *stream.Stream,
	src, dst images.Buffer,
	elem Element,
	border BorderType,
	value float64,
	iterations int,
) (*stream.Event, error) {
	desc, err := resolveBuffers(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "erode")
	}
	fn, ok := erodeTable[desc]
	if !ok {
		return nil, errors.Wrap(status.Unsupportedf("layout %s", desc), "erode")
	}
	return fn(s, src, dst, elem, border, value, iterations)
}

func resolveBuffers(src, dst images.Buffer) (images.Descriptor, error) {
	if src == nil || dst == nil {
		return images.Descriptor{}, status.Invalidf("nil buffer")
	}
	if err := src.Validate(); err != nil {
		return images.Descriptor{}, errors.Wrap(err, "src")
	}
	if err := dst.Validate(); err != nil {
		return images.Descriptor{}, errors.Wrap(err, "dst")
	}
	sd, dd := src.Descriptor(), dst.Descriptor()
	if sd != dd {
		return images.Descriptor{}, status.Invalidf("src is %s, dst is %s", sd, dd)
	}
	return sd, nil
}

func viewsAs[T images.Pixel](src, dst images.Buffer) (*images.View[T], *images.View[T], error) {
	s, ok1 := src.(*images.View[T])
	d, ok2 := dst.(*images.View[T])
	if !ok1 || !ok2 {
		return nil, nil, status.Unsupportedf("buffer types %T and %T", src, dst)
	}
	return s, d, nil
}

func copyMakeBorderAs[T images.Pixel](
	s *stream.Stream,
	src, dst images.Buffer,
	pad Padding,
	border BorderType,
	value float64,
) (*stream.Event, error) {
	sv, dv, err := viewsAs[T](src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "copy make border")
	}
	return CopyMakeBorder(s, sv, dv, pad, border, images.Saturate[T](value))
}

func erodeAs[T images.Pixel](
	s *stream.Stream,
	src, dst images.Buffer,
	elem Element,
	border BorderType,
	value float64,
	iterations int,
) (*stream.Event, error) {
	sv, dv, err := viewsAs[T](src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "erode")
	}
	return Erode(s, sv, dv, ErodeOptions[T]{
		Element:     elem,
		Border:      border,
		BorderValue: images.Saturate[T](value),
		Iterations:  iterations,
	})
}
