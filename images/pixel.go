// Package images provides the strided pixel buffers consumed by the kernels
// and their conversions to standard library images. Encoded images live in
// images/codec and gorgonia tensors in images/tensorconv.
package images

import (
	"math"
	"strconv"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-cv/status"
)

// Pixel is the set of numeric domains the kernels are instantiated for.
type Pixel interface {
	uint8 | float32
}

// Depth identifies a numeric domain at runtime.
type Depth int

const (
	// DepthUint8 is unsigned 8-bit integer samples.
	DepthUint8 Depth = iota + 1
	// DepthFloat32 is 32-bit IEEE floating point samples.
	DepthFloat32
)

// String returns the Go name of the domain.
func (d Depth) String() string {
	switch d {
	case DepthUint8:
		return "uint8"
	case DepthFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// Size returns the number of bytes of one sample.
func (d Depth) Size() int {
	switch d {
	case DepthUint8:
		return 1
	case DepthFloat32:
		return 4
	default:
		return 0
	}
}

// DepthOf returns the Depth of T.
func DepthOf[T Pixel]() Depth {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return DepthUint8
	default:
		return DepthFloat32
	}
}

// MaxValue returns the largest finite value of T: 255 for uint8 and
// math32.MaxFloat32 for float32.
func MaxValue[T Pixel]() T {
	var v any
	switch DepthOf[T]() {
	case DepthUint8:
		v = uint8(math.MaxUint8)
	default:
		v = float32(math32.MaxFloat32)
	}
	return v.(T)
}

// Saturate converts v into T. For uint8 the value is rounded half to even and
// clamped to [0, 255], NaN becomes 0. For float32 it is a plain conversion.
func Saturate[T Pixel](v float64) T {
	var out any
	switch DepthOf[T]() {
	case DepthUint8:
		switch {
		case math.IsNaN(v) || v <= 0:
			out = uint8(0)
		case v >= math.MaxUint8:
			out = uint8(math.MaxUint8)
		default:
			out = uint8(math.RoundToEven(v))
		}
	default:
		out = float32(v)
	}
	return out.(T)
}

// Descriptor is the runtime description of a pixel layout.
type Descriptor struct {
	Depth    Depth
	Channels int
}

// SupportedDescriptors lists every layout the kernels are instantiated for.
var SupportedDescriptors = []Descriptor{
	{DepthUint8, 1}, {DepthUint8, 3}, {DepthUint8, 4},
	{DepthFloat32, 1}, {DepthFloat32, 3}, {DepthFloat32, 4},
}

// Validate reports whether d is in the supported matrix.
func (d Descriptor) Validate() error {
	switch d.Depth {
	case DepthUint8, DepthFloat32:
	default:
		return status.Unsupportedf("depth %d", int(d.Depth))
	}
	switch d.Channels {
	case 1, 3, 4:
	default:
		return status.Unsupportedf("%s with %d channels", d.Depth, d.Channels)
	}
	return nil
}

// String returns an OpenCV-style name such as "8UC3" or "32FC1".
func (d Descriptor) String() string {
	switch d.Depth {
	case DepthUint8:
		return "8UC" + strconv.Itoa(d.Channels)
	case DepthFloat32:
		return "32FC" + strconv.Itoa(d.Channels)
	default:
		return "unknown"
	}
}
