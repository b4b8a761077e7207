// Package tensorconv copies views to and from gorgonia dense tensors.
package tensorconv

import (
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/status"
)

// ToTensor copies a view into a dense HWC tensor of shape
// (Height, Width, Channels), the layout inference preprocessing expects.
func ToTensor[T images.Pixel](v *images.View[T]) (*tensor.Dense, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	c := v.Clone()
	return tensor.New(
		tensor.WithShape(v.Height, v.Width, v.Channels),
		tensor.WithBacking(c.Data),
	), nil
}

// FromTensor copies a dense HW or HWC tensor with element type T into a view.
// The tensor must be contiguous (not a slice of another tensor).
func FromTensor[T images.Pixel](t *tensor.Dense) (*images.View[T], error) {
	if t == nil {
		return nil, status.Invalidf("nil tensor")
	}
	shape := t.Shape()
	var h, w, c int
	switch len(shape) {
	case 2:
		h, w, c = shape[0], shape[1], 1
	case 3:
		h, w, c = shape[0], shape[1], shape[2]
	default:
		return nil, status.Invalidf("tensor shape %v is not HW or HWC", shape)
	}
	data, ok := t.Data().([]T)
	if !ok {
		return nil, status.Unsupportedf("tensor dtype %v, want %s", t.Dtype(), images.DepthOf[T]())
	}
	v, err := images.NewView[T](h, w, c)
	if err != nil {
		return nil, err
	}
	if len(data) < len(v.Data) {
		return nil, status.Invalidf("tensor holds %d elements, shape needs %d", len(data), len(v.Data))
	}
	copy(v.Data, data)
	return v, nil
}
