// Package cvmat - bridges images.View and gocv.Mat so the kernels can be fed
// from, and checked against, OpenCV.
//
// Every conversion copies. A Mat returned by this package is owned by the
// caller, who must Close it to release native memory:
//
//	m, err := cvmat.ToMat(view)
//	if err != nil {
//		return err
//	}
//	defer m.Close()
package cvmat

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/status"
)

var matTypes = map[images.Descriptor]gocv.MatType{
	{Depth: images.DepthUint8, Channels: 1}:   gocv.MatTypeCV8UC1,
	{Depth: images.DepthUint8, Channels: 3}:   gocv.MatTypeCV8UC3,
	{Depth: images.DepthUint8, Channels: 4}:   gocv.MatTypeCV8UC4,
	{Depth: images.DepthFloat32, Channels: 1}: gocv.MatTypeCV32FC1,
	{Depth: images.DepthFloat32, Channels: 3}: gocv.MatTypeCV32FC3,
	{Depth: images.DepthFloat32, Channels: 4}: gocv.MatTypeCV32FC4,
}

var borderTypes = map[kernels.BorderType]gocv.BorderType{
	kernels.BorderConstant:   gocv.BorderConstant,
	kernels.BorderReplicate:  gocv.BorderReplicate,
	kernels.BorderReflect:    gocv.BorderReflect,
	kernels.BorderWrap:       gocv.BorderWrap,
	kernels.BorderReflect101: gocv.BorderReflect101,
}

// MatType returns the OpenCV type of a pixel layout.
func MatType(d images.Descriptor) (gocv.MatType, error) {
	mt, ok := matTypes[d]
	if !ok {
		return 0, status.Unsupportedf("layout %s", d)
	}
	return mt, nil
}

// BorderType returns the OpenCV border flag of b.
func BorderType(b kernels.BorderType) (gocv.BorderType, error) {
	bt, ok := borderTypes[b]
	if !ok {
		return 0, status.Invalidf("border type %d", int(b))
	}
	return bt, nil
}

// ToMat copies v into a new continuous Mat.
//
// Arguments:
// - v: The source view; stride padding is dropped.
//
// Returns:
// - The Mat, owned by the caller.
// - error if v is invalid.
func ToMat[T images.Pixel](v *images.View[T]) (gocv.Mat, error) {
	if err := v.Validate(); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "to mat")
	}
	mt, err := MatType(v.Descriptor())
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "to mat")
	}

	compact := v.Clone()
	raw := asBytes(compact.Data)
	borrowed, err := gocv.NewMatFromBytes(v.Height, v.Width, mt, raw)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "to mat")
	}
	defer borrowed.Close()

	// NewMatFromBytes may alias raw; the clone owns its pixels.
	m := borrowed.Clone()
	runtime.KeepAlive(raw)
	return m, nil
}

// FromMat copies m into a new compact view.
//
// Arguments:
// - m: A Mat whose type is one of the supported layouts of T.
//
// Returns:
// - The view.
// - status.ErrUnsupported if m's type does not match T or is outside the
// supported layouts.
func FromMat[T images.Pixel](m gocv.Mat) (*images.View[T], error) {
	if m.Empty() {
		return nil, status.Invalidf("empty mat")
	}
	d := images.Descriptor{Depth: images.DepthOf[T](), Channels: m.Channels()}
	mt, err := MatType(d)
	if err != nil {
		return nil, errors.Wrap(err, "from mat")
	}
	if m.Type() != mt {
		return nil, status.Unsupportedf("mat type %v, want %s", m.Type(), d)
	}

	if !m.IsContinuous() {
		c := m.Clone()
		defer c.Close()
		m = c
	}

	v, err := images.NewView[T](m.Rows(), m.Cols(), m.Channels())
	if err != nil {
		return nil, errors.Wrap(err, "from mat")
	}
	var data any
	switch d.Depth {
	case images.DepthUint8:
		data, err = m.DataPtrUint8()
	default:
		data, err = m.DataPtrFloat32()
	}
	if err != nil {
		return nil, errors.Wrap(err, "from mat")
	}
	copy(v.Data, data.([]T))
	return v, nil
}

// StructuringElement returns e as an 8-bit single channel kernel Mat, the
// form expected by gocv.Erode.
func StructuringElement(e kernels.Element) (gocv.Mat, error) {
	w, err := kernels.NewWalker(e)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "structuring element")
	}
	width, height := w.Size()
	ax, ay := w.Anchor()
	cells := make([]byte, width*height)
	for o := range w.All() {
		cells[(o.DY+ay)*width+o.DX+ax] = 1
	}

	borrowed, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, cells)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "structuring element")
	}
	defer borrowed.Close()
	m := borrowed.Clone()
	runtime.KeepAlive(cells)
	return m, nil
}

func asBytes[T images.Pixel](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*int(unsafe.Sizeof(zero)))
}
