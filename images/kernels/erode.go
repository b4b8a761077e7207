package kernels

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/logging"
	"github.com/nvr-ai/go-cv/status"
	"github.com/nvr-ai/go-cv/stream"
)

// ErodeOptions configures Erode.
type ErodeOptions[T images.Pixel] struct {
	Element     Element      // Structuring element; nil means a dense 3x3 Rect.
	Border      BorderType   // Policy for samples outside the image.
	BorderValue T            // Fill value under BorderConstant.
	Iterations  int          // Successive erosions, <= 0 means 1.
	Pool        *ViewPool[T] // Optional reuse of intermediates when Iterations > 1.
}

// DefaultErodeOptions returns a dense 3x3 element under BorderConstant filled
// with the largest value of T, so the border never lowers the minimum.
func DefaultErodeOptions[T images.Pixel]() ErodeOptions[T] {
	return ErodeOptions[T]{
		Element:     Rect{Width: 3, Height: 3},
		Border:      BorderConstant,
		BorderValue: images.MaxValue[T](),
		Iterations:  1,
	}
}

// Erode enqueues on s a morphological erosion of src into dst: each output
// sample is the minimum, per channel, of the input samples covered by the
// element centred on it. Samples outside the image are resolved through
// MapIndex; under BorderConstant they read opts.BorderValue.
//
// For float32, NaN is only produced when every covered sample is NaN. An
// element without active cells copies src.
//
// Arguments:
// - s: The stream to run on.
// - src, dst: Views of identical shape. Strides may differ; the buffers must
// not overlap.
// - opts: Element, border policy, fill value and iteration count.
//
// Returns:
// - An Event completing once dst is written.
// - status.ErrInvalidValue or status.ErrUnsupported if the arguments are
// rejected, in which case nothing is enqueued and dst is untouched.
func Erode[T images.Pixel](s *stream.Stream, src, dst *images.View[T], opts ErodeOptions[T]) (*stream.Event, error) {
	if opts.Element == nil {
		opts.Element = Rect{Width: 3, Height: 3}
	}
	w, err := validateErode(s, src, dst, opts)
	if err != nil {
		return nil, errors.Wrap(err, "erode")
	}
	iterations := max(opts.Iterations, 1)

	width, height := w.Size()
	logging.Logger().Debug("kernel dispatch",
		"op", "erode",
		"stream", s.Name(),
		"desc", src.Descriptor().String(),
		"size", [2]int{src.Width, src.Height},
		"element", [2]int{width, height},
		"active", w.Len(),
		"border", opts.Border.String(),
		"iterations", iterations)

	megapixels := float64(src.Width*src.Height*iterations) / 1e6
	return s.Enqueue("erode", func(p *stream.Pool) error {
		if err := erodeIterations(p, s.RowsPerBatch(), src, dst, w, opts, iterations); err != nil {
			return err
		}
		if prof := s.Profiler(); prof != nil {
			prof.RecordMetric("erode.megapixels", megapixels)
		}
		return nil
	})
}

func validateErode[T images.Pixel](s *stream.Stream, src, dst *images.View[T], opts ErodeOptions[T]) (*Walker, error) {
	if s == nil {
		return nil, status.Invalidf("nil stream")
	}
	if err := src.Validate(); err != nil {
		return nil, errors.Wrap(err, "src")
	}
	if err := dst.Validate(); err != nil {
		return nil, errors.Wrap(err, "dst")
	}
	if !src.SameShape(dst) {
		return nil, status.Invalidf("dst is %dx%dx%d, want %dx%dx%d",
			dst.Width, dst.Height, dst.Channels, src.Width, src.Height, src.Channels)
	}
	if overlap(src.Data, dst.Data) {
		return nil, status.Invalidf("src and dst overlap")
	}
	if !opts.Border.Valid() {
		return nil, status.Invalidf("border type %d", int(opts.Border))
	}
	return NewWalker(opts.Element)
}

// overlap reports whether a and b share any element.
func overlap[T images.Pixel](a, b []T) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	a0 := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	b0 := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return a0 < b0+uintptr(len(b))*size && b0 < a0+uintptr(len(a))*size
}

// erodeIterations ping-pongs between two intermediates so that the last pass
// writes dst.
func erodeIterations[T images.Pixel](
	p *stream.Pool,
	batch int,
	src, dst *images.View[T],
	w *Walker,
	opts ErodeOptions[T],
	iterations int,
) error {
	var tmp [2]*images.View[T]
	defer func() {
		opts.Pool.Put(tmp[0])
		opts.Pool.Put(tmp[1])
	}()

	cur := src
	for i := 0; i < iterations; i++ {
		out := dst
		if i < iterations-1 {
			if tmp[i%2] == nil {
				v, err := opts.Pool.Get(src.Height, src.Width, src.Channels)
				if err != nil {
					return errors.Wrap(err, "intermediate view")
				}
				tmp[i%2] = v
			}
			out = tmp[i%2]
		}
		erodePass(p, batch, cur, out, w, opts.Border, opts.BorderValue)
		cur = out
	}
	return nil
}

func erodePass[T images.Pixel](
	p *stream.Pool,
	batch int,
	src, dst *images.View[T],
	w *Walker,
	border BorderType,
	value T,
) {
	if w.Len() == 0 {
		p.ParallelForBatched(src.Height, batch, func(start, end int) {
			for y := start; y < end; y++ {
				copy(dst.Row(y), src.Row(y))
			}
		})
		return
	}

	k := newErodeKernel(src, w, border, value)
	p.ParallelForBatched(src.Height, batch, func(start, end int) {
		for y := start; y < end; y++ {
			k.row(dst.Row(y), y)
		}
	})
}

// erodeKernel is the per-pass state shared read-only by all workers.
type erodeKernel[T images.Pixel] struct {
	src     *images.View[T]
	offsets []Offset
	linear  []int // offsets as element distances in src.Data
	border  BorderType
	fill    [4]T

	// Pixels in rows [y0, y1) and columns [x0, x1) have their whole
	// footprint inside src.
	y0, y1 int
	x0, x1 int

	interior func(out []T, rowBase, x0, x1 int)
}

func newErodeKernel[T images.Pixel](src *images.View[T], w *Walker, border BorderType, value T) *erodeKernel[T] {
	k := &erodeKernel[T]{
		src:     src,
		offsets: w.offsets,
		linear:  make([]int, len(w.offsets)),
		border:  border,
		fill:    [4]T{value, value, value, value},
	}
	for i, o := range w.offsets {
		k.linear[i] = o.DY*src.Stride + o.DX*src.Channels
	}

	minDY, maxDY, minDX, maxDX := w.Bounds()
	k.y0, k.y1 = interiorSpan(minDY, maxDY, src.Height)
	k.x0, k.x1 = interiorSpan(minDX, maxDX, src.Width)

	switch src.Channels {
	case 1:
		k.interior = k.interior1
	case 3:
		k.interior = k.interior3
	default:
		k.interior = k.interior4
	}
	return k
}

// interiorSpan returns the coordinates i in [0, n) for which both i+lo and
// i+hi fall inside [0, n).
func interiorSpan(lo, hi, n int) (int, int) {
	start := min(max(-lo, 0), n)
	end := min(max(n-hi, start), n)
	return start, end
}

func (k *erodeKernel[T]) row(out []T, y int) {
	c := k.src.Channels
	x0, x1 := k.x0, k.x1
	if y < k.y0 || y >= k.y1 {
		x0, x1 = 0, 0
	}

	for x := 0; x < x0; x++ {
		k.edge(out[x*c:x*c+c], y, x)
	}
	k.interior(out, y*k.src.Stride, x0, x1)
	for x := x1; x < k.src.Width; x++ {
		k.edge(out[x*c:x*c+c], y, x)
	}
}

// edge reduces one pixel whose footprint may leave the image.
func (k *erodeKernel[T]) edge(out []T, y, x int) {
	c := len(out)
	var acc [4]T
	for i, o := range k.offsets {
		sample := k.fill[:c]
		sy := MapIndex(y+o.DY, k.src.Height, k.border)
		sx := MapIndex(x+o.DX, k.src.Width, k.border)
		if sy != UseBorderValue && sx != UseBorderValue {
			sample = k.src.Pixel(sy, sx)
		}
		if i == 0 {
			copy(acc[:c], sample)
			continue
		}
		for ch := range c {
			acc[ch] = minSample(acc[ch], sample[ch])
		}
	}
	copy(out, acc[:c])
}

func (k *erodeKernel[T]) interior1(out []T, rowBase, x0, x1 int) {
	data, lin := k.src.Data, k.linear
	for x := x0; x < x1; x++ {
		base := rowBase + x
		acc := data[base+lin[0]]
		for _, off := range lin[1:] {
			acc = minSample(acc, data[base+off])
		}
		out[x] = acc
	}
}

func (k *erodeKernel[T]) interior3(out []T, rowBase, x0, x1 int) {
	data, lin := k.src.Data, k.linear
	for x := x0; x < x1; x++ {
		base := rowBase + 3*x
		p := base + lin[0]
		a0, a1, a2 := data[p], data[p+1], data[p+2]
		for _, off := range lin[1:] {
			p = base + off
			a0 = minSample(a0, data[p])
			a1 = minSample(a1, data[p+1])
			a2 = minSample(a2, data[p+2])
		}
		o := 3 * x
		out[o], out[o+1], out[o+2] = a0, a1, a2
	}
}

func (k *erodeKernel[T]) interior4(out []T, rowBase, x0, x1 int) {
	data, lin := k.src.Data, k.linear
	for x := x0; x < x1; x++ {
		base := rowBase + 4*x
		p := base + lin[0]
		a0, a1, a2, a3 := data[p], data[p+1], data[p+2], data[p+3]
		for _, off := range lin[1:] {
			p = base + off
			a0 = minSample(a0, data[p])
			a1 = minSample(a1, data[p+1])
			a2 = minSample(a2, data[p+2])
			a3 = minSample(a3, data[p+3])
		}
		o := 4 * x
		out[o], out[o+1], out[o+2], out[o+3] = a0, a1, a2, a3
	}
}

// minSample returns the smaller of acc and v. NaN is the only value unequal to
// itself: a NaN accumulator is always replaced, and a NaN v never wins a
// comparison, so NaN survives only when every sample is NaN.
func minSample[T images.Pixel](acc, v T) T {
	if v < acc || acc != acc {
		return v
	}
	return acc
}
