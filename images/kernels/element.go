package kernels

import (
	"iter"
	"math"
	"slices"

	"github.com/nvr-ai/go-cv/status"
)

// Element is a structuring element: a Width x Height grid of active and
// inactive cells anchored at (Width/2, Height/2). Rect and Mask are the only
// implementations.
type Element interface {
	// Size returns the grid dimensions.
	Size() (width, height int)
	// Active reports whether cell (x, y) takes part in the reduction.
	Active(x, y int) bool

	validate() error
}

// Rect is a dense rectangular element where every cell is active.
type Rect struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Size implements Element.
func (r Rect) Size() (width, height int) { return r.Width, r.Height }

// Active implements Element.
func (r Rect) Active(_, _ int) bool { return true }

func (r Rect) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return status.Invalidf("element size %dx%d", r.Width, r.Height)
	}
	return nil
}

// Mask is an element with explicit cells in row-major order; a non-zero byte
// marks an active cell. A nil or empty Cells slice is a dense rectangle.
type Mask struct {
	Width  int
	Height int
	Cells  []byte
}

// Size implements Element.
func (m Mask) Size() (width, height int) { return m.Width, m.Height }

// Active implements Element.
func (m Mask) Active(x, y int) bool {
	return len(m.Cells) == 0 || m.Cells[y*m.Width+x] != 0
}

func (m Mask) validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return status.Invalidf("element size %dx%d", m.Width, m.Height)
	}
	if len(m.Cells) > 0 && len(m.Cells) < m.Width*m.Height {
		return status.Invalidf("mask holds %d cells, %dx%d needs %d",
			len(m.Cells), m.Width, m.Height, m.Width*m.Height)
	}
	return nil
}

// CrossElement returns a cross-shaped mask: the anchor row and the anchor
// column are active.
func CrossElement(width, height int) Mask {
	m := Mask{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return m
	}
	m.Cells = make([]byte, width*height)
	ax, ay := width/2, height/2
	for y := 0; y < height; y++ {
		if y == ay {
			for x := 0; x < width; x++ {
				m.Cells[y*width+x] = 1
			}
			continue
		}
		m.Cells[y*width+ax] = 1
	}
	return m
}

// EllipseElement returns the elliptic mask inscribed in a width x height
// rectangle, with the same cell layout as OpenCV's MORPH_ELLIPSE.
func EllipseElement(width, height int) Mask {
	m := Mask{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return m
	}
	m.Cells = make([]byte, width*height)
	r, c := height/2, width/2
	var invR2 float64
	if r > 0 {
		invR2 = 1 / float64(r*r)
	}
	for y := 0; y < height; y++ {
		dy := y - r
		if dy < -r || dy > r {
			continue
		}
		dx := int(math.RoundToEven(float64(c) * math.Sqrt(float64(r*r-dy*dy)*invR2)))
		x0 := max(c-dx, 0)
		x1 := min(c+dx+1, width)
		for x := x0; x < x1; x++ {
			m.Cells[y*width+x] = 1
		}
	}
	return m
}

// Offset is the displacement of an active element cell from the anchor.
type Offset struct {
	DY int
	DX int
}

// Walker enumerates the active cells of an element. It is immutable once
// built and safe to share between workers.
type Walker struct {
	width, height int
	ax, ay        int
	offsets       []Offset

	minDY, maxDY int
	minDX, maxDX int
}

// NewWalker resolves e into its active offsets.
//
// Arguments:
// - e: The structuring element.
//
// Returns:
// - The Walker, listing offsets in row-major order.
// - status.ErrInvalidValue if e is nil or malformed.
func NewWalker(e Element) (*Walker, error) {
	if e == nil {
		return nil, status.Invalidf("nil element")
	}
	if err := e.validate(); err != nil {
		return nil, err
	}

	width, height := e.Size()
	w := &Walker{
		width:  width,
		height: height,
		ax:     width / 2,
		ay:     height / 2,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !e.Active(x, y) {
				continue
			}
			o := Offset{DY: y - w.ay, DX: x - w.ax}
			if len(w.offsets) == 0 {
				w.minDY, w.maxDY, w.minDX, w.maxDX = o.DY, o.DY, o.DX, o.DX
			} else {
				w.minDY = min(w.minDY, o.DY)
				w.maxDY = max(w.maxDY, o.DY)
				w.minDX = min(w.minDX, o.DX)
				w.maxDX = max(w.maxDX, o.DX)
			}
			w.offsets = append(w.offsets, o)
		}
	}
	return w, nil
}

// Offsets returns a copy of the active offsets in row-major order.
func (w *Walker) Offsets() []Offset {
	return slices.Clone(w.offsets)
}

// All iterates the active offsets in row-major order. The sequence can be
// ranged over any number of times.
func (w *Walker) All() iter.Seq[Offset] {
	return func(yield func(Offset) bool) {
		for _, o := range w.offsets {
			if !yield(o) {
				return
			}
		}
	}
}

// Len returns the number of active cells.
func (w *Walker) Len() int {
	return len(w.offsets)
}

// Anchor returns the anchor cell.
func (w *Walker) Anchor() (x, y int) {
	return w.ax, w.ay
}

// Size returns the element dimensions.
func (w *Walker) Size() (width, height int) {
	return w.width, w.height
}

// Bounds returns the extent of the active offsets, all zero for an empty
// element.
func (w *Walker) Bounds() (minDY, maxDY, minDX, maxDX int) {
	return w.minDY, w.maxDY, w.minDX, w.maxDX
}
