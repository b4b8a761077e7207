package kernels

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/stream"
)

func newTestStream(t *testing.T) *stream.Stream {
	t.Helper()
	pool := stream.NewPool(4)
	s, err := stream.New(pool, stream.WithRowsPerBatch(2))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
		pool.Close()
	})
	return s
}

func wait(t *testing.T, ev *stream.Event, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, ev.Wait(context.Background()))
}

// rampView fills a view with 0, 1, 2, ... in row-major element order and
// poisons the stride padding with 99.
func rampView[T images.Pixel](t *testing.T, h, w, c, align int) *images.View[T] {
	t.Helper()
	v, err := images.NewAlignedView[T](h, w, c, align)
	require.NoError(t, err)
	for i := range v.Data {
		v.Data[i] = 99
	}
	n := 0
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for i := range row {
			row[i] = T(n % 256)
			n++
		}
	}
	return v
}

func randomView[T images.Pixel](t *testing.T, rng *rand.Rand, h, w, c, align int) *images.View[T] {
	t.Helper()
	v, err := images.NewAlignedView[T](h, w, c, align)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for i := range row {
			row[i] = T(rng.Intn(256))
		}
	}
	return v
}

func randomMask(rng *rand.Rand, w, h int) Mask {
	m := Mask{Width: w, Height: h, Cells: make([]byte, w*h)}
	for i := range m.Cells {
		if rng.Intn(3) > 0 {
			m.Cells[i] = 1
		}
	}
	return m
}

// referenceErode evaluates the definition pixel by pixel through MapIndex.
func referenceErode[T images.Pixel](src *images.View[T], e Element, border BorderType, value T) *images.View[T] {
	out, _ := images.NewView[T](src.Height, src.Width, src.Channels)
	ew, eh := e.Size()
	ax, ay := ew/2, eh/2
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			for c := 0; c < src.Channels; c++ {
				first := true
				centre := src.At(y, x, c)
				var acc T
				for ky := 0; ky < eh; ky++ {
					for kx := 0; kx < ew; kx++ {
						if !e.Active(kx, ky) {
							continue
						}
						sy := MapIndex(y+ky-ay, src.Height, border)
						sx := MapIndex(x+kx-ax, src.Width, border)
						v := value
						if sy != UseBorderValue && sx != UseBorderValue {
							v = src.At(sy, sx, c)
						}
						if first || v < acc {
							acc = v
						}
						first = false
					}
				}
				if first {
					acc = centre
				}
				out.Set(y, x, c, acc)
			}
		}
	}
	return out
}

var allBorders = []BorderType{BorderConstant, BorderReplicate, BorderReflect, BorderWrap, BorderReflect101, BorderDefault}
