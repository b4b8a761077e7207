package cvmat

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/status"
	"github.com/nvr-ai/go-cv/stream"
)

func newStream(t *testing.T) *stream.Stream {
	t.Helper()
	pool := stream.NewPool(4)
	s, err := stream.New(pool)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
		pool.Close()
	})
	return s
}

func randomView[T images.Pixel](t *testing.T, rng *rand.Rand, h, w, c int) *images.View[T] {
	t.Helper()
	v, err := images.NewAlignedView[T](h, w, c, 16)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for i := range row {
			row[i] = T(rng.Intn(256))
		}
	}
	return v
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, c := range []int{1, 3, 4} {
		v := randomView[uint8](t, rng, 5, 7, c)
		m, err := ToMat(v)
		require.NoError(t, err)
		assert.Equal(t, 5, m.Rows())
		assert.Equal(t, 7, m.Cols())
		assert.Equal(t, c, m.Channels())

		back, err := FromMat[uint8](m)
		require.NoError(t, err)
		assert.True(t, v.Equal(back))

		_, err = FromMat[float32](m)
		assert.True(t, errors.Is(err, status.ErrUnsupported))
		require.NoError(t, m.Close())

		f := randomView[float32](t, rng, 3, 2, c)
		fm, err := ToMat(f)
		require.NoError(t, err)
		fback, err := FromMat[float32](fm)
		require.NoError(t, err)
		assert.True(t, f.Equal(fback))
		require.NoError(t, fm.Close())
	}
}

func TestBorderTypeMapping(t *testing.T) {
	bt, err := BorderType(kernels.BorderDefault)
	require.NoError(t, err)
	assert.Equal(t, gocv.BorderReflect101, bt)

	_, err = BorderType(kernels.BorderType(42))
	assert.True(t, errors.Is(err, status.ErrInvalidValue))
}

func copyMakeBorderCase[T images.Pixel](t *testing.T, rng *rand.Rand, c int, b kernels.BorderType) {
	s := newStream(t)
	src := randomView[T](t, rng, 6, 5, c)
	pad := kernels.Padding{Top: 2, Bottom: 7, Left: 9, Right: 1}
	h, w := pad.OutputSize(src.Height, src.Width)
	dst, err := images.NewView[T](h, w, c)
	require.NoError(t, err)

	ev, err := kernels.CopyMakeBorder(s, src, dst, pad, b, T(17))
	require.NoError(t, err)
	require.NoError(t, ev.Wait(context.Background()))

	srcMat, err := ToMat(src)
	require.NoError(t, err)
	defer srcMat.Close()
	want := gocv.NewMat()
	defer want.Close()
	bt, err := BorderType(b)
	require.NoError(t, err)
	gocv.CopyMakeBorder(srcMat, &want, pad.Top, pad.Bottom, pad.Left, pad.Right, bt, color.RGBA{R: 17, G: 17, B: 17, A: 17})

	ref, err := FromMat[T](want)
	require.NoError(t, err)
	assert.True(t, ref.Equal(dst))
}

func TestCopyMakeBorderMatchesOpenCV(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, c := range []int{1, 3, 4} {
		for _, b := range []kernels.BorderType{
			kernels.BorderConstant,
			kernels.BorderReplicate,
			kernels.BorderReflect,
			kernels.BorderWrap,
			kernels.BorderReflect101,
		} {
			t.Run(fmt.Sprintf("8UC%d/%s", c, b), func(t *testing.T) { copyMakeBorderCase[uint8](t, rng, c, b) })
			t.Run(fmt.Sprintf("32FC%d/%s", c, b), func(t *testing.T) { copyMakeBorderCase[float32](t, rng, c, b) })
		}
	}
}

func erodeCase[T images.Pixel](t *testing.T, rng *rand.Rand, c int, e kernels.Element) {
	s := newStream(t)
	src := randomView[T](t, rng, 9, 11, c)
	dst, err := images.NewView[T](9, 11, c)
	require.NoError(t, err)

	opts := kernels.DefaultErodeOptions[T]()
	opts.Element = e
	ev, err := kernels.Erode(s, src, dst, opts)
	require.NoError(t, err)
	require.NoError(t, ev.Wait(context.Background()))

	srcMat, err := ToMat(src)
	require.NoError(t, err)
	defer srcMat.Close()
	kernel, err := StructuringElement(e)
	require.NoError(t, err)
	defer kernel.Close()
	want := gocv.NewMat()
	defer want.Close()
	gocv.Erode(srcMat, &want, kernel)

	ref, err := FromMat[T](want)
	require.NoError(t, err)
	assert.True(t, ref.Equal(dst))
}

func TestErodeMatchesOpenCV(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	elements := map[string]kernels.Element{
		"rect3x3":    kernels.Rect{Width: 3, Height: 3},
		"rect5x3":    kernels.Rect{Width: 5, Height: 3},
		"rect4x4":    kernels.Rect{Width: 4, Height: 4},
		"cross5":     kernels.CrossElement(5, 5),
		"ellipse7":   kernels.EllipseElement(7, 7),
		"ellipse5x3": kernels.EllipseElement(5, 3),
	}
	for _, c := range []int{1, 3, 4} {
		for name, e := range elements {
			t.Run(fmt.Sprintf("8UC%d/%s", c, name), func(t *testing.T) { erodeCase[uint8](t, rng, c, e) })
			t.Run(fmt.Sprintf("32FC%d/%s", c, name), func(t *testing.T) { erodeCase[float32](t, rng, c, e) })
		}
	}
}

func TestStructuringElementMatchesOpenCV(t *testing.T) {
	shapes := []struct {
		shape gocv.MorphShape
		build func(w, h int) kernels.Mask
	}{
		{gocv.MorphCross, kernels.CrossElement},
		{gocv.MorphEllipse, kernels.EllipseElement},
	}
	for _, sh := range shapes {
		for _, size := range []image.Point{{3, 3}, {5, 5}, {7, 3}, {4, 6}, {9, 9}} {
			want := gocv.GetStructuringElement(sh.shape, size)
			got, err := StructuringElement(sh.build(size.X, size.Y))
			require.NoError(t, err)

			a, err := FromMat[uint8](want)
			require.NoError(t, err)
			b, err := FromMat[uint8](got)
			require.NoError(t, err)
			assert.True(t, a.Equal(b), "shape %v size %v", sh.shape, size)

			require.NoError(t, want.Close())
			require.NoError(t, got.Close())
		}
	}
}
