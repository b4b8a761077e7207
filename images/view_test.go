package images

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-cv/status"
)

func TestNewAlignedView(t *testing.T) {
	v, err := NewAlignedView[float32](5, 7, 3, 8)
	require.NoError(t, err)
	assert.Equal(t, 24, v.Stride)
	assert.Equal(t, 21, v.RowLen())
	assert.Len(t, v.Data, 5*24)
	assert.NoError(t, v.Validate())
	assert.Equal(t, Descriptor{DepthFloat32, 3}, v.Descriptor())
}

func TestNewViewRejects(t *testing.T) {
	_, err := NewView[uint8](0, 4, 1)
	assert.True(t, errors.Is(err, status.ErrInvalidValue))

	_, err = NewView[uint8](4, 4, 2)
	assert.True(t, errors.Is(err, status.ErrUnsupported))
}

func TestWrapViewValidates(t *testing.T) {
	// The last row needs no stride padding.
	data := make([]uint8, 2*14+4*3)

	v, err := WrapView(data, 3, 4, 3, 14)
	require.NoError(t, err)
	assert.Equal(t, 14, v.Stride)
	assert.Len(t, v.Row(2), 12)

	_, err = WrapView(data[:2*12+12], 3, 4, 3, 12)
	require.NoError(t, err)

	_, err = WrapView(data, 3, 4, 3, 15)
	assert.True(t, errors.Is(err, status.ErrInvalidValue), "buffer too short")

	_, err = WrapView(data, 3, 4, 3, 10)
	assert.True(t, errors.Is(err, status.ErrInvalidValue), "stride too small")

	_, err = WrapView[uint8](nil, 3, 4, 3, 12)
	assert.True(t, errors.Is(err, status.ErrInvalidValue), "nil data")

	var nilView *View[uint8]
	assert.Error(t, nilView.Validate())
}

func TestViewAccessors(t *testing.T) {
	v, err := NewAlignedView[uint8](2, 3, 4, 16)
	require.NoError(t, err)

	v.Set(1, 2, 3, 9)
	assert.Equal(t, uint8(9), v.At(1, 2, 3))
	assert.Equal(t, uint8(9), v.Data[1*16+2*4+3])
	assert.Equal(t, []uint8{0, 0, 0, 9}, v.Pixel(1, 2))
	assert.Len(t, v.Row(1), 12)
}

func TestFillLeavesPadding(t *testing.T) {
	v, err := NewAlignedView[uint8](2, 3, 1, 8)
	require.NoError(t, err)
	v.Fill(7)
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			want := uint8(7)
			if x >= 3 {
				want = 0
			}
			assert.Equal(t, want, v.Data[y*8+x], "y=%d x=%d", y, x)
		}
	}
}

func TestCloneAndEqual(t *testing.T) {
	v, err := NewAlignedView[float32](3, 3, 1, 4)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v.Set(y, x, 0, float32(y*3+x))
		}
	}
	c := v.Clone()
	assert.Equal(t, 3, c.Stride)
	assert.True(t, v.Equal(c))

	c.Set(2, 2, 0, -1)
	assert.False(t, v.Equal(c))

	other, err := NewView[float32](3, 2, 1)
	require.NoError(t, err)
	assert.False(t, v.Equal(other))
}
