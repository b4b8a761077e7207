package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumIgnoresStride(t *testing.T) {
	a, err := NewView[float32](4, 5, 3)
	require.NoError(t, err)
	b, err := NewAlignedView[float32](4, 5, 3, 32)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for i := range a.Row(y) {
			a.Row(y)[i] = float32(y*100 + i)
			b.Row(y)[i] = float32(y*100 + i)
		}
	}
	b.Data[b.Stride-1] = 42

	assert.Equal(t, Checksum(a), Checksum(b))

	b.Set(3, 4, 2, -1)
	assert.NotEqual(t, Checksum(a), Checksum(b))
}

func TestChecksumIncludesShape(t *testing.T) {
	a, err := NewView[uint8](2, 6, 1)
	require.NoError(t, err)
	b, err := NewView[uint8](3, 4, 1)
	require.NoError(t, err)
	assert.NotEqual(t, Checksum(a), Checksum(b))
}

func TestChecksumEmpty(t *testing.T) {
	assert.Equal(t, "empty", Checksum[uint8](nil))
	assert.Equal(t, "empty", Checksum(&View[float32]{}))
}
