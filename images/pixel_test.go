package images

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-cv/status"
)

func TestDepthOf(t *testing.T) {
	assert.Equal(t, DepthUint8, DepthOf[uint8]())
	assert.Equal(t, DepthFloat32, DepthOf[float32]())
	assert.Equal(t, 1, DepthUint8.Size())
	assert.Equal(t, 4, DepthFloat32.Size())
}

func TestMaxValue(t *testing.T) {
	assert.Equal(t, uint8(255), MaxValue[uint8]())
	assert.Equal(t, float32(math32.MaxFloat32), MaxValue[float32]())
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, uint8(0), Saturate[uint8](-3))
	assert.Equal(t, uint8(255), Saturate[uint8](1e9))
	assert.Equal(t, uint8(2), Saturate[uint8](2.5))
	assert.Equal(t, uint8(4), Saturate[uint8](3.5))
	assert.Equal(t, uint8(0), Saturate[uint8](math.NaN()))
	assert.Equal(t, float32(-1.5), Saturate[float32](-1.5))
}

func TestDescriptorValidate(t *testing.T) {
	for _, d := range SupportedDescriptors {
		assert.NoError(t, d.Validate(), d.String())
	}

	for _, d := range []Descriptor{{DepthUint8, 2}, {DepthFloat32, 0}, {Depth(9), 1}} {
		err := d.Validate()
		assert.True(t, errors.Is(err, status.ErrUnsupported), "%v: %v", d, err)
		assert.Equal(t, status.InvalidValue, status.CodeOf(err))
	}
}

func TestDescriptorString(t *testing.T) {
	assert.Equal(t, "8UC3", Descriptor{DepthUint8, 3}.String())
	assert.Equal(t, "32FC1", Descriptor{DepthFloat32, 1}.String())
}
