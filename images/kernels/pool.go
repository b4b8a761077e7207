package kernels

import (
	"sync"

	"github.com/nvr-ai/go-cv/images"
)

// ViewPool lets callers reuse intermediate views across calls to reduce GC
// pressure at video frame rates. A nil *ViewPool allocates every time.
type ViewPool[T images.Pixel] struct {
	views sync.Pool // *images.View[T]
}

// Get returns a compact height x width x channels view. Its contents are
// unspecified; callers overwrite every element.
func (p *ViewPool[T]) Get(height, width, channels int) (*images.View[T], error) {
	if p != nil {
		if v, ok := p.views.Get().(*images.View[T]); ok {
			if v.Height == height && v.Width == width && v.Channels == channels && v.Stride == width*channels {
				return v, nil
			}
		}
	}
	return images.NewView[T](height, width, channels)
}

// Put hands v back for reuse.
func (p *ViewPool[T]) Put(v *images.View[T]) {
	if p == nil || v == nil {
		return
	}
	p.views.Put(v)
}
