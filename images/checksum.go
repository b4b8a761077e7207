package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
)

// Checksum generates a deterministic checksum of the meaningful pixels of a
// view, ignoring stride padding, so two views with equal pixels and different
// strides share a checksum.
//
// Arguments:
// - v: The view to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, "empty" for a nil or empty view.
//
// Example:
//
// ```go
//
//	checksum := images.Checksum(out)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func Checksum[T Pixel](v *View[T]) string {
	if v == nil || len(v.Data) == 0 || v.Height <= 0 || v.Width <= 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%s:%dx%d;", v.Descriptor(), v.Width, v.Height)
	buf := make([]byte, 0, v.RowLen()*v.Descriptor().Depth.Size())
	for y := 0; y < v.Height; y++ {
		buf = buf[:0]
		for _, s := range v.Row(y) {
			switch s := any(s).(type) {
			case uint8:
				buf = append(buf, s)
			case float32:
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(s))
			}
		}
		hash.Write(buf)
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
