package kernels

import (
	"strings"

	"github.com/nvr-ai/go-cv/status"
)

// BorderType selects how coordinates outside the image are resolved.
// Numeric values match OpenCV.
type BorderType int

const (
	// BorderConstant substitutes the fill value: iiiiii|abcdefgh|iiiiiii.
	BorderConstant BorderType = iota
	// BorderReplicate repeats the edge sample: aaaaaa|abcdefgh|hhhhhhh.
	BorderReplicate
	// BorderReflect mirrors with the edge sample repeated: fedcba|abcdefgh|hgfedcb.
	BorderReflect
	// BorderWrap tiles the image: cdefgh|abcdefgh|abcdefg.
	BorderWrap
	// BorderReflect101 mirrors without repeating the edge: gfedcb|abcdefgh|gfedcba.
	BorderReflect101
	// BorderDefault is BorderReflect101.
	BorderDefault = BorderReflect101
)

// UseBorderValue is returned by MapIndex when the fill value must be used.
const UseBorderValue = -1

var borderNames = map[BorderType]string{
	BorderConstant:   "constant",
	BorderReplicate:  "replicate",
	BorderReflect:    "reflect",
	BorderWrap:       "wrap",
	BorderReflect101: "reflect_101",
}

// Valid reports whether b is one of the supported policies.
func (b BorderType) Valid() bool {
	return b >= BorderConstant && b <= BorderReflect101
}

// String returns the configuration name of b.
func (b BorderType) String() string {
	if name, ok := borderNames[b]; ok {
		return name
	}
	return "unknown"
}

// ParseBorderType parses a policy name. Matching ignores case and an optional
// "border_" or "border_type_" prefix; "default" and "" parse as BorderDefault.
//
// Arguments:
// - s: The name, e.g. "reflect_101", "BORDER_TYPE_WRAP" or "replicate".
//
// Returns:
// - The BorderType.
// - status.ErrInvalidValue if the name is unknown.
func ParseBorderType(s string) (BorderType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "border_type_")
	name = strings.TrimPrefix(name, "border_")
	switch name {
	case "constant":
		return BorderConstant, nil
	case "replicate":
		return BorderReplicate, nil
	case "reflect":
		return BorderReflect, nil
	case "wrap":
		return BorderWrap, nil
	case "reflect_101", "reflect101":
		return BorderReflect101, nil
	case "", "default":
		return BorderDefault, nil
	default:
		return 0, status.Invalidf("unknown border type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b BorderType) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, status.Invalidf("border type %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BorderType) UnmarshalText(text []byte) error {
	v, err := ParseBorderType(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MapIndex resolves coordinate i against an axis of length n under policy b.
// It returns an index in [0, n), or UseBorderValue under BorderConstant when i
// is out of range. Any i is accepted, including |i| much larger than n: the
// reflect and wrap policies fold with a period instead of a single mirror.
// n must be > 0 and b valid.
func MapIndex(i, n int, b BorderType) int {
	if uint(i) < uint(n) {
		return i
	}
	switch b {
	case BorderReplicate:
		if i < 0 {
			return 0
		}
		return n - 1
	case BorderReflect:
		period := 2 * n
		j := i % period
		if j < 0 {
			j += period
		}
		if j >= n {
			j = period - 1 - j
		}
		return j
	case BorderReflect101:
		if n == 1 {
			return 0
		}
		period := 2 * (n - 1)
		j := i % period
		if j < 0 {
			j += period
		}
		if j >= n {
			j = period - j
		}
		return j
	case BorderWrap:
		j := i % n
		if j < 0 {
			j += n
		}
		return j
	default:
		return UseBorderValue
	}
}
