package benchmark

import (
	"fmt"
	"math"
)

// ResolutionType names a common camera resolution.
type ResolutionType string

// Resolutions covered by the predefined scenario sets.
const (
	ResolutionTypeQVGA     ResolutionType = "QVGA"
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// Resolution is the frame size of a scenario.
type Resolution struct {
	Name   ResolutionType `json:"name" yaml:"name"`
	Width  int            `json:"width" yaml:"width"`
	Height int            `json:"height" yaml:"height"`
}

// MegaPixels returns Width*Height in millions, rounded to two decimals.
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// resolutions is ordered by pixel count.
var resolutions = []Resolution{
	{Name: ResolutionTypeQVGA, Width: 320, Height: 240},
	{Name: ResolutionTypeNHD, Width: 640, Height: 360},
	{Name: ResolutionTypeVGA, Width: 640, Height: 480},
	{Name: ResolutionTypeHD720p, Width: 1280, Height: 720},
	{Name: ResolutionTypeFHD1080p, Width: 1920, Height: 1080},
	{Name: ResolutionTypeQHD1440p, Width: 2560, Height: 1440},
	{Name: ResolutionType4KUHD, Width: 3840, Height: 2160},
}

// GetResolution returns the resolution registered under t.
func GetResolution(t ResolutionType) (Resolution, bool) {
	for _, r := range resolutions {
		if r.Name == t {
			return r, true
		}
	}
	return Resolution{}, false
}

// GetAllResolutions returns every known resolution ordered by pixel count.
func GetAllResolutions() []Resolution {
	out := make([]Resolution, len(resolutions))
	copy(out, resolutions)
	return out
}
