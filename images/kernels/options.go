package kernels

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/config"
	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/status"
)

// ElementFromConfig builds the structuring element described by cfg.
func ElementFromConfig(cfg config.ErodeConfig) (Element, error) {
	w, h := cfg.KernelWidth, cfg.KernelHeight
	var e Element
	switch strings.ToLower(cfg.Shape) {
	case "", "rect":
		e = Rect{Width: w, Height: h}
	case "cross":
		e = CrossElement(w, h)
	case "ellipse":
		e = EllipseElement(w, h)
	default:
		return nil, status.Invalidf("element shape %q", cfg.Shape)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ErodeOptionsFromConfig converts cfg into erosion options. The fill value is
// the largest value of T.
//
// Arguments:
// - cfg: The erode section of a config.Config.
//
// Returns:
// - The options.
// - status.ErrInvalidValue if the shape, size or border name is invalid.
func ErodeOptionsFromConfig[T images.Pixel](cfg config.ErodeConfig) (ErodeOptions[T], error) {
	e, err := ElementFromConfig(cfg)
	if err != nil {
		return ErodeOptions[T]{}, errors.Wrap(err, "erode config")
	}
	border, err := ParseBorderType(cfg.Border)
	if err != nil {
		return ErodeOptions[T]{}, errors.Wrap(err, "erode config")
	}

	opts := DefaultErodeOptions[T]()
	opts.Element = e
	opts.Border = border
	opts.Iterations = max(cfg.Iterations, 1)
	return opts, nil
}

// BorderFromConfig returns the border policy and fill value of cfg. The fill
// value is left as float64 for CopyMakeBorderBuffer.
func BorderFromConfig(cfg config.BorderConfig) (BorderType, float64, error) {
	border, err := ParseBorderType(cfg.Type)
	if err != nil {
		return 0, 0, errors.Wrap(err, "border config")
	}
	return border, cfg.Value, nil
}
