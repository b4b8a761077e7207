// Package codec encodes and decodes 8-bit views as JPEG, PNG and WebP.
package codec

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/status"
)

// ImageFormat represents supported encoded image formats.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// Image is an encoded image with its format and dimensions.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Decode decodes an encoded image into an 8-bit view.
//
// Arguments:
// - img: The encoded image.
// - channels: Channels of the resulting view, 1, 3 or 4.
//
// Returns:
// - The decoded view.
// - error if the data is empty or cannot be decoded.
//
// @example
//
//	v, err := codec.Decode(&codec.Image{Format: codec.FormatPNG, Data: raw}, 3)
func Decode(img *Image, channels int) (*images.View[uint8], error) {
	if img == nil {
		return nil, status.Invalidf("nil image")
	}
	if len(img.Data) == 0 {
		return nil, status.Invalidf("image data is empty")
	}

	var (
		decoded image.Image
		err     error
	)
	r := bytes.NewReader(img.Data)
	switch img.Format {
	case FormatJPEG:
		decoded, err = jpeg.Decode(r)
	case FormatPNG:
		decoded, err = png.Decode(r)
	case FormatWebP:
		decoded, err = webp.Decode(r)
	default:
		decoded, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", img.Format)
	}
	return images.FromImage(decoded, channels)
}

// Encode encodes an 8-bit view. PNG and WebP are lossless, JPEG uses quality 95.
//
// Returns:
// - The encoded image.
// - error if the view is invalid or encoding fails.
func Encode(v *images.View[uint8], format ImageFormat) (*Image, error) {
	m, err := images.ToImage(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: 95})
	case FormatPNG:
		err = png.Encode(&buf, m)
	case FormatWebP:
		err = webp.Encode(&buf, m, &webp.Options{Lossless: true})
	default:
		return nil, status.Invalidf("unknown image format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", format)
	}
	return &Image{
		Format: format,
		Data:   buf.Bytes(),
		Width:  v.Width,
		Height: v.Height,
	}, nil
}
