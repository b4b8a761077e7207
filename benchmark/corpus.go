package benchmark

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/codec"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/status"
)

// CorpusFit selects how corpus frames are fitted to a scenario resolution.
type CorpusFit string

const (
	// CorpusFitTile repeats the frame with wrap-around addressing.
	CorpusFitTile CorpusFit = "tile"
	// CorpusFitResize rescales the frame with bilinear interpolation.
	CorpusFitResize CorpusFit = "resize"
)

// Validate reports whether f is a known fit mode. Empty means tile.
func (f CorpusFit) Validate() error {
	switch f {
	case "", CorpusFitTile, CorpusFitResize:
		return nil
	}
	return status.Invalidf("corpus fit must be tile or resize, got %q", string(f))
}

// ImageFile is one encoded frame of a benchmark corpus.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the number parsed from a "frame-<n>" file name, -1 otherwise.
	Frame int
	// Image is the encoded image.
	Image *codec.Image
}

var corpusFormats = map[string]codec.ImageFormat{
	".jpg":  codec.FormatJPEG,
	".jpeg": codec.FormatJPEG,
	".png":  codec.FormatPNG,
	".webp": codec.FormatWebP,
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - The files ordered by frame number, then by path.
// - error if the directory cannot be read or holds no image.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read corpus %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		format, ok := corpusFormats[ext]
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		frame := -1
		if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), "frame-")); err == nil {
			frame = n
		}
		files = append(files, ImageFile{
			Path:  path,
			Frame: frame,
			Image: &codec.Image{Format: format, Data: data},
		})
	}
	if len(files) == 0 {
		return nil, status.Invalidf("no images in %s", dir)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// LoadCorpus makes every later scenario use the images in dir instead of
// synthetic frames. Each timed iteration takes the next frame.
//
// Arguments:
// - dir: Directory holding the frames.
// - fit: How frames are brought to the scenario resolution.
//
// Returns:
// - error if fit is unknown or the directory holds no readable image.
func (bs *Suite) LoadCorpus(dir string, fit CorpusFit) error {
	if err := fit.Validate(); err != nil {
		return err
	}
	files, err := LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	bs.mu.Lock()
	bs.corpus = files
	bs.corpusFit = fit
	bs.mu.Unlock()
	return nil
}

// corpusViews decodes the corpus and fits every frame to h x w, so frames of
// any size serve any scenario resolution.
func corpusViews[T images.Pixel](files []ImageFile, fit CorpusFit, h, w, c int) ([]*images.View[T], error) {
	out := make([]*images.View[T], 0, len(files))
	for _, f := range files {
		frame, err := codec.Decode(f.Image, c)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", f.Path)
		}
		if fit == CorpusFitResize {
			frame, err = resizeFrame(frame, h, w)
			if err != nil {
				return nil, errors.Wrapf(err, "resize %s", f.Path)
			}
		}
		v, err := images.NewView[T](h, w, c)
		if err != nil {
			return nil, err
		}
		tileFrame(frame, v)
		out = append(out, v)
	}
	return out, nil
}

// resizeFrame rescales frame to exactly h x w.
func resizeFrame(frame *images.View[uint8], h, w int) (*images.View[uint8], error) {
	if frame.Height == h && frame.Width == w {
		return frame, nil
	}
	m, err := images.ToImage(frame)
	if err != nil {
		return nil, err
	}
	return images.FromImage(resize.Resize(uint(w), uint(h), m, resize.Bilinear), frame.Channels)
}

// tileFrame fills dst by repeating frame with wrap-around addressing. A frame
// already of dst's size is copied as is.
func tileFrame[T images.Pixel](frame *images.View[uint8], dst *images.View[T]) {
	c := dst.Channels
	for y := 0; y < dst.Height; y++ {
		sy := kernels.MapIndex(y, frame.Height, kernels.BorderWrap)
		row := dst.Row(y)
		for x := 0; x < dst.Width; x++ {
			px := frame.Pixel(sy, kernels.MapIndex(x, frame.Width, kernels.BorderWrap))
			for ch, s := range px {
				row[x*c+ch] = T(s)
			}
		}
	}
}
