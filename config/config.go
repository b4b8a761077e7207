// Package config - runtime configuration for streams, logging and kernel defaults.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-cv/status"
)

// Config is the top-level configuration of the module.
type Config struct {
	// Workers is the number of persistent pool workers, 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
	// QueueDepth is the number of tasks a stream buffers before Enqueue blocks.
	QueueDepth int `json:"queue_depth" yaml:"queue_depth"`
	// RowsPerBatch is the number of output rows a worker claims at a time.
	RowsPerBatch int `json:"rows_per_batch" yaml:"rows_per_batch"`
	// Profiling enables per-task timing on streams built from this config.
	Profiling bool `json:"profiling" yaml:"profiling"`
	// Log configures the module logger.
	Log LogConfig `json:"log" yaml:"log"`
	// Erode holds the defaults used when building erosion options.
	Erode ErodeConfig `json:"erode" yaml:"erode"`
	// Border holds the defaults used for border materialization.
	Border BorderConfig `json:"border" yaml:"border"`
}

// LogConfig selects the level and output format of the module logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error or off.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// ErodeConfig describes a structuring element and its border handling.
type ErodeConfig struct {
	// Shape is rect, cross or ellipse.
	Shape        string `json:"shape" yaml:"shape"`
	KernelWidth  int    `json:"kernel_width" yaml:"kernel_width"`
	KernelHeight int    `json:"kernel_height" yaml:"kernel_height"`
	Border       string `json:"border" yaml:"border"`
	Iterations   int    `json:"iterations" yaml:"iterations"`
}

// BorderConfig describes a border policy and its fill value.
type BorderConfig struct {
	Type  string  `json:"type" yaml:"type"`
	Value float64 `json:"value" yaml:"value"`
}

// Default returns a configuration with production defaults.
//
// Returns:
// - A Config that passes Validate.
func Default() Config {
	return Config{
		Workers:      0,
		QueueDepth:   64,
		RowsPerBatch: 16,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Erode: ErodeConfig{
			Shape:        "rect",
			KernelWidth:  3,
			KernelHeight: 3,
			Border:       "constant",
			Iterations:   1,
		},
		Border: BorderConfig{
			Type: "reflect_101",
		},
	}
}

// Load reads and parses a YAML configuration file.
//
// Arguments:
// - path: Path of the YAML file.
//
// Returns:
// - The parsed and validated Config.
// - error if the file cannot be read or is invalid.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, so omitted keys keep their defaults.
//
// Arguments:
// - data: YAML document.
//
// Returns:
// - The parsed and validated Config.
// - error if decoding or validation fails.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks numeric ranges and enumerated strings. Border names are
// checked by the kernels package when options are built from this config.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return status.Invalidf("workers must be >= 0, got %d", c.Workers)
	}
	if c.QueueDepth <= 0 {
		return status.Invalidf("queue_depth must be > 0, got %d", c.QueueDepth)
	}
	if c.RowsPerBatch <= 0 {
		return status.Invalidf("rows_per_batch must be > 0, got %d", c.RowsPerBatch)
	}
	if c.Erode.KernelWidth <= 0 || c.Erode.KernelHeight <= 0 {
		return status.Invalidf("erode kernel must be positive, got %dx%d", c.Erode.KernelWidth, c.Erode.KernelHeight)
	}
	switch strings.ToLower(c.Erode.Shape) {
	case "", "rect", "cross", "ellipse":
	default:
		return status.Invalidf("erode shape must be rect, cross or ellipse, got %q", c.Erode.Shape)
	}
	if c.Erode.Iterations < 0 {
		return status.Invalidf("erode iterations must be >= 0, got %d", c.Erode.Iterations)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return status.Invalidf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	return out, nil
}

const levelOff = slog.Level(100)

func (l LogConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "off", "none":
		return levelOff, nil
	default:
		return 0, status.Invalidf("unknown log level %q", l.Level)
	}
}

// NewLogger builds a slog logger writing to w.
//
// Arguments:
// - w: Destination of the log records.
//
// Returns:
// - The logger, or nil when the level is off.
// - error if the level or format is unknown.
//
// @example
//
//	l, err := cfg.Log.NewLogger(os.Stderr)
//	if err != nil {
//	    return err
//	}
//	logging.SetLogger(l)
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	if level == levelOff {
		return nil, nil
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, status.Invalidf("unknown log format %q", l.Format)
	}
}
