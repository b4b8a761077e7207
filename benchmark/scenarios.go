package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/status"
)

// Operation is the kernel a scenario exercises.
type Operation string

const (
	OperationErode          Operation = "erode"
	OperationCopyMakeBorder Operation = "copy_make_border"
)

// Scenario defines a specific test configuration
type Scenario struct {
	Name       string             `json:"name" yaml:"name"`
	Operation  Operation          `json:"operation" yaml:"operation"`
	Resolution Resolution         `json:"resolution" yaml:"resolution"`
	Depth      string             `json:"depth" yaml:"depth"`
	Channels   int                `json:"channels" yaml:"channels"`
	Border     kernels.BorderType `json:"border" yaml:"border"`
	KernelSize int                `json:"kernel_size" yaml:"kernel_size"` // Erode element side.
	Padding    int                `json:"padding" yaml:"padding"`         // CopyMakeBorder padding on every side.
	Iterations int                `json:"iterations" yaml:"iterations"`
	WarmupRuns int                `json:"warmup_runs" yaml:"warmup_runs"`
}

// Descriptor returns the pixel layout of the scenario.
func (s Scenario) Descriptor() (images.Descriptor, error) {
	var d images.Descriptor
	switch strings.ToLower(s.Depth) {
	case "uint8", "8u":
		d.Depth = images.DepthUint8
	case "float32", "32f":
		d.Depth = images.DepthFloat32
	default:
		return d, status.Invalidf("scenario %s: depth %q", s.Name, s.Depth)
	}
	d.Channels = s.Channels
	return d, d.Validate()
}

// Validate checks that the scenario can be run.
func (s Scenario) Validate() error {
	if _, err := s.Descriptor(); err != nil {
		return err
	}
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return status.Invalidf("scenario %s: resolution %dx%d", s.Name, s.Resolution.Width, s.Resolution.Height)
	}
	if !s.Border.Valid() {
		return status.Invalidf("scenario %s: border %d", s.Name, int(s.Border))
	}
	if s.Iterations <= 0 || s.WarmupRuns < 0 {
		return status.Invalidf("scenario %s: %d iterations, %d warmups", s.Name, s.Iterations, s.WarmupRuns)
	}
	switch s.Operation {
	case OperationErode:
		if s.KernelSize <= 0 {
			return status.Invalidf("scenario %s: kernel size %d", s.Name, s.KernelSize)
		}
	case OperationCopyMakeBorder:
		if s.Padding < 0 {
			return status.Invalidf("scenario %s: padding %d", s.Name, s.Padding)
		}
	default:
		return status.Invalidf("scenario %s: operation %q", s.Name, s.Operation)
	}
	return nil
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a scenario builder with an 8UC3 3x3 erosion at
// VGA as the starting point.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	vga, _ := GetResolution(ResolutionTypeVGA)
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Operation:  OperationErode,
			Resolution: vga,
			Depth:      images.DepthUint8.String(),
			Channels:   3,
			Border:     kernels.BorderConstant,
			KernelSize: 3,
			Padding:    1,
			Iterations: 100,
			WarmupRuns: 10,
		},
	}
}

// WithOperation sets the kernel under test
func (sb *ScenarioBuilder) WithOperation(op Operation) *ScenarioBuilder {
	sb.scenario.Operation = op
	return sb
}

// WithResolution sets the image resolution
func (sb *ScenarioBuilder) WithResolution(r Resolution) *ScenarioBuilder {
	sb.scenario.Resolution = r
	return sb
}

// WithLayout sets the pixel depth and channel count
func (sb *ScenarioBuilder) WithLayout(d images.Depth, channels int) *ScenarioBuilder {
	sb.scenario.Depth = d.String()
	sb.scenario.Channels = channels
	return sb
}

// WithBorder sets the border policy
func (sb *ScenarioBuilder) WithBorder(b kernels.BorderType) *ScenarioBuilder {
	sb.scenario.Border = b
	return sb
}

// WithKernelSize sets the side of the square erosion element
func (sb *ScenarioBuilder) WithKernelSize(n int) *ScenarioBuilder {
	sb.scenario.KernelSize = n
	return sb
}

// WithPadding sets the padding added on every side by CopyMakeBorder
func (sb *ScenarioBuilder) WithPadding(n int) *ScenarioBuilder {
	sb.scenario.Padding = n
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

var layouts = []images.Descriptor{
	{Depth: images.DepthUint8, Channels: 1},
	{Depth: images.DepthUint8, Channels: 3},
	{Depth: images.DepthFloat32, Channels: 1},
	{Depth: images.DepthFloat32, Channels: 4},
}

// GetQuickScenarios returns one erosion and one border scenario per layout at
// QVGA.
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	res, _ := GetResolution(ResolutionTypeQVGA)
	scenarios := make([]Scenario, 0, 2*len(layouts))
	for _, d := range layouts {
		for _, op := range []Operation{OperationErode, OperationCopyMakeBorder} {
			scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quick_%s_%s", op, d)).
				WithOperation(op).
				WithResolution(res).
				WithLayout(d.Depth, d.Channels).
				WithBorder(kernels.BorderReflect101).
				WithIterations(10).
				WithWarmupRuns(2).
				Build())
		}
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Both kernels on every layout at QVGA",
		Scenarios:   scenarios,
	}
}

// GetComprehensiveScenarios returns every combination of resolution, layout,
// operation and border policy.
func (ps *PredefinedScenarios) GetComprehensiveScenarios() *ScenarioSet {
	borders := []kernels.BorderType{
		kernels.BorderConstant,
		kernels.BorderReplicate,
		kernels.BorderReflect,
		kernels.BorderWrap,
		kernels.BorderReflect101,
	}
	scenarios := make([]Scenario, 0)
	for _, res := range GetAllResolutions() {
		for _, d := range images.SupportedDescriptors {
			for _, op := range []Operation{OperationErode, OperationCopyMakeBorder} {
				for _, b := range borders {
					scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("%s_%dx%d_%s_%s", op, res.Width, res.Height, d, b)).
						WithOperation(op).
						WithResolution(res).
						WithLayout(d.Depth, d.Channels).
						WithBorder(b).
						Build())
				}
			}
		}
	}

	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all combinations of resolutions, layouts, kernels and border policies",
		Scenarios:   scenarios,
	}
}

// GetKernelSizeScenarios compares erosion element sizes at one resolution.
func (ps *PredefinedScenarios) GetKernelSizeScenarios(res Resolution, d images.Descriptor) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, k := range []int{1, 3, 5, 7, 11, 15} {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("erode_k%d_%dx%d_%s", k, res.Width, res.Height, d)).
			WithOperation(OperationErode).
			WithResolution(res).
			WithLayout(d.Depth, d.Channels).
			WithKernelSize(k).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Kernel Size Comparison @ %s", res.Name),
		Description: fmt.Sprintf("Compares erosion element sizes for %s at %s", d, res),
		Scenarios:   scenarios,
	}
}

// GetResolutionComparisonScenarios runs one operation across every resolution.
func (ps *PredefinedScenarios) GetResolutionComparisonScenarios(op Operation, d images.Descriptor) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, res := range GetAllResolutions() {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("resolution_%s_%dx%d_%s", op, res.Width, res.Height, d)).
			WithOperation(op).
			WithResolution(res).
			WithLayout(d.Depth, d.Channels).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Resolution Comparison - %s", op),
		Description: fmt.Sprintf("Compares input resolutions for %s on %s", op, d),
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet writes a scenario set as YAML when filename ends in .yaml
// or .yml and as JSON otherwise.
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(scenarioSet)
	} else {
		data, err = json.MarshalIndent(scenarioSet, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "write scenario file")
	}
	return nil
}

// LoadScenarioSet reads a scenario set written by SaveScenarioSet.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	var scenarioSet ScenarioSet
	if isYAML(filename) {
		err = yaml.Unmarshal(data, &scenarioSet)
	} else {
		err = json.Unmarshal(data, &scenarioSet)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal scenario set")
	}
	return &scenarioSet, nil
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
