package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-cv/config"
	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/status"
)

func newTestSuite(t *testing.T) *Suite {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	suite := NewSuite(NewSuiteArgs{Config: cfg, OutputPath: t.TempDir()})
	t.Cleanup(func() { require.NoError(t, suite.Close()) })
	return suite
}

func smallScenario(name string, op Operation) Scenario {
	return NewScenarioBuilder(name).
		WithOperation(op).
		WithResolution(Resolution{Name: "tiny", Width: 32, Height: 24}).
		WithLayout(images.DepthUint8, 3).
		WithBorder(kernels.BorderReflect101).
		WithIterations(3).
		WithWarmupRuns(1).
		Build()
}

func TestScenarioBuilder(t *testing.T) {
	hd, ok := GetResolution(ResolutionTypeHD720p)
	require.True(t, ok)

	scenario := NewScenarioBuilder("test_scenario").
		WithOperation(OperationCopyMakeBorder).
		WithResolution(hd).
		WithLayout(images.DepthFloat32, 4).
		WithBorder(kernels.BorderWrap).
		WithKernelSize(5).
		WithPadding(8).
		WithIterations(50).
		WithWarmupRuns(5).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, OperationCopyMakeBorder, scenario.Operation)
	assert.Equal(t, 1280, scenario.Resolution.Width)
	assert.Equal(t, 720, scenario.Resolution.Height)
	assert.Equal(t, "float32", scenario.Depth)
	assert.Equal(t, 4, scenario.Channels)
	assert.Equal(t, kernels.BorderWrap, scenario.Border)
	assert.Equal(t, 5, scenario.KernelSize)
	assert.Equal(t, 8, scenario.Padding)
	assert.Equal(t, 50, scenario.Iterations)
	assert.Equal(t, 5, scenario.WarmupRuns)
	require.NoError(t, scenario.Validate())
}

func TestScenarioValidate(t *testing.T) {
	base := smallScenario("base", OperationErode)
	tests := map[string]func(*Scenario){
		"depth":      func(s *Scenario) { s.Depth = "int16" },
		"channels":   func(s *Scenario) { s.Channels = 2 },
		"resolution": func(s *Scenario) { s.Resolution.Width = 0 },
		"border":     func(s *Scenario) { s.Border = kernels.BorderType(11) },
		"iterations": func(s *Scenario) { s.Iterations = 0 },
		"kernel":     func(s *Scenario) { s.KernelSize = 0 },
		"operation":  func(s *Scenario) { s.Operation = "dilate" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			sc := base
			mutate(&sc)
			err := sc.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrInvalidValue))
		})
	}
}

func TestRunScenario(t *testing.T) {
	suite := newTestSuite(t)
	for _, op := range []Operation{OperationErode, OperationCopyMakeBorder} {
		sc := smallScenario(string(op), op)
		m, err := suite.RunScenario(context.Background(), sc)
		require.NoError(t, err)
		assert.Equal(t, sc, m.Scenario)
		assert.Positive(t, m.TotalDuration)
		assert.Positive(t, m.MegapixelsPerSecond)
		assert.Positive(t, m.FramesPerSecond)
		assert.Len(t, m.Checksum, 32)
		assert.Equal(t, 2, m.CPUStats.NumWorkers)
	}
}

func TestRunScenarioIsDeterministic(t *testing.T) {
	suite := newTestSuite(t)
	sc := smallScenario("erode", OperationErode)
	a, err := suite.RunScenario(context.Background(), sc)
	require.NoError(t, err)
	sc.Iterations = 1
	b, err := suite.RunScenario(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, b.Checksum)

	sc.Depth = "float32"
	f, err := suite.RunScenario(context.Background(), sc)
	require.NoError(t, err)
	assert.NotEqual(t, a.Checksum, f.Checksum)
}

func TestRunAndSaveResults(t *testing.T) {
	suite := newTestSuite(t)
	suite.AddScenario(smallScenario("a", OperationErode))
	suite.AddScenario(smallScenario("b", OperationCopyMakeBorder))
	assert.Len(t, suite.Scenarios(), 2)

	results, err := suite.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Scenario.Name)
	assert.Equal(t, "b", results[1].Scenario.Name)

	jsonFile, csvFile, err := suite.SaveResults()
	require.NoError(t, err)
	assert.FileExists(t, jsonFile)
	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "b,copy_make_border,32x24,uint8,3,reflect_101")
}

func TestRunStopsOnInvalidScenario(t *testing.T) {
	suite := newTestSuite(t)
	suite.AddScenario(smallScenario("ok", OperationErode))
	bad := smallScenario("bad", OperationErode)
	bad.Channels = 5
	suite.AddScenario(bad)

	results, err := suite.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnsupported))
	assert.Len(t, results, 1)
}

func TestRunHonorsContext(t *testing.T) {
	suite := newTestSuite(t)
	suite.AddScenario(smallScenario("a", OperationErode))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := suite.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestPredefinedScenariosAreValid(t *testing.T) {
	ps := &PredefinedScenarios{}
	vga, _ := GetResolution(ResolutionTypeVGA)
	sets := []*ScenarioSet{
		ps.GetQuickScenarios(),
		ps.GetComprehensiveScenarios(),
		ps.GetKernelSizeScenarios(vga, images.Descriptor{Depth: images.DepthUint8, Channels: 1}),
		ps.GetResolutionComparisonScenarios(OperationCopyMakeBorder, images.Descriptor{Depth: images.DepthFloat32, Channels: 3}),
	}
	for _, set := range sets {
		require.NotEmpty(t, set.Scenarios, set.Name)
		for _, sc := range set.Scenarios {
			assert.NoError(t, sc.Validate(), sc.Name)
		}
	}
	assert.Len(t, sets[0].Scenarios, 8)
	assert.Len(t, sets[1].Scenarios, len(GetAllResolutions())*len(images.SupportedDescriptors)*2*5)
}

func TestScenarioSetRoundTrip(t *testing.T) {
	set := (&PredefinedScenarios{}).GetQuickScenarios()
	dir := t.TempDir()
	for _, name := range []string{"set.json", "set.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveScenarioSet(set, path))
		loaded, err := LoadScenarioSet(path)
		require.NoError(t, err)
		assert.Equal(t, set, loaded, name)
	}

	_, err := LoadScenarioSet(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestResolutions(t *testing.T) {
	all := GetAllResolutions()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Width*all[i-1].Height, all[i].Width*all[i].Height)
	}
	fhd, ok := GetResolution(ResolutionTypeFHD1080p)
	require.True(t, ok)
	assert.Equal(t, 2.07, fhd.MegaPixels())
	assert.Equal(t, "Full HD 1080p (1920x1080, 2.07MP)", fhd.String())
	_, ok = GetResolution("8K")
	assert.False(t, ok)
}
