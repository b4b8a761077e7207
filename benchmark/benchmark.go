package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-cv/config"
	"github.com/nvr-ai/go-cv/images"
	"github.com/nvr-ai/go-cv/images/kernels"
	"github.com/nvr-ai/go-cv/logging"
	"github.com/nvr-ai/go-cv/stream"
)

// Suite manages and executes benchmark scenarios on one stream.
type Suite struct {
	outputDir string
	pool      *stream.Pool
	stream    *stream.Stream

	mu        sync.RWMutex
	scenarios []Scenario
	results   []PerformanceMetrics
	corpus    []ImageFile
	corpusFit CorpusFit
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	Config     config.Config `json:"config" yaml:"config"`
	OutputPath string        `json:"outputPath" yaml:"outputPath"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite. Close releases its workers.
func NewSuite(args NewSuiteArgs) *Suite {
	pool, s := stream.NewFromConfig(args.Config)
	return &Suite{
		outputDir: args.OutputPath,
		pool:      pool,
		stream:    s,
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// Close drains the stream and stops the workers.
func (bs *Suite) Close() error {
	err := bs.stream.Close()
	bs.pool.Close()
	return err
}

// Stream returns the stream scenarios run on.
func (bs *Suite) Stream() *stream.Stream {
	return bs.stream
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set.
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, sc := range set.Scenarios {
		bs.AddScenario(sc)
	}
}

// Scenarios returns the queued scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	out := make([]Scenario, len(bs.scenarios))
	copy(out, bs.scenarios)
	return out
}

// RunScenario executes a single benchmark scenario. All timed iterations are
// enqueued back to back and the stream is synchronized once, so the result
// measures sustained throughput rather than per-call latency.
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	d, _ := scenario.Descriptor()

	bs.mu.RLock()
	corpus, fit := bs.corpus, bs.corpusFit
	bs.mu.RUnlock()

	var (
		metrics *PerformanceMetrics
		err     error
	)
	switch d.Depth {
	case images.DepthUint8:
		metrics, err = runScenario[uint8](ctx, bs.stream, scenario, corpus, fit)
	default:
		metrics, err = runScenario[float32](ctx, bs.stream, scenario, corpus, fit)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	metrics.CPUStats.NumWorkers = bs.pool.NumWorkers()
	return metrics, nil
}

// Run executes all configured scenarios in order. It stops at the first
// failure or when ctx is done, returning the results gathered so far.
func (bs *Suite) Run(ctx context.Context) ([]PerformanceMetrics, error) {
	for _, scenario := range bs.Scenarios() {
		if err := ctx.Err(); err != nil {
			return bs.Results(), errors.Wrap(err, "benchmark run")
		}
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			return bs.Results(), err
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		logging.Logger().Info("scenario completed",
			"scenario", scenario.Name,
			"fps", metrics.FramesPerSecond,
			"mpix_per_sec", metrics.MegapixelsPerSecond,
			"checksum", metrics.Checksum)
	}
	return bs.Results(), nil
}

// Results returns all benchmark results
func (bs *Suite) Results() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}

// SaveResults persists benchmark results to the output directory as a JSON
// document and a CSV summary.
//
// Returns:
//   - The paths of the JSON and CSV files.
//   - error if the directory or files cannot be written.
func (bs *Suite) SaveResults() (string, string, error) {
	results := bs.Results()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "save summary CSV")
	}
	return resultsFile, summaryFile, nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Scenario,Operation,Resolution,Depth,Channels,Border,FPS,MPix_per_s,Total_Duration_ms,Alloc_MB,Checksum\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, result := range results {
		sc := result.Scenario
		line := fmt.Sprintf("%s,%s,%dx%d,%s,%d,%s,%.2f,%.2f,%.2f,%.2f,%s\n",
			sc.Name,
			sc.Operation,
			sc.Resolution.Width, sc.Resolution.Height,
			sc.Depth,
			sc.Channels,
			sc.Border,
			result.FramesPerSecond,
			result.MegapixelsPerSecond,
			float64(result.TotalDuration.Nanoseconds())/1e6,
			float64(result.MemoryStats.AllocBytes)/(1024*1024),
			result.Checksum,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// syntheticView fills a view with a deterministic diagonal pattern.
func syntheticView[T images.Pixel](h, w, c int) (*images.View[T], error) {
	v, err := images.NewView[T](h, w, c)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				row[x*c+ch] = T((x*7 + y*13 + ch*29) % 256)
			}
		}
	}
	return v, nil
}

func scenarioSources[T images.Pixel](sc Scenario, corpus []ImageFile, fit CorpusFit) ([]*images.View[T], error) {
	h, w, c := sc.Resolution.Height, sc.Resolution.Width, sc.Channels
	if len(corpus) > 0 {
		return corpusViews[T](corpus, fit, h, w, c)
	}
	v, err := syntheticView[T](h, w, c)
	if err != nil {
		return nil, err
	}
	return []*images.View[T]{v}, nil
}

func runScenario[T images.Pixel](ctx context.Context, s *stream.Stream, sc Scenario, corpus []ImageFile, fit CorpusFit) (*PerformanceMetrics, error) {
	h, w, c := sc.Resolution.Height, sc.Resolution.Width, sc.Channels
	sources, err := scenarioSources[T](sc, corpus, fit)
	if err != nil {
		return nil, err
	}
	next := 0

	var (
		dst *images.View[T]
		run func() (*stream.Event, error)
	)
	switch sc.Operation {
	case OperationErode:
		if dst, err = images.NewView[T](h, w, c); err != nil {
			return nil, err
		}
		opts := kernels.DefaultErodeOptions[T]()
		opts.Element = kernels.Rect{Width: sc.KernelSize, Height: sc.KernelSize}
		opts.Border = sc.Border
		run = func() (*stream.Event, error) {
			src := sources[next%len(sources)]
			next++
			return kernels.Erode(s, src, dst, opts)
		}
	default:
		pad := kernels.UniformPadding(sc.Padding)
		oh, ow := pad.OutputSize(h, w)
		if dst, err = images.NewView[T](oh, ow, c); err != nil {
			return nil, err
		}
		run = func() (*stream.Event, error) {
			src := sources[next%len(sources)]
			next++
			return kernels.CopyMakeBorder(s, src, dst, pad, sc.Border, 0)
		}
	}

	for i := 0; i < sc.WarmupRuns; i++ {
		if _, err := run(); err != nil {
			return nil, err
		}
	}
	if err := s.Synchronize(ctx); err != nil {
		return nil, errors.Wrap(err, "warmup")
	}
	next = 0

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	start := time.Now()
	for i := 0; i < sc.Iterations; i++ {
		if _, err := run(); err != nil {
			return nil, err
		}
	}
	if err := s.Synchronize(ctx); err != nil {
		return nil, err
	}
	total := time.Since(start)

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	seconds := total.Seconds()
	outPixels := float64(dst.Width * dst.Height * sc.Iterations)
	return &PerformanceMetrics{
		Scenario:            sc,
		Timestamp:           start,
		TotalDuration:       total,
		AvgDuration:         total / time.Duration(sc.Iterations),
		FramesPerSecond:     float64(sc.Iterations) / seconds,
		MegapixelsPerSecond: outPixels / 1e6 / seconds,
		Checksum:            images.Checksum(dst),
		MemoryStats: MemoryMetrics{
			AllocBytes:      endMem.Alloc,
			TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
			SysBytes:        endMem.Sys,
			NumGC:           endMem.NumGC - startMem.NumGC,
			HeapAllocBytes:  endMem.HeapAlloc,
			HeapSysBytes:    endMem.HeapSys,
		},
		CPUStats: CPUMetrics{
			NumCPU: runtime.NumCPU(),
		},
	}, nil
}
