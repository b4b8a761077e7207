// Package profiler records per-operation timings and custom metrics for kernel
// streams.
package profiler

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Options configures a Profiler.
type Options struct {
	// MaxSamples is the number of samples kept per operation or metric (default: 600).
	MaxSamples int
}

// Profiler tracks operation timings and custom metrics. It is safe for
// concurrent use.
type Profiler struct {
	mu         sync.RWMutex
	startTime  time.Time
	maxSamples int
	metrics    map[string]*metricTracker
	operations map[string]*timeTracker
}

// metricTracker keeps a bounded window of values of one metric.
type metricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// timeTracker keeps a bounded window of durations of one operation.
type timeTracker struct {
	durations []time.Duration
	total     time.Duration
	min       time.Duration
	max       time.Duration
	count     int64
}

// OperationStats summarizes the timings of one operation.
type OperationStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// MetricStats summarizes the values of one metric.
type MetricStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
}

// Snapshot is a point-in-time copy of everything the profiler tracks.
type Snapshot struct {
	Uptime     time.Duration    `json:"uptime"`
	Goroutines int              `json:"goroutines"`
	HeapAlloc  uint64           `json:"heap_alloc"`
	Operations []OperationStats `json:"operations"`
	Metrics    []MetricStats    `json:"metrics"`
}

// New creates a profiler.
//
// Arguments:
// - opts: Configuration options for the profiler.
//
// Returns:
// - A ready Profiler.
func New(opts Options) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	return &Profiler{
		startTime:  time.Now(),
		maxSamples: opts.MaxSamples,
		metrics:    make(map[string]*metricTracker),
		operations: make(map[string]*timeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track.
//
// Returns:
// - A function to call when the operation completes.
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.RecordOperation(name, time.Since(start))
	}
}

// RecordOperation records the duration of one completed operation.
func (p *Profiler) RecordOperation(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tr, ok := p.operations[name]
	if !ok {
		tr = &timeTracker{min: d, max: d}
		p.operations[name] = tr
	}

	tr.durations = append(tr.durations, d)
	tr.total += d
	if len(tr.durations) > p.maxSamples {
		tr.total -= tr.durations[0]
		tr.durations = tr.durations[1:]
	}
	tr.count++
	tr.min = min(tr.min, d)
	tr.max = max(tr.max, d)
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric.
// - value: The metric value to record.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tr, ok := p.metrics[name]
	if !ok {
		tr = &metricTracker{min: value, max: value}
		p.metrics[name] = tr
	}

	tr.values = append(tr.values, value)
	tr.sum += value
	if len(tr.values) > p.maxSamples {
		tr.sum -= tr.values[0]
		tr.values = tr.values[1:]
	}
	tr.count++
	tr.min = min(tr.min, value)
	tr.max = max(tr.max, value)
}

// Operation returns the statistics of one operation.
func (p *Profiler) Operation(name string) (OperationStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tr, ok := p.operations[name]
	if !ok {
		return OperationStats{}, false
	}
	return tr.stats(name), true
}

// Metric returns the statistics of one metric.
func (p *Profiler) Metric(name string) (MetricStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tr, ok := p.metrics[name]
	if !ok {
		return MetricStats{}, false
	}
	return tr.stats(name), true
}

// Snapshot returns the current statistics sorted by name.
func (p *Profiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
	}
	for name, tr := range p.operations {
		s.Operations = append(s.Operations, tr.stats(name))
	}
	for name, tr := range p.metrics {
		s.Metrics = append(s.Metrics, tr.stats(name))
	}
	sort.Slice(s.Operations, func(i, j int) bool { return s.Operations[i].Name < s.Operations[j].Name })
	sort.Slice(s.Metrics, func(i, j int) bool { return s.Metrics[i].Name < s.Metrics[j].Name })
	return s
}

// Report logs the current snapshot at info level, one record per operation and
// metric.
func (p *Profiler) Report(l *slog.Logger) {
	s := p.Snapshot()
	l.Info("profiler report",
		"uptime", s.Uptime.Truncate(time.Millisecond),
		"goroutines", s.Goroutines,
		"heap_alloc", s.HeapAlloc)
	for _, op := range s.Operations {
		l.Info("operation timing",
			"name", op.Name,
			"count", op.Count,
			"avg", op.Avg.Truncate(time.Microsecond),
			"min", op.Min.Truncate(time.Microsecond),
			"max", op.Max.Truncate(time.Microsecond))
	}
	for _, m := range s.Metrics {
		l.Info("metric",
			"name", m.Name,
			"avg", m.Avg,
			"min", m.Min,
			"max", m.Max,
			"samples", m.Samples)
	}
}

func (tr *timeTracker) stats(name string) OperationStats {
	s := OperationStats{Name: name, Count: tr.count, Min: tr.min, Max: tr.max}
	if n := len(tr.durations); n > 0 {
		s.Avg = tr.total / time.Duration(n)
	}
	return s
}

func (tr *metricTracker) stats(name string) MetricStats {
	s := MetricStats{Name: name, Count: tr.count, Min: tr.min, Max: tr.max, Samples: len(tr.values)}
	if n := len(tr.values); n > 0 {
		s.Avg = tr.sum / float64(n)
	}
	return s
}
