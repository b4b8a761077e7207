package stream

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation and
// reused by every stream that shares the pool.
type Pool struct {
	numWorkers int
	workC      chan workItem

	// mu is held for reading while a loop sends its chunks, so Close never
	// closes workC under a sender.
	mu     sync.RWMutex
	closed bool
}

// workItem is one chunk of a parallel loop.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
	fault   *faultBox
}

// faultBox carries the first panic raised by any chunk of one parallel loop
// back to the goroutine that issued the loop.
type faultBox struct {
	once  sync.Once
	value any
	set   atomic.Bool
}

func (f *faultBox) capture(r any) {
	f.once.Do(func() {
		f.value = r
		f.set.Store(true)
	})
}

func (f *faultBox) rethrow() {
	if f.set.Load() {
		panic(fmt.Sprintf("worker: %v", f.value))
	}
}

// NewPool creates a pool with the specified number of workers. If
// numWorkers <= 0, GOMAXPROCS workers are started.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		p.execute(item)
	}
}

func (p *Pool) execute(item workItem) {
	defer item.barrier.Done()
	defer func() {
		if r := recover(); r != nil {
			item.fault.capture(r)
		}
	}()
	item.fn()
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool. Loops issued afterwards run sequentially on the
// calling goroutine; loops already dispatched finish on the workers. Close may
// race with loops, and calling it multiple times is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.workC)
}

// submit queues items on the workers. It reports false, queuing nothing, once
// the pool is closed.
func (p *Pool) submit(items []workItem) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	for _, item := range items {
		p.workC <- item
	}
	return true
}

// ParallelFor executes fn over [0, n) split into one contiguous range per
// worker and blocks until every range is done. A panic in any range is
// re-raised on the caller.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers
	var wg sync.WaitGroup
	fault := &faultBox{}
	items := make([]workItem, 0, workers)
	for i := range workers {
		start := i * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)
		items = append(items, workItem{
			fn:      func() { fn(start, end) },
			barrier: &wg,
			fault:   fault,
		})
	}
	wg.Add(len(items))
	if !p.submit(items) {
		fn(0, n)
		return
	}
	wg.Wait()
	fault.rethrow()
}

// ParallelForBatched executes fn over [0, n) in batches of batchSize claimed
// by atomic work stealing, which balances uneven rows (the border band of a
// filter costs more than the interior). Blocks until done.
func (p *Pool) ParallelForBatched(n, batchSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	numBatches := (n + batchSize - 1) / batchSize
	workers := min(p.numWorkers, numBatches)
	if workers == 1 {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	fault := &faultBox{}
	claim := func() {
		for {
			start := int(next.Add(int64(batchSize))) - batchSize
			if start >= n {
				return
			}
			fn(start, min(start+batchSize, n))
		}
	}
	items := make([]workItem, workers)
	for i := range items {
		items[i] = workItem{fn: claim, barrier: &wg, fault: fault}
	}
	wg.Add(workers)
	if !p.submit(items) {
		fn(0, n)
		return
	}
	wg.Wait()
	fault.rethrow()
}
