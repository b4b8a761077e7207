// Package stream provides the execution queue the kernels enqueue work on.
//
// A Pool is a set of persistent workers shared by any number of streams. A
// Stream is an ordered, asynchronous queue: work enqueued on one stream runs in
// enqueue order, each task spread across the pool; work on different streams
// has no ordering relative to each other. Enqueue returns immediately with an
// Event that completes when the task has run.
//
// Usage:
//
//	pool := stream.NewPool(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	s, err := stream.New(pool)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	ev, err := kernels.Erode(s, src, dst, kernels.DefaultErodeOptions[uint8]())
//	if err != nil {
//	    return err // validation failed, dst untouched
//	}
//	if err := ev.Wait(ctx); err != nil {
//	    return err
//	}
//
// Enqueued work cannot be cancelled. A context passed to Wait or Synchronize
// only bounds how long the caller waits.
package stream
