package audit

import (
	"sync/atomic"
)

// dispatchGauge tracks in-flight check executions on the worker pool.
//
// The pool itself bounds concurrency with a buffered-channel semaphore;
// the gauge exists so the bound is observable: metrics export the current
// value and tests assert on the high-water mark.
//
// It is lock-free using atomic operations.
type dispatchGauge struct {
	current int64 // checks executing right now
	peak    int64 // high-water mark since creation
}

// enter records the start of one check execution and returns the new
// in-flight count.
func (g *dispatchGauge) enter() int64 {
	current := atomic.AddInt64(&g.current, 1)

	// Advance the high-water mark. Another goroutine may race us to a
	// higher value, so loop until ours is no longer an improvement.
	for {
		peak := atomic.LoadInt64(&g.peak)
		if current <= peak {
			break
		}
		if atomic.CompareAndSwapInt64(&g.peak, peak, current) {
			break
		}
	}

	return current
}

// exit records the end of one check execution.
func (g *dispatchGauge) exit() {
	atomic.AddInt64(&g.current, -1)
}

// Current returns the number of checks executing right now.
func (g *dispatchGauge) Current() int64 {
	return atomic.LoadInt64(&g.current)
}

// Peak returns the highest concurrent execution count observed.
func (g *dispatchGauge) Peak() int64 {
	return atomic.LoadInt64(&g.peak)
}
