// Package parallel provides the fork/join worker pool used to split pixel
// processing of a single texture into row bands.
//
// Every call into the pool is synchronous from the caller's point of view:
// ForEachBand returns only after every band has been processed, so the
// frame-synchronous model of the engine is preserved.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines executing work items.
//
// Each worker owns a queue. A worker whose queue is empty steals from the
// others before blocking, which keeps bands of uneven cost balanced.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			run(work)
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				run(work)
			}
		}
	}
}

func run(work func()) {
	if work != nil {
		work()
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			run(work)
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work round-robin and waits for all items.
// If the pool is closed, the work is executed on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			run(fn)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))

	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			run(fn)
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}

	wg.Wait()
}

// ForEachBand splits the half-open range [0, n) into at most Workers()
// contiguous bands of at least minBand items and calls fn once per band.
// It returns after every call has completed. Small ranges run inline.
func (p *WorkerPool) ForEachBand(n, minBand int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := Bands(n, p.Workers(), minBand)
	if len(bands) == 1 {
		fn(0, n)
		return
	}

	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b[0], b[1]) }
	}
	p.ExecuteAll(work)
}

// Bands splits [0, n) into at most parts contiguous ranges, each holding at
// least minBand items (except when n itself is smaller).
func Bands(n, parts, minBand int) [][2]int {
	if n <= 0 {
		return nil
	}
	minBand = max(minBand, 1)
	parts = max(min(parts, n/minBand), 1)

	out := make([][2]int, 0, parts)
	size, rem := n/parts, n%parts
	lo := 0
	for i := range parts {
		hi := lo + size
		if i < rem {
			hi++
		}
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}

// Close stops accepting work, finishes queued items and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool. A nil pool reports 1.
func (p *WorkerPool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
