package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// task is a job tagged with its submission number
type task struct {
	seq int
	job Job
}

type outcome struct {
	seq    int
	result Result
}

// Pool runs submitted jobs on a fixed set of goroutines. Wait hands results
// back in submission order regardless of which job finished first.
type Pool struct {
	workers int
	queue   chan task
	done    chan outcome
	wg      sync.WaitGroup
	seq     atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers; jobs
// see the cancellation through the context they are given.
func NewPool(ctx context.Context, workers int) *Pool {
	return newPool(ctx, workers, workers*2)
}

func newPool(ctx context.Context, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		queue:   make(chan task, queueSize),
		done:    make(chan outcome, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			o := outcome{seq: t.seq, result: t.job.Execute(p.ctx)}
			select {
			case p.done <- o:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job and reports whether it was accepted. Nothing is queued
// once the pool is stopped.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	t := task{seq: int(p.seq.Add(1) - 1), job: job}
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- t:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns one entry per
// submitted job, in submission order. Jobs dropped by cancellation before
// they ran leave a nil entry.
func (p *Pool) Wait() []Result {
	close(p.queue)

	go func() {
		p.wg.Wait()
		p.closeDone()
		p.cancel()
	}()

	var outcomes []outcome
	for o := range p.done {
		outcomes = append(outcomes, o)
	}

	results := make([]Result, p.seq.Load())
	for _, o := range outcomes {
		results[o.seq] = o.result
	}
	return results
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeDone()
}

func (p *Pool) closeDone() {
	p.once.Do(func() { close(p.done) })
}

// RunAll executes jobs with the given concurrency. The result slice always
// has len(jobs) entries; entry i belongs to jobs[i] and is nil when that job
// never ran because ctx was cancelled first. The queue holds every job up
// front so submission never waits on collection.
func RunAll(ctx context.Context, concurrency int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	pool := newPool(ctx, concurrency, len(jobs))
	pool.Start()
	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	out := make([]Result, len(jobs))
	copy(out, pool.Wait())
	return out
}
