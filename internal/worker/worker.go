package worker

import (
	"context"
	"sync"
)

type Job interface{}

type ProcessFunc func(ctx context.Context, job Job) error

// WorkerPool runs ProcessFunc over submitted jobs with a fixed number of
// goroutines. Stop closes the queue and waits for queued jobs to finish.
type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewWorkerPool(numWorkers int, bufferSize int, processor ProcessFunc) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processor(ctx, job)
		}
	}
}

// Submit queues a job, giving up when ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobs <- job:
		return nil
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
}

// Run processes every job with a pool sized numWorkers and returns once all
// of them are done or ctx is cancelled.
func Run(ctx context.Context, numWorkers int, jobs []Job, processor ProcessFunc) error {
	pool := NewWorkerPool(numWorkers, len(jobs), processor)
	pool.Start(ctx)

	var err error
	for _, job := range jobs {
		if err = pool.Submit(ctx, job); err != nil {
			break
		}
	}

	pool.Stop()
	return err
}
