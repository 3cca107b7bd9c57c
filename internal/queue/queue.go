// Package queue serializes download jobs: FIFO admission into a bounded
// backlog, at most K jobs running at once, fail-fast Busy when the backlog
// is full.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"terabox-telegram-bot/internal/fault"
)

type State string

const (
	StateQueued      State = "queued"
	StateResolving   State = "resolving"
	StateDownloading State = "downloading"
	StateDelivering  State = "delivering"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Job is one user-requested download, created when a share link arrives and
// discarded once terminal.
type Job struct {
	ID          string
	UserID      int64
	ChatID      int64
	MessageID   int
	ShareURL    string
	RequestedAt time.Time

	mu         sync.Mutex
	state      State
	failReason fault.Reason
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// To advances the job's state. Done and Failed are terminal; later
// transitions are ignored so cleanup paths can't resurrect a job.
func (j *Job) To(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateDone || j.state == StateFailed {
		return
	}
	j.state = s
}

// Fail marks the job terminal with a classified reason.
func (j *Job) Fail(reason fault.Reason) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateDone || j.state == StateFailed {
		return
	}
	j.state = StateFailed
	j.failReason = reason
}

func (j *Job) FailReason() fault.Reason {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failReason
}

// Handler runs one job to a terminal state. It owns all user feedback and
// cleanup; the queue only bounds concurrency.
type Handler func(ctx context.Context, job *Job)

type Queue struct {
	handler Handler
	logger  *slog.Logger

	jobs chan *Job
	sem  *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(concurrency, backlog int, handler Handler, logger *slog.Logger) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		handler: handler,
		logger:  logger,
		jobs:    make(chan *Job, backlog),
		sem:     semaphore.NewWeighted(int64(concurrency)),
	}
}

// Start launches the dispatcher. It returns immediately; jobs run until ctx
// is cancelled or Close is called.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.dispatch(ctx)
}

// Submit enqueues a job or fails fast with Busy when the backlog is full or
// the queue is shut down. It never blocks.
func (q *Queue) Submit(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fault.Errorf(fault.Busy, "queue is shut down")
	}

	job.To(StateQueued)
	select {
	case q.jobs <- job:
		return nil
	default:
		return fault.Errorf(fault.Busy, "backlog full (%d queued)", cap(q.jobs))
	}
}

// Close stops admission and waits for in-flight and queued jobs to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

// dispatch admits jobs strictly in arrival order: the next job starts only
// after a semaphore slot frees up, so at most K downloads run at once.
func (q *Queue) dispatch(ctx context.Context) {
	defer q.wg.Done()

	for {
		var job *Job
		var ok bool
		select {
		case <-ctx.Done():
			q.drain()
			return
		case job, ok = <-q.jobs:
			if !ok {
				return
			}
		}

		if err := q.sem.Acquire(ctx, 1); err != nil {
			job.Fail(fault.Busy)
			q.drain()
			return
		}

		q.wg.Add(1)
		go func(j *Job) {
			defer q.wg.Done()
			defer q.sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					q.logger.Error("panic in job handler", "job_id", j.ID, "recover", r)
					j.Fail(fault.UpstreamError)
				}
			}()
			q.handler(ctx, j)
		}(job)
	}
}

// drain fails whatever is still queued after cancellation so no job is left
// in a non-terminal state.
func (q *Queue) drain() {
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			job.Fail(fault.Busy)
			q.logger.Warn("job dropped on shutdown", "job_id", job.ID)
		default:
			return
		}
	}
}
