package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tax-parser/internal/common"
	"github.com/joseph-ayodele/tax-parser/internal/parser"
)

// FormProcessor is the work a queued job runs.
type FormProcessor interface {
	ProcessForm(ctx context.Context, formID uuid.UUID, force bool) (*parser.Aggregate, error)
}

// ProcessorQueue runs jobs on a fixed worker pool. A form with a job still
// waiting in the queue is not queued again unless the new job forces it.
type ProcessorQueue struct {
	proc    FormProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	// pending is guarded by pmu; Enqueue may block while holding mu.
	pmu     sync.Mutex
	pending map[uuid.UUID]int
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc FormProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
		pending: make(map[uuid.UUID]int),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.release(job.FormID)

	ctx := context.Background()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	_, err := q.proc.ProcessForm(ctx, job.FormID, job.Force)
	waited := time.Since(job.SubmittedAt).Milliseconds()
	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "form_id", job.FormID, "trace_id", job.TraceID, "error", err)
		return
	}
	q.logger.Info("processed form successfully", "worker_id", workerID, "form_id", job.FormID, "since_submit_ms", waited)
}

// Enqueue blocks while the queue is full. It returns ctx.Err() if ctx ends first.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "form_id", job.FormID)
		return nil
	}
	if !q.reserve(job.FormID, job.Force) {
		q.logger.Debug("form already queued", "form_id", job.FormID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued form for processing", "form_id", job.FormID, "force", job.Force)
	default:
		q.logger.Warn("queue full, applying backpressure", "form_id", job.FormID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.release(job.FormID)
			return ctx.Err()
		}
	}
	return nil
}

func (q *ProcessorQueue) reserve(id uuid.UUID, force bool) bool {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	if q.pending[id] > 0 && !force {
		return false
	}
	q.pending[id]++
	return true
}

func (q *ProcessorQueue) release(id uuid.UUID) {
	q.pmu.Lock()
	defer q.pmu.Unlock()
	if q.pending[id]--; q.pending[id] <= 0 {
		delete(q.pending, id)
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
