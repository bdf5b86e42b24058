package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core"
	"github.com/joseph-ayodele/inventory-scanner/internal/ingest"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Pipeline runs one extraction; *core.Processor satisfies it.
type Pipeline interface {
	Process(ctx context.Context, req core.Request) (*core.Result, error)
}

// ResultHandler is called by a worker after every job, successful or not.
type ResultHandler func(job Job, res *core.Result, err error)

type ProcessorQueue struct {
	proc     Pipeline
	prep     ingest.Preprocessor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult ResultHandler

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool

	status sync.Map // uuid.UUID -> constants.JobStatus
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
func WithResultHandler(h ResultHandler) Option {
	return func(q *ProcessorQueue) { q.onResult = h }
}

func NewProcessorQueue(proc Pipeline, prep ingest.Preprocessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		prep:    prep,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
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
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.status.Store(job.ID, constants.JobStatusRunning)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithBatchID(ctx, job.TraceID)
	}

	var res *core.Result
	doc, err := q.prep.Preprocess(ctx, job.Path)
	if err == nil {
		res, err = q.proc.Process(ctx, core.Request{Document: doc, DocType: job.DocType, AllowRemote: job.AllowRemote})
	}

	if err != nil {
		q.status.Store(job.ID, constants.JobStatusFailed)
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "error", err)
	} else {
		q.status.Store(job.ID, constants.JobStatusDone)
		q.logger.Info("queue.job.done",
			"worker_id", workerID,
			"job_id", job.ID,
			"path", job.Path,
			"source", res.Source,
			"from_cache", res.FromCache,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	}
	if q.onResult != nil {
		q.onResult(job, res, err)
	}
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.rejected", "job_id", job.ID, "path", job.Path)
		return ErrQueueClosed
	}
	if job.ID == uuid.Nil {
		return common.NewAppError("INVALID_INPUT", "job id is required", common.ErrInvalidInput)
	}
	q.status.Store(job.ID, constants.JobStatusQueued)
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "job_id", job.ID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "job_id", job.ID, "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.status.Delete(job.ID)
		return ctx.Err()
	}
}

// Status reports the last known status of a job.
func (q *ProcessorQueue) Status(id uuid.UUID) (constants.JobStatus, bool) {
	v, ok := q.status.Load(id)
	if !ok {
		return "", false
	}
	return v.(constants.JobStatus), true
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
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
