package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"DemandCast/pkg/logger"
)

// MemoryQueue is a channel-backed in-process queue. Training runs are long
// and serialized, so a single worker with a small buffer is the usual setup.
type MemoryQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	jobs      map[string]Job
	ch        chan Message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	seq       int64
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(l *logger.Logger, cfg *QueueConfig) *MemoryQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	return &MemoryQueue{
		logger: l,
		config: cfg,
		jobs:   make(map[string]Job),
		ch:     make(chan Message, cfg.QueueSize),
	}
}

// Register adds a job handler for its message type.
func (q *MemoryQueue) Register(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.jobs[job.Type()]; ok {
		return fmt.Errorf("job already registered for type %q", job.Type())
	}
	q.jobs[job.Type()] = job
	return nil
}

// Start launches the worker goroutines.
func (q *MemoryQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isRunning {
		return fmt.Errorf("queue already running")
	}

	q.ctx, q.cancel = context.WithCancel(ctx)
	q.isRunning = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return nil
}

// Stop cancels workers and waits for in-flight jobs.
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return
	}
	q.isRunning = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
}

// PublishMessage enqueues a message. It never blocks: a full queue returns
// an error so callers can surface back-pressure instead of hanging.
func (q *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	running := q.isRunning
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("queue is not running")
	}

	q.mu.Lock()
	q.seq++
	id := strconv.FormatInt(q.seq, 10)
	q.mu.Unlock()

	msg := Message{
		ID:        id,
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue is full")
	}
}

func (q *MemoryQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.ch:
			q.process(msg)
		}
	}
}

func (q *MemoryQueue) process(msg Message) {
	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()

	if !ok {
		q.logger.Warn("no job registered for message type",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID),
		)
		return
	}

	var err error
	for attempt := 0; attempt <= q.config.RetryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-q.ctx.Done():
				return
			case <-time.After(q.config.RetryDelay):
			}
		}

		err = job.Handle(q.ctx, msg.Payload)
		if err == nil {
			return
		}

		q.logger.Warn("job attempt failed",
			logger.String("job", job.Name()),
			logger.String("id", msg.ID),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	q.logger.Error("job exhausted retries",
		logger.String("job", job.Name()),
		logger.String("id", msg.ID),
		logger.Error(err),
	)
}
