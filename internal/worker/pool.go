// Package worker реализует пул воркеров для фоновой обработки обновлений.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ошибки пула
var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("worker pool is stopped")
)

// Job представляет задачу для обработки
type Job struct {
	UpdateID int
	UserID   int64
	Command  string
	Handler  func(ctx context.Context) error
}

// Metrics снимок метрик пула
type Metrics struct {
	Processed      int64
	Failed         int64
	ProcessingTime time.Duration
	QueueSize      int
}

// Pool пул воркеров для обработки обновлений
type Pool struct {
	workers  int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.Logger

	mu        sync.RWMutex
	started   bool
	stopped   bool
	stopOnce  sync.Once
	metricsMu sync.Mutex
	metrics   Metrics
}

// NewPool создает новый пул воркеров
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Start запускает воркеры; повторный вызов ничего не делает
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	p.logger.Info("Starting worker pool", zap.Int("workers", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop закрывает очередь и ждет, пока воркеры обработают оставшиеся задачи.
// Если ctx истекает раньше, контекст задач отменяется.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobQueue)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	defer p.cancel()
	select {
	case <-done:
		p.logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("Worker pool stopped before draining the queue", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Submit добавляет задачу в очередь без блокировки
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.jobQueue <- job:
		p.metricsMu.Lock()
		p.metrics.QueueSize = len(p.jobQueue)
		p.metricsMu.Unlock()
		return nil
	default:
		return ErrQueueFull
	}
}

// Metrics возвращает текущие метрики
func (p *Pool) Metrics() Metrics {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	m := p.metrics
	m.QueueSize = len(p.jobQueue)
	return m
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))
	for job := range p.jobQueue {
		p.processJob(job, id)
	}
	p.logger.Debug("Worker stopping", zap.Int("worker_id", id))
}

func (p *Pool) processJob(job Job, workerID int) {
	startTime := time.Now()

	err := job.Handler(p.ctx)
	elapsed := time.Since(startTime)

	p.metricsMu.Lock()
	if err != nil {
		p.metrics.Failed++
	} else {
		p.metrics.Processed++
	}
	p.metrics.ProcessingTime += elapsed
	p.metricsMu.Unlock()

	if err != nil {
		p.logger.Error("Job processing failed",
			zap.Int("worker_id", workerID),
			zap.Int("update_id", job.UpdateID),
			zap.String("command", job.Command),
			zap.Int64("user_id", job.UserID),
			zap.Error(err))
		return
	}

	p.logger.Debug("Job processed successfully",
		zap.Int("worker_id", workerID),
		zap.Int("update_id", job.UpdateID),
		zap.Duration("duration", elapsed))
}
