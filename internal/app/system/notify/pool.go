// internal/app/system/notify/pool.go

// Package notify delivers in-app notifications off the request path. A small
// worker pool drains a bounded queue; the Notifier builds the per-recipient
// variant documents and hands the insert to the pool.
package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/metrics"
)

// Task is one unit of delivery work.
type Task func(ctx context.Context) error

// Pool runs Tasks on a fixed set of workers. Submitting never blocks: when
// the queue is full the task is dropped and logged, because a stalled
// notification is worth less than a stalled request handler.
type Pool struct {
	log     *zap.Logger
	tasks   chan Task
	wg      sync.WaitGroup
	closing atomic.Bool
}

// NewPool starts size workers over a queue of the given capacity.
func NewPool(size, queueCap int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 2
	}
	if queueCap <= 0 {
		queueCap = 256
	}
	p := &Pool{
		log:   logger,
		tasks: make(chan Task, queueCap),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		metrics.NotificationQueueDepth.Dec()
		if err := task(context.Background()); err != nil {
			p.log.Error("notification task failed", zap.Error(err))
		}
	}
}

// Submit enqueues a task. Dropped during shutdown or when the queue is full.
func (p *Pool) Submit(t Task) {
	if p.closing.Load() {
		p.log.Warn("notification submitted during shutdown, dropping")
		return
	}
	select {
	case p.tasks <- t:
		metrics.NotificationQueueDepth.Inc()
	default:
		p.log.Warn("notification queue full, dropping")
	}
}

// Shutdown stops accepting tasks and waits for the workers to drain the
// queue.
func (p *Pool) Shutdown() {
	p.closing.Store(true)
	close(p.tasks)
	p.wg.Wait()
}
