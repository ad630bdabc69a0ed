// internal/app/system/tasks/tasks.go

// Package tasks runs the app's recurring background jobs. Jobs either fire
// on a fixed interval or at wall-clock times computed by an At function;
// each run gets its own timeout context and is recorded in metrics.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/metrics"
)

// DefaultRunTimeout bounds a single job run when the job sets no Timeout.
const DefaultRunTimeout = 30 * time.Second

// Job is one recurring unit of background work.
type Job struct {
	// Name identifies the job in logs and metrics.
	Name string

	// Interval schedules the job on a fixed period. Ignored when At is set.
	Interval time.Duration

	// At computes the next wall-clock run time strictly after now. When
	// set, it takes precedence over Interval.
	At func(now time.Time) time.Time

	// Timeout bounds a single run. Zero means DefaultRunTimeout.
	Timeout time.Duration

	// RunOnStart fires the job once immediately when the runner starts,
	// before the regular schedule begins. Useful for catch-up work after
	// a restart.
	RunOnStart bool

	// Run does the work. A non-nil error counts the run as failed; the
	// schedule continues either way.
	Run func(ctx context.Context) error
}

// Runner drives a set of jobs, one goroutine each.
type Runner struct {
	log    *zap.Logger
	jobs   []Job
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a runner with no jobs registered.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Add registers jobs. Must be called before Start.
func (r *Runner) Add(jobs ...Job) {
	r.jobs = append(r.jobs, jobs...)
}

// Start launches one goroutine per job.
func (r *Runner) Start() {
	started := 0
	for _, job := range r.jobs {
		if job.At == nil && job.Interval <= 0 {
			r.log.Warn("job has no schedule, skipping", zap.String("job", job.Name))
			continue
		}
		r.wg.Add(1)
		go r.runJob(job)
		started++
	}
	r.log.Info("task runner started", zap.Int("jobs", started))
}

// Stop signals all job loops to stop and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("task runner stopped")
}

func (r *Runner) runJob(job Job) {
	defer r.wg.Done()

	if job.RunOnStart {
		r.execute(job)
	}

	if job.At != nil {
		for {
			wait := time.Until(job.At(time.Now().UTC()))
			if wait <= 0 {
				// At must return a future time; back off rather than spin.
				wait = time.Second
			}
			timer := time.NewTimer(wait)
			select {
			case <-r.stopCh:
				timer.Stop()
				return
			case <-timer.C:
				r.execute(job)
			}
		}
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.execute(job)
		}
	}
}

func (r *Runner) execute(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, "error").Inc()
		r.log.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	metrics.JobRuns.WithLabelValues(job.Name, "ok").Inc()
	r.log.Debug("job completed",
		zap.String("job", job.Name),
		zap.Duration("elapsed", elapsed))
}
