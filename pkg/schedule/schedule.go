// Package schedule runs named jobs on fixed intervals. Every tick runs in
// its own goroutine, so a slow tick never delays the next one.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func()
}

// Runner owns the loops for a set of jobs.
type Runner struct {
	mu     sync.Mutex
	jobs   []Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger customlog.Logger
}

// NewRunner creates a stopped runner.
func NewRunner(logger customlog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Start launches one loop per job. With immediate set each job also fires
// once right away.
func (r *Runner) Start(ctx context.Context, jobs []Job, immediate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return fmt.Errorf("schedule already running")
	}
	if err := validate(jobs); err != nil {
		return err
	}
	r.startLocked(ctx, jobs, immediate)
	return nil
}

// Reconfigure cancels every loop, waits for them to exit and starts the
// new jobs. The first new tick comes one full interval later. Ticks already
// fired are not interrupted.
func (r *Runner) Reconfigure(ctx context.Context, jobs []Job) error {
	if err := validate(jobs); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.startLocked(ctx, jobs, false)
	return nil
}

// Stop cancels every loop and waits for them to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Jobs returns the running job set.
func (r *Runner) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Job(nil), r.jobs...)
}

func (r *Runner) startLocked(ctx context.Context, jobs []Job, immediate bool) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.jobs = append([]Job(nil), jobs...)

	for _, job := range jobs {
		r.wg.Add(1)
		go func(job Job) {
			defer r.wg.Done()
			r.loop(runCtx, job, immediate)
		}(job)
		r.logger.Debugf("Scheduled %s every %s", job.Name, job.Interval)
	}
}

func (r *Runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.cancel = nil
	r.jobs = nil
}

func (r *Runner) loop(ctx context.Context, job Job, immediate bool) {
	if immediate {
		go job.Run()
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick racing with cancellation must not fire.
			if ctx.Err() != nil {
				return
			}
			go job.Run()
		}
	}
}

func validate(jobs []Job) error {
	for _, job := range jobs {
		if job.Interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive, got %s", job.Name, job.Interval)
		}
		if job.Run == nil {
			return fmt.Errorf("job %s: no run function", job.Name)
		}
	}
	return nil
}
