// FilePath: server/hub/internal/scheduler/scheduler.go

// Package scheduler runs the hub's timer-driven background jobs. Each job
// ticks on its own interval; a run that outlives its interval blocks the
// next tick rather than overlapping itself.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// JobFunc is one background job run. The context is canceled on Stop.
type JobFunc func(ctx context.Context) error

type job struct {
	name       string
	interval   time.Duration
	runOnStart bool
	fn         JobFunc
}

// Scheduler owns a set of named periodic jobs.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []*job
	byName  map[string]*job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func New() *Scheduler {
	return &Scheduler{byName: map[string]*job{}}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, runOnStart bool, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &job{name: name, interval: interval, runOnStart: runOnStart, fn: fn}
	s.jobs = append(s.jobs, j)
	s.byName[name] = j
}

// Start launches one ticker goroutine per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, j)
	}
	nuts.L.Infof("[Scheduler] Started %d jobs", len(s.jobs))
}

func (s *Scheduler) runLoop(ctx context.Context, j *job) {
	defer s.wg.Done()

	nuts.L.Infof("[Scheduler] Job %s running every %s", j.name, j.interval)
	if j.runOnStart {
		s.runOnce(ctx, j)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Scheduler] Job %s stopped", j.name)
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j *job) {
	started := time.Now()
	if err := j.fn(ctx); err != nil {
		nuts.L.Errorf("[Scheduler] Job %s failed after %s: %v", j.name, time.Since(started), err)
		return
	}
	elapsed := time.Since(started)
	if elapsed > j.interval {
		nuts.L.Warnf("[Scheduler] Job %s took %s, longer than its %s interval", j.name, elapsed, j.interval)
	}
}

// Trigger runs a job once, outside its schedule. Manual hook for
// operational testing.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	nuts.L.Infof("[Scheduler] Manual trigger of job %s", name)
	return j.fn(ctx)
}

// Stop cancels all job loops and waits for them to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
