// Package schedule triggers batch runs on a cron expression.
package schedule

import (
	"context"
	"sync"

	"github.com/antlabs/cronex"

	"github.com/RunFleet/RunFleet/internal/logger"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context)

// Scheduler runs registered jobs on their cron expressions.
type Scheduler struct {
	cron   *cronex.Cronex
	logger *logger.Logger

	mu      sync.Mutex
	entries []cronex.TimerNoder
	started bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler.
func New(log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cronex.New(),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job under a cron expression. Jobs added after Start are
// picked up immediately.
func (s *Scheduler) Add(spec string, job Job) error {
	tm, err := s.cron.AddFunc(spec, func() {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		job(s.ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = append(s.entries, tm)
	s.mu.Unlock()

	s.logger.Infof("scheduled job registered: %s", spec)
	return nil
}

// Start begins dispatching jobs. It does not block.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop cancels the job context and stops all cron entries.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tm := range s.entries {
		tm.Stop()
	}
	s.entries = nil
}

// Context returns the scheduler's job context.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}
