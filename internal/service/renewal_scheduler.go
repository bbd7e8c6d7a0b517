package service

import (
	"context"
	"sync"
	"time"

	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRenewalSchedule runs the renewal once an hour
const DefaultRenewalSchedule = "@hourly"

// Renewer is the job run by the scheduler
type Renewer interface {
	RenewDue(ctx context.Context, now time.Time) (*RenewalResult, error)
}

// RenewalScheduler runs the renewal job on a cron schedule
type RenewalScheduler struct {
	renewer  Renewer
	logger   zerolog.Logger
	schedule string
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
	initial sync.WaitGroup
	runMu   sync.Mutex
}

// NewRenewalScheduler creates a new scheduler. An empty schedule falls back to DefaultRenewalSchedule.
func NewRenewalScheduler(renewer Renewer, logger zerolog.Logger, schedule string) *RenewalScheduler {
	if schedule == "" {
		schedule = DefaultRenewalSchedule
	}
	return &RenewalScheduler{
		renewer:  renewer,
		logger:   logger.With().Str("component", "renewal_scheduler").Logger(),
		schedule: schedule,
		now:      time.Now,
	}
}

// Start validates the schedule, runs the job once and then on every tick.
// Calling Start on a running scheduler is a no-op.
func (s *RenewalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger})))
	runCtx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return err
	}

	s.cron = c
	s.cancel = cancel
	s.running = true

	s.logger.Info().Str("schedule", s.schedule).Msg("Starting renewal scheduler")
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.RunOnce(runCtx)
	}()
	c.Start()
	return nil
}

// Stop cancels an in-flight run and waits for running jobs to return
func (s *RenewalScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping renewal scheduler")
	cancel()
	<-c.Stop().Done()
	s.initial.Wait()
	s.logger.Info().Msg("Renewal scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *RenewalScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce renews due subscriptions now. Overlapping calls are serialized.
func (s *RenewalScheduler) RunOnce(ctx context.Context) *RenewalResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	result, err := s.renewer.RenewDue(ctx, s.now())
	if err != nil {
		metrics.RecordRenewalRun(false, 0)
		s.logger.Error().Err(err).Msg("Renewal run failed")
		return result
	}

	metrics.RecordRenewalRun(result.Failed == 0, result.Payments)
	s.logger.Info().
		Int("renewed", result.Renewed).
		Int("payments", result.Payments).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("Completed renewal run")
	return result
}

// cronLogger routes cron's own messages to zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
