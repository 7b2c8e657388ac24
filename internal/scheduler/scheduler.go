// Package scheduler runs the pipeline on a cron schedule with retries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	// DefaultSpec fires at 05:00 on weekdays.
	DefaultSpec          = "0 5 * * 1-5"
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 300 * time.Second
)

var wait = utils.WaitFor

// Job is one scheduled unit of work. A returned error triggers a retry.
type Job func(ctx context.Context) error

type Options struct {
	Spec          string        `mapstructure:"cron"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
}

type Scheduler struct {
	cron   *cron.Cron
	job    Job
	opts   Options
	logger *zap.Logger
}

// New validates the cron spec. Overlapping runs are skipped.
func New(job Job, log *zap.Logger, opts Options) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduled job is required")
	}
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	if _, err := cron.ParseStandard(opts.Spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", opts.Spec, err)
	}

	log = logger.WithFields(log)
	cl := cronLogger{log: log.Sugar()}

	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		job:    job,
		opts:   opts,
		logger: log,
	}, nil
}

// Start registers the job and starts the cron loop. ctx is passed to every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.opts.Spec, func() {
		_ = s.RunWithRetry(ctx)
	}); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.opts.Spec))

	if s.opts.RunOnStart {
		go func() { _ = s.RunWithRetry(ctx) }()
	}

	return nil
}

// Stop stops scheduling and returns a context that is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")
	return s.cron.Stop()
}

// Next returns the next activation time, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunWithRetry runs the job up to RetryAttempts times, waiting RetryDelay between attempts.
func (s *Scheduler) RunWithRetry(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		s.logger.Info("scheduled run", zap.Int("attempt", attempt), zap.Int("max_attempts", s.opts.RetryAttempts))

		if err = s.job(ctx); err == nil {
			s.logger.Info("scheduled run succeeded", zap.Int("attempt", attempt))
			return nil
		}

		s.logger.Warn("scheduled run failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == s.opts.RetryAttempts {
			break
		}
		if werr := wait(ctx, s.opts.RetryDelay); werr != nil {
			return werr
		}
	}

	s.logger.Error("scheduled run gave up", zap.Int("attempts", s.opts.RetryAttempts), zap.Error(err))
	return err
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
