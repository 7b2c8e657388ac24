// Package orchestrator runs the profile, search, match and report phases in order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/profile"
	"github.com/spigell/job-matcher/internal/report"
	"github.com/spigell/job-matcher/internal/search"
	"github.com/spigell/job-matcher/internal/store"
)

const DefaultMaxJobs = 100

type Phase string

const (
	PhaseProfile Phase = "profile"
	PhaseSearch  Phase = "search"
	PhaseMatch   Phase = "match"
	PhaseReport  Phase = "report"
)

var (
	ErrNoProfile     = errors.New("no profile available")
	ErrNotConfigured = errors.New("component is not configured")
)

// PhaseError records a failed phase. Later phases still run.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

type ProfileBuilder interface {
	Build(ctx context.Context, cfg profile.Config) (int64, error)
}

// ProfileLookup finds an already stored profile. It returns store.ErrNotFound when there is none.
type ProfileLookup interface {
	DefaultProfileID(ctx context.Context) (int64, error)
}

type Searcher interface {
	Search(ctx context.Context) (*search.Result, error)
}

type Matcher interface {
	MatchJobsForProfile(ctx context.Context, profileID int64, limit int) ([]jobs.JobMatch, error)
}

type Reporter interface {
	Build(ctx context.Context, profileID int64) (*report.Report, error)
}

type Notifier interface {
	Send(ctx context.Context, r *report.Report) map[string]string
}

// Deps are the phase implementations. A nil dependency fails its phase unless the phase is skipped.
type Deps struct {
	Profiles ProfileBuilder
	Lookup   ProfileLookup
	Searcher Searcher
	Matcher  Matcher
	Reporter Reporter
	Notifier Notifier
}

type Options struct {
	ProfileID   int64
	Profile     profile.Config
	MaxJobs     int
	SkipProfile bool
	SkipSearch  bool
	SkipMatch   bool
	SkipReport  bool
}

// Result collects what each phase produced.
type Result struct {
	RunID         string
	ProfileID     int64
	Search        *search.Result
	Matches       []jobs.JobMatch
	Summary       jobs.MatchSummary
	Report        *report.Report
	Notifications map[string]string
	Errors        []*PhaseError
	StartedAt     time.Time
	Duration      time.Duration
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *Result) fail(phase Phase, err error) {
	r.Errors = append(r.Errors, &PhaseError{Phase: phase, Err: err})
}

type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

func New(deps Deps, opts Options, log *zap.Logger) *Orchestrator {
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = DefaultMaxJobs
	}
	return &Orchestrator{deps: deps, opts: opts, logger: logger.WithFields(log)}
}

// Run executes the pipeline. Phase failures are collected in the result, never returned.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := logger.WithRun(o.logger, res.RunID, o.opts.ProfileID)
	log.Info("pipeline started")

	o.profilePhase(ctx, log, res)

	if !o.opts.SkipSearch {
		o.searchPhase(ctx, log, res)
	}

	if !o.opts.SkipMatch {
		if res.ProfileID == 0 {
			res.fail(PhaseMatch, ErrNoProfile)
		} else {
			o.matchPhase(ctx, log, res)
		}
	}

	if !o.opts.SkipReport {
		if res.ProfileID == 0 {
			res.fail(PhaseReport, ErrNoProfile)
		} else {
			o.reportPhase(ctx, log, res)
		}
	}

	res.Duration = time.Since(res.StartedAt)

	fields := []zap.Field{
		zap.Duration("duration", res.Duration),
		zap.Int64("profile_id", res.ProfileID),
		zap.Int("matches", len(res.Matches)),
		zap.Int("errors", len(res.Errors)),
	}
	if res.Search != nil {
		fields = append(fields, zap.Int("jobs_found", res.Search.Found), zap.Int("new_jobs", res.Search.New))
	}
	if res.Report != nil {
		fields = append(fields, zap.String("report", res.Report.HTMLPath))
	}
	log.Info("pipeline complete", fields...)
	for _, err := range res.Errors {
		log.Warn("phase failed", zap.String("phase", string(err.Phase)), zap.Error(err.Err))
	}

	return res
}

// profilePhase resolves the profile id. A skipped phase uses the given id or the stored
// profile, and builds only when nothing is stored yet.
func (o *Orchestrator) profilePhase(ctx context.Context, log *zap.Logger, res *Result) {
	if o.opts.SkipProfile {
		if o.opts.ProfileID > 0 {
			res.ProfileID = o.opts.ProfileID
			return
		}
		if o.deps.Lookup != nil {
			id, err := o.deps.Lookup.DefaultProfileID(ctx)
			if err == nil {
				res.ProfileID = id
				log.Info("using stored profile", zap.Int64("profile_id", id))
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				res.fail(PhaseProfile, err)
				return
			}
		}
		log.Warn("no stored profile, building profile")
	}

	if o.deps.Profiles == nil {
		res.fail(PhaseProfile, ErrNotConfigured)
		return
	}

	id, err := o.deps.Profiles.Build(ctx, o.opts.Profile)
	if err != nil {
		res.fail(PhaseProfile, err)
		if id == 0 {
			return
		}
	}
	res.ProfileID = id
	log.Info("profile phase complete", zap.Int64("profile_id", id))
}

func (o *Orchestrator) searchPhase(ctx context.Context, log *zap.Logger, res *Result) {
	if o.deps.Searcher == nil {
		res.fail(PhaseSearch, ErrNotConfigured)
		return
	}

	result, err := o.deps.Searcher.Search(ctx)
	res.Search = result
	if err != nil {
		res.fail(PhaseSearch, err)
		return
	}

	for _, run := range result.Runs {
		log.Info("source result",
			zap.String("source", run.Source),
			zap.Int("found", run.JobsFound),
			zap.Int("new", run.NewJobs),
			zap.Int("errors", len(run.Errors)),
		)
	}
}

func (o *Orchestrator) matchPhase(ctx context.Context, log *zap.Logger, res *Result) {
	if o.deps.Matcher == nil {
		res.fail(PhaseMatch, ErrNotConfigured)
		return
	}

	matches, err := o.deps.Matcher.MatchJobsForProfile(ctx, res.ProfileID, o.opts.MaxJobs)
	res.Matches = matches
	res.Summary = matching.Summarize(matches)
	if err != nil {
		res.fail(PhaseMatch, err)
		return
	}

	log.Info("match phase complete",
		zap.Int("matches", res.Summary.Total),
		zap.Int("strong", res.Summary.Strong),
		zap.Int("good", res.Summary.Good),
		zap.Float64("average_score", res.Summary.AverageScore),
	)
	for _, m := range matches[:min(5, len(matches))] {
		log.Info("top match",
			zap.String("title", m.Job.Title),
			zap.String("company", m.Job.CompanyName),
			zap.Float64("score", m.Result.OverallScore),
		)
	}
}

func (o *Orchestrator) reportPhase(ctx context.Context, log *zap.Logger, res *Result) {
	if o.deps.Reporter == nil {
		res.fail(PhaseReport, ErrNotConfigured)
		return
	}

	r, err := o.deps.Reporter.Build(ctx, res.ProfileID)
	if err != nil {
		res.fail(PhaseReport, err)
		return
	}
	res.Report = r

	if o.deps.Notifier != nil {
		res.Notifications = o.deps.Notifier.Send(ctx, r)
	}

	log.Info("report phase complete",
		zap.String("html", r.HTMLPath),
		zap.String("markdown", r.MarkdownPath),
		zap.Any("notifications", res.Notifications),
	)
}
