// Package report builds the daily match report from stored matches.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/store"
)

const (
	DefaultDir        = "reports"
	DefaultMinScore   = 60.0
	DefaultMaxMatches = 50
	DefaultTopCount   = 20

	dateLayout = "2006-01-02"
)

var now = time.Now

// Store is what the builder reads from and writes the rendered report to.
type Store interface {
	GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error)
	TopMatches(ctx context.Context, profileID int64, limit int, minScore float64) ([]jobs.JobMatch, error)
	Stats(ctx context.Context) (jobs.Stats, error)
	SaveReport(ctx context.Context, report jobs.DailyReport) (int64, error)
}

type Options struct {
	Dir          string  `mapstructure:"dir"`
	MinScore     float64 `mapstructure:"min_score"`
	MaxMatches   int     `mapstructure:"max_matches"`
	TopCount     int     `mapstructure:"top_count"`
	MinPerSource int     `mapstructure:"min_per_source"`
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	if o.MaxMatches <= 0 {
		o.MaxMatches = DefaultMaxMatches
	}
	if o.TopCount <= 0 {
		o.TopCount = DefaultTopCount
	}
	if o.MinPerSource <= 0 {
		o.MinPerSource = DefaultMinPerSource
	}
	return o
}

// Summary holds the headline numbers of a report.
type Summary struct {
	TotalActiveJobs int     `json:"total_active_jobs"`
	JobsAddedToday  int     `json:"jobs_added_today"`
	TotalMatches    int     `json:"total_matches"`
	StrongMatches   int     `json:"strong_matches"`
	GoodMatches     int     `json:"good_matches"`
	AverageScore    float64 `json:"average_score"`
}

type Report struct {
	ID           int64             `json:"id"`
	Date         string            `json:"date"`
	GeneratedAt  time.Time         `json:"generated_at"`
	ProfileName  string            `json:"profile_name"`
	Summary      Summary           `json:"summary"`
	Breakdown    jobs.MatchSummary `json:"breakdown"`
	Top          []jobs.JobMatch   `json:"top_matches"`
	All          []jobs.JobMatch   `json:"all_matches"`
	HTMLPath     string            `json:"html_path"`
	MarkdownPath string            `json:"md_path"`
	HTML         string            `json:"-"`
	Markdown     string            `json:"-"`
}

type Builder struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

func NewBuilder(st Store, log *zap.Logger, opts Options) *Builder {
	return &Builder{
		store:  st,
		opts:   opts.withDefaults(),
		logger: logger.WithFields(log),
	}
}

// Build collects the profile's top matches, renders both formats into the
// report directory and saves the report.
func (b *Builder) Build(ctx context.Context, profileID int64) (*Report, error) {
	generated := now()
	date := generated.Format(dateLayout)
	b.logger.Info("generating daily report", zap.String("date", date), zap.Int64("profile_id", profileID))

	profileName := "Unknown"
	profile, err := b.store.GetProfile(ctx, profileID)
	switch {
	case err == nil:
		profileName = profile.Name
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load profile: %w", err)
	}

	all, err := b.store.TopMatches(ctx, profileID, b.opts.MaxMatches, b.opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("load top matches: %w", err)
	}

	stats, err := b.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	breakdown := matching.Summarize(all)
	r := &Report{
		Date:        date,
		GeneratedAt: generated,
		ProfileName: profileName,
		Summary: Summary{
			TotalActiveJobs: stats.ActiveJobs,
			JobsAddedToday:  stats.JobsToday,
			TotalMatches:    breakdown.Total,
			StrongMatches:   breakdown.Strong,
			GoodMatches:     breakdown.Good,
			AverageScore:    breakdown.AverageScore,
		},
		Breakdown: breakdown,
		Top:       Diversify(all, b.opts.TopCount, b.opts.MinPerSource),
		All:       all,
	}

	if r.Markdown, err = RenderMarkdown(r); err != nil {
		return nil, err
	}
	if r.HTML, err = RenderHTML(r); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	r.HTMLPath = filepath.Join(b.opts.Dir, fmt.Sprintf("job_report_%s.html", date))
	r.MarkdownPath = filepath.Join(b.opts.Dir, fmt.Sprintf("job_report_%s.md", date))
	if err := os.WriteFile(r.HTMLPath, []byte(r.HTML), 0o644); err != nil {
		return nil, fmt.Errorf("write html report: %w", err)
	}
	if err := os.WriteFile(r.MarkdownPath, []byte(r.Markdown), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}

	r.ID, err = b.store.SaveReport(ctx, jobs.DailyReport{
		ReportDate:        date,
		TotalJobsSearched: stats.ActiveJobs,
		NewJobsFound:      stats.JobsToday,
		MatchesGenerated:  len(all),
		TopMatchesCount:   breakdown.Strong,
		HTML:              r.HTML,
		Markdown:          r.Markdown,
		Path:              r.HTMLPath,
	})
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	b.logger.Info("report generated",
		zap.String("html", r.HTMLPath),
		zap.String("markdown", r.MarkdownPath),
		zap.Int("matches", len(all)),
		zap.Int("top", len(r.Top)),
	)

	return r, nil
}
