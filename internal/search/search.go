// Package search runs the configured scrapers and stores what they find.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	DefaultLocation     = "Oklahoma City, OK"
	DefaultMaxQueries   = 10
	DefaultMaxPerSource = 30

	// AllSources names the aggregate search run.
	AllSources = "all"
)

// DefaultQueries target HSE and operations roles.
var DefaultQueries = []string{
	"HSE Manager",
	"HSE Coordinator",
	"Safety Manager",
	"Safety Coordinator",
	"EHS Manager",
	"Environmental Health Safety",
	"Safety Director",
	"Risk Manager",
	"Compliance Manager",
	"Operations Manager",
	"Operations Supervisor",
	"Project Coordinator",
	"Field Operations Manager",
	"Operations Director",
	"Drilling Consultant",
	"Drilling Supervisor",
	"Well Control Specialist",
	"Oil Gas Safety",
	"Energy Industry HSE",
	"Upstream Operations",
	"Remote HSE",
	"Remote Safety Manager",
	"HSE Analyst",
	"Safety Analyst remote",
}

// Scraper fetches listings from one source.
type Scraper interface {
	Name() string
	Search(ctx context.Context, queries []string, location string) ([]jobs.Listing, error)
}

// Store is the part of the store the searcher writes to.
type Store interface {
	AddJobListing(ctx context.Context, listing jobs.Listing) (int64, bool, error)
	LogSearchRun(ctx context.Context, run jobs.SearchRun) (int64, error)
}

type Options struct {
	Queries      []string `mapstructure:"queries"`
	Location     string   `mapstructure:"location"`
	RemoteOnly   bool     `mapstructure:"remote_only"`
	MaxQueries   int      `mapstructure:"max_queries"`
	MaxPerSource int      `mapstructure:"max_per_source"`
}

// Result summarizes one search across all scrapers.
type Result struct {
	QueryID  string
	Runs     []jobs.SearchRun
	Found    int
	New      int
	Duration time.Duration
}

type Searcher struct {
	store    Store
	scrapers []Scraper
	filters  []filtering.Filter
	logger   *zap.Logger
	opts     Options
}

func NewSearcher(st Store, log *zap.Logger, opts Options, filters []filtering.Filter, scrapers ...Scraper) *Searcher {
	if len(opts.Queries) == 0 {
		opts.Queries = DefaultQueries
	}
	if opts.Location == "" {
		opts.Location = DefaultLocation
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = DefaultMaxQueries
	}
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = DefaultMaxPerSource
	}

	return &Searcher{
		store:    st,
		scrapers: scrapers,
		filters:  filters,
		logger:   logger.WithFields(log),
		opts:     opts,
	}
}

// Search runs every scraper in order. A failing scraper counts as zero results.
func (s *Searcher) Search(ctx context.Context) (*Result, error) {
	started := time.Now()
	result := &Result{QueryID: uuid.NewString()}
	queries := s.queries()

	s.logger.Info("search started",
		zap.String("query_id", result.QueryID),
		zap.Int("queries", len(queries)),
		zap.String("location", s.opts.Location),
		zap.Int("scrapers", len(s.scrapers)),
	)

	var allErrors []string
	for _, scraper := range s.scrapers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		run := s.runScraper(ctx, scraper, queries)
		run.QueryID = result.QueryID

		if _, err := s.store.LogSearchRun(ctx, run); err != nil {
			s.logger.Warn("logging search run failed", zap.String("source", run.Source), zap.Error(err))
		}

		result.Runs = append(result.Runs, run)
		result.Found += run.JobsFound
		result.New += run.NewJobs
		for _, e := range run.Errors {
			allErrors = append(allErrors, fmt.Sprintf("%s: %s", run.Source, e))
		}
	}

	result.Duration = time.Since(started)
	all := jobs.SearchRun{
		Source:    AllSources,
		QueryID:   result.QueryID,
		JobsFound: result.Found,
		NewJobs:   result.New,
		Errors:    allErrors,
		Duration:  result.Duration,
		StartedAt: started.UTC(),
	}
	if _, err := s.store.LogSearchRun(ctx, all); err != nil {
		s.logger.Warn("logging search run failed", zap.String("source", AllSources), zap.Error(err))
	}

	s.logger.Info("search complete",
		zap.String("query_id", result.QueryID),
		zap.Int("found", result.Found),
		zap.Int("new", result.New),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (s *Searcher) runScraper(ctx context.Context, scraper Scraper, queries []string) jobs.SearchRun {
	started := time.Now()
	run := jobs.SearchRun{Source: scraper.Name(), StartedAt: started.UTC()}
	log := logger.WithSource(s.logger, run.Source)

	listings, err := scraper.Search(ctx, queries, s.opts.Location)
	if err != nil {
		log.Error("scraper failed", zap.Error(err))
		run.Errors = append(run.Errors, err.Error())
		run.Duration = time.Since(started)
		return run
	}

	listings, err = filtering.Run(ctx, log, s.filters, listings)
	if err != nil {
		log.Error("filtering failed", zap.Error(err))
		run.Errors = append(run.Errors, err.Error())
		run.Duration = time.Since(started)
		return run
	}

	if len(listings) > s.opts.MaxPerSource {
		listings = listings[:s.opts.MaxPerSource]
	}

	for _, listing := range listings {
		if listing.Source == "" {
			listing.Source = run.Source
		}

		_, created, err := s.store.AddJobListing(ctx, listing)
		if err != nil {
			log.Warn("adding listing failed",
				zap.String("title", listing.Title),
				zap.String("company", listing.CompanyName),
				zap.Error(err),
			)
			run.Errors = append(run.Errors, err.Error())
			continue
		}

		run.JobsFound++
		if created {
			run.NewJobs++
		}
	}

	run.Duration = time.Since(started)
	log.Info("source searched", zap.Int("found", run.JobsFound), zap.Int("new", run.NewJobs))

	return run
}

// queries caps the configured list and adds the remote hint when only remote roles are wanted.
func (s *Searcher) queries() []string {
	queries := s.opts.Queries
	if len(queries) > s.opts.MaxQueries {
		queries = queries[:s.opts.MaxQueries]
	}

	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if s.opts.RemoteOnly && !strings.Contains(strings.ToLower(q), "remote") {
			q += " remote"
		}
		out = append(out, q)
	}
	return out
}
