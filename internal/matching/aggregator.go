package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	DefaultBatchSize = 5
	DefaultMinScore  = 40.0
)

// MatchStore is the part of the store the aggregator writes through.
type MatchStore interface {
	GetProfile(ctx context.Context, profileID int64) (*jobs.Profile, error)
	UnmatchedJobs(ctx context.Context, profileID int64, limit int) ([]jobs.Listing, error)
	AddJobMatch(ctx context.Context, profileID, jobID int64, result jobs.MatchResult) (int64, error)
}

// MatchObserver is told about every persisted match.
type MatchObserver interface {
	MatchStored(ctx context.Context, match jobs.JobMatch) error
}

// AggregatorOptions tune batching and the persistence threshold.
type AggregatorOptions struct {
	BatchSize int
	MinScore  float64
	Observer  MatchObserver
}

// Aggregator scores unmatched listings in bounded batches and keeps the
// results at or above the minimum score.
type Aggregator struct {
	store    MatchStore
	scorer   Scorer
	logger   *zap.Logger
	batch    int
	minScore float64
	observer MatchObserver
}

func NewAggregator(store MatchStore, scorer Scorer, log *zap.Logger, opts AggregatorOptions) *Aggregator {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Aggregator{
		store:    store,
		scorer:   scorer,
		logger:   logger.WithFields(log),
		batch:    batch,
		minScore: opts.MinScore,
		observer: opts.Observer,
	}
}

type scored struct {
	result *jobs.MatchResult
	err    error
}

// MatchJobsForProfile scores up to limit unmatched listings and returns the
// kept matches ordered by score, ties in processing order.
func (a *Aggregator) MatchJobsForProfile(ctx context.Context, profileID int64, limit int) ([]jobs.JobMatch, error) {
	profile, err := a.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	listings, err := a.store.UnmatchedJobs(ctx, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("load unmatched jobs: %w", err)
	}

	a.logger.Info("matching jobs",
		zap.Int64("profile_id", profileID),
		zap.Int("unmatched", len(listings)),
		zap.Int("batch_size", a.batch),
	)

	kept := make([]jobs.JobMatch, 0)
	for start := 0; start < len(listings); start += a.batch {
		if err := ctx.Err(); err != nil {
			return sortMatches(kept), err
		}

		end := min(start+a.batch, len(listings))
		batch := listings[start:end]
		results := a.scoreBatch(ctx, profile, batch)

		for i, res := range results {
			listing := batch[i]
			if res.err != nil {
				a.logger.Warn("scoring failed",
					zap.Int64("job_id", listing.ID),
					zap.String("title", listing.Title),
					zap.Error(res.err),
				)
				continue
			}

			match, ok := a.keep(ctx, profileID, listing, res.result)
			if ok {
				kept = append(kept, match)
			}
		}
	}

	kept = sortMatches(kept)
	a.logger.Info("matching complete",
		zap.Int64("profile_id", profileID),
		zap.Int("processed", len(listings)),
		zap.Int("kept", len(kept)),
		zap.Float64("min_score", a.minScore),
	)

	return kept, nil
}

// scoreBatch runs the scorer concurrently and pairs results with their input position.
func (a *Aggregator) scoreBatch(ctx context.Context, profile *jobs.Profile, batch []jobs.Listing) []scored {
	results := make([]scored, len(batch))

	var g errgroup.Group
	for i := range batch {
		g.Go(func() error {
			res, err := a.scorer.Score(ctx, profile, &batch[i])
			if err == nil && res == nil {
				err = fmt.Errorf("scorer returned no result")
			}
			results[i] = scored{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *Aggregator) keep(ctx context.Context, profileID int64, listing jobs.Listing, result *jobs.MatchResult) (jobs.JobMatch, bool) {
	if result.OverallScore < a.minScore {
		a.logger.Debug("match below minimum score",
			zap.Int64("job_id", listing.ID),
			zap.Float64("score", result.OverallScore),
		)
		return jobs.JobMatch{}, false
	}

	if !result.Consistent() {
		result.Recommendation = jobs.RecommendationFor(result.OverallScore)
	}

	id, err := a.store.AddJobMatch(ctx, profileID, listing.ID, *result)
	if err != nil {
		a.logger.Error("persisting match failed",
			zap.Int64("job_id", listing.ID),
			zap.Error(err),
		)
		return jobs.JobMatch{}, false
	}

	match := jobs.JobMatch{
		ID:        id,
		ProfileID: profileID,
		Job:       listing,
		Result:    *result,
		ScoredAt:  time.Now().UTC(),
	}

	if a.observer != nil {
		if err := a.observer.MatchStored(ctx, match); err != nil {
			a.logger.Warn("match observer failed", zap.Int64("match_id", id), zap.Error(err))
		}
	}

	return match, true
}

func sortMatches(matches []jobs.JobMatch) []jobs.JobMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.OverallScore > matches[j].Result.OverallScore
	})
	return matches
}
