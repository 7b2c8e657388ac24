package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

// LowAlignmentReasoning explains results cut off by the quick score gate.
const LowAlignmentReasoning = "Very low skill alignment based on keyword matching"

// Scorer produces a full match result for a listing. Implementations must be
// safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error)

func (f ScorerFunc) Score(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error) {
	return f(ctx, profile, listing)
}

// Fallback tries the primary scorer and uses the secondary one on any error.
type Fallback struct {
	primary   Scorer
	secondary Scorer
	logger    *zap.Logger
}

// NewFallback composes two scorers. A nil primary always goes to the secondary.
func NewFallback(primary, secondary Scorer, log *zap.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger.WithFields(log),
	}
}

func (f *Fallback) Score(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error) {
	if f.primary != nil {
		result, err := f.primary.Score(ctx, profile, listing)
		if err == nil && result != nil {
			return result, nil
		}
		if err == nil {
			err = fmt.Errorf("empty result")
		}
		f.logger.Warn("primary scorer failed, using fallback",
			zap.Int64("job_id", listing.ID),
			zap.Error(err),
		)
	}

	if f.secondary == nil {
		return nil, fmt.Errorf("no fallback scorer configured")
	}
	return f.secondary.Score(ctx, profile, listing)
}

// Gate short-circuits listings with a quick score below the floor to a
// poor match without calling the wrapped scorer.
type Gate struct {
	next       Scorer
	floor      float64
	homeRegion string
	logger     *zap.Logger
}

func NewGate(next Scorer, floor float64, homeRegion string, log *zap.Logger) *Gate {
	return &Gate{
		next:       next,
		floor:      floor,
		homeRegion: homeRegion,
		logger:     logger.WithFields(log),
	}
}

func (g *Gate) Score(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error) {
	quick := QuickScore(profile, listing, g.homeRegion)
	if quick < g.floor {
		g.logger.Debug("listing below quick score floor",
			zap.Int64("job_id", listing.ID),
			zap.Float64("quick_score", quick),
			zap.Float64("floor", g.floor),
		)
		score := jobs.Round1(quick)
		return &jobs.MatchResult{
			OverallScore:   score,
			MatchedSkills:  []string{},
			MissingSkills:  []string{},
			Strengths:      []string{},
			Concerns:       []string{},
			Reasoning:      LowAlignmentReasoning,
			Recommendation: jobs.RecommendationFor(score),
		}, nil
	}
	return g.next.Score(ctx, profile, listing)
}
