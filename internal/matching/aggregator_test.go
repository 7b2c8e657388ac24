package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/store"
)

func seedStore(t *testing.T, titles ...string) (*store.MemoryStore, int64, []int64) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	profileID, err := st.GetOrCreateProfile(ctx, "Jane Doe", jobs.ProfileUpdate{})
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]int64, 0, len(titles))
	for i, title := range titles {
		// Later titles are older so UnmatchedJobs returns them in argument order.
		posted := base.Add(-time.Duration(i) * time.Hour)
		id, created, err := st.AddJobListing(ctx, jobs.Listing{
			Source:      "test",
			CompanyName: fmt.Sprintf("Company %d", i),
			Title:       title,
			PostedAt:    &posted,
		})
		require.NoError(t, err)
		require.True(t, created)
		ids = append(ids, id)
	}
	return st, profileID, ids
}

// scoreByTitle reads "score:<n>" or "fail" from the listing title.
func scoreByTitle() ScorerFunc {
	return func(_ context.Context, _ *jobs.Profile, l *jobs.Listing) (*jobs.MatchResult, error) {
		if strings.HasPrefix(l.Title, "fail") {
			return nil, errors.New("scoring exploded")
		}
		var score float64
		if _, err := fmt.Sscanf(l.Title, "score:%f", &score); err != nil {
			return nil, err
		}
		return &jobs.MatchResult{OverallScore: score, Recommendation: jobs.RecommendationFor(score)}, nil
	}
}

func TestAggregatorKeepsSortsAndPersists(t *testing.T) {
	ctx := context.Background()
	st, profileID, ids := seedStore(t, "score:55", "score:90", "fail", "score:30", "score:90", "score:70", "score:40")

	core, logs := observer.New(zapcore.WarnLevel)
	agg := NewAggregator(st, scoreByTitle(), zap.New(core), AggregatorOptions{MinScore: DefaultMinScore})

	got, err := agg.MatchJobsForProfile(ctx, profileID, 0)
	require.NoError(t, err)

	scores := make([]float64, 0, len(got))
	jobIDs := make([]int64, 0, len(got))
	for _, m := range got {
		scores = append(scores, m.Result.OverallScore)
		jobIDs = append(jobIDs, m.Job.ID)
	}
	assert.Equal(t, []float64{90, 90, 70, 55, 40}, scores)
	// Equal scores keep processing order.
	assert.Equal(t, []int64{ids[1], ids[4], ids[5], ids[0], ids[6]}, jobIDs)

	assert.Equal(t, 1, logs.FilterMessage("scoring failed").Len())

	stored, err := st.TopMatches(ctx, profileID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	// The failed and below-threshold listings are still unmatched.
	left, err := st.UnmatchedJobs(ctx, profileID, 0)
	require.NoError(t, err)
	leftIDs := []int64{left[0].ID, left[1].ID}
	assert.ElementsMatch(t, []int64{ids[2], ids[3]}, leftIDs)
}

func TestAggregatorRespectsLimit(t *testing.T) {
	st, profileID, _ := seedStore(t, "score:90", "score:80", "score:70")

	agg := NewAggregator(st, scoreByTitle(), nil, AggregatorOptions{MinScore: DefaultMinScore})
	got, err := agg.MatchJobsForProfile(context.Background(), profileID, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAggregatorBoundsConcurrency(t *testing.T) {
	titles := make([]string, 12)
	for i := range titles {
		titles[i] = fmt.Sprintf("score:%d", 50+i)
	}
	st, profileID, _ := seedStore(t, titles...)

	var (
		mu      sync.Mutex
		current int
		peak    int
		calls   atomic.Int32
	)
	slow := ScorerFunc(func(ctx context.Context, p *jobs.Profile, l *jobs.Listing) (*jobs.MatchResult, error) {
		calls.Add(1)
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return scoreByTitle()(ctx, p, l)
	})

	agg := NewAggregator(st, slow, nil, AggregatorOptions{BatchSize: 5, MinScore: DefaultMinScore})
	got, err := agg.MatchJobsForProfile(context.Background(), profileID, 0)
	require.NoError(t, err)

	assert.Len(t, got, 12)
	assert.Equal(t, int32(12), calls.Load())
	assert.LessOrEqual(t, peak, 5)
}

type recordingObserver struct {
	mu      sync.Mutex
	matches []jobs.JobMatch
	err     error
}

func (r *recordingObserver) MatchStored(_ context.Context, m jobs.JobMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
	return r.err
}

func TestAggregatorNotifiesObserver(t *testing.T) {
	st, profileID, _ := seedStore(t, "score:85", "score:20")

	obs := &recordingObserver{err: errors.New("redis down")}
	agg := NewAggregator(st, scoreByTitle(), nil, AggregatorOptions{MinScore: DefaultMinScore, Observer: obs})

	got, err := agg.MatchJobsForProfile(context.Background(), profileID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, obs.matches, 1)
	assert.Equal(t, got[0].ID, obs.matches[0].ID)
}

func TestAggregatorFixesInconsistentRecommendation(t *testing.T) {
	st, profileID, _ := seedStore(t, "x")

	lying := ScorerFunc(func(context.Context, *jobs.Profile, *jobs.Listing) (*jobs.MatchResult, error) {
		return &jobs.MatchResult{OverallScore: 82, Recommendation: jobs.PoorMatch}, nil
	})

	got, err := NewAggregator(st, lying, nil, AggregatorOptions{MinScore: DefaultMinScore}).
		MatchJobsForProfile(context.Background(), profileID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, jobs.StrongMatch, got[0].Result.Recommendation)
}

func TestAggregatorMissingProfile(t *testing.T) {
	st := store.NewMemoryStore()
	agg := NewAggregator(st, scoreByTitle(), nil, AggregatorOptions{})

	_, err := agg.MatchJobsForProfile(context.Background(), 7, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAggregatorWithGateAndHeuristic(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	profileID, err := st.GetOrCreateProfile(ctx, "Jane Doe", jobs.ProfileUpdate{})
	require.NoError(t, err)
	_, err = st.AddSkill(ctx, profileID, jobs.Skill{Name: "HSE", Category: jobs.SkillDomain, Confidence: 1})
	require.NoError(t, err)
	_, err = st.AddSkill(ctx, profileID, jobs.Skill{Name: "OSHA Compliance", Category: jobs.SkillDomain, Confidence: 1})
	require.NoError(t, err)
	years := 15
	require.NoError(t, st.UpdateProfile(ctx, profileID, jobs.ProfileUpdate{YearsExperience: &years}))

	good, _, err := st.AddJobListing(ctx, *hseListing())
	require.NoError(t, err)
	_, _, err = st.AddJobListing(ctx, jobs.Listing{
		Source: "test", CompanyName: "Startup", Title: "Python Developer",
		Description: "5+ years Django", Location: "San Francisco, CA",
	})
	require.NoError(t, err)

	heuristic, err := NewHeuristicScorer(DefaultWeights())
	require.NoError(t, err)
	ai := &countingScorer{err: errors.New("status 500")}
	scorer := NewGate(NewFallback(ai, heuristic, nil), DefaultQuickFloor, DefaultHomeRegion, nil)

	got, err := NewAggregator(st, scorer, nil, AggregatorOptions{MinScore: DefaultMinScore}).
		MatchJobsForProfile(ctx, profileID, 0)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, good, got[0].Job.ID)
	assert.Equal(t, 88.0, got[0].Result.OverallScore)
	assert.Equal(t, jobs.StrongMatch, got[0].Result.Recommendation)
	// Only the listing that passed the gate reached the AI scorer.
	assert.Equal(t, int32(1), ai.calls.Load())
}
