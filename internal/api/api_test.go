package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seeded(t *testing.T, scores ...float64) (*store.MemoryStore, int64) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	profileID, err := st.GetOrCreateProfile(ctx, "Jane Doe", jobs.ProfileUpdate{})
	require.NoError(t, err)

	for i, score := range scores {
		jobID, _, err := st.AddJobListing(ctx, jobs.Listing{
			Source:       "adzuna",
			CompanyName:  fmt.Sprintf("Company %d", i),
			Title:        "HSE Manager",
			LocationType: jobs.LocationRemote,
		})
		require.NoError(t, err)
		_, err = st.AddJobMatch(ctx, profileID, jobID, jobs.MatchResult{
			OverallScore:   score,
			Recommendation: jobs.RecommendationFor(score),
		})
		require.NoError(t, err)
	}
	return st, profileID
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	st, _ := seeded(t)
	rec := get(t, NewHandler(st, 0, nil), "/api/v1/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStats(t *testing.T) {
	st, _ := seeded(t, 90, 70)
	rec := get(t, NewHandler(st, 0, nil), "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats jobs.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 2, stats.TotalMatches)
	assert.Equal(t, 2, stats.ActiveJobs)
}

func TestMatches(t *testing.T) {
	st, profileID := seeded(t, 45, 92, 70, 81)
	h := NewHandler(st, profileID, nil)

	tests := []struct {
		name   string
		target string
		want   []float64
	}{
		{name: "default profile", target: "/api/v1/matches", want: []float64{92, 81, 70, 45}},
		{name: "limit", target: "/api/v1/matches?limit=2", want: []float64{92, 81}},
		{name: "min score", target: "/api/v1/matches?min_score=70", want: []float64{92, 81, 70}},
		{name: "explicit profile", target: fmt.Sprintf("/api/v1/matches?profile_id=%d&limit=1", profileID), want: []float64{92}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp MatchesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, profileID, resp.ProfileID)
			assert.Equal(t, len(tt.want), resp.Count)

			scores := make([]float64, 0, len(resp.Matches))
			for _, m := range resp.Matches {
				scores = append(scores, m.Result.OverallScore)
			}
			assert.Equal(t, tt.want, scores)
		})
	}
}

func TestMatchesBadRequests(t *testing.T) {
	st, profileID := seeded(t, 90)

	tests := []struct {
		name      string
		profileID int64
		target    string
		status    int
		code      string
	}{
		{name: "no profile", target: "/api/v1/matches", status: http.StatusBadRequest, code: "missing_profile_id"},
		{name: "bad profile", profileID: profileID, target: "/api/v1/matches?profile_id=abc", status: http.StatusBadRequest, code: "invalid_profile_id"},
		{name: "bad limit", profileID: profileID, target: "/api/v1/matches?limit=-1", status: http.StatusBadRequest, code: "invalid_limit"},
		{name: "bad min score", profileID: profileID, target: "/api/v1/matches?min_score=101", status: http.StatusBadRequest, code: "invalid_min_score"},
		{name: "unknown profile", target: "/api/v1/matches?profile_id=42", status: http.StatusNotFound, code: "profile_not_found"},
		{name: "unknown route", target: "/api/v1/nope", status: http.StatusNotFound, code: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, NewHandler(st, tt.profileID, nil), tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestSummary(t *testing.T) {
	st, profileID := seeded(t, 90, 70, 55)
	rec := get(t, NewHandler(st, profileID, nil), "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary jobs.MatchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Strong)
	assert.Equal(t, 1, summary.Good)
	assert.Equal(t, 1, summary.Possible)
	assert.Equal(t, map[string]int{"adzuna": 3}, summary.BySource)
	assert.Equal(t, 71.7, summary.AverageScore)
}

type brokenStore struct{}

func (brokenStore) GetProfile(context.Context, int64) (*jobs.Profile, error) {
	return &jobs.Profile{ID: 1}, nil
}

func (brokenStore) TopMatches(context.Context, int64, int, float64) ([]jobs.JobMatch, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) Stats(context.Context) (jobs.Stats, error) {
	panic("stats exploded")
}

func TestStoreFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewHandler(brokenStore{}, 1, zap.New(core))

	rec := get(t, h, "/api/v1/matches")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("reading matches").Len())

	rec = get(t, h, "/api/v1/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic").Len())
}
