package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/store"
)

type stubScraper struct {
	name     string
	listings []jobs.Listing
	err      error
	queries  []string
	location string
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Search(_ context.Context, queries []string, location string) ([]jobs.Listing, error) {
	s.queries = queries
	s.location = location
	return s.listings, s.err
}

func listing(source, title, company string) jobs.Listing {
	return jobs.Listing{Source: source, Title: title, CompanyName: company}
}

func TestSearcherStoresAndLogsRuns(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// Seed a listing so one of the scraped ones is a duplicate.
	_, _, err := st.AddJobListing(ctx, listing("adzuna", "HSE Manager", "Acme"))
	require.NoError(t, err)

	adzuna := &stubScraper{name: "adzuna", listings: []jobs.Listing{
		listing("adzuna", "HSE Manager", "Acme"),
		listing("adzuna", "Safety Lead", "Globex"),
		listing("adzuna", "Sales Rep", "Unpaid Interns Inc"),
	}}
	broken := &stubScraper{name: "remoteok", err: errors.New("status 503")}

	core, logs := observer.New(zapcore.InfoLevel)
	searcher := NewSearcher(st, zap.New(core), Options{}, filtering.Default(filtering.Config{}), adzuna, broken)

	result, err := searcher.Search(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, result.QueryID)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.New)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, []string{"status 503"}, result.Runs[1].Errors)
	assert.Zero(t, result.Runs[1].JobsFound)

	runs := st.SearchRuns()
	require.Len(t, runs, 3)
	assert.Equal(t, "adzuna", runs[0].Source)
	assert.Equal(t, "remoteok", runs[1].Source)
	assert.Equal(t, AllSources, runs[2].Source)
	assert.Equal(t, 2, runs[2].JobsFound)
	assert.Equal(t, []string{"remoteok: status 503"}, runs[2].Errors)
	for _, run := range runs {
		assert.Equal(t, result.QueryID, run.QueryID)
	}

	assert.Len(t, adzuna.queries, DefaultMaxQueries)
	assert.Equal(t, DefaultLocation, adzuna.location)
	assert.Equal(t, 1, logs.FilterMessage("scraper failed").Len())
}

func TestSearcherCapsPerSource(t *testing.T) {
	st := store.NewMemoryStore()

	many := make([]jobs.Listing, 0, 5)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		many = append(many, listing("", title, "Acme"))
	}
	scraper := &stubScraper{name: "hh", listings: many}

	result, err := NewSearcher(st, nil, Options{MaxPerSource: 3}, nil, scraper).Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Found)

	// Missing sources are filled in with the scraper name.
	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalJobs)
}

func TestSearcherRecordsInvalidListings(t *testing.T) {
	st := store.NewMemoryStore()
	scraper := &stubScraper{name: "hh", listings: []jobs.Listing{
		listing("hh", "", "Acme"),
		listing("hh", "Safety Lead", "Acme"),
	}}

	result, err := NewSearcher(st, nil, Options{}, nil, scraper).Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Len(t, result.Runs[0].Errors, 1)
}

func TestSearcherQueries(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "capped",
			opts: Options{Queries: []string{"a", "b", "c"}, MaxQueries: 2},
			want: []string{"a", "b"},
		},
		{
			name: "remote hint",
			opts: Options{Queries: []string{"HSE Manager", "Remote HSE"}, RemoteOnly: true},
			want: []string{"HSE Manager remote", "Remote HSE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(store.NewMemoryStore(), nil, tt.opts, nil)
			assert.Equal(t, tt.want, s.queries())
		})
	}
}

func TestSearcherStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := &stubScraper{name: "hh"}
	_, err := NewSearcher(store.NewMemoryStore(), nil, Options{}, nil, scraper).Search(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, scraper.queries)
}
