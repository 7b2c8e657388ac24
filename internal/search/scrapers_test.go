package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-matcher/internal/jobs"
)

func TestAdzunaSkipsWithoutCredentials(t *testing.T) {
	listings, err := NewAdzuna("", "", "us", nil).Search(context.Background(), []string{"HSE"}, "Tulsa")
	require.NoError(t, err)
	assert.Nil(t, listings)
}

func TestAdzunaPages(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		assert.Equal(t, "HSE Manager", r.URL.Query().Get("what"))
		assert.Equal(t, "Tulsa, OK", r.URL.Query().Get("where"))

		page, _ := strconv.Atoi(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])

		// Full first page, short second page.
		n := adzunaPageSize
		if page == 2 {
			n = 2
		}
		results := make([]map[string]any, 0, n)
		for i := range n {
			results = append(results, map[string]any{
				"id":           fmt.Sprintf("%d-%d", page, i),
				"title":        "HSE Manager",
				"description":  "Lead safety",
				"salary_min":   85000.5,
				"redirect_url": "https://adzuna.example/1",
				"created":      "2024-03-01T10:00:00Z",
				"company":      map[string]any{"display_name": "Acme"},
				"location":     map[string]any{"display_name": "Tulsa, Oklahoma"},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results, "count": 52})
	}))
	defer srv.Close()

	a := NewAdzuna("id", "key", "us", nil)
	a.BaseURL = srv.URL

	listings, err := a.Search(context.Background(), []string{"HSE Manager"}, "Tulsa, OK")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, listings, adzunaPageSize+2)

	first := listings[0]
	assert.Equal(t, AdzunaName, first.Source)
	assert.Equal(t, "Acme", first.CompanyName)
	assert.Equal(t, jobs.LocationUnknown, first.LocationType)
	require.NotNil(t, first.SalaryMin)
	assert.Equal(t, 85000, *first.SalaryMin)
	assert.Nil(t, first.SalaryMax)
	require.NotNil(t, first.PostedAt)
}

func TestAdzunaReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewAdzuna("id", "key", "", nil)
	a.BaseURL = srv.URL

	_, err := a.Search(context.Background(), []string{"HSE"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adzuna returned 401")
}

func TestRemoteOKRelevance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"legal": "terms"},
			{"id": 101, "position": "Senior Go Engineer", "company": "Beta", "tags": []string{"golang"}},
			{"id": "102", "position": "Head of People", "company": "Gamma", "tags": []string{"Leadership"}, "salary_min": 120000},
			{"id": 103, "position": "Remote HSE Manager", "company": "", "tags": []string{}, "date": "2024-03-01T10:00:00+00:00"},
		})
	}))
	defer srv.Close()

	r := NewRemoteOK(nil)
	r.URL = srv.URL

	listings, err := r.Search(context.Background(), []string{"HSE Manager"}, "ignored")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "102", listings[0].ExternalID)
	assert.Equal(t, "Remote", listings[0].Location)
	assert.Equal(t, jobs.LocationRemote, listings[0].LocationType)
	require.NotNil(t, listings[0].SalaryMin)
	assert.Equal(t, 120000, *listings[0].SalaryMin)

	assert.Equal(t, "103", listings[1].ExternalID)
	assert.Equal(t, "Unknown", listings[1].CompanyName)
	require.NotNil(t, listings[1].PostedAt)
}

func TestRemoteOKBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewRemoteOK(nil)
	r.URL = srv.URL

	_, err := r.Search(context.Background(), nil, "")
	require.Error(t, err)
}
