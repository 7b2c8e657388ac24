package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/report"
	"github.com/spigell/job-matcher/internal/store"
)

func sampleReport() *report.Report {
	return &report.Report{
		ID:       7,
		Date:     "2024-05-06",
		HTMLPath: "/tmp/job_report_2024-05-06.html",
		Summary:  report.Summary{TotalMatches: 4, StrongMatches: 2, GoodMatches: 1, AverageScore: 76.25},
		Top: []jobs.JobMatch{
			{Job: jobs.Listing{Title: "HSE Manager", CompanyName: "Acme"}, Result: jobs.MatchResult{OverallScore: 91}},
			{Job: jobs.Listing{Title: "Safety Lead", CompanyName: "Beta"}, Result: jobs.MatchResult{OverallScore: 84}},
			{Job: jobs.Listing{Title: "Ops Manager", CompanyName: "Gamma"}, Result: jobs.MatchResult{OverallScore: 70}},
			{Job: jobs.Listing{Title: "Analyst", CompanyName: "Delta"}, Result: jobs.MatchResult{OverallScore: 60}},
		},
	}
}

func TestSlackPostsBlocks(t *testing.T) {
	var got slackMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	slack, err := NewSlack(srv.URL)
	require.NoError(t, err)
	require.NoError(t, slack.Notify(context.Background(), sampleReport()))

	require.Len(t, got.Blocks, 4)
	assert.Equal(t, "header", got.Blocks[0].Type)
	assert.Equal(t, "Job Match Report - 2024-05-06", got.Blocks[0].Text.Text)
	assert.Equal(t, "*Avg Score:* 76.2%", got.Blocks[1].Fields[3].Text)
	assert.Equal(t, "*Top Matches:*\n*1. HSE Manager* at Acme (91%)\n*2. Safety Lead* at Beta (84%)\n*3. Ops Manager* at Gamma (70%)", got.Blocks[2].Text.Text)
	assert.Equal(t, "<file:///tmp/job_report_2024-05-06.html|View Full Report>", got.Blocks[3].Text.Text)
}

func TestSlackNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	slack, err := NewSlack(srv.URL)
	require.NoError(t, err)
	assert.ErrorContains(t, slack.Notify(context.Background(), sampleReport()), "status 403")
}

func TestNewSlackRequiresWebhook(t *testing.T) {
	_, err := NewSlack(" ")
	assert.Error(t, err)
}

type fakePublisher struct {
	mu       sync.Mutex
	err      error
	channels []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, message.([]byte))
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(1, nil)
}

func TestRedisPublisherEvents(t *testing.T) {
	pub := &fakePublisher{}
	p := NewRedisPublisher(pub, "", "")

	var _ matching.MatchObserver = p

	err := p.MatchStored(context.Background(), jobs.JobMatch{
		ID:        3,
		ProfileID: 1,
		Job:       jobs.Listing{ID: 9, Title: "HSE Manager", CompanyName: "Acme", Source: "adzuna"},
		Result:    jobs.MatchResult{OverallScore: 88, Recommendation: jobs.StrongMatch},
	})
	require.NoError(t, err)
	require.NoError(t, p.Notify(context.Background(), sampleReport()))

	assert.Equal(t, []string{DefaultMatchChannel, DefaultReportChannel}, pub.channels)

	var match MatchEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &match))
	assert.Equal(t, MatchEvent{
		Type: "MATCH_STORED", MatchID: 3, ProfileID: 1, JobID: 9,
		Title: "HSE Manager", Company: "Acme", Source: "adzuna",
		Score: 88, Recommendation: jobs.StrongMatch,
	}, match)

	var rep ReportEvent
	require.NoError(t, json.Unmarshal(pub.payloads[1], &rep))
	assert.Equal(t, int64(7), rep.ReportID)
	assert.Equal(t, 2, rep.Summary.StrongMatches)
}

func TestRedisPublisherError(t *testing.T) {
	p := NewRedisPublisher(&fakePublisher{err: errors.New("connection refused")}, "m", "r")
	assert.ErrorContains(t, p.Notify(context.Background(), sampleReport()), "publish to r")
}

type stubNotifier struct {
	name string
	err  error
}

func (s stubNotifier) Name() string      { return s.name }
func (s stubNotifier) Recipient() string { return s.name + "-recipient" }
func (s stubNotifier) Notify(context.Context, *report.Report) error {
	return s.err
}

func TestDispatcherLogsEveryDelivery(t *testing.T) {
	st := store.NewMemoryStore()
	d := NewDispatcher(st, nil,
		stubNotifier{name: "slack"},
		stubNotifier{name: "redis", err: errors.New("redis down")},
	)

	results := d.Send(context.Background(), sampleReport())
	assert.Equal(t, map[string]string{"slack": "sent", "redis": "redis down"}, results)

	logged := st.Notifications()
	require.Len(t, logged, 2)

	assert.Equal(t, jobs.NotificationSent, logged[0].Status)
	assert.NotNil(t, logged[0].SentAt)
	assert.Equal(t, "Job Match Report - 2024-05-06", logged[0].Subject)
	assert.Equal(t, int64(7), logged[0].ReportID)

	assert.Equal(t, jobs.NotificationFailed, logged[1].Status)
	assert.Equal(t, "redis down", logged[1].Error)
	assert.Nil(t, logged[1].SentAt)
	assert.Equal(t, "redis-recipient", logged[1].Recipient)
}

func TestDispatcherSkipsLogWithoutReportID(t *testing.T) {
	st := store.NewMemoryStore()
	r := sampleReport()
	r.ID = 0

	NewDispatcher(st, nil, stubNotifier{name: "slack"}).Send(context.Background(), r)
	assert.Empty(t, st.Notifications())
}
