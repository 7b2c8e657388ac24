package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/report"
)

const (
	DefaultMatchChannel  = "job-matcher:matches"
	DefaultReportChannel = "job-matcher:reports"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// MatchEvent is published for every stored match.
type MatchEvent struct {
	Type           string              `json:"type"`
	MatchID        int64               `json:"match_id"`
	ProfileID      int64               `json:"profile_id"`
	JobID          int64               `json:"job_id"`
	Title          string              `json:"title"`
	Company        string              `json:"company"`
	Source         string              `json:"source"`
	Score          float64             `json:"score"`
	Recommendation jobs.Recommendation `json:"recommendation"`
	ApplyURL       string              `json:"apply_url,omitempty"`
}

// ReportEvent is published when a report is ready.
type ReportEvent struct {
	Type     string         `json:"type"`
	ReportID int64          `json:"report_id"`
	Date     string         `json:"date"`
	Summary  report.Summary `json:"summary"`
	Path     string         `json:"path,omitempty"`
}

// RedisPublisher announces matches and reports on pub/sub channels.
type RedisPublisher struct {
	client        publisher
	matchChannel  string
	reportChannel string
}

func NewRedisPublisher(client publisher, matchChannel, reportChannel string) *RedisPublisher {
	if matchChannel == "" {
		matchChannel = DefaultMatchChannel
	}
	if reportChannel == "" {
		reportChannel = DefaultReportChannel
	}
	return &RedisPublisher{client: client, matchChannel: matchChannel, reportChannel: reportChannel}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Recipient() string { return p.reportChannel }

func (p *RedisPublisher) MatchStored(ctx context.Context, m jobs.JobMatch) error {
	return p.publish(ctx, p.matchChannel, MatchEvent{
		Type:           "MATCH_STORED",
		MatchID:        m.ID,
		ProfileID:      m.ProfileID,
		JobID:          m.Job.ID,
		Title:          m.Job.Title,
		Company:        m.Job.CompanyName,
		Source:         m.Job.Source,
		Score:          m.Result.OverallScore,
		Recommendation: m.Result.Recommendation,
		ApplyURL:       m.Job.ApplyURL,
	})
}

func (p *RedisPublisher) Notify(ctx context.Context, r *report.Report) error {
	return p.publish(ctx, p.reportChannel, ReportEvent{
		Type:     "REPORT_READY",
		ReportID: r.ID,
		Date:     r.Date,
		Summary:  r.Summary,
		Path:     r.HTMLPath,
	})
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
