package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/job-matcher/internal/report"
)

const (
	slackTimeout    = 10 * time.Second
	slackTopMatches = 3
)

// Slack posts a report summary to an incoming webhook.
type Slack struct {
	webhook string
	client  *http.Client
}

func NewSlack(webhook string) (*Slack, error) {
	webhook = strings.TrimSpace(webhook)
	if webhook == "" {
		return nil, errors.New("slack webhook url is required")
	}
	return &Slack{webhook: webhook, client: &http.Client{Timeout: slackTimeout}}, nil
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Recipient() string { return "slack" }

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func (s *Slack) Notify(ctx context.Context, r *report.Report) error {
	payload, err := json.Marshal(slackMessage{Blocks: slackBlocks(r)})
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack api error: status %d", resp.StatusCode)
	}
	return nil
}

func slackBlocks(r *report.Report) []slackBlock {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: Subject(r)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Total Matches:* %d", r.Summary.TotalMatches)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Strong Matches:* %d", r.Summary.StrongMatches)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Good Matches:* %d", r.Summary.GoodMatches)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Avg Score:* %.1f%%", r.Summary.AverageScore)},
			},
		},
	}

	if len(r.Top) > 0 {
		lines := make([]string, 0, slackTopMatches)
		for i, m := range r.Top {
			if i == slackTopMatches {
				break
			}
			lines = append(lines, fmt.Sprintf("*%d. %s* at %s (%.0f%%)", i+1, m.Job.Title, m.Job.CompanyName, m.Result.OverallScore))
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Top Matches:*\n" + strings.Join(lines, "\n")},
		})
	}

	if r.HTMLPath != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("<file://%s|View Full Report>", r.HTMLPath)},
		})
	}

	return blocks
}
