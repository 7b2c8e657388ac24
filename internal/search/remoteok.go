package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	remoteOKURL       = "https://remoteok.com/api"
	remoteOKUserAgent = "job-matcher/1.0"

	RemoteOKName = "remoteok"
)

// relevantTags make a RemoteOK posting worth keeping regardless of its title.
var relevantTags = map[string]struct{}{
	"management": {},
	"operations": {},
	"safety":     {},
	"health":     {},
	"compliance": {},
	"risk":       {},
	"executive":  {},
	"leadership": {},
}

// RemoteOK reads the single RemoteOK feed and keeps relevant postings.
type RemoteOK struct {
	URL    string
	client *http.Client
	logger *zap.Logger
}

func NewRemoteOK(log *zap.Logger) *RemoteOK {
	return &RemoteOK{
		URL:    remoteOKURL,
		client: &http.Client{Timeout: httpTimeout},
		logger: logger.WithFields(log),
	}
}

func (r *RemoteOK) Name() string { return RemoteOKName }

type remoteOKItem struct {
	ID          string   `mapstructure:"id"`
	Company     string   `mapstructure:"company"`
	Position    string   `mapstructure:"position"`
	Tags        []string `mapstructure:"tags"`
	Description string   `mapstructure:"description"`
	Location    string   `mapstructure:"location"`
	SalaryMin   int      `mapstructure:"salary_min"`
	SalaryMax   int      `mapstructure:"salary_max"`
	Date        string   `mapstructure:"date"`
	URL         string   `mapstructure:"url"`
}

// Search ignores location: every RemoteOK posting is remote.
func (r *RemoteOK) Search(ctx context.Context, queries []string, _ string) ([]jobs.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", remoteOKUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remoteok returned %d", resp.StatusCode)
	}

	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	lowered := make([]string, 0, len(queries))
	for _, q := range queries {
		lowered = append(lowered, strings.ToLower(q))
	}

	listings := make([]jobs.Listing, 0)
	for _, entry := range raw {
		// The first entry is the legal notice.
		if _, ok := entry["id"]; !ok {
			continue
		}

		var item remoteOKItem
		cfg := &mapstructure.DecoderConfig{Result: &item, WeaklyTypedInput: true}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(entry); err != nil {
			r.logger.Debug("skipping undecodable remoteok item", zap.Error(err))
			continue
		}

		if !item.relevant(lowered) {
			continue
		}
		listings = append(listings, item.listing())
	}

	r.logger.Debug("remoteok feed read", zap.Int("items", len(raw)), zap.Int("relevant", len(listings)))
	return listings, nil
}

// relevant keeps postings with a relevant tag or a position containing any query.
func (i remoteOKItem) relevant(queries []string) bool {
	for _, tag := range i.Tags {
		if _, ok := relevantTags[strings.ToLower(tag)]; ok {
			return true
		}
	}
	position := strings.ToLower(i.Position)
	for _, q := range queries {
		if strings.Contains(position, q) {
			return true
		}
	}
	return false
}

func (i remoteOKItem) listing() jobs.Listing {
	listing := jobs.Listing{
		Source:       RemoteOKName,
		ExternalID:   i.ID,
		CompanyName:  orDefault(i.Company, "Unknown"),
		Title:        orDefault(i.Position, "Unknown"),
		Location:     orDefault(i.Location, "Remote"),
		LocationType: jobs.LocationRemote,
		Description:  i.Description,
		ApplyURL:     i.URL,
		SalaryMin:    salary(float64(i.SalaryMin)),
		SalaryMax:    salary(float64(i.SalaryMax)),
	}
	if t, err := time.Parse(time.RFC3339, i.Date); err == nil {
		utc := t.UTC()
		listing.PostedAt = &utc
	}
	return listing
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
