package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
	httpTimeout    = 15 * time.Second

	AdzunaName = "adzuna"
)

// Adzuna searches the Adzuna public API. Without credentials it returns no listings.
type Adzuna struct {
	AppID   string
	AppKey  string
	Country string
	BaseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewAdzuna(appID, appKey, country string, log *zap.Logger) *Adzuna {
	if country == "" {
		country = "us"
	}
	return &Adzuna{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		BaseURL: adzunaBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
		logger:  logger.WithFields(log),
	}
}

func (a *Adzuna) Name() string { return AdzunaName }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

func (a *Adzuna) Search(ctx context.Context, queries []string, location string) ([]jobs.Listing, error) {
	if a.AppID == "" || a.AppKey == "" {
		a.logger.Warn("adzuna credentials are not set, skipping")
		return nil, nil
	}

	var (
		listings []jobs.Listing
		errs     []error
	)
	for _, query := range queries {
		found, err := a.fetch(ctx, query, location)
		listings = append(listings, found...)
		if err != nil {
			a.logger.Warn("adzuna query failed", zap.String("query", query), zap.Error(err))
			errs = append(errs, fmt.Errorf("query %q: %w", query, err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	if len(listings) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return listings, nil
}

// fetch pages until a short page or the page cap.
func (a *Adzuna) fetch(ctx context.Context, query, location string) ([]jobs.Listing, error) {
	var listings []jobs.Listing
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := a.fetchPage(ctx, query, location, page)
		if err != nil {
			return listings, fmt.Errorf("page %d: %w", page, err)
		}
		listings = append(listings, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	return listings, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, query, location string, page int) ([]jobs.Listing, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", a.BaseURL, a.Country, page)

	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", query)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]jobs.Listing, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		listings = append(listings, r.listing())
	}
	return listings, nil
}

func (r adzunaResult) listing() jobs.Listing {
	company := strings.TrimSpace(r.Company.DisplayName)
	if company == "" {
		company = "Unknown"
	}

	listing := jobs.Listing{
		Source:       AdzunaName,
		ExternalID:   r.ID,
		CompanyName:  company,
		Title:        strings.TrimSpace(r.Title),
		Location:     r.Location.DisplayName,
		LocationType: jobs.NormalizeLocationType(r.Location.DisplayName + " " + r.Title),
		Description:  r.Description,
		ApplyURL:     r.RedirectURL,
		SalaryMin:    salary(r.SalaryMin),
		SalaryMax:    salary(r.SalaryMax),
	}
	if t, err := time.Parse(time.RFC3339, r.Created); err == nil {
		utc := t.UTC()
		listing.PostedAt = &utc
	}
	return listing
}

func salary(v float64) *int {
	if v <= 0 {
		return nil
	}
	n := int(v)
	return &n
}
