package headhunter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

// Scraper runs one vacancy search per query and merges the results.
type Scraper struct {
	client *Client
	params SearchParams
}

// NewScraper uses params as the template for every query; Text is replaced per query.
func NewScraper(client *Client, params SearchParams) *Scraper {
	return &Scraper{client: client, params: params}
}

func (s *Scraper) Name() string { return SourceName }

// Search ignores location: hh.ru filters by numeric area ids configured in the params.
func (s *Scraper) Search(ctx context.Context, queries []string, _ string) ([]jobs.Listing, error) {
	seen := make(map[string]struct{})
	listings := make([]jobs.Listing, 0)

	var errs []error
	for _, query := range queries {
		params := s.params
		params.Text = query

		vacancies, err := s.client.Search(ctx, &params)
		if err != nil {
			s.client.logger.Warn("hh search failed", zap.String("query", query), zap.Error(err))
			errs = append(errs, fmt.Errorf("query %q: %w", query, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, listing := range vacancies.Listings() {
			if _, ok := seen[listing.ExternalID]; ok {
				continue
			}
			seen[listing.ExternalID] = struct{}{}
			listings = append(listings, listing)
		}
	}

	if len(listings) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return listings, nil
}
