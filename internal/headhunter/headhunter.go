// Package headhunter searches public vacancies on the HeadHunter (hh.ru) API.
package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "job-matcher/1.0 (+https://github.com/spigell/job-matcher)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxPages caps paging per search. Zero means all pages.
	MaxPages int
}

// New creates a client. The token is optional for vacancy search.
func New(log *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:    logger.WithFields(log),
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}
