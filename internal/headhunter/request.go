package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type ItemResponse struct {
	Items   []Item
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

type Item interface{}

// GetItems makes GET request to HeadHunter API and return items from all pages.
func (c *Client) GetItems(ctx context.Context, url string, q url.Values) ([]Item, error) {
	var items []Item

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetchPage(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from HH.ru", zap.Int("pages", response.Pages), zap.Int("max items per page", response.PerPage))

	items = append(items, response.Items...)

	fetched := 1
	for response.Page < (response.Pages - 1) {
		if c.MaxPages > 0 && fetched >= c.MaxPages {
			c.logger.Debug("page limit reached", zap.Int("limit", c.MaxPages))
			break
		}

		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		response, err = c.fetchPage(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}
		fetched++

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *Client) fetchPage(req *http.Request) (*ItemResponse, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response ItemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// addPage adds page parameter to request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	return req
}
