// Package search proxies the hosted autocomplete indices used for medicine
// and lab-test name completion.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
)

// Client queries the hosted search index service
type Client struct {
	httpClient *http.Client
	endpoint   string
	appID      string
	apiKey     string
	logger     *logger.Logger
}

// NewClient creates a new index search client
func NewClient(cfg *config.SearchConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   cfg.Endpoint,
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		logger:     log,
	}
}

// Search queries one index and returns the hit display names
func (c *Client) Search(ctx context.Context, index, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("hitsPerPage", fmt.Sprintf("%d", limit))

	target := fmt.Sprintf("%s/1/indexes/%s?%s", c.endpoint, url.PathEscape(index), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("X-Algolia-Application-Id", c.appID)
	req.Header.Set("X-Algolia-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(body, "message").String(); msg != "" {
			return nil, fmt.Errorf("index %s returned %d: %s", index, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("index %s returned status %d", index, resp.StatusCode)
	}

	var hits []string
	gjson.GetBytes(body, "hits").ForEach(func(_, hit gjson.Result) bool {
		name := hit.Get("name").String()
		if name == "" {
			name = hit.Get("title").String()
		}
		if name != "" {
			hits = append(hits, name)
		}
		return len(hits) < limit
	})

	c.logger.WithFields(map[string]interface{}{
		"index": index,
		"query": query,
		"hits":  len(hits),
	}).Debug("Index search completed")

	return hits, nil
}
