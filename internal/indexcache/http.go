package indexcache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/newsroll/internal/models"
)

// HTTPFetcher loads index pages from the site, as
// GET <base>/<name>.json?limit=<n>&offset=<n>[&sheet=<sheet>].
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the site at baseURL. A zero timeout
// leaves the client without a deadline.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchPage implements Fetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, key Key, offset, limit int) (*models.IndexPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if key.Sheet != "" {
		q.Set("sheet", key.Sheet)
	}
	u := fmt.Sprintf("%s/%s.json?%s", f.baseURL, key.Name, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("indexcache: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexcache: get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("indexcache: get %s: status %d", u, resp.StatusCode)
	}

	var page models.IndexPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("indexcache: decode %s: %w", u, err)
	}
	return &page, nil
}
