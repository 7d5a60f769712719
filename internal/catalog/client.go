package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL points at the public catalog API.
const DefaultBaseURL = "https://api.discogs.com"

// HTTPClient talks to a Discogs-style catalog over HTTP. Requests are
// throttled to stay under the catalog's per-minute quota.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption adjusts an HTTPClient during construction.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the catalog endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *HTTPClient) { c.httpClient = h }
}

// NewHTTPClient builds a catalog client authenticated with a personal token.
func NewHTTPClient(token string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		// 60 requests per minute, small burst for the search->fetch pair.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search queries the catalog database for matching releases.
func (c *HTTPClient) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("type", "release")
	if query.Artist != "" {
		params.Set("artist", query.Artist)
	}
	if query.Title != "" {
		params.Set("release_title", query.Title)
	}
	if query.Year != "" {
		params.Set("year", query.Year)
	}
	if query.ReleaseID != 0 {
		params.Set("q", strconv.FormatInt(query.ReleaseID, 10))
	}

	var resp searchResponse
	if err := c.get(ctx, "/database/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Release fetches the full record for one release id.
func (c *HTTPClient) Release(ctx context.Context, id int64) (*Release, error) {
	var release Release
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", id), &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "musica/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrReleaseNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: catalog returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
