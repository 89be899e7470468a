package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 90 * time.Second

// maxBodyBytes bounds a single group download.
const maxBodyBytes = 64 << 20

// Fetcher retrieves raw TLE text over HTTP.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a Fetcher whose requests time out after timeout. A
// non-positive timeout uses 90s.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "orbital-risk/1.0",
	}
}

// NewFetcherWithClient wraps an existing client, for tests and custom transports.
func NewFetcherWithClient(c *http.Client) *Fetcher {
	if c == nil {
		c = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Fetcher{httpClient: c, userAgent: "orbital-risk/1.0"}
}

// Fetch performs an HTTP GET and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, sourceURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
