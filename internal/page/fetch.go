package page

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	UserAgent    = "zabava-archive/1.0"
	FetchTimeout = 30 * time.Second
)

var httpClient = &http.Client{Timeout: FetchTimeout}

// Fetch downloads an already rendered page (for example a saved archive page
// served over HTTP) and parses it into a Document. No scripts run.
func Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return NewDocument(resp.Body)
}
