package tables

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher reads a table from an http(s) URL or a local path.
type Fetcher struct {
	httpClient *http.Client
	retries    int
	backoff    time.Duration
}

func NewFetcher(timeout time.Duration, retries int, backoff time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		backoff:    backoff,
	}
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Fetch returns the full body of loc, retrying transient failures with
// exponential backoff. Missing local files are not retried.
func (f *Fetcher) Fetch(ctx context.Context, loc string) (io.Reader, error) {
	if !isURL(loc) {
		b, err := os.ReadFile(loc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", loc, err)
		}
		return bytes.NewReader(b), nil
	}

	var lastErr error
	wait := f.backoff
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			LogRetry(loc, attempt, lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", loc, ctx.Err())
			case <-time.After(wait):
			}
			wait *= 2
		}
		b, err := f.get(ctx, loc)
		if err == nil {
			return bytes.NewReader(b), nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", loc, f.retries+1, lastErr)
}

func (f *Fetcher) get(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
