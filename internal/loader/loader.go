// Package loader materializes card catalogs from files or remote URLs.
// The session only ever sees a fully loaded, validated catalog; fetch
// timeouts, retries and rate limits all live here.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/boosterlab/packsim/internal/catalog"
)

const (
	rateLimitDelay = 100 * time.Millisecond
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Loader loads catalogs from file paths and HTTP(S) URLs.
type Loader struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// New creates a loader with a rate-limited HTTP client for remote sources.
func New() *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "packsim/1.0",
	}
}

// Load materializes a catalog from the given source: an http(s) URL is
// fetched, anything else is treated as a file path. Validation errors
// (catalog.InvalidCatalogShapeError) pass through unwrapped so callers can
// report the offending card.
func (l *Loader) Load(ctx context.Context, source string) (*catalog.Catalog, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.fetch(ctx, source)
	}
	return l.loadFile(source)
}

func (l *Loader) loadFile(path string) (*catalog.Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return catalog.Parse(file)
}

// fetch retrieves a remote catalog with retries and exponential backoff.
func (l *Loader) fetch(ctx context.Context, url string) (*catalog.Catalog, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := l.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := l.get(ctx, url)
		if err == nil {
			return catalog.Parse(bytes.NewReader(body))
		}
		lastErr = err

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to fetch catalog from %s: %w", url, lastErr)
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
