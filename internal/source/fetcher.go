// Package source is the collaborator boundary to the external systems. It
// fetches raw payloads and normalizes them into candidate identities and
// mentions; it never touches the canonical store.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mhenriquez/parlid/internal/domain"
)

// Fetcher retrieves one raw payload from a source system.
type Fetcher interface {
	Fetch(ctx context.Context, source domain.SourceSystem, id string) ([]byte, error)
}

// HTTPFetcher fetches payloads over HTTP from per-source base URLs.
type HTTPFetcher struct {
	client *http.Client
	bases  map[domain.SourceSystem]string
}

// NewHTTPFetcher creates a fetcher with per-source base URLs.
func NewHTTPFetcher(bases map[domain.SourceSystem]string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		bases:  bases,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source domain.SourceSystem, id string) ([]byte, error) {
	base, ok := f.bases[source]
	if !ok {
		return nil, fmt.Errorf("no base URL configured for source %s", source)
	}
	url := strings.TrimRight(base, "/") + "/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return body, nil
}

// RetryFetcher retries transient fetch failures with exponential backoff.
type RetryFetcher struct {
	next     Fetcher
	attempts int
	backoff  time.Duration
}

// NewRetryFetcher wraps next with up to attempts tries.
func NewRetryFetcher(next Fetcher, attempts int, backoff time.Duration) *RetryFetcher {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryFetcher{next: next, attempts: attempts, backoff: backoff}
}

func (f *RetryFetcher) Fetch(ctx context.Context, source domain.SourceSystem, id string) ([]byte, error) {
	var lastErr error
	delay := f.backoff
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		body, err := f.next.Fetch(ctx, source, id)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.attempts, lastErr)
}

// CacheFetcher stores fetched payloads on disk so re-runs avoid refetching.
type CacheFetcher struct {
	next Fetcher
	dir  string
}

// NewCacheFetcher wraps next with a disk cache rooted at dir.
func NewCacheFetcher(next Fetcher, dir string) *CacheFetcher {
	return &CacheFetcher{next: next, dir: dir}
}

func (f *CacheFetcher) Fetch(ctx context.Context, source domain.SourceSystem, id string) ([]byte, error) {
	path := f.cachePath(source, id)
	if body, err := os.ReadFile(path); err == nil {
		return body, nil
	}

	body, err := f.next.Fetch(ctx, source, id)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write cache entry: %w", err)
	}
	return body, nil
}

func (f *CacheFetcher) cachePath(source domain.SourceSystem, id string) string {
	sum := sha256.Sum256([]byte(id))
	return filepath.Join(f.dir, string(source), hex.EncodeToString(sum[:])+".cache")
}
