// Package remote implements the Remote Document Fetcher (C1): typed HTTP
// GET returning parsed JSON, memoized per-URL within the process. Every
// other component reaches the network only through a Fetcher.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func newReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

// FetchError reports a non-2xx response (or transport failure) from a GET.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// slowFetchThreshold matches the teacher's pricing.Client convention of
// warning on lookups/fetches that take longer than 50ms.
const slowFetchThreshold = 50 * time.Millisecond

// Fetcher issues GETs and POSTs against arbitrary URLs, decoding JSON
// responses, and memoizing GET results per URL for the life of the process.
// It is safe for concurrent use.
type Fetcher struct {
	http   *http.Client
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[string]*cacheEntry

	manifestMu  sync.Mutex
	manifestURL string
	manifest    any
	manifestErr error
}

type cacheEntry struct {
	once sync.Once
	data any
	err  error
}

// New creates a Fetcher using the given HTTP client (pass a zero-value
// &http.Client{Timeout: ...} for the platform default behavior the spec
// delegates timeouts to) and logger.
func New(httpClient *http.Client, logger zerolog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		http:   httpClient,
		logger: logger,
		cache:  make(map[string]*cacheEntry),
	}
}

// Get fetches and JSON-decodes url into out (a pointer), memoizing the raw
// response body per-URL and decoding it afresh on every call. A failed
// fetch is not cached — the next call for the same URL retries.
func (f *Fetcher) Get(ctx context.Context, url string, out any) error {
	start := time.Now()
	f.mu.Lock()
	entry, ok := f.cache[url]
	if !ok {
		entry = &cacheEntry{}
		f.cache[url] = entry
	}
	f.mu.Unlock()

	entry.once.Do(func() {
		entry.data, entry.err = f.doGet(ctx, url)
	})

	if entry.err != nil {
		// Failure-clears-slot: allow the next caller to retry instead of
		// replaying a stale error forever.
		f.mu.Lock()
		if f.cache[url] == entry {
			delete(f.cache, url)
		}
		f.mu.Unlock()
		return entry.err
	}

	if elapsed := time.Since(start); elapsed > slowFetchThreshold {
		f.logger.Warn().Str("url", url).Dur("elapsed", elapsed).Msg("fetch took too long")
	}

	raw, ok := entry.data.(json.RawMessage)
	if !ok {
		return fmt.Errorf("fetch %s: cached payload has unexpected type", url)
	}
	return json.Unmarshal(raw, out)
}

func (f *Fetcher) doGet(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}
	return json.RawMessage(body), nil
}

// PostJSON issues a POST with a JSON-encoded body and decodes the JSON
// response into out. It is not memoized — saves are never idempotent cache
// candidates.
func (f *Fetcher) PostJSON(ctx context.Context, url string, body any, out any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, newReader(payload))
	if err != nil {
		return 0, nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return 0, nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, respBody, fmt.Errorf("decode response body: %w", err)
		}
	}
	return resp.StatusCode, respBody, nil
}

// GetRaw performs an un-memoized GET, returning the raw response body
// regardless of status or content type. Used by the Estimate Loader (C8),
// which must distinguish a JSON success body from an XML error body before
// deciding whether to decode it.
func (f *Fetcher) GetRaw(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, &FetchError{URL: url, Err: err}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return 0, nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, body, nil
}

// SetManifest overwrites the single-entry manifest slot. Exposed for tests
// and for warming the cache ahead of the first catalog search.
func (f *Fetcher) SetManifest(url string, data any) {
	f.manifestMu.Lock()
	defer f.manifestMu.Unlock()
	f.manifestURL = url
	f.manifest = data
	f.manifestErr = nil
}

// Manifest fetches and caches the catalog manifest in a single-entry slot.
// A failed first fetch clears the slot so the next call retries (spec.md
// §4.1).
func (f *Fetcher) Manifest(ctx context.Context, url string, out any) error {
	f.manifestMu.Lock()
	if f.manifestURL == url && f.manifest != nil {
		cached := f.manifest
		f.manifestMu.Unlock()
		raw, ok := cached.(json.RawMessage)
		if !ok {
			return fmt.Errorf("manifest %s: cached payload has unexpected type", url)
		}
		return json.Unmarshal(raw, out)
	}
	f.manifestMu.Unlock()

	raw, err := f.doGet(ctx, url)
	f.manifestMu.Lock()
	defer f.manifestMu.Unlock()
	if err != nil {
		f.manifestURL = ""
		f.manifest = nil
		f.manifestErr = err
		return err
	}
	f.manifestURL = url
	f.manifest = raw
	f.manifestErr = nil
	return json.Unmarshal(raw, out)
}

// CacheSize reports how many URLs currently have a memoized successful
// response — used by the tool surface's status/introspection operation.
func (f *Fetcher) CacheSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

// HasManifest reports whether the manifest slot is currently populated.
func (f *Fetcher) HasManifest() bool {
	f.manifestMu.Lock()
	defer f.manifestMu.Unlock()
	return f.manifest != nil
}
