// Package httpcache fetches documents over HTTP with a disk-backed
// conditional cache (ETag / Last-Modified). When the origin is unreachable
// or answers with an error, the last good body is served instead.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"organizer/internal/log"
)

// ErrNoCachedBody is returned for a 304 when nothing was cached.
var ErrNoCachedBody = errors.New("httpcache: not modified but no cached body")

// Request names one document.
type Request struct {
	// ID is used in logs only.
	ID  string
	URL string
	// Token, if set, is sent as a bearer token.
	Token string
}

// Result is the outcome of a Fetch.
type Result struct {
	Body      []byte
	FromCache bool
	// Modified is when the content last changed: the origin's Last-Modified
	// if it sends one, otherwise the first time this body was seen.
	Modified time.Time
}

type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ChangedAt    time.Time `json:"changed_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e cacheEntry) modified() time.Time {
	if t, err := http.ParseTime(e.LastModified); err == nil {
		return t
	}
	return e.ChangedAt
}

type Fetcher struct {
	client   *http.Client
	cacheDir string
	log      *log.Logger
	now      func() time.Time
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a Fetcher caching under cacheDir, one subdirectory per URL.
func New(cacheDir string, opts ...Option) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/cache"
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
		log:      log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch gets req.URL, sending conditional headers from the cache.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, errors.New("httpcache: URL is empty")
	}

	dir := f.cachePath(req.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Result{}, err
	}

	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body"))

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, err
	}
	if len(cached) > 0 {
		if meta.ETag != "" {
			hreq.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			hreq.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}
	if req.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	f.log.Debug("fetch start", "id", req.ID, "url", RedactURL(req.URL))

	fromCache := Result{Body: cached, FromCache: true, Modified: meta.modified()}

	resp, err := f.client.Do(hreq)
	if err != nil {
		if len(cached) > 0 {
			f.log.Error("fetch failed, using cached body", err, "id", req.ID, "url", RedactURL(req.URL))
			return fromCache, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, err
		}

		now := f.now().UTC()
		next := cacheEntry{
			URL:          req.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			ChangedAt:    now,
			UpdatedAt:    now,
		}
		if bytes.Equal(body, cached) && !meta.ChangedAt.IsZero() {
			next.ChangedAt = meta.ChangedAt
		}
		if err := saveCache(dir, next, body); err != nil {
			f.log.Error("cache save failed", err, "id", req.ID, "url", RedactURL(req.URL))
		}

		f.log.Info("fetch success", "id", req.ID, "url", RedactURL(req.URL), "bytes", len(body))
		return Result{Body: body, Modified: next.modified()}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Result{}, ErrNoCachedBody
		}
		f.log.Info("fetch not modified, using cache", "id", req.ID, "url", RedactURL(req.URL))
		return fromCache, nil

	default:
		statusErr := fmt.Errorf("httpcache: %s", resp.Status)
		if len(cached) > 0 {
			f.log.Error("fetch non-OK, using cached body", statusErr, "id", req.ID, "url", RedactURL(req.URL), "status", resp.StatusCode)
			return fromCache, nil
		}
		return Result{}, statusErr
	}
}

func (f *Fetcher) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(dir string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// RedactURL keeps only the scheme and host of u, for logging.
func RedactURL(u string) string {
	const suffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "..." + suffix
	}
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + suffix
}
