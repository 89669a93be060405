// Package feed fetches the raw trade log.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrStatus is returned for any non-200 response.
var ErrStatus = errors.New("unexpected status")

// Source yields the current contents of a trade log.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// New picks a Source for rawURL: http(s) URLs are fetched over the network,
// file:// URLs and bare paths are read from disk.
func New(rawURL string, timeout time.Duration) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing trade log url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPFeed(rawURL, timeout), nil
	case "file":
		return NewFileFeed(u.Path), nil
	case "":
		return NewFileFeed(rawURL), nil
	}
	return nil, fmt.Errorf("unsupported trade log scheme %q", u.Scheme)
}

// HTTPFeed fetches a remote CSV, bypassing any intermediate cache.
type HTTPFeed struct {
	health
	url    string
	client *http.Client
	now    func() time.Time
}

func NewHTTPFeed(rawURL string, timeout time.Duration) *HTTPFeed {
	return &HTTPFeed{
		health: health{name: "http"},
		url:    rawURL,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (f *HTTPFeed) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return nil, fmt.Errorf("parsing trade log url: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.client.Do(req)
	if err != nil {
		f.fail(err)
		return nil, fmt.Errorf("fetching trade log: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
		f.fail(err)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.fail(err)
		return nil, fmt.Errorf("reading trade log: %w", err)
	}
	f.ok()
	slog.Debug("fetched trade log", "bytes", len(data))
	return data, nil
}

// FileFeed reads a local CSV on every fetch.
type FileFeed struct {
	health
	path string
}

func NewFileFeed(path string) *FileFeed {
	return &FileFeed{health: health{name: "file"}, path: path}
}

func (f *FileFeed) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.fail(err)
		return nil, fmt.Errorf("reading trade log: %w", err)
	}
	f.ok()
	return data, nil
}

// Status is a point-in-time view of a feed's health.
type Status struct {
	Name        string
	LastSuccess time.Time
	LastError   string
}

// health records the outcome of the latest fetch.
type health struct {
	name        string
	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
}

func (h *health) Name() string { return h.name }

func (h *health) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Status{Name: h.name, LastSuccess: h.lastSuccess}
	if h.lastErr != nil {
		s.LastError = h.lastErr.Error()
	}
	return s
}

func (h *health) ok() {
	h.mu.Lock()
	h.lastSuccess = time.Now()
	h.lastErr = nil
	h.mu.Unlock()
}

func (h *health) fail(err error) {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
}
