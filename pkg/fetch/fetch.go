// Package fetch retrieves feed documents over HTTP with the safeguards a
// long-running aggregator needs: conditional requests, response size caps,
// bounded redirects, retry with backoff and protection against requests into
// private address space.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// ErrNotModified reports a 304 response to a conditional request. The caller
// keeps its cached copy, there is no body to parse.
var ErrNotModified = errors.New("feed not modified")

// ErrBodyTooLarge reports a response body over the configured cap.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// errNoRetry wraps failures that repeating cannot fix, like 4xx statuses.
var errNoRetry = errors.New("permanent fetch error")

// Options configures a Fetcher. The zero value is usable, every field has a
// default.
type Options struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Per-request timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User-Agent header value"`
	MaxBodySize  int64         `yaml:"max_body_size" json:"max_body_size" jsonschema:"default=104857600,description=Maximum response body size in bytes"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects" jsonschema:"default=10,description=Maximum redirects followed"`
	Retries      int           `yaml:"retries" json:"retries" jsonschema:"default=3,description=Attempts for retryable failures"`
	AllowPrivate bool          `yaml:"allow_private" json:"allow_private" jsonschema:"description=Allow fetching from private and loopback addresses"`
}

func (o *Options) setDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "feedparser/1.0 (+https://github.com/umputun/feedparser)"
	}
	if o.MaxBodySize == 0 {
		o.MaxBodySize = 100 * 1024 * 1024
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = 10
	}
	if o.Retries == 0 {
		o.Retries = 3
	}
}

// Conditional carries the validators from a previous fetch of the same URL.
// Empty fields are simply not sent.
type Conditional struct {
	ETag         string
	LastModified string
}

// Result is a successfully fetched document plus the validators and metadata
// needed for the next conditional request.
type Result struct {
	Body         []byte
	ContentType  string
	ETag         string
	LastModified string
	URL          string // final URL after redirects
}

// Fetcher retrieves feeds over HTTP. Safe for concurrent use.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New creates a fetcher with the given options.
func New(opts Options) *Fetcher {
	opts.setDefaults()

	f := &Fetcher{opts: opts}
	f.client = &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
			}
			return f.checkTarget(req.Context(), req.URL)
		},
	}
	return f
}

// Fetch retrieves the document at rawURL. A 304 response to a conditional
// request returns ErrNotModified. Network failures and 5xx statuses are
// retried with backoff, other failures are not.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, cond Conditional) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if err := f.checkTarget(ctx, u); err != nil {
		return nil, err
	}

	var res *Result
	retrier := repeater.NewBackoff(f.opts.Retries, 250*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err = retrier.Do(ctx, func() error {
		r, ferr := f.fetchOnce(ctx, rawURL, cond)
		if ferr != nil {
			return ferr
		}
		res = r
		return nil
	}, ErrNotModified, ErrBodyTooLarge, errNoRetry)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, cond Conditional) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", errNoRetry, err)
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	addBrowserHeaders(req)
	if cond.ETag != "" {
		req.Header.Set("If-None-Match", cond.ETag)
	}
	if cond.LastModified != "" {
		req.Header.Set("If-Modified-Since", cond.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-side close

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, ErrNotModified
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status code %d", errNoRetry, resp.StatusCode)
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		URL:          finalURL,
	}, nil
}

// readBody drains the response body up to the size cap, transparently
// decompressing gzip.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", errNoRetry, err)
		}
		defer gz.Close() //nolint:errcheck // read-side close
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.opts.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.opts.MaxBodySize {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, f.opts.MaxBodySize)
	}
	return body, nil
}

// checkTarget rejects URLs a feed fetcher has no business requesting:
// non-http schemes and, unless explicitly allowed, hosts resolving into
// private or loopback address space. Applied to the initial URL and to every
// redirect target.
func (f *Fetcher) checkTarget(ctx context.Context, u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", errNoRetry, u.Scheme)
	}
	if f.opts.AllowPrivate {
		return nil
	}

	host := u.Hostname()
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if privateIP(ip.IP) {
			return fmt.Errorf("%w: %s resolves to restricted address %s", errNoRetry, host, ip.IP)
		}
	}
	return nil
}

func privateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// acceptLanguages contains common browser Accept-Language values
var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9",
	"en-US,en;q=0.9,es;q=0.8",
	"en-US,en;q=0.9,fr;q=0.8",
	"en-US,en;q=0.9,de;q=0.8",
}

// addBrowserHeaders adds browser-like headers for feed fetching
// feeds are often fetched by browsers too, so we want to look legitimate
func addBrowserHeaders(req *http.Request) {
	// accept header for feeds - include both RSS and HTML
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/feed+json,application/json;q=0.9,application/xml;q=0.9,text/xml;q=0.8,text/html;q=0.7,*/*;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	// randomized language
	req.Header.Set("Accept-Language", acceptLanguages[rand.Intn(len(acceptLanguages))]) //nolint:gosec // non-cryptographic randomness is fine for header variation

	// gzip handled by readBody, keeps the size cap on the decoded stream
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Connection", "keep-alive")
}
