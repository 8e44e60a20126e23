package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultMaxImageBytes caps how much of a remote image will be inlined.
	DefaultMaxImageBytes = 5 * 1024 * 1024
	// DefaultMaxURLLength skips absurdly long (usually tracking-pixel) URLs.
	DefaultMaxURLLength = 2000
	// DefaultUserAgent identifies fetches made while embedding images.
	DefaultUserAgent = "Mozilla/5.0 (purchase-archiver PDF embedder)"
)

// FetchedImage is the body and declared (or inferred) type of a remote image.
type FetchedImage struct {
	ContentType string
	Data        []byte
}

// ImageFetcher retrieves remote images for inlining. Implementations must
// treat non-200 responses and oversized bodies as errors; callers keep the
// original reference on any error.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedImage, error)
}

// HTTPFetcher is the production ImageFetcher. Redirects are followed by the
// underlying client; errors are returned, never logged here, so the caller
// owns the keep-original-on-failure contract.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout and
// byte ceiling. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch downloads url and returns its bytes plus content type. The content
// type falls back to extension sniffing when the response omits the header.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	// Read one byte past the ceiling so violations are detectable.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("image at %s exceeds %d byte limit", url, f.maxBytes)
	}

	ctype := resp.Header.Get("Content-Type")
	if ctype == "" {
		ctype = inferContentType(url)
	}

	return &FetchedImage{ContentType: ctype, Data: data}, nil
}

var (
	pngExt  = regexp.MustCompile(`(?i)\.(png)(\?|$)`)
	jpegExt = regexp.MustCompile(`(?i)\.(jpe?g)(\?|$)`)
	gifExt  = regexp.MustCompile(`(?i)\.(gif)(\?|$)`)
	webpExt = regexp.MustCompile(`(?i)\.(webp)(\?|$)`)

	googleProxyPattern = regexp.MustCompile(`(?i)googleusercontent\.com/proxy/`)
)

// inferContentType guesses an image type from the URL's file extension when
// the response carried no Content-Type header.
func inferContentType(url string) string {
	switch {
	case pngExt.MatchString(url):
		return "image/png"
	case jpegExt.MatchString(url):
		return "image/jpeg"
	case gifExt.MatchString(url):
		return "image/gif"
	case webpExt.MatchString(url):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// normalizeProxyURL unwraps Google image-proxy URLs, which carry the real
// target after a trailing fragment. Other URLs pass through unchanged.
func normalizeProxyURL(u string) string {
	if googleProxyPattern.MatchString(u) {
		if hash := strings.Index(u, "#"); hash > -1 {
			return u[hash+1:]
		}
	}
	return u
}
