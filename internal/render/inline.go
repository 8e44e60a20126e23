package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// InlineImage is an inline message attachment addressable via a cid:
// reference in the HTML body.
type InlineImage struct {
	ContentID   string
	ContentType string
	Data        []byte
}

var (
	cidSrcPattern    = regexp.MustCompile(`(?i)src\s*=\s*(?:"cid:([^"]*)"|'cid:([^']*)')`)
	lazySrcPattern   = regexp.MustCompile(`(?i)\s(?:data-src|data-original)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	srcsetPattern    = regexp.MustCompile(`(?i)\ssrcset\s*=\s*(?:"[^"]*"|'[^']*')`)
	remoteSrcPattern = regexp.MustCompile(`(?i)src\s*=\s*(?:"(https?://[^"]+)"|'(https?://[^']+)')`)

	angleBrackets = strings.NewReplacer("<", "", ">", "")
)

// InlineCidImages substitutes cid: image references with base64 data URIs
// built from the message's inline attachments. Content IDs are matched
// case-insensitively with angle brackets stripped; references with no
// matching attachment are left unchanged.
func InlineCidImages(html string, images []InlineImage) string {
	if len(images) == 0 {
		return html
	}

	uris := make(map[string]string, len(images))
	for _, img := range images {
		cid := strings.ToLower(strings.TrimSpace(angleBrackets.Replace(img.ContentID)))
		if cid == "" {
			continue
		}
		ctype := img.ContentType
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		uris[cid] = fmt.Sprintf("data:%s;base64,%s", ctype, base64.StdEncoding.EncodeToString(img.Data))
	}

	return cidSrcPattern.ReplaceAllStringFunc(html, func(match string) string {
		cid, quote := submatchWithQuote(cidSrcPattern, match)
		key := strings.ToLower(strings.TrimSpace(angleBrackets.Replace(cid)))
		uri, ok := uris[key]
		if !ok {
			return match
		}
		return fmt.Sprintf("src=%s%s%s", quote, uri, quote)
	})
}

// RemoteInlineStats accounts for every remote reference considered by
// InlineRemoteImages: each one was either inlined or kept verbatim.
type RemoteInlineStats struct {
	Inlined int
	Kept    int
}

// RemoteInliner rewrites remote image references into data URIs, keeping the
// original reference on any per-image failure.
type RemoteInliner struct {
	fetcher      ImageFetcher
	maxURLLength int
	logger       *slog.Logger
}

// NewRemoteInliner builds an inliner over fetcher. maxURLLength <= 0 selects
// the default ceiling.
func NewRemoteInliner(fetcher ImageFetcher, maxURLLength int, logger *slog.Logger) *RemoteInliner {
	if maxURLLength <= 0 {
		maxURLLength = DefaultMaxURLLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteInliner{fetcher: fetcher, maxURLLength: maxURLLength, logger: logger}
}

// Inline performs the remote-image pass: lazy-loading attributes are promoted
// to src, srcset attributes are dropped, and every absolute http(s) src is
// fetched and substituted with a data URI. Fetch failures, oversized bodies,
// and over-long URLs leave the original reference untouched.
func (r *RemoteInliner) Inline(ctx context.Context, html string) (string, RemoteInlineStats) {
	var stats RemoteInlineStats
	if html == "" {
		return html, stats
	}

	html = lazySrcPattern.ReplaceAllStringFunc(html, func(match string) string {
		val, quote := submatchWithQuote(lazySrcPattern, match)
		return fmt.Sprintf(" src=%s%s%s", quote, val, quote)
	})
	html = srcsetPattern.ReplaceAllString(html, "")

	html = remoteSrcPattern.ReplaceAllStringFunc(html, func(match string) string {
		rawURL, quote := submatchWithQuote(remoteSrcPattern, match)
		uri, ok := r.resolve(ctx, rawURL)
		if !ok {
			stats.Kept++
			return match
		}
		stats.Inlined++
		return fmt.Sprintf("src=%s%s%s", quote, uri, quote)
	})

	return html, stats
}

// resolve fetches one remote image and returns its data URI. A false result
// means the caller must keep the original reference.
func (r *RemoteInliner) resolve(ctx context.Context, rawURL string) (string, bool) {
	url := normalizeProxyURL(rawURL)
	if len(url) > r.maxURLLength {
		r.logger.Debug("Skipping over-long image URL", "length", len(url))
		return "", false
	}

	img, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.logger.Debug("Keeping original image reference", "url", url, "error", err)
		return "", false
	}

	return fmt.Sprintf("data:%s;base64,%s", img.ContentType, base64.StdEncoding.EncodeToString(img.Data)), true
}

// submatchWithQuote extracts the single captured value from a two-branch
// quoted-attribute pattern along with the quote character that carried it.
func submatchWithQuote(re *regexp.Regexp, match string) (value, quote string) {
	sub := re.FindStringSubmatch(match)
	switch {
	case sub[1] != "":
		return sub[1], `"`
	case sub[2] != "":
		return sub[2], "'"
	case strings.Contains(match, `"`):
		return "", `"`
	default:
		return "", "'"
	}
}
