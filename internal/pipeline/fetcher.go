package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veracity-tools/lorecheck/internal/ingest"
	"github.com/veracity-tools/lorecheck/internal/util"
	"github.com/veracity-tools/lorecheck/internal/worker"
)

// maxRedirects bounds redirect chains when fetching remote novels
const maxRedirects = 3

// Fetcher retrieves novel text from URLs. Public-domain archives serve
// novels as HTML or plain text; both are reduced to normalized text.
type Fetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.HostLimiter
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a Fetcher with the given HTTP limits
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		robots:    util.NewRobotsChecker(userAgent, timeout),
		limiter:   worker.NewHostLimiter(1.0, 1),
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch retrieves a novel from the given URL. The book identifier is derived
// from the final URL's last path segment unless bookName overrides it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, bookName string) (*ingest.Novel, error) {
	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("fetch disallowed by robots.txt: %s", rawURL)
	}
	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch novel: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	book := bookName
	if book == "" {
		book = bookFromURL(finalURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		return ingest.NovelFromHTML(book, string(body))
	}
	return &ingest.Novel{Book: book, Text: ingest.NormalizeText(string(body))}, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// bookFromURL derives a book identifier from the URL's last path segment
func bookFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	last = strings.ReplaceAll(last, "-", "_")
	return last
}
