// Package fetch implements the fetch executor and recorder of spec §4.1/4.2:
// one HTTP request with timeout/redirect/byte-accounting, and the
// append-plus-latest-lookup cache layer the domain processor consults
// before spending a request.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/interfaces"
)

// Executor is the net/http-backed implementation of interfaces.Fetcher.
// Grounded on the teacher's html_scraper.go request-timing shape, trimmed
// down to the plain request/response contract spec.md calls for (no
// scraping framework, no retry at this layer).
type Executor struct {
	client *http.Client
	logger arbor.ILogger
}

var _ interfaces.Fetcher = (*Executor)(nil)

// NewExecutor builds a fetch executor. The client is shared across calls;
// per-call timeouts are applied via context.WithTimeout, not via the
// client's own Timeout field, so callers can race one client across many
// concurrent requests with different deadlines.
func NewExecutor(logger arbor.ILogger) *Executor {
	return &Executor{
		client: &http.Client{},
		logger: logger,
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Fetch performs one HTTP request. It never returns a non-nil error for a
// network failure or timeout — those are carried in FetchResult.Ok/Error
// per spec §4.1; a non-nil error here means the caller passed a malformed
// argument.
func (e *Executor) Fetch(ctx context.Context, targetURL string, opts interfaces.FetchOptions) (*interfaces.FetchResult, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := 15 * time.Second
	if opts.TimeoutMs > 0 {
		timeout = time.Duration(opts.TimeoutMs) * time.Millisecond
	}

	requestStarted := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, err
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	redirectCount := 0
	client := *e.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		redirectCount = len(via)
		if len(via) >= 10 {
			return http.ErrUseLastResponse
		}
		return nil
	}

	resp, err := client.Do(req)
	fetchedAt := time.Now()
	if err != nil {
		status := 500
		if ctx.Err() == context.DeadlineExceeded {
			status = 408
		}
		return &interfaces.FetchResult{
			Ok:               false,
			HTTPStatus:       status,
			FinalURL:         targetURL,
			Body:             "",
			Error:            err.Error(),
			RequestStartedAt: requestStarted.UnixMilli(),
			FetchedAt:        fetchedAt.UnixMilli(),
			TotalMs:          fetchedAt.UnixMilli() - requestStarted.UnixMilli(),
			RedirectCount:    redirectCount,
		}, nil
	}
	defer resp.Body.Close()

	var body string
	var bytesDownloaded int64
	if method != http.MethodHead {
		counter := &countingReader{r: resp.Body}
		var buf bytes.Buffer
		_, readErr := io.Copy(&buf, counter)
		bytesDownloaded = counter.n
		if readErr != nil {
			fetchedAt = time.Now()
			status := 500
			if ctx.Err() == context.DeadlineExceeded {
				status = 408
			}
			return &interfaces.FetchResult{
				Ok:               false,
				HTTPStatus:       status,
				FinalURL:         resp.Request.URL.String(),
				Body:             "",
				Error:            readErr.Error(),
				RequestStartedAt: requestStarted.UnixMilli(),
				FetchedAt:        fetchedAt.UnixMilli(),
				TotalMs:          fetchedAt.UnixMilli() - requestStarted.UnixMilli(),
				RedirectCount:    redirectCount,
			}, nil
		}
		body = buf.String()
	}

	fetchedAt = time.Now()
	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = bytesDownloaded
	}

	return &interfaces.FetchResult{
		Ok:               true,
		HTTPStatus:       resp.StatusCode,
		FinalURL:         resp.Request.URL.String(),
		Body:             body,
		Headers:          map[string][]string(resp.Header),
		RequestStartedAt: requestStarted.UnixMilli(),
		FetchedAt:        fetchedAt.UnixMilli(),
		BytesDownloaded:  bytesDownloaded,
		ContentType:      strings.TrimSpace(resp.Header.Get("Content-Type")),
		ContentLength:    contentLength,
		TotalMs:          fetchedAt.UnixMilli() - requestStarted.UnixMilli(),
		RedirectCount:    redirectCount,
	}, nil
}
