package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// RetryObserver is notified before each retry. Metrics hook into it.
type RetryObserver func(rawURL string, attempt int, wait time.Duration, err error)

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client     *http.Client
	cfg        config.FetcherConfig
	limiter    *DomainLimiter
	detector   BlockingDetector
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64
	bodyCap    int64 // decoded bytes; 0 means unbounded
	onRetry    RetryObserver

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// HTTPOption configures the HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithRetryObserver registers a callback fired before every retry.
func WithRetryObserver(fn RetryObserver) HTTPOption {
	return func(f *HTTPFetcher) { f.onRetry = fn }
}

// NewHTTPFetcher creates a new HTTP fetcher. limiter may be nil.
func NewHTTPFetcher(cfg *config.Config, limiter *DomainLimiter, logger *slog.Logger, opts ...HTTPOption) *HTTPFetcher {
	fc := cfg.Fetcher

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        fc.MaxIdleConns,
		MaxIdleConnsPerHost: max(fc.MaxIdleConns/2, 1),
		IdleConnTimeout:     fc.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: fc.TLSInsecure,
		},
		DisableCompression: true, // decompression (including brotli) happens in decompressReader
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !fc.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= fc.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", fc.MaxRedirects)
		}
		return nil
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: redirectPolicy,
			Jar:           newSessionJar(),
		},
		cfg:        fc,
		limiter:    limiter,
		detector:   NewBlockingDetector(cfg.Blocking),
		logger:     logger.With("component", "http_fetcher"),
		userAgents: fc.UserAgents,
		bodyCap:    max(fc.MaxBodySize, int64(cfg.Blocking.MaxBytes)),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL, retrying transient failures with exponential
// backoff. It never returns a Go error.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts Options) (res types.FetchResult) {
	start := time.Now()
	res = types.FetchResult{RequestedURL: rawURL, FinalURL: rawURL}
	defer func() {
		if r := recover(); r != nil {
			res.Status = types.FetchError
			res.Err = fmt.Sprintf("panic during fetch: %v", r)
		}
		res.Elapsed = time.Since(start)
	}()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	attempts := max(f.cfg.MaxRetries, 1)
	domain := types.RegistrableDomain(rawURL)

	var lastErr *types.AttemptError
	for attempt := 1; attempt <= attempts; attempt++ {
		res.Attempts = attempt

		if err := f.limiter.Wait(ctx, domain); err != nil {
			res.Status = types.FetchError
			res.Err = fmt.Sprintf("rate limiter: %v", err)
			return res
		}

		page, ferr := f.do(ctx, rawURL, timeout, opts.Headers)
		if ferr == nil && page.oversized {
			res.FinalURL = page.finalURL
			res.StatusCode = page.status
			res.Status = types.FetchBlocked
			res.BlockReason = fmt.Sprintf("body too large (> %d bytes)", f.bodyCap)
			res.Err = "blocked: " + res.BlockReason
			f.logger.Debug("fetch oversized", "url", rawURL, "cap", f.bodyCap, "attempt", attempt)
			return res
		}
		if ferr == nil {
			res.FinalURL = page.finalURL
			res.StatusCode = page.status
			res.HTML = page.body
			res.HasHTML = true
			res.Status = types.FetchOK
			if blocked, reason := f.detector.Check(page.body, page.status); blocked {
				res.Status = types.FetchBlocked
				res.BlockReason = reason
				res.Err = "blocked: " + reason
			}
			f.logger.Debug("fetch complete",
				"url", rawURL,
				"final_url", res.FinalURL,
				"status", page.status,
				"size", len(page.body),
				"attempt", attempt,
				"fetch_status", res.Status,
			)
			return res
		}

		lastErr = ferr
		res.StatusCode = ferr.StatusCode

		if ferr.StatusCode == http.StatusForbidden {
			res.Status = types.FetchBlocked
			res.BlockReason = "status 403"
			res.Err = ferr.Error()
			return res
		}
		if !ferr.Retryable || ctx.Err() != nil || attempt == attempts {
			break
		}

		wait := f.backoff(attempt, ferr)
		if f.onRetry != nil {
			f.onRetry(rawURL, attempt, wait, ferr)
		}
		f.logger.Debug("retrying fetch",
			"url", rawURL,
			"attempt", attempt,
			"wait", wait,
			"error", ferr,
		)
		if err := f.sleep(ctx, wait); err != nil {
			break
		}
	}

	res.Err = lastErr.Error()
	switch {
	case lastErr.StatusCode == http.StatusTooManyRequests:
		res.Status = types.FetchBlocked
		res.BlockReason = "status 429"
	case lastErr.Timeout:
		res.Status = types.FetchTimeout
	default:
		res.Status = types.FetchError
	}
	return res
}

type fetchedPage struct {
	finalURL  string
	status    int
	body      string
	oversized bool
}

// do performs a single attempt under its own timeout.
func (f *HTTPFetcher) do(ctx context.Context, rawURL string, timeout time.Duration, headers map[string]string) (*fetchedPage, *types.AttemptError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.AttemptError{URL: rawURL, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}

	httpReq.Header.Set("User-Agent", f.nextUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, f.classifyTransportError(ctx, rawURL, err)
	}
	defer httpResp.Body.Close()

	status := httpResp.StatusCode
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.AttemptError{
			URL:        rawURL,
			StatusCode: status,
			Err:        fmt.Errorf("HTTP %d (retry after %s): %s", status, retryAfter, strings.TrimSpace(string(snippet))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	case status >= 500:
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, &types.AttemptError{
			URL:        rawURL,
			StatusCode: status,
			Err:        fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(snippet))),
			Retryable:  true,
		}
	case status == http.StatusNotFound || status == http.StatusGone:
		return nil, &types.AttemptError{
			URL:        rawURL,
			StatusCode: status,
			Err:        fmt.Errorf("%w: HTTP %d", types.ErrNotFound, status),
		}
	case status >= 300:
		return nil, &types.AttemptError{
			URL:        rawURL,
			StatusCode: status,
			Err:        fmt.Errorf("HTTP %d", status),
		}
	}

	reader, err := decompressReader(httpResp, httpResp.Body)
	if err != nil {
		return nil, &types.AttemptError{URL: rawURL, StatusCode: status, Err: fmt.Errorf("decompress: %w", err)}
	}
	reader, err = charset.NewReader(reader, httpResp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &types.AttemptError{URL: rawURL, StatusCode: status, Err: fmt.Errorf("charset: %w", err)}
	}

	// the cap applies to decoded bytes; one extra byte tells truncation apart
	if f.bodyCap > 0 {
		reader = io.LimitReader(reader, f.bodyCap+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		fe := f.classifyTransportError(ctx, rawURL, err)
		fe.StatusCode = status
		return nil, fe
	}
	if len(body) == 0 {
		return nil, &types.AttemptError{URL: rawURL, StatusCode: status, Err: types.ErrEmptyResponse}
	}
	if f.bodyCap > 0 && int64(len(body)) > f.bodyCap {
		return &fetchedPage{finalURL: httpResp.Request.URL.String(), status: status, oversized: true}, nil
	}

	return &fetchedPage{
		finalURL: httpResp.Request.URL.String(),
		status:   status,
		body:     string(body),
	}, nil
}

// classifyTransportError separates per-attempt timeouts (retryable) from a
// cancelled parent context (not retryable).
func (f *HTTPFetcher) classifyTransportError(parent context.Context, rawURL string, err error) *types.AttemptError {
	fe := &types.AttemptError{URL: rawURL, Err: err}
	if parent.Err() != nil {
		fe.Err = fmt.Errorf("cancelled: %w", parent.Err())
		return fe
	}
	if isTimeout(err) {
		fe.Timeout = true
		fe.Retryable = true
		fe.Err = fmt.Errorf("%w: %v", types.ErrTimeout, err)
		return fe
	}
	fe.Retryable = isRetryableError(err)
	return fe
}

// backoff returns the wait before the next attempt. 429/503 wait twice the
// normal delay, or Retry-After if that is longer.
func (f *HTTPFetcher) backoff(attempt int, ferr *types.AttemptError) time.Duration {
	wait := f.cfg.BackoffBase << (attempt - 1)
	if f.cfg.BackoffMax > 0 && (wait > f.cfg.BackoffMax || wait <= 0) {
		wait = f.cfg.BackoffMax
	}
	if ferr.StatusCode == http.StatusTooManyRequests || ferr.StatusCode == http.StatusServiceUnavailable {
		wait *= 2
		if ferr.RetryAfter > wait {
			wait = ferr.RetryAfter
		}
	}
	return wait
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "ArticleGoat/" + config.Version
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isRetryableError checks if a network error warrants a retry.
// Covers connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats. Capped at 2 minutes.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
