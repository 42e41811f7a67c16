package fetcher

import (
	"context"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Options tune a single Fetch call. Zero values fall back to the fetcher's
// configured defaults.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
}

// Fetcher retrieves raw HTML for a URL. Implementations never return a Go
// error; every failure is encoded in the FetchResult.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) types.FetchResult

	// Close releases any resources held by the fetcher.
	Close() error
}

// Renderer drives a headless browser and returns the rendered HTML in the
// same shape the HTTP fetcher uses.
type Renderer interface {
	Render(ctx context.Context, rawURL string, timeout time.Duration) types.FetchResult
}
