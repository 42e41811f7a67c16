package fetcher

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/IshaanNene/ArticleGoat/internal/config"
)

// BlockingDetector judges whether a response is a refusal page rather than
// the article. It is a heuristic: short legitimate pages and silent
// soft-blocks both slip through.
type BlockingDetector struct {
	minBytes int
	maxBytes int
	phrases  []string
}

// NewBlockingDetector builds a detector from config.
func NewBlockingDetector(cfg config.BlockingConfig) BlockingDetector {
	phrases := make([]string, 0, len(cfg.Phrases))
	for _, p := range cfg.Phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}
	return BlockingDetector{
		minBytes: cfg.MinBytes,
		maxBytes: cfg.MaxBytes,
		phrases:  phrases,
	}
}

// IsBlocked reports whether html/status look like a block page.
func (d BlockingDetector) IsBlocked(html string, statusCode int) bool {
	blocked, _ := d.Check(html, statusCode)
	return blocked
}

// Check is IsBlocked plus a short reason for logs.
func (d BlockingDetector) Check(html string, statusCode int) (bool, string) {
	if statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests {
		return true, fmt.Sprintf("status %d", statusCode)
	}
	if len(html) < d.minBytes {
		return true, fmt.Sprintf("body too small (%d < %d bytes)", len(html), d.minBytes)
	}
	if d.maxBytes > 0 && len(html) > d.maxBytes {
		return true, fmt.Sprintf("body too large (%d > %d bytes)", len(html), d.maxBytes)
	}

	lower := strings.ToLower(html)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return true, fmt.Sprintf("phrase %q", p)
		}
	}
	if kind, _ := DetectCAPTCHA(html); kind != "" {
		return true, "captcha widget " + string(kind)
	}
	return false, ""
}
