package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// trackingParams are dropped during canonicalization so the same article
// shared through different campaigns collapses to one URL.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
	"rss":          {},
}

// Deduplicator tracks canonical article URLs.
type Deduplicator struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewDeduplicator creates a new Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// IsSeen returns true if the URL (after canonicalization) has been seen before.
func (d *Deduplicator) IsSeen(rawURL string) bool {
	hash := hashURL(CanonicalizeURL(rawURL))

	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[hash]
	return ok
}

// MarkSeen marks a URL as seen.
func (d *Deduplicator) MarkSeen(rawURL string) {
	hash := hashURL(CanonicalizeURL(rawURL))

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[hash] = struct{}{}
}

// Add marks the URL as seen and reports whether it was new.
func (d *Deduplicator) Add(rawURL string) bool {
	hash := hashURL(CanonicalizeURL(rawURL))

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[hash]; ok {
		return false
	}
	d.seen[hash] = struct{}{}
	return true
}

// Count returns the number of unique URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}

// CanonicalizeURL normalizes an article URL:
// - lowercases scheme and host, drops "www."
// - removes fragment and tracking parameters
// - sorts the remaining query parameters
// - removes trailing slash (except root) and default ports
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			if _, drop := trackingParams[strings.ToLower(k)]; drop {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// hashURL creates a compact hash of a URL string.
func hashURL(canonicalURL string) string {
	h := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(h[:16])
}
