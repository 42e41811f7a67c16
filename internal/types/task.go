package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ArticleTask is one article to extract, as handed over by the feed stage.
type ArticleTask struct {
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published"`
}

// NewArticleTask validates rawURL and returns a task for it.
func NewArticleTask(source, rawURL, title, summary string, published time.Time) (ArticleTask, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return ArticleTask{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return ArticleTask{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return ArticleTask{
		Source:    source,
		URL:       rawURL,
		Title:     title,
		Summary:   summary,
		Published: published,
	}, nil
}

// Host returns the lower-cased hostname of the task URL.
func (t ArticleTask) Host() string {
	u, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
