package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/engine"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// maxParallelFeeds bounds concurrent feed downloads.
const maxParallelFeeds = 4

// Feed is one configured RSS/Atom feed.
type Feed struct {
	Name   string `yaml:"name"`
	Nombre string `yaml:"nombre"`
	URL    string `yaml:"url"`
}

// DisplayName returns the feed's name, falling back to its host.
func (f Feed) DisplayName() string {
	switch {
	case f.Name != "":
		return f.Name
	case f.Nombre != "":
		return f.Nombre
	default:
		return types.RegistrableDomain(f.URL)
	}
}

// FeedFile is the on-disk feed list. JSON is accepted too.
type FeedFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeedFile reads and validates a feed list.
func LoadFeedFile(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}
	var ff FeedFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse feed file %s: %w", path, err)
	}
	var feeds []Feed
	for i, f := range ff.Feeds {
		f.URL = strings.TrimSpace(f.URL)
		if err := config.ValidateURL(f.URL); err != nil {
			return nil, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		feeds = append(feeds, f)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("feed file %s lists no feeds", path)
	}
	return feeds, nil
}

// FeedSource downloads feeds, keeps the items matching the keyword filter
// and turns them into tasks, dropping duplicate URLs.
type FeedSource struct {
	feeds    []Feed
	filter   *KeywordFilter
	dedup    *engine.Deduplicator
	timeout  time.Duration
	maxItems int
	client   *http.Client
	logger   *slog.Logger
}

// NewFeedSource creates a feed source from the source config.
func NewFeedSource(feeds []Feed, cfg config.SourceConfig, logger *slog.Logger) *FeedSource {
	timeout := cfg.FeedTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &FeedSource{
		feeds:    feeds,
		filter:   NewKeywordFilter(cfg.Keywords),
		dedup:    engine.NewDeduplicator(1024),
		timeout:  timeout,
		maxItems: cfg.MaxItems,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("component", "feed_source"),
	}
}

// Tasks fetches every feed in parallel. A failing feed is logged and
// skipped; the result keeps feed order.
func (s *FeedSource) Tasks(ctx context.Context) ([]types.ArticleTask, error) {
	perFeed := make([][]*gofeed.Item, len(s.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for i, f := range s.feeds {
		g.Go(func() error {
			items, err := s.fetch(gctx, f)
			if err != nil {
				s.logger.Warn("feed failed", "feed", f.DisplayName(), "url", f.URL, "error", err)
				return nil
			}
			perFeed[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tasks []types.ArticleTask
	var seen, matched, dupes int
	for i, items := range perFeed {
		f := s.feeds[i]
		for _, item := range items {
			seen++
			task, ok := s.toTask(f, item)
			if !ok {
				continue
			}
			matched++
			if !s.dedup.Add(task.URL) {
				dupes++
				continue
			}
			tasks = append(tasks, task)
		}
	}
	s.logger.Info("feeds processed",
		"feeds", len(s.feeds),
		"items", seen,
		"matched", matched,
		"duplicates", dupes,
		"tasks", len(tasks),
	)
	return tasks, nil
}

func (s *FeedSource) fetch(ctx context.Context, f Feed) ([]*gofeed.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = s.client
	fp.UserAgent = "ArticleGoat/" + config.Version
	feed, err := fp.ParseURLWithContext(f.URL, ctx)
	if err != nil {
		return nil, err
	}
	items := feed.Items
	if s.maxItems > 0 && len(items) > s.maxItems {
		items = items[:s.maxItems]
	}
	s.logger.Debug("feed parsed", "feed", f.DisplayName(), "items", len(items))
	return items, nil
}

func (s *FeedSource) toTask(f Feed, item *gofeed.Item) (types.ArticleTask, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" || item.Link == "" {
		return types.ArticleTask{}, false
	}
	summary := stripHTML(item.Description)

	kw, ok := s.filter.Match(title, summary)
	if !ok {
		return types.ArticleTask{}, false
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	}

	task, err := types.NewArticleTask(f.DisplayName(), strings.TrimSpace(item.Link), title, summary, published)
	if err != nil {
		s.logger.Debug("skipping feed item", "link", item.Link, "error", err)
		return types.ArticleTask{}, false
	}
	s.logger.Debug("feed item matched", "keyword", kw, "title", title)
	return task, true
}

// stripHTML reduces an HTML fragment to its text with spaces collapsed.
func stripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
