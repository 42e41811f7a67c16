// Package extract holds the general-purpose boilerplate-removal extractor.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/parser"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// noise is removed before readability scores the page: comment threads,
// media embeds and link farms.
var noise = []string{
	"script", "style", "noscript", "iframe", "img", "picture", "video", "audio", "figure", "svg",
	"#comments", ".comments", "[class*='comment']", "[id*='comment']",
}

// PrimaryExtractor is the fast path: readability-based boilerplate removal.
type PrimaryExtractor struct {
	minOK    int
	langHint string
	metadata *parser.StructuredDataExtractor
	logger   *slog.Logger
}

// NewPrimaryExtractor creates a primary extractor from configuration.
func NewPrimaryExtractor(cfg config.ExtractorConfig, logger *slog.Logger) *PrimaryExtractor {
	return &PrimaryExtractor{
		minOK:    cfg.MinTextLengthOK,
		langHint: parser.NormalizeLanguage(cfg.LanguageHint),
		metadata: parser.NewStructuredDataExtractor(logger),
		logger:   logger.With("component", "primary_extractor"),
	}
}

// Extract runs readability over html. Short or empty output is reported as
// insufficient content, not as an error.
func (e *PrimaryExtractor) Extract(html, pageURL string) types.ExtractionResult {
	res := types.ExtractionResult{Method: types.MethodPrimary}

	u, err := url.Parse(pageURL)
	if err != nil {
		res.Status = types.ResultError
		res.Err = (&types.ParseError{URL: pageURL, Method: types.MethodPrimary, Err: err}).Error()
		return res
	}

	doc, err := parser.ParseDocument(html)
	if err != nil {
		res.Status = types.ResultError
		res.Err = (&types.ParseError{URL: pageURL, Method: types.MethodPrimary, Err: err}).Error()
		return res
	}
	meta := e.metadata.Metadata(doc)
	parser.StripElements(doc, noise)

	cleaned, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		cleaned = html
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), u)
	if err != nil {
		// readability refuses pages it cannot score; that is a short page, not a crash
		e.logger.Debug("readability found no article", "url", pageURL, "error", err)
		res.Status = types.ResultInsufficient
		res.Err = fmt.Sprintf("readability: %v", err)
		return res
	}

	text := parser.ContentText(article.Content)
	if text == "" {
		text = strings.TrimSpace(article.TextContent)
	}
	res.Text = text
	res.CharCount = utf8.RuneCountInString(text)
	res.WordCount = len(strings.Fields(text))

	res.Author = strings.TrimSpace(article.Byline)
	if res.Author == "" {
		res.Author = meta.Author
	}
	// JSON-LD, then article:published_time
	res.PublishDate = meta.Published
	res.Language = e.language(parser.NormalizeLanguage(article.Language), meta.Language, text)

	if res.CharCount >= e.minOK {
		res.Status = types.ResultOK
	} else {
		res.Status = types.ResultInsufficient
	}
	return res
}

func (e *PrimaryExtractor) language(declared, fromMeta, text string) string {
	if declared != "" {
		return declared
	}
	if fromMeta != "" {
		return fromMeta
	}
	if lang := DetectLanguage(text); lang != "" {
		return lang
	}
	return e.langHint
}
