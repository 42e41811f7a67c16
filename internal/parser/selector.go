package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// DomainSelectorExtractor pulls the article body with per-domain selectors.
// Domains without a configured list are skipped.
type DomainSelectorExtractor struct {
	selectors map[string][]string
	strip     []string
	minLength int
	metadata  *StructuredDataExtractor
	logger    *slog.Logger
}

// NewDomainSelectorExtractor builds the extractor from the merged selector
// map (see config.DomainSelectorMap).
func NewDomainSelectorExtractor(selectors map[string][]string, cfg config.ExtractorConfig, logger *slog.Logger) *DomainSelectorExtractor {
	normalized := make(map[string][]string, len(selectors))
	for d, list := range selectors {
		normalized[config.NormalizeDomain(d)] = list
	}
	return &DomainSelectorExtractor{
		selectors: normalized,
		strip:     cfg.StripSelectors,
		minLength: cfg.MinTextLengthWarning,
		metadata:  NewStructuredDataExtractor(logger),
		logger:    logger.With("component", "selector_extractor"),
	}
}

// SelectorsFor returns the selector list for pageURL's domain, looking up the
// bare host first and the registrable domain second.
func (e *DomainSelectorExtractor) SelectorsFor(pageURL string) (string, []string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", nil
	}
	host := config.NormalizeDomain(u.Hostname())
	if list, ok := e.selectors[host]; ok {
		return host, list
	}
	reg := types.RegistrableDomain(host)
	if list, ok := e.selectors[reg]; ok {
		return reg, list
	}
	return "", nil
}

// Extract applies the domain's selectors in order and keeps the longest
// text, preferring the earlier selector on ties. It returns false when the
// domain is unknown, nothing matched, or the winner is not longer than the
// minimum.
func (e *DomainSelectorExtractor) Extract(html, pageURL string) (*types.ExtractionResult, bool) {
	domain, selectors := e.SelectorsFor(pageURL)
	if len(selectors) == 0 {
		return nil, false
	}

	doc, err := ParseDocument(html)
	if err != nil {
		e.logger.Debug("parse failed", "url", pageURL, "error", err)
		return nil, false
	}
	meta := e.metadata.Metadata(doc)
	StripElements(doc, e.strip)

	var best string
	bestLen := 0
	bestSelector := ""
	for _, sel := range selectors {
		texts, err := e.apply(doc, sel)
		if err != nil {
			e.logger.Warn("invalid selector", "domain", domain, "selector", sel, "error", err)
			continue
		}
		for _, t := range texts {
			if n := utf8.RuneCountInString(t); n > bestLen {
				best, bestLen, bestSelector = t, n, sel
			}
		}
	}

	if bestLen <= e.minLength {
		e.logger.Debug("selector text too short",
			"url", pageURL,
			"domain", domain,
			"chars", bestLen,
			"min", e.minLength,
		)
		return nil, false
	}

	e.logger.Debug("selector matched", "url", pageURL, "selector", bestSelector, "chars", bestLen)

	return &types.ExtractionResult{
		Text:        best,
		Language:    meta.Language,
		Author:      meta.Author,
		PublishDate: meta.Published,
		Method:      types.MethodDomainSelector,
		Status:      types.ResultOK,
		CharCount:   bestLen,
		WordCount:   len(strings.Fields(best)),
	}, true
}

func (e *DomainSelectorExtractor) apply(doc *goquery.Document, sel string) ([]string, error) {
	if expr, ok := strings.CutPrefix(sel, xpathPrefix); ok {
		if len(doc.Nodes) == 0 {
			return nil, fmt.Errorf("empty document")
		}
		return xpathTexts(doc.Nodes[0], strings.TrimSpace(expr))
	}
	return cssTexts(doc, sel)
}
