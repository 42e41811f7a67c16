package parser

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// StructuredDataType identifies the type of structured data.
type StructuredDataType string

const (
	JSONLD    StructuredDataType = "json-ld"
	Microdata StructuredDataType = "microdata"
	OpenGraph StructuredDataType = "opengraph"
	MetaTags  StructuredDataType = "meta"
)

// StructuredData represents extracted structured data from a page.
type StructuredData struct {
	Type StructuredDataType `json:"type"`
	Data map[string]any     `json:"data"`
}

// Metadata is the article-level metadata the extractors attach to a result.
type Metadata struct {
	Title     string
	Author    string
	Published *time.Time
	Language  string
	SiteName  string
}

// StructuredDataExtractor extracts JSON-LD, Microdata, OpenGraph and meta tags.
type StructuredDataExtractor struct {
	logger *slog.Logger
}

// NewStructuredDataExtractor creates a new structured data extractor.
func NewStructuredDataExtractor(logger *slog.Logger) *StructuredDataExtractor {
	return &StructuredDataExtractor{
		logger: logger.With("component", "structured_data"),
	}
}

// Extract finds and parses all structured data in a document.
func (sde *StructuredDataExtractor) Extract(doc *goquery.Document) []StructuredData {
	var results []StructuredData
	results = append(results, sde.extractJSONLD(doc)...)
	if og := sde.extractOpenGraph(doc); len(og.Data) > 0 {
		results = append(results, og)
	}
	results = append(results, sde.extractMicrodata(doc)...)
	if meta := sde.extractMetaTags(doc); len(meta.Data) > 0 {
		results = append(results, meta)
	}
	return results
}

// Metadata reduces the structured data to author, publish date and language.
// Earlier sources win: JSON-LD, then OpenGraph, microdata and meta tags.
func (sde *StructuredDataExtractor) Metadata(doc *goquery.Document) Metadata {
	var m Metadata
	var dates []string

	for _, sd := range sde.Extract(doc) {
		switch sd.Type {
		case JSONLD, Microdata:
			if !isArticleType(sd.Data["@type"]) && sd.Type == JSONLD {
				continue
			}
			if m.Author == "" {
				m.Author = authorName(sd.Data["author"])
			}
			if s, ok := sd.Data["datePublished"].(string); ok {
				dates = append(dates, s)
			}
			if m.Title == "" {
				m.Title, _ = sd.Data["headline"].(string)
			}
			if m.Language == "" {
				m.Language, _ = sd.Data["inLanguage"].(string)
			}
		case OpenGraph:
			if s, ok := sd.Data["article:published_time"].(string); ok {
				dates = append(dates, s)
			}
			if m.SiteName == "" {
				m.SiteName, _ = sd.Data["site_name"].(string)
			}
			if m.Title == "" {
				m.Title, _ = sd.Data["title"].(string)
			}
		case MetaTags:
			if m.Author == "" {
				m.Author, _ = sd.Data["author"].(string)
			}
			if s, ok := sd.Data["date"].(string); ok {
				dates = append(dates, s)
			}
			if m.Title == "" {
				m.Title, _ = sd.Data["title"].(string)
			}
			if m.Language == "" {
				m.Language, _ = sd.Data["lang"].(string)
			}
		}
	}

	for _, d := range dates {
		if t, ok := ParseDate(d); ok {
			m.Published = &t
			break
		}
	}
	m.Author = strings.TrimSpace(m.Author)
	m.Language = NormalizeLanguage(m.Language)
	return m
}

// extractJSONLD parses <script type="application/ld+json"> elements,
// flattening arrays and @graph containers.
func (sde *StructuredDataExtractor) extractJSONLD(doc *goquery.Document) []StructuredData {
	var results []StructuredData

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var objs []map[string]any
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			objs = append(objs, data)
		} else if err := json.Unmarshal([]byte(raw), &objs); err != nil {
			sde.logger.Debug("invalid json-ld", "error", err)
			return
		}

		for _, d := range objs {
			if graph, ok := d["@graph"].([]any); ok {
				for _, g := range graph {
					if gm, ok := g.(map[string]any); ok {
						results = append(results, StructuredData{Type: JSONLD, Data: gm})
					}
				}
				continue
			}
			results = append(results, StructuredData{Type: JSONLD, Data: d})
		}
	})

	return results
}

// extractOpenGraph parses og: and article: meta tags.
func (sde *StructuredDataExtractor) extractOpenGraph(doc *goquery.Document) StructuredData {
	data := make(map[string]any)

	doc.Find(`meta[property^="og:"], meta[property^="article:"]`).Each(func(i int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if property != "" && content != "" {
			data[strings.TrimPrefix(property, "og:")] = content
		}
	})

	return StructuredData{Type: OpenGraph, Data: data}
}

// extractMicrodata parses elements with itemscope/itemprop attributes.
func (sde *StructuredDataExtractor) extractMicrodata(doc *goquery.Document) []StructuredData {
	var results []StructuredData

	doc.Find("[itemscope]:not([itemscope] [itemscope])").Each(func(i int, sel *goquery.Selection) {
		data := make(map[string]any)

		if itemType, _ := sel.Attr("itemtype"); itemType != "" {
			data["@type"] = itemType
		}

		sel.Find("[itemprop]").Each(func(j int, prop *goquery.Selection) {
			name, _ := prop.Attr("itemprop")
			if name == "" || name == "articleBody" {
				return
			}

			var value string
			if content, exists := prop.Attr("content"); exists {
				value = content
			} else if datetime, exists := prop.Attr("datetime"); exists {
				value = datetime
			} else {
				value = strings.TrimSpace(prop.Text())
			}

			if value != "" {
				if _, seen := data[name]; !seen {
					data[name] = value
				}
			}
		})

		if len(data) > 0 {
			results = append(results, StructuredData{Type: Microdata, Data: data})
		}
	})

	return results
}

// extractMetaTags parses the title, <html lang> and standard meta tags.
func (sde *StructuredDataExtractor) extractMetaTags(doc *goquery.Document) StructuredData {
	data := make(map[string]any)

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		data["title"] = title
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		data["lang"] = lang
	}

	metaNames := map[string]string{
		"author":           "author",
		"description":      "description",
		"date":             "date",
		"pubdate":          "date",
		"publish-date":     "date",
		"dc.date.issued":   "date",
		"content-language": "lang",
	}
	doc.Find("meta[name], meta[http-equiv]").Each(func(i int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			name, _ = sel.Attr("http-equiv")
		}
		key, ok := metaNames[strings.ToLower(name)]
		if !ok {
			return
		}
		if content, _ := sel.Attr("content"); content != "" {
			if _, seen := data[key]; !seen {
				data[key] = content
			}
		}
	})

	return StructuredData{Type: MetaTags, Data: data}
}

func isArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), "article") ||
			strings.Contains(strings.ToLower(t), "posting") ||
			strings.Contains(strings.ToLower(t), "report")
	case []any:
		for _, x := range t {
			if isArticleType(x) {
				return true
			}
		}
	}
	return false
}

// authorName accepts "Name", {"name": "..."} or a list of either.
func authorName(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		name, _ := a["name"].(string)
		return name
	case []any:
		var names []string
		for _, x := range a {
			if n := authorName(x); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseDate tries the date layouts news sites commonly emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeLanguage reduces "es-ES" or "ES_es" to "es". Anything that does
// not start with two letters yields "".
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) < 2 {
		return ""
	}
	code := lang[:2]
	if code[0] < 'a' || code[0] > 'z' || code[1] < 'a' || code[1] > 'z' {
		return ""
	}
	if len(lang) > 2 && lang[2] != '-' && lang[2] != '_' {
		return ""
	}
	return code
}
