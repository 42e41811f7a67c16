package types

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ArticleRecord is the persisted output for one article.
type ArticleRecord struct {
	Source    string    `json:"source" bson:"source"`
	URL       string    `json:"url" bson:"url"`
	Title     string    `json:"title" bson:"title"`
	Summary   string    `json:"summary" bson:"summary"`
	Published time.Time `json:"published" bson:"published"`

	Text                  string  `json:"text" bson:"text"`
	Language              *string `json:"language" bson:"language"`
	Author                *string `json:"author" bson:"author"`
	PublishDate           *string `json:"publish_date" bson:"publish_date"`
	Status                Status  `json:"status" bson:"status"`
	ErrorMessage          string  `json:"error_message" bson:"error_message"`
	ExtractionMethod      Method  `json:"extraction_method" bson:"extraction_method"`
	CharCount             int     `json:"char_count" bson:"char_count"`
	WordCount             int     `json:"word_count" bson:"word_count"`
	FetchTimeSeconds      float64 `json:"fetch_time_seconds" bson:"fetch_time_seconds"`
	ExtractionTimeSeconds float64 `json:"extraction_time_seconds" bson:"extraction_time_seconds"`

	FinalURL    string    `json:"final_url,omitempty" bson:"final_url,omitempty"`
	HTTPStatus  int       `json:"http_status,omitempty" bson:"http_status,omitempty"`
	ExtractedAt time.Time `json:"extracted_at" bson:"extracted_at"`
	RunID       string    `json:"run_id,omitempty" bson:"run_id,omitempty"`
}

// NewRecord seeds a record with the task fields. Method defaults to primary.
func NewRecord(task ArticleTask) *ArticleRecord {
	return &ArticleRecord{
		Source:           task.Source,
		URL:              task.URL,
		Title:            task.Title,
		Summary:          task.Summary,
		Published:        task.Published,
		ExtractionMethod: MethodPrimary,
		ExtractedAt:      time.Now().UTC(),
	}
}

// SetText stores text and recomputes the counts.
func (r *ArticleRecord) SetText(text string) {
	r.Text = text
	r.CharCount = utf8.RuneCountInString(text)
	r.WordCount = len(strings.Fields(text))
}

// ApplyResult copies the extractor metadata onto the record.
func (r *ArticleRecord) ApplyResult(res *ExtractionResult) {
	r.ExtractionMethod = res.Method
	r.Language = optional(res.Language)
	r.Author = optional(res.Author)
	if res.PublishDate != nil && !res.PublishDate.IsZero() {
		s := res.PublishDate.UTC().Format(time.RFC3339)
		r.PublishDate = &s
	}
	r.SetText(res.Text)
}

// ToFlatMap returns the record as a flat string-keyed map, in the shape the
// CSV and SQL sinks expect.
func (r *ArticleRecord) ToFlatMap() map[string]any {
	return map[string]any{
		"source":                  r.Source,
		"url":                     r.URL,
		"title":                   r.Title,
		"summary":                 r.Summary,
		"published":               formatTime(r.Published),
		"text":                    r.Text,
		"language":                deref(r.Language),
		"author":                  deref(r.Author),
		"publish_date":            deref(r.PublishDate),
		"status":                  string(r.Status),
		"error_message":           r.ErrorMessage,
		"extraction_method":       string(r.ExtractionMethod),
		"char_count":              r.CharCount,
		"word_count":              r.WordCount,
		"fetch_time_seconds":      r.FetchTimeSeconds,
		"extraction_time_seconds": r.ExtractionTimeSeconds,
		"final_url":               r.FinalURL,
		"http_status":             r.HTTPStatus,
		"extracted_at":            formatTime(r.ExtractedAt),
		"run_id":                  r.RunID,
	}
}

// RecordColumns is the stable column order used by tabular sinks.
var RecordColumns = []string{
	"source", "url", "title", "summary", "published", "text", "language",
	"author", "publish_date", "status", "error_message", "extraction_method",
	"char_count", "word_count", "fetch_time_seconds", "extraction_time_seconds",
	"final_url", "http_status", "extracted_at", "run_id",
}

// FailureEntry is one line of the failure log.
type FailureEntry struct {
	LoggedAt time.Time `json:"logged_at"`
	URL      string    `json:"url"`
	*ArticleRecord
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
