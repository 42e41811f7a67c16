package types

import "time"

// FetchResult is what the fetcher and renderer hand back. Transport failures
// are encoded in Status and Err, never returned as Go errors.
type FetchResult struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	HTML         string
	HasHTML      bool
	Status       FetchStatus
	Err          string
	Elapsed      time.Duration
	Attempts     int

	// BlockReason is set when the blocking detector tripped.
	BlockReason string
}

// OK reports whether the fetch produced usable HTML.
func (r FetchResult) OK() bool { return r.Status == FetchOK && r.HasHTML }

// ExtractionResult is the output of one extractor.
type ExtractionResult struct {
	Text        string
	Language    string
	Author      string
	PublishDate *time.Time
	Method      Method
	Status      ResultStatus
	CharCount   int
	WordCount   int
	Err         string
}
