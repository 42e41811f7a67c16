package engine

import (
	"sync"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Summary is the run-level report.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   float64   `json:"duration_seconds"`

	Total    int                  `json:"total_articles"`
	ByStatus map[types.Status]int `json:"by_status"`
	ByMethod map[types.Method]int `json:"by_method"`

	FetchSecondsTotal      float64 `json:"fetch_seconds_total"`
	FetchSecondsAvg        float64 `json:"fetch_seconds_avg"`
	ExtractionSecondsTotal float64 `json:"extraction_seconds_total"`
	ExtractionSecondsAvg   float64 `json:"extraction_seconds_avg"`

	RenderCalls       int      `json:"render_calls"`
	RenderBudget      int      `json:"render_budget"`
	EscalationDomains []string `json:"escalation_domains"`

	mu sync.Mutex
}

// NewSummary starts a summary. Every status key is present from the start so
// consumers can index the map without checking.
func NewSummary(runID string) *Summary {
	s := &Summary{
		RunID:             runID,
		StartedAt:         time.Now().UTC(),
		ByStatus:          make(map[types.Status]int, len(types.AllStatuses)),
		ByMethod:          make(map[types.Method]int, len(types.AllMethods)),
		EscalationDomains: []string{},
	}
	for _, st := range types.AllStatuses {
		s.ByStatus[st] = 0
	}
	for _, m := range types.AllMethods {
		s.ByMethod[m] = 0
	}
	return s
}

// Add counts one record.
func (s *Summary) Add(rec *types.ArticleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	s.ByStatus[rec.Status]++
	s.ByMethod[rec.ExtractionMethod]++
	s.FetchSecondsTotal += rec.FetchTimeSeconds
	s.ExtractionSecondsTotal += rec.ExtractionTimeSeconds
}

// Finish stamps the end time, averages and the budget figures.
func (s *Summary) Finish(budget *RunBudget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinishedAt = time.Now().UTC()
	s.Duration = s.FinishedAt.Sub(s.StartedAt).Seconds()
	if s.Total > 0 {
		s.FetchSecondsAvg = s.FetchSecondsTotal / float64(s.Total)
		s.ExtractionSecondsAvg = s.ExtractionSecondsTotal / float64(s.Total)
	}
	if budget != nil {
		s.RenderCalls = budget.Used()
		s.RenderBudget = budget.Max()
		s.EscalationDomains = budget.EscalationDomains()
	}
}

// Count returns the number of records with the given status.
func (s *Summary) Count(st types.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ByStatus[st]
}

// Failed returns the number of records whose status is not ok.
func (s *Summary) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Total - s.ByStatus[types.StatusOK]
}
