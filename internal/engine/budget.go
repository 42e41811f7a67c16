package engine

import (
	"sort"
	"sync"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// RunBudget holds the cross-worker render bookkeeping for one run: how many
// render calls were spent, which URLs were rendered, and which domains ran
// out of non-render fallbacks. It is never persisted.
type RunBudget struct {
	mu        sync.Mutex
	max       int
	used      int
	rendered  *Deduplicator
	escalated map[string]struct{}
}

// NewRunBudget creates a budget allowing maxCalls render invocations.
func NewRunBudget(maxCalls int) *RunBudget {
	if maxCalls < 0 {
		maxCalls = 0
	}
	return &RunBudget{
		max:       maxCalls,
		rendered:  NewDeduplicator(maxCalls),
		escalated: make(map[string]struct{}),
	}
}

// TryReserveRender checks the URL has not been rendered yet and that a call
// is left, and if so consumes one. Check and increment happen under one lock.
func (b *RunBudget) TryReserveRender(rawURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rendered.IsSeen(rawURL) {
		return types.ErrAlreadyRendered
	}
	if b.used >= b.max {
		return types.ErrBudgetExhausted
	}
	b.rendered.MarkSeen(rawURL)
	b.used++
	return nil
}

// Escalate records a domain that needed more than the static extractors.
func (b *RunBudget) Escalate(domain string) {
	if domain == "" {
		return
	}
	b.mu.Lock()
	b.escalated[domain] = struct{}{}
	b.mu.Unlock()
}

// Used returns the number of render calls reserved so far.
func (b *RunBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Max returns the configured render ceiling.
func (b *RunBudget) Max() int {
	return b.max
}

// EscalationDomains returns the escalated domains, sorted.
func (b *RunBudget) EscalationDomains() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.escalated))
	for d := range b.escalated {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
