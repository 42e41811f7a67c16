package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/fetcher"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// State is a step in one article's extraction.
type State int

const (
	StatePending State = iota
	StateFetched
	StateBlocked
	StateFetchFailed
	StateExtractedPrimary
	StateNeedsFallback
	StateExtractedSelector
	StateNeedsRender
	StateExtractedRender
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetched:
		return "fetched"
	case StateBlocked:
		return "blocked"
	case StateFetchFailed:
		return "fetch-failed"
	case StateExtractedPrimary:
		return "extracted-primary"
	case StateNeedsFallback:
		return "needs-fallback"
	case StateExtractedSelector:
		return "extracted-selector"
	case StateNeedsRender:
		return "needs-render"
	case StateExtractedRender:
		return "extracted-render"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Trace is the ordered list of states an article went through.
type Trace []State

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// Has reports whether the article passed through s.
func (t Trace) Has(s State) bool {
	for _, x := range t {
		if x == s {
			return true
		}
	}
	return false
}

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetcher.Options) types.FetchResult
}

// Renderer renders a page in a headless browser.
type Renderer interface {
	Render(ctx context.Context, rawURL string, timeout time.Duration) types.FetchResult
}

// PrimaryExtractor is the boilerplate-removal extractor.
type PrimaryExtractor interface {
	Extract(html, pageURL string) types.ExtractionResult
}

// SelectorExtractor is the per-domain selector extractor.
type SelectorExtractor interface {
	Extract(html, pageURL string) (*types.ExtractionResult, bool)
}

// Cleaner normalizes extracted text.
type Cleaner interface {
	Clean(text string) string
}

// BlockDetector classifies a rendered page as a block page.
type BlockDetector interface {
	Check(html string, statusCode int) (bool, string)
}

// Orchestrator drives one article through fetch, the extractor escalation
// and cleaning, and assigns its terminal status. It is safe for concurrent
// use; the only shared state is the RunBudget and the render gate.
type Orchestrator struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  Fetcher
	primary  PrimaryExtractor
	selector SelectorExtractor
	renderer Renderer
	cleaner  Cleaner
	detector BlockDetector
	budget   *RunBudget
	gate     *semaphore.Weighted
}

// NewOrchestrator wires the extraction components. renderer may be nil when
// rendering is disabled.
func NewOrchestrator(cfg *config.Config, budget *RunBudget, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With("component", "orchestrator"),
		budget: budget,
		gate:   semaphore.NewWeighted(1),
	}
}

// article is the per-task working state.
type article struct {
	task      types.ArticleTask
	domain    string
	rec       *types.ArticleRecord
	trace     Trace
	method    types.Method
	extractAt time.Time
	logger    *slog.Logger
}

func (a *article) to(s State) {
	a.trace = append(a.trace, s)
	a.logger.Debug("transition", "state", s.String())
}

// Process runs one task to a terminal status. It always returns a record.
func (o *Orchestrator) Process(ctx context.Context, task types.ArticleTask) (*types.ArticleRecord, Trace) {
	a := &article{
		task:   task,
		domain: types.RegistrableDomain(task.URL),
		rec:    types.NewRecord(task),
		trace:  Trace{StatePending},
		method: types.MethodPrimary,
	}
	a.logger = o.logger.With("url", task.URL, "domain", a.domain)

	o.run(ctx, a)

	a.rec.ExtractionMethod = a.method
	if !a.extractAt.IsZero() {
		a.rec.ExtractionTimeSeconds = time.Since(a.extractAt).Seconds()
	}
	a.to(StateTerminal)

	level := slog.LevelInfo
	if a.rec.Status != types.StatusOK {
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, "article done",
		"status", a.rec.Status,
		"method", a.rec.ExtractionMethod,
		"chars", a.rec.CharCount,
		"trace", a.trace.String(),
	)
	return a.rec, a.trace
}

func (o *Orchestrator) run(ctx context.Context, a *article) {
	var fr types.FetchResult
	if err := guard("fetch", func() {
		fr = o.fetcher.Fetch(ctx, a.task.URL, fetcher.Options{Timeout: o.cfg.Fetcher.Timeout})
	}); err != nil {
		a.to(StateFetchFailed)
		o.fail(a, types.StatusErrorDownload, err)
		return
	}

	a.rec.FetchTimeSeconds = fr.Elapsed.Seconds()
	a.rec.FinalURL = fr.FinalURL
	a.rec.HTTPStatus = fr.StatusCode
	a.extractAt = time.Now()

	switch {
	case fr.Status == types.FetchBlocked:
		a.to(StateBlocked)
		o.budget.Escalate(a.domain)
		a.logger.Info("page blocked", "http_status", fr.StatusCode, "reason", fr.BlockReason)
		o.resolveRender(ctx, a, priorBlocked, errors.New(blockMessage(fr)))
		return
	case !fr.OK():
		a.to(StateFetchFailed)
		msg := fr.Err
		if msg == "" {
			msg = fmt.Sprintf("fetch %s", fr.Status)
		}
		o.fail(a, types.StatusErrorDownload, errors.New(msg))
		return
	}
	a.to(StateFetched)

	res, err := o.extractPrimary(fr.HTML, a.task.URL)
	if err != nil {
		o.fail(a, types.StatusErrorParsing, err)
		return
	}
	a.to(StateExtractedPrimary)
	if res.Status == types.ResultOK {
		o.finish(a, res)
		return
	}
	a.to(StateNeedsFallback)

	a.method = types.MethodDomainSelector
	sel, ok, err := o.extractSelector(fr.HTML, a.task.URL)
	if err != nil {
		o.fail(a, types.StatusErrorParsing, err)
		return
	}
	if ok {
		a.to(StateExtractedSelector)
		o.finish(a, sel)
		return
	}
	a.to(StateNeedsRender)
	o.budget.Escalate(a.domain)
	o.resolveRender(ctx, a, priorInsufficient, types.ErrNoContent)
}

// prior is what sent an article to the render gate.
type prior int

const (
	priorNone prior = iota
	priorBlocked
	priorInsufficient
)

// resolveRender applies the render gate and, when eligible, renders the page
// and re-runs the static extractors on the result.
func (o *Orchestrator) resolveRender(ctx context.Context, a *article, p prior, cause error) {
	if err := o.renderGate(a.task.URL, p); err != nil {
		a.logger.Debug("render skipped", "reason", err)
		status := types.StatusNoContent
		if p == priorBlocked ||
			errors.Is(err, types.ErrBudgetExhausted) ||
			errors.Is(err, types.ErrAlreadyRendered) {
			status = types.StatusBlockedFallbackRequired
		}
		o.fail(a, status, fmt.Errorf("%w; %w", cause, err))
		return
	}

	a.method = types.MethodDynamicRender
	fr, err := o.render(ctx, a)
	if err != nil {
		status := types.StatusBlockedFallbackRequired
		var pe *types.PanicError
		if errors.As(err, &pe) {
			status = types.StatusErrorParsing
		}
		o.fail(a, status, err)
		return
	}
	if !fr.OK() {
		msg := fr.Err
		if msg == "" {
			msg = string(fr.Status)
		}
		o.fail(a, types.StatusBlockedFallbackRequired, fmt.Errorf("render: %s", msg))
		return
	}
	if blocked, reason := o.detector.Check(fr.HTML, fr.StatusCode); blocked {
		o.fail(a, types.StatusBlockedFallbackRequired, fmt.Errorf("render: %w: %s", types.ErrBlocked, reason))
		return
	}

	res, err := o.extractPrimary(fr.HTML, a.task.URL)
	if err != nil {
		o.fail(a, types.StatusErrorParsing, err)
		return
	}
	if res.Status != types.ResultOK {
		sel, ok, err := o.extractSelector(fr.HTML, a.task.URL)
		if err != nil {
			o.fail(a, types.StatusErrorParsing, err)
			return
		}
		if !ok {
			o.fail(a, types.StatusBlockedFallbackRequired, fmt.Errorf("render: %w", types.ErrNoContent))
			return
		}
		res = sel
	}
	res.Method = types.MethodDynamicRender
	a.to(StateExtractedRender)
	o.finish(a, res)
}

// renderGate evaluates eligibility in a fixed order and reserves a render
// call on success.
func (o *Orchestrator) renderGate(rawURL string, p prior) error {
	if !o.cfg.Render.Enabled || o.renderer == nil {
		return types.ErrRenderDisabled
	}
	if p != priorBlocked && p != priorInsufficient {
		return types.ErrNotEligible
	}
	if !o.whitelisted(rawURL) {
		return types.ErrNotWhitelisted
	}
	return o.budget.TryReserveRender(rawURL)
}

func (o *Orchestrator) whitelisted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, w := range o.cfg.Render.Whitelist {
		if types.HostMatches(host, config.NormalizeDomain(w)) {
			return true
		}
	}
	return false
}

// render holds the process-wide gate for the duration of the browser call.
func (o *Orchestrator) render(ctx context.Context, a *article) (fr types.FetchResult, err error) {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return fr, fmt.Errorf("render gate: %w", err)
	}
	defer o.gate.Release(1)

	a.logger.Info("rendering", "calls_used", o.budget.Used(), "budget", o.budget.Max())
	err = guard("render", func() {
		fr = o.renderer.Render(ctx, a.task.URL, o.cfg.Render.Timeout)
	})
	return fr, err
}

func (o *Orchestrator) extractPrimary(html, pageURL string) (res *types.ExtractionResult, err error) {
	err = guard("primary", func() {
		r := o.primary.Extract(html, pageURL)
		res = &r
	})
	if err != nil {
		return nil, &types.ParseError{URL: pageURL, Method: types.MethodPrimary, Err: err}
	}
	return res, nil
}

func (o *Orchestrator) extractSelector(html, pageURL string) (res *types.ExtractionResult, ok bool, err error) {
	err = guard("selector", func() {
		res, ok = o.selector.Extract(html, pageURL)
	})
	if err != nil {
		return nil, false, &types.ParseError{URL: pageURL, Method: types.MethodDomainSelector, Err: err}
	}
	return res, ok && res != nil, nil
}

// finish cleans the winning text and marks the record ok.
func (o *Orchestrator) finish(a *article, res *types.ExtractionResult) {
	a.method = res.Method

	var text string
	if err := guard("clean", func() {
		text = o.cleaner.Clean(res.Text)
	}); err != nil {
		o.fail(a, types.StatusErrorParsing, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		o.fail(a, types.StatusNoContent, fmt.Errorf("clean: %w", types.ErrNoContent))
		return
	}

	cleaned := *res
	cleaned.Text = text
	a.rec.ApplyResult(&cleaned)
	a.rec.Status = types.StatusOK
	a.rec.ErrorMessage = ""
}

func (o *Orchestrator) fail(a *article, status types.Status, err error) {
	a.rec.Status = status
	if err != nil {
		a.rec.ErrorMessage = err.Error()
	}
	if status == types.StatusErrorParsing {
		a.logger.Error("extraction step failed", "error", err)
	}
}

// guard runs fn and converts a panic into a PanicError.
func guard(stage string, fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &types.PanicError{Stage: stage, Value: v}
		}
	}()
	fn()
	return nil
}

func blockMessage(fr types.FetchResult) string {
	msg := types.ErrBlocked.Error()
	if fr.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, fr.StatusCode)
	}
	if fr.BlockReason != "" {
		msg += ": " + fr.BlockReason
	}
	return msg
}
