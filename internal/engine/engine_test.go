package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/fetcher"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- fakes ---

type fakeFetcher struct {
	calls   atomic.Int32
	results map[string]types.FetchResult
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, opts fetcher.Options) types.FetchResult {
	f.calls.Add(1)
	if r, ok := f.results[rawURL]; ok {
		r.RequestedURL = rawURL
		if r.FinalURL == "" {
			r.FinalURL = rawURL
		}
		return r
	}
	return types.FetchResult{
		RequestedURL: rawURL,
		FinalURL:     rawURL,
		StatusCode:   200,
		HTML:         "<html>static</html>",
		HasHTML:      true,
		Status:       types.FetchOK,
		Elapsed:      10 * time.Millisecond,
		Attempts:     1,
	}
}

type fakePrimary struct {
	calls atomic.Int32
	fn    func(html string) types.ExtractionResult
}

func (p *fakePrimary) Extract(html, pageURL string) types.ExtractionResult {
	p.calls.Add(1)
	return p.fn(html)
}

type fakeSelector struct {
	calls atomic.Int32
	fn    func(html string) (*types.ExtractionResult, bool)
}

func (s *fakeSelector) Extract(html, pageURL string) (*types.ExtractionResult, bool) {
	s.calls.Add(1)
	if s.fn == nil {
		return nil, false
	}
	return s.fn(html)
}

type fakeRenderer struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	result   func(rawURL string) types.FetchResult
}

func (r *fakeRenderer) Render(ctx context.Context, rawURL string, timeout time.Duration) types.FetchResult {
	r.calls.Add(1)
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(r.delay)
	if r.result != nil {
		return r.result(rawURL)
	}
	return types.FetchResult{
		RequestedURL: rawURL,
		FinalURL:     rawURL,
		StatusCode:   200,
		HTML:         "<html>rendered</html>",
		HasHTML:      true,
		Status:       types.FetchOK,
	}
}

type cleanerFunc func(string) string

func (f cleanerFunc) Clean(s string) string { return f(s) }

var identityCleaner = cleanerFunc(strings.TrimSpace)

type fakeDetector struct{}

func (fakeDetector) Check(html string, status int) (bool, string) {
	if strings.Contains(html, "captcha") {
		return true, "phrase: captcha"
	}
	return false, ""
}

type memStorage struct {
	mu      sync.Mutex
	records []*types.ArticleRecord
	batches int
	closed  bool
}

func (m *memStorage) Store(records []*types.ArticleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	m.batches++
	return nil
}

func (m *memStorage) Close() error {
	m.closed = true
	return nil
}

func okResult(method types.Method, n int) types.ExtractionResult {
	text := strings.Repeat("a", n)
	return types.ExtractionResult{Text: text, Method: method, Status: types.ResultOK, CharCount: n}
}

func insufficient(html string) types.ExtractionResult {
	return types.ExtractionResult{Method: types.MethodPrimary, Status: types.ResultInsufficient}
}

// primaryOnRendered succeeds only on rendered HTML.
func primaryOnRendered(html string) types.ExtractionResult {
	if strings.Contains(html, "rendered") {
		return okResult(types.MethodPrimary, 300)
	}
	return insufficient(html)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Engine.Concurrency = 5
	cfg.Storage.BatchSize = 3
	cfg.Render.Enabled = true
	cfg.Render.Whitelist = []string{"elmundo.es"}
	cfg.Render.MaxCalls = 10
	return cfg
}

type harness struct {
	engine   *Engine
	fetcher  *fakeFetcher
	primary  *fakePrimary
	selector *fakeSelector
	renderer *fakeRenderer
	storage  *memStorage
}

func newHarness(cfg *config.Config) *harness {
	h := &harness{
		engine:   New(cfg, testLogger),
		fetcher:  &fakeFetcher{results: map[string]types.FetchResult{}},
		primary:  &fakePrimary{fn: insufficient},
		selector: &fakeSelector{},
		renderer: &fakeRenderer{},
		storage:  &memStorage{},
	}
	h.engine.SetFetcher(h.fetcher)
	h.engine.SetPrimary(h.primary)
	h.engine.SetSelector(h.selector)
	h.engine.SetRenderer(h.renderer)
	h.engine.SetCleaner(identityCleaner)
	h.engine.SetDetector(fakeDetector{})
	h.engine.SetStorage(h.storage)
	return h
}

func (h *harness) run(t *testing.T, tasks []types.ArticleTask) *Summary {
	t.Helper()
	summary, err := h.engine.Run(context.Background(), "test-run", Feed(context.Background(), tasks))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func (h *harness) byURL() map[string]*types.ArticleRecord {
	out := make(map[string]*types.ArticleRecord)
	for _, r := range h.storage.records {
		out[r.URL] = r
	}
	return out
}

func tasksFor(t *testing.T, urls ...string) []types.ArticleTask {
	t.Helper()
	var tasks []types.ArticleTask
	for _, u := range urls {
		task, err := types.NewArticleTask("test", u, "titulo", "resumen", time.Now())
		if err != nil {
			t.Fatalf("NewArticleTask(%q): %v", u, err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func processOne(t *testing.T, h *harness, rawURL string) (*types.ArticleRecord, Trace) {
	t.Helper()
	return h.engine.orch.Process(context.Background(), tasksFor(t, rawURL)[0])
}

// --- orchestrator ---

func TestPrimaryShortCircuit(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = func(string) types.ExtractionResult { return okResult(types.MethodPrimary, 250) }

	rec, trace := processOne(t, h, "https://www.elmundo.es/a.html")

	if rec.Status != types.StatusOK || rec.ExtractionMethod != types.MethodPrimary {
		t.Fatalf("got %s/%s, want ok/primary", rec.Status, rec.ExtractionMethod)
	}
	if rec.CharCount != 250 {
		t.Errorf("char_count = %d, want 250", rec.CharCount)
	}
	if h.selector.calls.Load() != 0 || h.renderer.calls.Load() != 0 {
		t.Errorf("fallbacks invoked: selector=%d render=%d", h.selector.calls.Load(), h.renderer.calls.Load())
	}
	want := "pending -> fetched -> extracted-primary -> terminal"
	if trace.String() != want {
		t.Errorf("trace = %q, want %q", trace, want)
	}
}

func TestSelectorFallback(t *testing.T) {
	h := newHarness(testConfig())
	h.selector.fn = func(string) (*types.ExtractionResult, bool) {
		r := okResult(types.MethodDomainSelector, 150)
		return &r, true
	}

	rec, trace := processOne(t, h, "https://elpais.com/a.html")

	if rec.Status != types.StatusOK || rec.ExtractionMethod != types.MethodDomainSelector {
		t.Fatalf("got %s/%s, want ok/domain-selector", rec.Status, rec.ExtractionMethod)
	}
	if !trace.Has(StateNeedsFallback) || !trace.Has(StateExtractedSelector) {
		t.Errorf("unexpected trace %s", trace)
	}
	if h.renderer.calls.Load() != 0 {
		t.Error("renderer should not run after a selector hit")
	}
}

func TestFetchErrorIsErrorDownload(t *testing.T) {
	h := newHarness(testConfig())
	h.fetcher.results["https://elpais.com/gone"] = types.FetchResult{
		StatusCode: 404, Status: types.FetchError, Err: "permanent client error: status 404",
	}
	h.fetcher.results["https://elpais.com/slow"] = types.FetchResult{
		Status: types.FetchTimeout, Err: "request timed out", Attempts: 3,
	}

	for _, u := range []string{"https://elpais.com/gone", "https://elpais.com/slow"} {
		rec, trace := processOne(t, h, u)
		if rec.Status != types.StatusErrorDownload {
			t.Errorf("%s: status = %s, want error-download", u, rec.Status)
		}
		if rec.ErrorMessage == "" {
			t.Errorf("%s: expected an error message", u)
		}
		if !trace.Has(StateFetchFailed) {
			t.Errorf("%s: trace %s missing fetch-failed", u, trace)
		}
	}
	if h.primary.calls.Load() != 0 {
		t.Error("extractors must not run after a failed fetch")
	}
}

func TestPanicBecomesErrorParsing(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = func(string) types.ExtractionResult { panic("boom") }

	rec, _ := processOne(t, h, "https://elpais.com/a.html")

	if rec.Status != types.StatusErrorParsing {
		t.Fatalf("status = %s, want error-parsing", rec.Status)
	}
	if !strings.Contains(rec.ErrorMessage, "boom") {
		t.Errorf("error message %q should carry the panic value", rec.ErrorMessage)
	}
}

func TestCleanerPanicBecomesErrorParsing(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = func(string) types.ExtractionResult { return okResult(types.MethodPrimary, 300) }
	h.engine.SetCleaner(cleanerFunc(func(string) string { panic("bad regexp state") }))

	rec, _ := processOne(t, h, "https://elpais.com/a.html")
	if rec.Status != types.StatusErrorParsing {
		t.Fatalf("status = %s, want error-parsing", rec.Status)
	}
}

func TestCleanerEmptiesText(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = func(string) types.ExtractionResult { return okResult(types.MethodPrimary, 300) }
	h.engine.SetCleaner(cleanerFunc(func(string) string { return "  \n" }))

	rec, _ := processOne(t, h, "https://elpais.com/a.html")
	if rec.Status != types.StatusNoContent {
		t.Fatalf("status = %s, want no-content-detected", rec.Status)
	}
	if rec.Text != "" || rec.CharCount != 0 {
		t.Errorf("text should be empty, got %d chars", rec.CharCount)
	}
}

func TestInsufficientWithoutRenderIsNoContent(t *testing.T) {
	cfg := testConfig()
	cfg.Render.Enabled = false
	h := newHarness(cfg)

	rec, trace := processOne(t, h, "https://www.elmundo.es/a.html")

	if rec.Status != types.StatusNoContent {
		t.Fatalf("status = %s, want no-content-detected", rec.Status)
	}
	if rec.ExtractionMethod != types.MethodDomainSelector {
		t.Errorf("method = %s, want the last attempted (domain-selector)", rec.ExtractionMethod)
	}
	if !trace.Has(StateNeedsRender) {
		t.Errorf("trace %s missing needs-render", trace)
	}
	if got := h.engine.Budget().EscalationDomains(); len(got) != 1 || got[0] != "elmundo.es" {
		t.Errorf("escalation domains = %v", got)
	}
}

func TestBlockedWithoutRenderIsBlockedFallback(t *testing.T) {
	h := newHarness(testConfig())
	h.fetcher.results["https://elpais.com/a.html"] = types.FetchResult{
		StatusCode: 403, Status: types.FetchBlocked, BlockReason: "status 403",
	}

	rec, trace := processOne(t, h, "https://elpais.com/a.html")

	if rec.Status != types.StatusBlockedFallbackRequired {
		t.Fatalf("status = %s, want blocked-fallback-required", rec.Status)
	}
	if rec.ExtractionMethod != types.MethodPrimary {
		t.Errorf("method = %s, want primary when no extractor ran", rec.ExtractionMethod)
	}
	if !trace.Has(StateBlocked) {
		t.Errorf("trace %s missing blocked", trace)
	}
	if h.primary.calls.Load() != 0 {
		t.Error("blocked pages skip the static extractors")
	}
}

func TestBlockedPageRenderedWhenWhitelisted(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = primaryOnRendered
	h.fetcher.results["https://www.elmundo.es/a.html"] = types.FetchResult{
		StatusCode: 429, Status: types.FetchBlocked,
	}

	rec, trace := processOne(t, h, "https://www.elmundo.es/a.html")

	if rec.Status != types.StatusOK || rec.ExtractionMethod != types.MethodDynamicRender {
		t.Fatalf("got %s/%s, want ok/dynamic-render", rec.Status, rec.ExtractionMethod)
	}
	if !trace.Has(StateExtractedRender) {
		t.Errorf("trace %s missing extracted-render", trace)
	}
}

func TestNonWhitelistedDomainNeverRendered(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = primaryOnRendered

	var urls []string
	for i := 0; i < 4; i++ {
		urls = append(urls, fmt.Sprintf("https://www.abc.es/n/%d.html", i))
	}
	h.fetcher.results[urls[0]] = types.FetchResult{StatusCode: 403, Status: types.FetchBlocked}
	summary := h.run(t, tasksFor(t, urls...))

	if n := h.renderer.calls.Load(); n != 0 {
		t.Fatalf("renderer called %d times for a non-whitelisted domain", n)
	}
	if summary.Count(types.StatusOK) != 0 {
		t.Errorf("no article should succeed, got %d ok", summary.Count(types.StatusOK))
	}
	for _, r := range h.storage.records {
		if !strings.Contains(r.ErrorMessage, types.ErrNotWhitelisted.Error()) {
			t.Errorf("%s: error %q should name the whitelist", r.URL, r.ErrorMessage)
		}
	}
}

func TestWhitelistMatchesSubdomains(t *testing.T) {
	cfg := testConfig()
	o := NewOrchestrator(cfg, NewRunBudget(1), testLogger)
	cases := map[string]bool{
		"https://elmundo.es/x":          true,
		"https://www.elmundo.es/x":      true,
		"https://deportes.elmundo.es/x": true,
		"https://notelmundo.es/x":       false,
		"https://elmundo.es.evil.com/x": false,
	}
	for u, want := range cases {
		if got := o.whitelisted(u); got != want {
			t.Errorf("whitelisted(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestRenderBudgetExcessIsBlockedFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Render.MaxCalls = 2
	h := newHarness(cfg)
	h.primary.fn = primaryOnRendered

	var urls []string
	for i := 0; i < 6; i++ {
		urls = append(urls, fmt.Sprintf("https://www.elmundo.es/n/%d.html", i))
	}
	summary := h.run(t, tasksFor(t, urls...))

	if n := h.renderer.calls.Load(); n != 2 {
		t.Fatalf("renderer called %d times, want 2", n)
	}
	if got := summary.Count(types.StatusOK); got != 2 {
		t.Errorf("ok = %d, want 2", got)
	}
	if got := summary.Count(types.StatusBlockedFallbackRequired); got != 4 {
		t.Errorf("blocked-fallback-required = %d, want 4", got)
	}
	if summary.ByMethod[types.MethodDynamicRender] != 2 || summary.ByMethod[types.MethodDomainSelector] != 4 {
		t.Errorf("by method = %v, want 2 dynamic-render and 4 domain-selector", summary.ByMethod)
	}
	if summary.RenderCalls != 2 || summary.RenderBudget != 2 {
		t.Errorf("render calls %d/%d, want 2/2", summary.RenderCalls, summary.RenderBudget)
	}
	for _, r := range h.storage.records {
		if r.Status == types.StatusBlockedFallbackRequired &&
			!strings.Contains(r.ErrorMessage, types.ErrBudgetExhausted.Error()) {
			t.Errorf("%s: error %q should name the budget", r.URL, r.ErrorMessage)
		}
	}
}

func TestRenderConcurrencyIsOne(t *testing.T) {
	cfg := testConfig()
	cfg.Render.MaxCalls = 10
	h := newHarness(cfg)
	h.primary.fn = primaryOnRendered
	h.renderer.delay = 20 * time.Millisecond

	var urls []string
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("https://elmundo.es/n/%d.html", i))
	}
	h.run(t, tasksFor(t, urls...))

	if h.renderer.calls.Load() != 8 {
		t.Fatalf("renderer called %d times, want 8", h.renderer.calls.Load())
	}
	if m := h.renderer.maxSeen.Load(); m != 1 {
		t.Errorf("max concurrent renders = %d, want 1", m)
	}
}

func TestRenderFailureIsBlockedFallback(t *testing.T) {
	h := newHarness(testConfig())
	h.renderer.result = func(rawURL string) types.FetchResult {
		return types.FetchResult{RequestedURL: rawURL, Status: types.FetchTimeout, Err: "render timed out"}
	}

	rec, _ := processOne(t, h, "https://elmundo.es/a.html")
	if rec.Status != types.StatusBlockedFallbackRequired || rec.ExtractionMethod != types.MethodDynamicRender {
		t.Fatalf("got %s/%s, want blocked-fallback-required/dynamic-render", rec.Status, rec.ExtractionMethod)
	}
	if !strings.Contains(rec.ErrorMessage, "timed out") {
		t.Errorf("error message %q", rec.ErrorMessage)
	}

	// The same URL is never rendered twice in a run.
	rec, _ = processOne(t, h, "https://elmundo.es/a.html")
	if h.renderer.calls.Load() != 1 {
		t.Errorf("renderer called %d times, want 1", h.renderer.calls.Load())
	}
	if !strings.Contains(rec.ErrorMessage, types.ErrAlreadyRendered.Error()) {
		t.Errorf("second attempt error %q", rec.ErrorMessage)
	}
}

func TestRenderedBlockPage(t *testing.T) {
	h := newHarness(testConfig())
	h.primary.fn = primaryOnRendered
	h.renderer.result = func(rawURL string) types.FetchResult {
		return types.FetchResult{RequestedURL: rawURL, StatusCode: 200, HTML: "<html>captcha</html>", HasHTML: true, Status: types.FetchOK}
	}

	rec, _ := processOne(t, h, "https://elmundo.es/a.html")
	if rec.Status != types.StatusBlockedFallbackRequired {
		t.Fatalf("status = %s, want blocked-fallback-required", rec.Status)
	}
	if h.primary.calls.Load() != 1 {
		t.Errorf("primary should not run on a rendered block page")
	}
}

// --- engine ---

func TestEveryTaskGetsOneRecord(t *testing.T) {
	cfg := testConfig()
	cfg.Render.MaxCalls = 3
	h := newHarness(cfg)
	h.primary.fn = func(html string) types.ExtractionResult {
		if strings.Contains(html, "rendered") {
			return okResult(types.MethodPrimary, 300)
		}
		return insufficient(html)
	}
	h.selector.fn = func(html string) (*types.ExtractionResult, bool) {
		if strings.Contains(html, "selector") {
			r := okResult(types.MethodDomainSelector, 150)
			return &r, true
		}
		return nil, false
	}

	var urls []string
	for i := 0; i < 40; i++ {
		u := fmt.Sprintf("https://site%d.example.com/a/%d", i%4, i)
		if i%5 == 0 {
			u = fmt.Sprintf("https://elmundo.es/a/%d", i)
		}
		urls = append(urls, u)
		switch i % 4 {
		case 1:
			h.fetcher.results[u] = types.FetchResult{Status: types.FetchError, Err: "connection refused"}
		case 2:
			h.fetcher.results[u] = types.FetchResult{StatusCode: 200, HTML: "selector", HasHTML: true, Status: types.FetchOK}
		case 3:
			h.fetcher.results[u] = types.FetchResult{StatusCode: 403, Status: types.FetchBlocked}
		}
	}
	summary := h.run(t, tasksFor(t, urls...))

	if len(h.storage.records) != len(urls) {
		t.Fatalf("got %d records, want %d", len(h.storage.records), len(urls))
	}
	seen := h.byURL()
	if len(seen) != len(urls) {
		t.Fatalf("got %d distinct URLs, want %d", len(seen), len(urls))
	}
	total := 0
	for _, st := range types.AllStatuses {
		total += summary.ByStatus[st]
	}
	if total != len(urls) || summary.Total != len(urls) {
		t.Errorf("summary total %d (by status %d), want %d", summary.Total, total, len(urls))
	}
	for _, r := range h.storage.records {
		if !r.Status.Valid() {
			t.Errorf("%s: invalid status %q", r.URL, r.Status)
		}
		if !r.ExtractionMethod.Valid() {
			t.Errorf("%s: invalid method %q", r.URL, r.ExtractionMethod)
		}
		if r.RunID != "test-run" {
			t.Errorf("%s: run id %q", r.URL, r.RunID)
		}
		if (r.Status == types.StatusOK) != (r.ErrorMessage == "") {
			t.Errorf("%s: status %s with error %q", r.URL, r.Status, r.ErrorMessage)
		}
	}
	if h.renderer.calls.Load() > 3 {
		t.Errorf("renderer exceeded budget: %d", h.renderer.calls.Load())
	}
	if !h.storage.closed {
		t.Error("storage should be closed at the end of the run")
	}
	if h.storage.batches < len(urls)/cfg.Storage.BatchSize {
		t.Errorf("expected batched writes, got %d batches", h.storage.batches)
	}
}

func TestRecordCallbacks(t *testing.T) {
	h := newHarness(testConfig())
	var n atomic.Int32
	h.engine.OnRecord(func(*types.ArticleRecord) { n.Add(1) })

	h.run(t, tasksFor(t, "https://a.example.com/1", "https://b.example.com/2"))
	if n.Load() != 2 {
		t.Errorf("callback called %d times, want 2", n.Load())
	}
}

func TestRunRequiresComponents(t *testing.T) {
	e := New(testConfig(), testLogger)
	if _, err := e.Run(context.Background(), "x", Feed(context.Background(), nil)); err == nil {
		t.Fatal("expected an error without a fetcher")
	}
}

func TestCancelStopsIntake(t *testing.T) {
	h := newHarness(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.engine.Run(ctx, "cancelled", Feed(ctx, tasksFor(t, "https://a.example.com/1")))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("no task should start after cancellation, got %d", summary.Total)
	}
	if len(summary.ByStatus) != len(types.AllStatuses) {
		t.Errorf("summary should list every status, got %v", summary.ByStatus)
	}
}

// --- budget and dedup ---

func TestRunBudget(t *testing.T) {
	b := NewRunBudget(2)
	if err := b.TryReserveRender("https://a.com/1"); err != nil {
		t.Fatal(err)
	}
	if err := b.TryReserveRender("https://a.com/1#frag"); err != types.ErrAlreadyRendered {
		t.Errorf("same URL: got %v, want ErrAlreadyRendered", err)
	}
	if err := b.TryReserveRender("https://a.com/2"); err != nil {
		t.Fatal(err)
	}
	if err := b.TryReserveRender("https://a.com/3"); err != types.ErrBudgetExhausted {
		t.Errorf("got %v, want ErrBudgetExhausted", err)
	}
	if b.Used() != 2 {
		t.Errorf("used = %d, want 2", b.Used())
	}

	b.Escalate("zeta.com")
	b.Escalate("alpha.com")
	b.Escalate("zeta.com")
	got := b.EscalationDomains()
	if len(got) != 2 || got[0] != "alpha.com" || got[1] != "zeta.com" {
		t.Errorf("escalation domains = %v", got)
	}
}

func TestRunBudgetConcurrentReservations(t *testing.T) {
	b := NewRunBudget(5)
	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if b.TryReserveRender(fmt.Sprintf("https://a.com/%d", i)) == nil {
				granted.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if granted.Load() != 5 {
		t.Errorf("granted %d reservations, want 5", granted.Load())
	}
}

func TestCanonicalizeURL(t *testing.T) {
	cases := map[string]string{
		"HTTPS://WWW.ElPais.com/a/":                     "https://elpais.com/a",
		"https://elpais.com:443/a?b=2&a=1#top":          "https://elpais.com/a?a=1&b=2",
		"https://elpais.com/a?utm_source=rss&id=7":      "https://elpais.com/a?id=7",
		"http://elpais.com:80":                          "http://elpais.com/",
		"https://elpais.com/a?fbclid=x&utm_medium=feed": "https://elpais.com/a",
	}
	for in, want := range cases {
		if got := CanonicalizeURL(in); got != want {
			t.Errorf("CanonicalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeduplicatorAdd(t *testing.T) {
	d := NewDeduplicator(4)
	if !d.Add("https://elpais.com/a") {
		t.Fatal("first Add should report new")
	}
	if d.Add("https://www.elpais.com/a/?utm_campaign=x") {
		t.Error("canonical duplicate should not be new")
	}
	if d.Count() != 1 {
		t.Errorf("count = %d, want 1", d.Count())
	}
}
