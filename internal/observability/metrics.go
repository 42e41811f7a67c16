package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// BudgetReader exposes the render budget figures.
type BudgetReader interface {
	Used() int
	Max() int
}

// Metrics tracks extraction counters and serves them in Prometheus text
// format.
type Metrics struct {
	byStatus map[types.Status]*atomic.Int64
	byMethod map[types.Method]*atomic.Int64

	FetchRetries atomic.Int64

	budget    BudgetReader
	budgetMu  sync.RWMutex
	startTime time.Time
	logger    *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		byStatus:  make(map[types.Status]*atomic.Int64, len(types.AllStatuses)),
		byMethod:  make(map[types.Method]*atomic.Int64, len(types.AllMethods)),
		startTime: time.Now(),
		logger:    logger.With("component", "metrics"),
	}
	for _, s := range types.AllStatuses {
		m.byStatus[s] = new(atomic.Int64)
	}
	for _, meth := range types.AllMethods {
		m.byMethod[meth] = new(atomic.Int64)
	}
	return m
}

// ObserveRecord counts a finished record. Its signature fits
// engine.RecordCallback.
func (m *Metrics) ObserveRecord(rec *types.ArticleRecord) {
	if c, ok := m.byStatus[rec.Status]; ok {
		c.Add(1)
	}
	if c, ok := m.byMethod[rec.ExtractionMethod]; ok {
		c.Add(1)
	}
}

// ObserveRetry counts a fetch retry. Its signature fits
// fetcher.RetryObserver.
func (m *Metrics) ObserveRetry(rawURL string, attempt int, wait time.Duration, err error) {
	m.FetchRetries.Add(1)
}

// TrackBudget makes the render budget visible on the endpoint.
func (m *Metrics) TrackBudget(b BudgetReader) {
	m.budgetMu.Lock()
	m.budget = b
	m.budgetMu.Unlock()
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	fmt.Fprintln(w, "# HELP articlegoat_articles_total Articles finished, by terminal status")
	fmt.Fprintln(w, "# TYPE articlegoat_articles_total counter")
	for _, s := range types.AllStatuses {
		fmt.Fprintf(w, "articlegoat_articles_total{status=%q} %d\n", s, m.byStatus[s].Load())
	}

	fmt.Fprintln(w, "# HELP articlegoat_method_total Articles finished, by extraction method")
	fmt.Fprintln(w, "# TYPE articlegoat_method_total counter")
	for _, meth := range types.AllMethods {
		fmt.Fprintf(w, "articlegoat_method_total{method=%q} %d\n", meth, m.byMethod[meth].Load())
	}

	used, limit := 0, 0
	m.budgetMu.RLock()
	if m.budget != nil {
		used, limit = m.budget.Used(), m.budget.Max()
	}
	m.budgetMu.RUnlock()

	metrics := []struct {
		name  string
		help  string
		kind  string
		value float64
	}{
		{"articlegoat_render_calls_total", "Headless render calls used this run", "counter", float64(used)},
		{"articlegoat_render_budget", "Headless render calls allowed this run", "gauge", float64(limit)},
		{"articlegoat_fetch_retries_total", "Fetch attempts retried", "counter", float64(m.FetchRetries.Load())},
		{"articlegoat_uptime_seconds", "Seconds since the process started", "gauge", time.Since(m.startTime).Seconds()},
	}
	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %g\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server in the background and returns
// it so the caller can shut it down.
func (m *Metrics) StartServer(port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	return srv
}

// Snapshot returns the counters as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	out := map[string]int64{
		"fetch_retries": m.FetchRetries.Load(),
	}
	for s, c := range m.byStatus {
		out["status_"+string(s)] = c.Load()
	}
	for meth, c := range m.byMethod {
		out["method_"+string(meth)] = c.Load()
	}
	return out
}
