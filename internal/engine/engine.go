package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Stats tracks run statistics.
type Stats struct {
	TasksReceived atomic.Int64
	RecordsOK     atomic.Int64
	RecordsFailed atomic.Int64
	RecordsStored atomic.Int64
	StorageErrors atomic.Int64
	ActiveWorkers atomic.Int32
	StartTime     time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"tasks_received": s.TasksReceived.Load(),
		"records_ok":     s.RecordsOK.Load(),
		"records_failed": s.RecordsFailed.Load(),
		"records_stored": s.RecordsStored.Load(),
		"storage_errors": s.StorageErrors.Load(),
		"active_workers": s.ActiveWorkers.Load(),
		"elapsed":        time.Since(s.StartTime).Round(time.Millisecond).String(),
	}
}

// Storage is the interface for all record sinks.
type Storage interface {
	Store(records []*types.ArticleRecord) error
	Close() error
}

// RecordCallback is called once for every finished record, in completion
// order.
type RecordCallback func(rec *types.ArticleRecord)

// Engine runs a batch of article tasks through the orchestrator on a worker
// pool and hands the records to storage.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	budget    *RunBudget
	orch      *Orchestrator
	scheduler *Scheduler
	storage   Storage
	callbacks []RecordCallback
	stats     *Stats
	running   atomic.Bool
	mu        sync.RWMutex
}

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	budget := NewRunBudget(cfg.Render.MaxCalls)
	e := &Engine{
		cfg:    cfg,
		logger: logger.With("component", "engine"),
		budget: budget,
		orch:   NewOrchestrator(cfg, budget, logger),
		stats:  &Stats{},
	}
	e.scheduler = NewScheduler(e)
	return e
}

// SetFetcher sets the page fetcher.
func (e *Engine) SetFetcher(f Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.fetcher = f
}

// SetRenderer sets the headless renderer. Without one nothing is rendered.
func (e *Engine) SetRenderer(r Renderer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.renderer = r
}

// SetPrimary sets the primary extractor.
func (e *Engine) SetPrimary(p PrimaryExtractor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.primary = p
}

// SetSelector sets the domain selector extractor.
func (e *Engine) SetSelector(s SelectorExtractor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.selector = s
}

// SetCleaner sets the text cleaner.
func (e *Engine) SetCleaner(c Cleaner) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.cleaner = c
}

// SetDetector sets the blocking detector applied to rendered pages.
func (e *Engine) SetDetector(d BlockDetector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.detector = d
}

// SetStorage sets the storage implementation.
func (e *Engine) SetStorage(s Storage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.storage = s
}

// OnRecord registers a callback invoked for every finished record.
func (e *Engine) OnRecord(cb RecordCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = append(e.callbacks, cb)
}

// Budget returns the run's render budget.
func (e *Engine) Budget() *RunBudget {
	return e.budget
}

// Stats returns the current run statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Run processes every task received on tasks and returns the run summary.
// Cancelling ctx stops intake; articles already in flight finish under their
// own timeouts. The returned error joins any storage failures. The summary
// is complete either way.
func (e *Engine) Run(ctx context.Context, runID string, tasks <-chan types.ArticleTask) (*Summary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, errors.New("engine is already running")
	}
	defer e.running.Store(false)

	if err := e.ready(); err != nil {
		return nil, err
	}

	e.logger.Info("engine starting",
		"run_id", runID,
		"concurrency", e.cfg.Engine.Concurrency,
		"render_enabled", e.cfg.Render.Enabled,
		"render_budget", e.budget.Max(),
	)
	e.stats.StartTime = time.Now()
	summary := NewSummary(runID)

	results := make(chan *types.ArticleRecord, e.cfg.Engine.Concurrency*10)
	e.scheduler.Start(ctx, tasks, results)
	go func() {
		e.scheduler.Wait()
		close(results)
	}()

	storeErr := e.collect(runID, summary, results)
	summary.Finish(e.budget)

	e.logger.Info("engine stopped", "stats", e.stats.Snapshot())
	return summary, storeErr
}

func (e *Engine) ready() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch {
	case e.orch.fetcher == nil:
		return fmt.Errorf("engine: fetcher not set")
	case e.orch.primary == nil:
		return fmt.Errorf("engine: primary extractor not set")
	case e.orch.selector == nil:
		return fmt.Errorf("engine: selector extractor not set")
	case e.orch.cleaner == nil:
		return fmt.Errorf("engine: cleaner not set")
	case e.orch.detector == nil:
		return fmt.Errorf("engine: blocking detector not set")
	}
	return nil
}

// collect drains results into the summary, the callbacks and storage.
func (e *Engine) collect(runID string, summary *Summary, results <-chan *types.ArticleRecord) error {
	e.mu.RLock()
	storage := e.storage
	callbacks := append([]RecordCallback(nil), e.callbacks...)
	e.mu.RUnlock()

	batchSize := e.cfg.Storage.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	batch := make([]*types.ArticleRecord, 0, batchSize)
	var errs []error

	flush := func() {
		if len(batch) == 0 || storage == nil {
			batch = batch[:0]
			return
		}
		if err := storage.Store(batch); err != nil {
			e.stats.StorageErrors.Add(1)
			e.logger.Error("storage error", "error", err, "batch_size", len(batch))
			errs = append(errs, err)
		} else {
			e.stats.RecordsStored.Add(int64(len(batch)))
		}
		// sinks may keep the slice; start a fresh one
		batch = make([]*types.ArticleRecord, 0, batchSize)
	}

	for rec := range results {
		rec.RunID = runID
		summary.Add(rec)
		if rec.Status == types.StatusOK {
			e.stats.RecordsOK.Add(1)
		} else {
			e.stats.RecordsFailed.Add(1)
		}
		for _, cb := range callbacks {
			cb(rec)
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	if storage != nil {
		if err := storage.Close(); err != nil {
			e.logger.Error("storage close error", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
