package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Scheduler runs the worker pool. Each worker takes one task at a time from
// the task channel and sends exactly one record for it.
type Scheduler struct {
	engine *Engine
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{
		engine: e,
		logger: e.logger.With("component", "scheduler"),
	}
}

// Start launches the worker pool. Workers exit when tasks is closed or ctx
// is cancelled; a task already taken is always finished.
func (s *Scheduler) Start(ctx context.Context, tasks <-chan types.ArticleTask, results chan<- *types.ArticleRecord) {
	concurrency := s.engine.cfg.Engine.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	s.logger.Info("starting worker pool", "workers", concurrency)

	for i := 0; i < concurrency; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i, tasks, results)
	}
}

// Wait blocks until all workers are done.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) worker(ctx context.Context, id int, tasks <-chan types.ArticleTask, results chan<- *types.ArticleRecord) {
	defer s.wg.Done()
	logger := s.logger.With("worker_id", id)

	// In-flight articles outlive an intake cancellation.
	work := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			logger.Debug("intake stopped")
			return
		}

		var task types.ArticleTask
		var ok bool
		select {
		case <-ctx.Done():
			logger.Debug("intake stopped")
			return
		case task, ok = <-tasks:
			if !ok {
				return
			}
		}

		s.engine.stats.TasksReceived.Add(1)
		s.engine.stats.ActiveWorkers.Add(1)
		rec, _ := s.engine.orch.Process(work, task)
		s.engine.stats.ActiveWorkers.Add(-1)

		results <- rec
	}
}

// Feed sends tasks on a new channel until they run out or ctx is cancelled,
// then closes it.
func Feed(ctx context.Context, tasks []types.ArticleTask) <-chan types.ArticleTask {
	ch := make(chan types.ArticleTask)
	go func() {
		defer close(ch)
		for _, t := range tasks {
			select {
			case <-ctx.Done():
				return
			case ch <- t:
			}
		}
	}()
	return ch
}
