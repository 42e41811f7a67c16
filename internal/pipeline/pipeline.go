// Package pipeline normalizes and de-noises extracted article text through an
// ordered chain of middleware.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ArticleGoat/internal/config"
)

// maxPasses bounds the fixpoint loop in Clean. Real text settles in two.
const maxPasses = 16

// Middleware transforms text. Implementations must not panic on any input.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process returns the transformed text.
	Process(text string) string
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "cleaner"),
	}
}

// NewCleaner builds the standard text cleaner from configuration.
func NewCleaner(cfg config.CleanerConfig, logger *slog.Logger) (*Pipeline, error) {
	boilerplate, err := NewBoilerplateMiddleware(cfg.RemovePatterns)
	if err != nil {
		return nil, fmt.Errorf("cleaner: %w", err)
	}

	p := New(logger)
	p.Use(&LineEndingMiddleware{})
	p.Use(NewDecodeMiddleware())
	p.Use(boilerplate)
	p.Use(NewSpaceCollapseMiddleware())
	p.Use(&LineFilterMiddleware{MinLength: cfg.MinLineLength})
	p.Use(NewNewlineCollapseMiddleware(cfg.MaxConsecutiveNewlines))
	p.Use(&TrimMiddleware{})
	return p, nil
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs text through all middleware once, in order.
func (p *Pipeline) Process(text string) string {
	for _, mw := range p.middlewares {
		text = mw.Process(text)
	}
	return text
}

// Clean runs the chain until the text stops changing, so that
// Clean(Clean(x)) == Clean(x).
func (p *Pipeline) Clean(text string) string {
	for i := 0; i < maxPasses; i++ {
		next := p.Process(text)
		if next == text {
			return text
		}
		text = next
	}
	p.logger.Warn("cleaner did not settle", "passes", maxPasses, "chars", len(text))
	return text
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
