package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// FailureLog appends every record whose status is not ok to a JSONL file,
// stamped with the time it was logged.
type FailureLog struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	now    func() time.Time
	logger *slog.Logger
}

// NewFailureLog creates (truncating) the failure log at path.
func NewFailureLog(path string, logger *slog.Logger) (*FailureLog, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &FailureLog{
		path:   path,
		file:   f,
		enc:    enc,
		now:    time.Now,
		logger: logger.With("component", "failure_log"),
	}, nil
}

func (l *FailureLog) Name() string { return "failures" }

func (l *FailureLog) Store(records []*types.ArticleRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range records {
		if rec.Status == types.StatusOK {
			continue
		}
		entry := types.FailureEntry{
			LoggedAt:      l.now().UTC(),
			URL:           rec.URL,
			ArticleRecord: rec,
		}
		if err := l.enc.Encode(entry); err != nil {
			return fmt.Errorf("encode failure entry: %w", err)
		}
		l.count++
	}
	return nil
}

// Count returns the number of failures logged.
func (l *FailureLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *FailureLog) Close() error {
	l.logger.Info("failure log written", "path", l.path, "failures", l.count)
	return l.file.Close()
}
