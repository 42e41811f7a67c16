package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Storage is the interface for all record sinks.
type Storage interface {
	// Store persists a batch of records.
	Store(records []*types.ArticleRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Open builds the sinks named in cfg.Type plus the failure log, fanned out
// through a MultiStorage. Any open failure closes what was already opened.
func Open(cfg *config.StorageConfig, logger *slog.Logger) (*MultiStorage, error) {
	var backends []Storage
	closeAll := func() {
		for _, b := range backends {
			_ = b.Close()
		}
	}

	for _, typ := range config.StorageTypes(cfg.Type) {
		b, err := openBackend(typ, cfg, logger)
		if err != nil {
			closeAll()
			return nil, &types.StorageError{Backend: typ, Err: err}
		}
		backends = append(backends, b)
	}

	failures, err := NewFailureLog(filepath.Join(cfg.OutputDir, cfg.FailedFile), logger)
	if err != nil {
		closeAll()
		return nil, &types.StorageError{Backend: "failures", Err: err}
	}
	backends = append(backends, failures)

	return NewMultiStorage(backends, logger), nil
}

func openBackend(typ string, cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch typ {
	case "json", "jsonl", "csv":
		return NewFileStorage(typ, recordPath(cfg, typ), logger)
	case "mongodb":
		return NewMongoStorage(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLite.Path, cfg.SQLite.Table, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", typ)
	}
}

// recordPath swaps the extension of the configured output file to match
// the file format.
func recordPath(cfg *config.StorageConfig, typ string) string {
	base := strings.TrimSuffix(cfg.OutputFile, filepath.Ext(cfg.OutputFile))
	if base == "" {
		base = "articles_full"
	}
	return filepath.Join(cfg.OutputDir, base+"."+typ)
}
