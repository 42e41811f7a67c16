package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/ArticleGoat/internal/types"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// column types; anything not listed is TEXT.
var sqliteColumnTypes = map[string]string{
	"char_count":              "INTEGER",
	"word_count":              "INTEGER",
	"http_status":             "INTEGER",
	"fetch_time_seconds":      "REAL",
	"extraction_time_seconds": "REAL",
}

// SQLiteStorage upserts records into a SQLite table keyed on url, so a rerun
// over the same tasks replaces the previous rows.
type SQLiteStorage struct {
	db     *sql.DB
	table  string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at path and
// ensures the table exists.
func NewSQLiteStorage(path, table string, logger *slog.Logger) (*SQLiteStorage, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", table)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStorage{
		db:     db,
		table:  table,
		logger: logger.With("component", "sqlite_storage"),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	defs := make([]string, 0, len(types.RecordColumns))
	for _, col := range types.RecordColumns {
		typ, ok := sqliteColumnTypes[col]
		if !ok {
			typ = "TEXT"
		}
		if col == "url" {
			typ += " PRIMARY KEY"
		}
		defs = append(defs, col+" "+typ)
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table, strings.Join(defs, ", "))
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_status ON %s (status)", s.table, s.table)
	if _, err := s.db.Exec(idx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Store(records []*types.ArticleRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	q := sq.Insert(s.table).Columns(types.RecordColumns...).Suffix(upsertClause())
	for _, rec := range records {
		flat := rec.ToFlatMap()
		vals := make([]any, len(types.RecordColumns))
		for i, col := range types.RecordColumns {
			vals[i] = flat[col]
		}
		q = q.Values(vals...)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.count += len(records)
	s.logger.Debug("records stored in sqlite", "count", len(records), "total", s.count)
	return nil
}

// CountByStatus returns the row count for one status, or all rows when
// status is empty.
func (s *SQLiteStorage) CountByStatus(status types.Status) (int, error) {
	q := sq.Select("COUNT(*)").From(s.table)
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	var n int
	if err := q.RunWith(s.db).QueryRow().Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "total_records", s.count)
	return s.db.Close()
}

func upsertClause() string {
	sets := make([]string, 0, len(types.RecordColumns))
	for _, col := range types.RecordColumns {
		if col == "url" {
			continue
		}
		sets = append(sets, col+" = excluded."+col)
	}
	return "ON CONFLICT(url) DO UPDATE SET " + strings.Join(sets, ", ")
}
