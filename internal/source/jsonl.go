package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/parser"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Source produces the tasks for one run.
type Source interface {
	Tasks(ctx context.Context) ([]types.ArticleTask, error)
}

// Accepted keys per task field, in lookup order. The Spanish keys match the
// files the upstream RSS stage writes.
var (
	sourceKeys    = []string{"source", "fuente", "nombre_del_medio", "medio"}
	urlKeys       = []string{"url", "link", "enlace"}
	titleKeys     = []string{"title", "titulo", "titular"}
	summaryKeys   = []string{"summary", "resumen", "descripcion"}
	publishedKeys = []string{"published", "fecha", "timestamp"}
)

// TaskFile reads ArticleTasks from a JSONL file, one object per line.
type TaskFile struct {
	path   string
	logger *slog.Logger
}

// NewTaskFile creates a TaskFile source.
func NewTaskFile(path string, logger *slog.Logger) *TaskFile {
	return &TaskFile{path: path, logger: logger.With("component", "task_file")}
}

// Tasks reads and validates every line. Bad lines are logged and skipped;
// only an unreadable file is an error.
func (s *TaskFile) Tasks(ctx context.Context) ([]types.ArticleTask, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open task file: %w", err)
	}
	defer f.Close()

	tasks, skipped, err := ReadTasks(f)
	for _, e := range skipped {
		s.logger.Warn("skipping task line", "error", e)
	}
	if err != nil {
		return nil, fmt.Errorf("read task file %s: %w", s.path, err)
	}
	s.logger.Info("tasks loaded", "path", s.path, "tasks", len(tasks), "skipped", len(skipped))
	return tasks, nil
}

// ReadTasks parses JSONL task lines. Per-line problems are returned in
// skipped; err is only set when the reader itself fails.
func ReadTasks(r io.Reader) (tasks []types.ArticleTask, skipped []error, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		task, err := taskFromMap(obj)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped, sc.Err()
}

func taskFromMap(obj map[string]any) (types.ArticleTask, error) {
	published, _ := parseTimestamp(lookup(obj, publishedKeys))
	return types.NewArticleTask(
		str(lookup(obj, sourceKeys)),
		str(lookup(obj, urlKeys)),
		str(lookup(obj, titleKeys)),
		str(lookup(obj, summaryKeys)),
		published,
	)
}

func lookup(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// parseTimestamp accepts a date string in any layout parser.ParseDate knows,
// or a Unix timestamp in seconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case string:
		if ts, ok := parser.ParseDate(t); ok {
			return ts.UTC(), true
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
