package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/engine"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleRecords() []*types.ArticleRecord {
	ok := types.NewRecord(types.ArticleTask{
		Source: "El País", URL: "https://elpais.com/a.html", Title: "Uno",
		Published: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	ok.Status = types.StatusOK
	ok.ApplyResult(&types.ExtractionResult{Text: "Texto con <b>marcas</b> y acentos: ñandú", Method: types.MethodPrimary, Language: "es"})

	failed := types.NewRecord(types.ArticleTask{Source: "ABC", URL: "https://abc.es/b.html", Title: "Dos"})
	failed.Status = types.StatusBlockedFallbackRequired
	failed.ErrorMessage = "blocked by origin (status 403)"

	return []*types.ArticleRecord{ok, failed}
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad JSONL line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestJSONLStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "articles_full.jsonl")
	s, err := NewJSONLStorage(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	first := lines[0]
	if first["status"] != "ok" || first["extraction_method"] != "primary" {
		t.Errorf("unexpected first record %v", first)
	}
	if first["language"] != "es" {
		t.Errorf("language = %v", first["language"])
	}
	if first["author"] != nil {
		t.Errorf("missing author should encode as null, got %v", first["author"])
	}
	if first["text"] != "Texto con <b>marcas</b> y acentos: ñandú" {
		t.Errorf("text not preserved: %v", first["text"])
	}
}

func TestJSONStorageWritesArrayOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles_full.json")
	s, err := NewJSONStorage(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	recs := sampleRecords()
	_ = s.Store(recs[:1])
	_ = s.Store(recs[1:])
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []types.ArticleRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Status != types.StatusBlockedFallbackRequired {
		t.Errorf("unexpected array %+v", got)
	}
}

func TestCSVStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles_full.csv")
	s, err := NewCSVStorage(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][1] != "url" || rows[1][1] != "https://elpais.com/a.html" {
		t.Errorf("unexpected rows %v", rows[:2])
	}
}

func TestFailureLogOnlyNonOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_extractions.jsonl")
	l, err := NewFailureLog(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if err := l.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if l.Count() != 1 {
		t.Errorf("count = %d, want 1", l.Count())
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]
	if entry["url"] != "https://abc.es/b.html" {
		t.Errorf("url = %v", entry["url"])
	}
	if entry["logged_at"] != "2025-05-06T07:08:09Z" {
		t.Errorf("logged_at = %v", entry["logged_at"])
	}
	if entry["status"] != "blocked-fallback-required" {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestSQLiteUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.db")
	s, err := NewSQLiteStorage(path, "articles", testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	recs := sampleRecords()
	if err := s.Store(recs); err != nil {
		t.Fatal(err)
	}

	// A rerun flips the failed article to ok; the row is replaced.
	retry := *recs[1]
	retry.Status = types.StatusOK
	retry.ErrorMessage = ""
	if err := s.Store([]*types.ArticleRecord{&retry}); err != nil {
		t.Fatal(err)
	}

	total, err := s.CountByStatus("")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("rows = %d, want 2", total)
	}
	ok, err := s.CountByStatus(types.StatusOK)
	if err != nil {
		t.Fatal(err)
	}
	if ok != 2 {
		t.Errorf("ok rows = %d, want 2", ok)
	}
}

func TestSQLiteRejectsBadTableName(t *testing.T) {
	_, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "x.db"), "articles; DROP TABLE x", testLogger)
	if err == nil {
		t.Fatal("expected an error for an unsafe table name")
	}
}

func TestOpenMultiStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig().Storage
	cfg.OutputDir = dir
	cfg.Type = "jsonl,csv,sqlite"
	cfg.SQLite.Path = filepath.Join(dir, "articles.db")

	ms, err := Open(&cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"jsonl", "csv", "sqlite", "failures"}
	got := ms.Names()
	if len(got) != len(want) {
		t.Fatalf("backends = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("backend %d = %s, want %s", i, got[i], want[i])
		}
	}
	if err := ms.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := ms.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"articles_full.jsonl", "articles_full.csv", "failed_extractions.jsonl", "articles.db"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestOpenUnknownType(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.OutputDir = t.TempDir()
	cfg.Type = "parquet"
	if _, err := Open(&cfg, testLogger); err == nil {
		t.Fatal("expected an error for an unknown storage type")
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extraction_report.json")
	s := engine.NewSummary("run-1")
	rec := sampleRecords()[1]
	s.Add(rec)
	s.Finish(engine.NewRunBudget(10))

	if err := WriteReport(path, s); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	byStatus, _ := got["by_status"].(map[string]any)
	if len(byStatus) != len(types.AllStatuses) {
		t.Errorf("by_status should list all statuses, got %v", byStatus)
	}
	if byStatus["blocked-fallback-required"] != float64(1) {
		t.Errorf("blocked count = %v", byStatus["blocked-fallback-required"])
	}
	if got["run_id"] != "run-1" || got["render_budget"] != float64(10) {
		t.Errorf("unexpected report header %v", got)
	}
}
