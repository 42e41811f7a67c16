package storage

import (
	"encoding/json"
	"fmt"

	"github.com/IshaanNene/ArticleGoat/internal/engine"
)

// WriteReport writes the run summary as indented JSON.
func WriteReport(path string, summary *engine.Summary) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}
