package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/IshaanNene/ArticleGoat/internal/engine"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

const labelWidth = 28

// printSummary writes the run summary as an aligned two-column table.
func printSummary(w io.Writer, s *engine.Summary, sinks []string, outputDir string) {
	row := func(label string, value any) {
		fmt.Fprintf(w, "  %s %v\n", runewidth.FillRight(label, labelWidth), value)
	}

	fmt.Fprintf(w, "\nExtraction complete in %s\n\n", time.Duration(s.Duration*float64(time.Second)).Round(time.Millisecond))
	row("Articles", s.Total)
	for _, st := range types.AllStatuses {
		row("  "+string(st), fmt.Sprintf("%d%s", s.ByStatus[st], percent(s.ByStatus[st], s.Total)))
	}

	fmt.Fprintln(w)
	for _, m := range types.AllMethods {
		row("Method "+string(m), s.ByMethod[m])
	}

	fmt.Fprintln(w)
	row("Avg fetch time", fmt.Sprintf("%.2fs", s.FetchSecondsAvg))
	row("Avg extraction time", fmt.Sprintf("%.2fs", s.ExtractionSecondsAvg))
	row("Render calls", fmt.Sprintf("%d / %d", s.RenderCalls, s.RenderBudget))

	if len(s.EscalationDomains) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Domains needing escalation:")
		for _, d := range s.EscalationDomains {
			fmt.Fprintf(w, "    %s\n", runewidth.Truncate(d, labelWidth*2, "…"))
		}
	}

	fmt.Fprintln(w)
	row("Output", outputDir)
	row("Sinks", strings.Join(sinks, ", "))
}

func percent(n, total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf(" (%.1f%%)", float64(n)*100/float64(total))
}
