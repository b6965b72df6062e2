// Package format provides formatting and rendering functions for runs and
// timelines.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hookcode/internal/store"
)

// WriteSummaries writes run summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []store.RunSummary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		return writeJSON(w, items)
	case "jsonl":
		return writeJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSummariesPlain(w io.Writer, items []store.RunSummary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "updated_at\trun_id\tprovider\titems\tchanges\tstatus\tsummary"); err != nil {
			return err
		}
	}

	for _, item := range items {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%s\t%s\t%s",
			item.UpdatedAt.Format(time.RFC3339),
			item.ID,
			providerLabel(item),
			item.Items,
			formatChanges(item.Additions, item.Deletions),
			runStatus(item),
			escapeNewlines(item.Summary),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONL[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}

func writeSummariesTable(w io.Writer, items []store.RunSummary, includeHeader bool) error {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Updated", "Run ID", "Provider", "Items", "Changes", "Status", "Summary"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.UpdatedAt.Format(time.RFC3339),
			item.ID,
			providerLabel(item),
			item.Items,
			formatChanges(item.Additions, item.Deletions),
			runStatus(item),
			escapeNewlines(item.Summary),
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no runs)", "-", 0, "+0 -0", "-", "-"})
	}

	_ = tw.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	return tw
}

func providerLabel(item store.RunSummary) string {
	if item.Provider == "" {
		return "-"
	}
	return string(item.Provider)
}

func runStatus(item store.RunSummary) string {
	if item.Failed {
		return "failed"
	}
	return "ok"
}

func formatChanges(additions, deletions int) string {
	return fmt.Sprintf("+%d -%d", additions, deletions)
}
