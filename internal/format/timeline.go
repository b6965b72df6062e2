package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hookcode/internal/model"
	"hookcode/internal/timeline"
)

// WriteTimeline writes every item of tl in the requested format.
func WriteTimeline(w io.Writer, tl timeline.Timeline, format string) error {
	return WriteItems(w, tl.Items(), format)
}

// WriteItems writes items in table, json ({"items":[...]}) or jsonl format.
func WriteItems(w io.Writer, items []model.Item, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeItemsTable(w, items)
	case "json":
		if items == nil {
			items = []model.Item{}
		}
		return writeJSON(w, struct {
			Items []model.Item `json:"items"`
		}{Items: items})
	case "jsonl":
		return writeJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeItemsTable(w io.Writer, items []model.Item) error {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})
	tw.AppendHeader(table.Row{"#", "ID", "Kind", "Status", "Summary"})

	for idx, item := range items {
		status := string(ItemStatus(item))
		if status == "" {
			status = "-"
		}
		tw.AppendRow(table.Row{idx + 1, item.ItemID(), item.Kind(), status, escapeNewlines(ItemSummary(item))})
	}
	if len(items) == 0 {
		tw.AppendRow(table.Row{0, "(no items)", "-", "-", "-"})
	}

	_ = tw.Render()
	return nil
}
