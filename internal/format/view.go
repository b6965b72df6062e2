package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"hookcode/internal/model"
)

// RenderItemLines returns the formatted body lines for a timeline item.
func RenderItemLines(item model.Item, wrapWidth int) []string {
	var body string
	switch it := item.(type) {
	case model.AgentMessage:
		body = wrapBody(strings.TrimSpace(it.Text), wrapWidth)
	case model.CommandExecution:
		body = renderCommand(it)
	case model.FileChange:
		body = renderFileChange(it)
	}
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

// ItemLabel is the short kind label shown in item headers.
func ItemLabel(item model.Item) string {
	switch item.Kind() {
	case model.ItemKindCommandExecution:
		return "command"
	case model.ItemKindFileChange:
		return "file_change"
	case model.ItemKindAgentMessage:
		return "agent"
	default:
		return "item"
	}
}

// ItemStatus returns the lifecycle status of item, or "" for items without
// one.
func ItemStatus(item model.Item) model.ItemStatus {
	switch it := item.(type) {
	case model.CommandExecution:
		return it.Status
	case model.FileChange:
		return it.Status
	default:
		return ""
	}
}

// ItemSummary is a one-line description used by tables.
func ItemSummary(item model.Item) string {
	switch it := item.(type) {
	case model.AgentMessage:
		return strings.Join(strings.Fields(it.Text), " ")
	case model.CommandExecution:
		return "$ " + it.Command
	case model.FileChange:
		paths := make([]string, 0, len(it.Changes))
		for _, change := range it.Changes {
			paths = append(paths, changeMarker(change.Kind)+" "+change.Path)
		}
		return strings.Join(paths, ", ")
	default:
		return ""
	}
}

func renderCommand(cmd model.CommandExecution) string {
	parts := []string{"$ " + cmd.Command}
	if output := strings.TrimRight(cmd.Output, "\n"); output != "" {
		parts = append(parts, formatJSON(output))
	}
	if cmd.ExitCode != nil {
		parts = append(parts, fmt.Sprintf("exit code: %d", *cmd.ExitCode))
	}
	return strings.Join(parts, "\n")
}

func renderFileChange(fc model.FileChange) string {
	parts := make([]string, 0, len(fc.Changes)+1)
	for _, change := range fc.Changes {
		parts = append(parts, fmt.Sprintf("%s %s", changeMarker(change.Kind), change.Path))
	}
	if len(fc.Diffs) > 0 {
		parts = append(parts, fmt.Sprintf("(%d diff(s) recorded)", len(fc.Diffs)))
	}
	return strings.Join(parts, "\n")
}

func changeMarker(kind model.ChangeKind) string {
	switch kind {
	case model.ChangeKindAdd:
		return "A"
	case model.ChangeKindDelete:
		return "D"
	default:
		return "M"
	}
}

func wrapBody(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if len(current)+1+len(word) > width {
				out = append(out, current)
				current = word
			} else {
				current += " " + word
			}
		}
		out = append(out, current)
	}

	return strings.Join(out, "\n")
}

// formatJSON pretty-prints raw when it is a JSON object or array.
func formatJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err == nil {
		return buf.String()
	}
	return raw
}
