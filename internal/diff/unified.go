package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	godiff "github.com/sourcegraph/go-diff/diff"

	"hookcode/internal/model"
)

// ParseUnified converts unified diff text into hunks with the same pairing
// and inline tokens CalculateUnifiedDiff produces. The text may be a bare
// hunk list or carry ---/+++ file headers. Hunk ranges are taken from the
// @@ headers as written.
func ParseUnified(text string) (Result, error) {
	hunks, err := parseHunks(text)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, h := range hunks {
		oldStart, newStart := int(h.OrigStartLine), int(h.NewStartLine)
		// A zero-length side numbers from the line after its anchor.
		firstOld, firstNew := oldStart, newStart
		if h.OrigLines == 0 {
			firstOld++
		}
		if h.NewLines == 0 {
			firstNew++
		}

		lines, stats := buildLines(bodyBlocks(h.Body), firstOld, firstNew)
		result.Hunks = append(result.Hunks, Hunk{
			OldStart: oldStart,
			OldLines: int(h.OrigLines),
			NewStart: newStart,
			NewLines: int(h.NewLines),
			Lines:    lines,
		})
		result.Stats.add(stats)
	}
	return result, nil
}

func parseHunks(text string) ([]*godiff.Hunk, error) {
	trimmed := strings.TrimLeft(text, "\r\n")
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "@@") {
		hunks, err := godiff.ParseHunks([]byte(trimmed))
		if err != nil {
			return nil, fmt.Errorf("parse hunks: %w", err)
		}
		return hunks, nil
	}
	fd, err := godiff.ParseFileDiff([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("parse file diff: %w", err)
	}
	return fd.Hunks, nil
}

// bodyBlocks groups hunk body lines by their prefix. "\ No newline" markers
// are dropped.
func bodyBlocks(body []byte) []block {
	if len(body) == 0 {
		return nil
	}
	var blocks []block
	for _, raw := range bytes.Split(bytes.TrimSuffix(body, []byte("\n")), []byte("\n")) {
		line := string(raw)
		kind := LineNormal
		content := line
		if line != "" {
			switch line[0] {
			case '+':
				kind = LineAdd
			case '-':
				kind = LineRemove
			case '\\':
				continue
			}
			content = line[1:]
		}

		if n := len(blocks); n > 0 && blocks[n-1].kind == kind {
			blocks[n-1].lines = append(blocks[n-1].lines, content)
			continue
		}
		blocks = append(blocks, block{kind: kind, lines: []string{content}})
	}
	return blocks
}

// Unified renders the unified diff text between two versions of path. It
// returns "" when the texts are equal.
func Unified(path, oldText, newText string) string {
	if oldText == newText {
		return ""
	}
	if path == "" {
		path = "file"
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+path, "b/"+path, oldText, edits))
}

// ForFile diffs one recorded file change. Full texts win over the unified
// text when both are present.
func ForFile(d model.FileDiff, contextLines int) (Result, error) {
	if d.OldText != "" || d.NewText != "" {
		return CalculateUnifiedDiff(d.OldText, d.NewText, contextLines), nil
	}
	if d.UnifiedDiff != "" {
		result, err := ParseUnified(d.UnifiedDiff)
		if err != nil {
			return Result{}, fmt.Errorf("diff %s: %w", d.Path, err)
		}
		return result, nil
	}
	return Result{}, nil
}

// StatsForFile returns the Stats ForFile would report for d, counting
// changed lines only.
func StatsForFile(d model.FileDiff) (Stats, error) {
	if d.OldText != "" || d.NewText != "" {
		return CountChanges(d.OldText, d.NewText), nil
	}
	if d.UnifiedDiff == "" {
		return Stats{}, nil
	}
	hunks, err := parseHunks(d.UnifiedDiff)
	if err != nil {
		return Stats{}, fmt.Errorf("diff %s: %w", d.Path, err)
	}
	var stats Stats
	for _, h := range hunks {
		stats.add(countBlocks(bodyBlocks(h.Body)))
	}
	return stats, nil
}
