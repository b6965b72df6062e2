package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"hookcode/internal/diff"
)

// DiffOptions controls RenderDiff.
type DiffOptions struct {
	Color bool
	// LineNumbers prefixes every line with its old and new line numbers.
	LineNumbers bool
}

type diffPalette struct {
	header, add, remove, addWord, removeWord *color.Color
}

func newDiffPalette(enabled bool) diffPalette {
	p := diffPalette{
		header:     color.New(color.FgCyan),
		add:        color.New(color.FgGreen),
		remove:     color.New(color.FgRed),
		addWord:    color.New(color.FgBlack, color.BgGreen),
		removeWord: color.New(color.FgBlack, color.BgRed),
	}
	for _, c := range []*color.Color{p.header, p.add, p.remove, p.addWord, p.removeWord} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// RenderDiff formats a diff result as unified-diff lines. Paired lines show
// their changed words highlighted when color is enabled.
func RenderDiff(result diff.Result, opts DiffOptions) []string {
	p := newDiffPalette(opts.Color)

	var lines []string
	for _, h := range result.Hunks {
		lines = append(lines, p.header.Sprint(hunkHeader(h)))
		for _, line := range h.Lines {
			lines = append(lines, renderDiffLine(line, opts, p))
		}
	}
	return lines
}

// DiffStatLine summarizes a result as "+N -M".
func DiffStatLine(result diff.Result) string {
	return formatChanges(result.Stats.Additions, result.Stats.Deletions)
}

func hunkHeader(h diff.Hunk) string {
	return fmt.Sprintf("@@ -%s +%s @@", hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines))
}

func hunkRange(start, count int) string {
	if count == 1 {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

func renderDiffLine(line diff.Line, opts DiffOptions, p diffPalette) string {
	var gutter string
	if opts.LineNumbers {
		gutter = fmt.Sprintf("%4s %4s ", lineNumber(line.OldLineNumber), lineNumber(line.NewLineNumber))
	}

	switch line.Type {
	case diff.LineAdd:
		return gutter + p.add.Sprint("+") + renderTokens(line, p.add, p.addWord)
	case diff.LineRemove:
		return gutter + p.remove.Sprint("-") + renderTokens(line, p.remove, p.removeWord)
	default:
		return gutter + " " + line.Content
	}
}

func renderTokens(line diff.Line, base, highlight *color.Color) string {
	if len(line.Tokens) == 0 {
		return base.Sprint(line.Content)
	}
	var b strings.Builder
	for _, tok := range line.Tokens {
		if tok.Added || tok.Removed {
			b.WriteString(highlight.Sprint(tok.Value))
			continue
		}
		b.WriteString(base.Sprint(tok.Value))
	}
	return b.String()
}

func lineNumber(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
