// Package view renders one run for the terminal.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"hookcode/internal/diff"
	"hookcode/internal/follow"
	"hookcode/internal/format"
	"hookcode/internal/model"
	"hookcode/internal/parser"
	"hookcode/internal/store"
	"hookcode/internal/timeline"
)

// Options defines the configurable parameters for rendering a view.
type Options struct {
	Path         string
	Format       string
	Wrap         int
	MaxItems     int
	KindArg      string
	ShowDiffs    bool
	ContextLines int
	ForceColor   bool
	ForceNoColor bool
	Follow       bool
	// Context bounds Follow; nil means context.Background.
	Context context.Context
	Out     io.Writer
	OutFile *os.File
}

// Run renders a run log according to the provided options.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	kinds, err := parseKindArg(opts.KindArg)
	if err != nil {
		return err
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}

	if opts.Follow {
		return runFollow(opts, formatMode, kinds)
	}

	if formatMode == "raw" {
		return writeRaw(opts, kinds)
	}

	run, err := store.LoadRun(opts.Path)
	if err != nil {
		return err
	}

	ring := newRing[model.Item](opts.MaxItems)
	var items []model.Item
	for _, item := range run.Timeline.Items() {
		if !kindMatches(item, kinds) {
			continue
		}
		if opts.MaxItems > 0 {
			ring.push(item)
			continue
		}
		items = append(items, item)
	}
	if opts.MaxItems > 0 {
		items = ring.slice()
	}

	switch formatMode {
	case "text":
		useColor := resolveColorChoice(opts)
		for idx, item := range items {
			if idx > 0 {
				fmt.Fprintln(opts.Out)
			}
			printItem(opts.Out, item, idx+1, opts, useColor)
		}
		return nil

	case "json", "table":
		return format.WriteItems(opts.Out, items, formatMode)

	case "patch":
		return writePatch(opts.Out, items)

	case "chat":
		colorEnabled := resolveColorChoice(opts)
		width := determineWidth(opts.OutFile, opts.Wrap)

		lines := renderChatTranscript(items, width, colorEnabled)
		if len(lines) == 0 {
			return nil
		}
		if opts.OutFile != nil && isatty.IsTerminal(opts.OutFile.Fd()) {
			return pipeThroughPager(lines, colorEnabled)
		}
		return writeLines(opts.Out, lines)

	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

// runFollow prints each item again whenever an appended line changes it.
func runFollow(opts Options, formatMode string, kinds map[model.ItemKind]struct{}) error {
	if formatMode != "text" && formatMode != "raw" {
		return fmt.Errorf("--follow supports text and raw formats, not %s", formatMode)
	}
	useColor := resolveColorChoice(opts)
	b := timeline.NewBuilder()
	printed := 0

	err := follow.Tail(opts.Context, opts.Path, true, func(line string) error {
		events, err := b.ApplyLine(line)
		if err != nil || len(events) == 0 {
			return nil
		}

		if formatMode == "raw" {
			for _, ev := range events {
				if item, _, ok := b.Item(timeline.EventItemID(ev)); ok && kindMatches(item, kinds) {
					_, err := fmt.Fprintln(opts.Out, line)
					return err
				}
			}
			return nil
		}

		seen := make(map[string]struct{}, len(events))
		for _, ev := range events {
			id := timeline.EventItemID(ev)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			item, idx, ok := b.Item(id)
			if !ok || !kindMatches(item, kinds) {
				continue
			}
			if printed > 0 {
				fmt.Fprintln(opts.Out)
			}
			printItem(opts.Out, item, idx+1, opts, useColor)
			printed++
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// writeRaw echoes the original lines whose events touch a matching item.
func writeRaw(opts Options, kinds map[model.ItemKind]struct{}) error {
	f, err := os.Open(opts.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	b := timeline.NewBuilder()
	ring := newRing[string](opts.MaxItems)
	scanner := parser.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		events, err := b.ApplyLine(line)
		if err != nil {
			continue
		}
		for _, ev := range events {
			item, _, ok := b.Item(timeline.EventItemID(ev))
			if !ok || !kindMatches(item, kinds) {
				continue
			}
			if opts.MaxItems > 0 {
				ring.push(line)
			} else if _, err := fmt.Fprintln(opts.Out, line); err != nil {
				return err
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", opts.Path, err)
	}
	return writeLines(opts.Out, ring.slice())
}

// writePatch prints every recorded file diff as unified diff text.
func writePatch(out io.Writer, items []model.Item) error {
	for _, item := range items {
		fc, ok := item.(model.FileChange)
		if !ok {
			continue
		}
		for _, d := range fc.Diffs {
			text := d.UnifiedDiff
			if text == "" {
				text = diff.Unified(d.Path, d.OldText, d.NewText)
			}
			if text == "" {
				continue
			}
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			if _, err := io.WriteString(out, text); err != nil {
				return err
			}
		}
	}
	return nil
}

var kindAliases = map[string]model.ItemKind{
	"command":           model.ItemKindCommandExecution,
	"command_execution": model.ItemKindCommandExecution,
	"file":              model.ItemKindFileChange,
	"file_change":       model.ItemKindFileChange,
	"message":           model.ItemKindAgentMessage,
	"agent_message":     model.ItemKindAgentMessage,
}

func parseKindArg(arg string) (map[model.ItemKind]struct{}, error) {
	values := parseCSV(arg)
	if len(values) == 0 || (len(values) == 1 && values[0] == "all") {
		return nil, nil
	}

	set := make(map[model.ItemKind]struct{}, len(values))
	for _, token := range values {
		kind, ok := kindAliases[token]
		if !ok {
			return nil, fmt.Errorf("unknown item kind %q", token)
		}
		set[kind] = struct{}{}
	}
	return set, nil
}

func parseCSV(arg string) []string {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	output := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(strings.ToLower(part))
		if token != "" {
			output = append(output, token)
		}
	}
	return output
}

func kindMatches(item model.Item, kinds map[model.ItemKind]struct{}) bool {
	if kinds == nil {
		return true
	}
	_, ok := kinds[item.Kind()]
	return ok
}

// ring keeps the most recent values pushed into it.
type ring[T any] struct {
	data   []T
	start  int
	length int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		return &ring[T]{}
	}
	return &ring[T]{data: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if len(r.data) == 0 {
		return
	}
	idx := (r.start + r.length) % len(r.data)
	r.data[idx] = v
	if r.length < len(r.data) {
		r.length++
		return
	}
	r.start = (r.start + 1) % len(r.data)
}

func (r *ring[T]) slice() []T {
	if r.length == 0 {
		return nil
	}
	result := make([]T, r.length)
	for i := 0; i < r.length; i++ {
		result[i] = r.data[(r.start+i)%len(r.data)]
	}
	return result
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func printItem(out io.Writer, item model.Item, index int, opts Options, useColor bool) {
	label := format.ItemLabel(item)
	status := string(format.ItemStatus(item))
	if status == "" {
		status = "-"
	}
	headerPlain := fmt.Sprintf("[#%03d] %s | %s | %s", index, label, item.ItemID(), status)

	indexText := fmt.Sprintf("#%03d", index)
	labelText := label
	idText := item.ItemID()
	statusText := status
	separator := "|"

	if useColor {
		indexText = colorize(true, indexText, paletteBoldWhite...)
		labelText = colorize(true, labelText, kindColor(item.Kind())...)
		idText = colorize(true, idText, paletteMuted...)
		statusText = colorize(true, statusText, statusColor(format.ItemStatus(item))...)
		separator = colorize(true, "|", paletteSeparator...)
	}

	fmt.Fprintf(out, "[%s] %s %s %s %s %s\n", indexText, labelText, separator, idText, separator, statusText)
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain)))

	lines := format.RenderItemLines(item, opts.Wrap)
	if fc, ok := item.(model.FileChange); ok && opts.ShowDiffs {
		lines = append(lines, diffLines(fc, opts.ContextLines, useColor)...)
	}

	if len(lines) == 0 {
		prefix := "|"
		if useColor {
			prefix = colorize(true, "|", paletteSeparator...)
		}
		fmt.Fprintf(out, "%s %s\n", prefix, "(no content)")
		return
	}
	linePrefix := "| "
	emptyPrefix := "|"
	if useColor {
		separatorColor := colorize(true, "|", paletteSeparator...)
		linePrefix = separatorColor + " "
		emptyPrefix = separatorColor
	}
	for _, line := range lines {
		if line == "" {
			fmt.Fprintln(out, emptyPrefix)
			continue
		}
		fmt.Fprintf(out, "%s%s\n", linePrefix, line)
	}
}

// diffLines expands every recorded diff of fc.
func diffLines(fc model.FileChange, contextLines int, useColor bool) []string {
	var lines []string
	for _, d := range fc.Diffs {
		result, err := diff.ForFile(d, contextLines)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s: %v", d.Path, err))
			continue
		}
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s (%s)", d.Path, format.DiffStatLine(result)))
		lines = append(lines, format.RenderDiff(result, format.DiffOptions{Color: useColor, LineNumbers: true})...)
	}
	return lines
}

var (
	paletteBoldWhite = []color.Attribute{color.Bold, color.FgHiWhite}
	paletteMuted     = []color.Attribute{38, 5, 245}
	paletteSeparator = []color.Attribute{38, 5, 240}
	paletteAgent     = []color.Attribute{38, 5, 44}
	paletteCommand   = []color.Attribute{38, 5, 207}
	paletteFile      = []color.Attribute{38, 5, 220}
)

func colorize(enabled bool, text string, attrs ...color.Attribute) string {
	if !enabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

func kindColor(kind model.ItemKind) []color.Attribute {
	switch kind {
	case model.ItemKindAgentMessage:
		return paletteAgent
	case model.ItemKindCommandExecution:
		return paletteCommand
	case model.ItemKindFileChange:
		return paletteFile
	default:
		return paletteSeparator
	}
}

func statusColor(status model.ItemStatus) []color.Attribute {
	switch status {
	case model.ItemStatusCompleted:
		return []color.Attribute{color.FgGreen}
	case model.ItemStatusFailed:
		return []color.Attribute{color.FgRed}
	case model.ItemStatusInProgress:
		return []color.Attribute{color.FgYellow}
	default:
		return paletteMuted
	}
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
