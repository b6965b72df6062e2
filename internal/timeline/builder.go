package timeline

import (
	"errors"
	"fmt"
	"io"

	"hookcode/internal/model"
	"hookcode/internal/parser"
)

// Builder accumulates a timeline in place. It is owned by a single writer;
// Snapshot hands out independent copies for readers.
type Builder struct {
	tl   Timeline
	meta model.RunMeta
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Apply folds one event in and reports whether the timeline changed.
func (b *Builder) Apply(ev model.Event) bool {
	return b.tl.apply(ev)
}

// ApplyLine normalizes one raw line, records any run metadata it carries,
// and folds the resulting events in. It returns the events applied and the
// normalizer's reason when the line produced none.
func (b *Builder) ApplyLine(line string) ([]model.Event, error) {
	parser.ScanMeta(line, &b.meta)

	events, err := parser.NormalizeLine(line)
	if err != nil {
		return nil, err
	}
	var applied []model.Event
	for _, ev := range events {
		if b.tl.apply(ev) {
			applied = append(applied, ev)
		}
	}
	return applied, nil
}

// Len returns the current number of items.
func (b *Builder) Len() int {
	return b.tl.Len()
}

// Item returns the current state of an item and its position.
func (b *Builder) Item(id string) (model.Item, int, bool) {
	idx, ok := b.tl.Index(id)
	if !ok {
		return nil, 0, false
	}
	return b.tl.items[idx], idx, true
}

// Meta returns the run metadata seen so far.
func (b *Builder) Meta() model.RunMeta {
	return b.meta
}

// Snapshot returns a copy of the current timeline that later applies do not
// affect.
func (b *Builder) Snapshot() Timeline {
	return b.tl.clone()
}

// ReduceLines folds lines in order, starting from an empty timeline. Lines
// that normalize to nothing are skipped.
func ReduceLines(lines []string) Timeline {
	b := NewBuilder()
	for _, line := range lines {
		_, _ = b.ApplyLine(line)
	}
	return b.Snapshot()
}

// SkippedLine records a non-empty line that produced no events.
type SkippedLine struct {
	Line int
	Err  error
}

// Report summarizes one ReduceReader pass.
type Report struct {
	Meta    model.RunMeta
	Lines   int
	Events  int
	Skipped []SkippedLine
}

// ReduceReader folds a JSONL stream. Unsupported and malformed lines are
// recorded in the report; only read failures are returned as errors.
func ReduceReader(r io.Reader) (Timeline, Report, error) {
	b := NewBuilder()
	var report Report

	scanner := parser.NewScanner(r)
	for scanner.Scan() {
		report.Lines++
		events, err := b.ApplyLine(scanner.Text())
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedLine{Line: report.Lines, Err: err})
			continue
		}
		report.Events += len(events)
	}
	report.Meta = b.Meta()

	if err := scanner.Err(); err != nil {
		return b.Snapshot(), report, fmt.Errorf("scan line %d: %w", report.Lines+1, err)
	}
	return b.Snapshot(), report, nil
}

// Malformed counts skipped lines that were not valid JSON objects.
func (r Report) Malformed() int {
	n := 0
	for _, s := range r.Skipped {
		if errors.Is(s.Err, parser.ErrMalformed) {
			n++
		}
	}
	return n
}

// EventItemID returns the id of the item an event targets.
func EventItemID(ev model.Event) string {
	switch e := ev.(type) {
	case model.ItemEvent:
		item, ok := valueItem(e.Item)
		if !ok {
			return ""
		}
		return item.ItemID()
	case model.FileDiffEvent:
		return e.ItemID
	default:
		return ""
	}
}
