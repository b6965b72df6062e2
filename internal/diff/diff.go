package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// pairThreshold is the minimum similarity for a removed/added line pair to
// receive inline tokens.
const pairThreshold = 0.3

// maxPairCandidates caps pending removals times added lines for one added
// block. Larger rewrites are shown without inline tokens.
const maxPairCandidates = 64 * 64

// block is a run of lines sharing one change type.
type block struct {
	kind  LineType
	lines []string
}

type pendingRemoval struct {
	index   int
	content string
}

// CalculateUnifiedDiff diffs two full texts. A negative contextLines selects
// DefaultContextLines. Identical non-empty inputs yield one hunk without
// changes; empty inputs yield no hunks.
func CalculateUnifiedDiff(oldText, newText string, contextLines int) Result {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	lines, stats := buildLines(lineBlocks(oldText, newText), 1, 1)
	return Result{
		Hunks: buildHunks(lines, contextLines),
		Stats: stats,
	}
}

// CountChanges counts the lines CalculateUnifiedDiff would report as added
// and deleted, without pairing lines or building hunks.
func CountChanges(oldText, newText string) Stats {
	return countBlocks(lineBlocks(oldText, newText))
}

func countBlocks(blocks []block) Stats {
	var stats Stats
	for _, blk := range blocks {
		switch blk.kind {
		case LineAdd:
			stats.Additions += len(blk.lines)
		case LineRemove:
			stats.Deletions += len(blk.lines)
		}
	}
	return stats
}

// lineBlocks computes the line-level diff as ordered blocks. Lines keep their
// terminators while matching so "a" and "a\n" are distinct.
func lineBlocks(oldText, newText string) []block {
	a := splitLines(oldText)
	b := splitLines(newText)

	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	var blocks []block
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			blocks = appendBlock(blocks, LineNormal, a[op.I1:op.I2])
		case 'd':
			blocks = appendBlock(blocks, LineRemove, a[op.I1:op.I2])
		case 'i':
			blocks = appendBlock(blocks, LineAdd, b[op.J1:op.J2])
		case 'r':
			blocks = appendBlock(blocks, LineRemove, a[op.I1:op.I2])
			blocks = appendBlock(blocks, LineAdd, b[op.J1:op.J2])
		}
	}
	return blocks
}

func appendBlock(blocks []block, kind LineType, raw []string) []block {
	if len(raw) == 0 {
		return blocks
	}
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSuffix(line, "\n")
	}
	return append(blocks, block{kind: kind, lines: lines})
}

// splitLines splits text after each newline, dropping the empty artifact
// that follows a final terminator.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// buildLines walks blocks in order, numbering lines from the given starts and
// pairing added lines with buffered removals. Pairing is greedy: each added
// line takes the best-scoring pending removal and never revisits it.
func buildLines(blocks []block, oldNum, newNum int) ([]Line, Stats) {
	var (
		lines       []Line
		stats       Stats
		pending     []pendingRemoval
		prevRemoved int
	)

	for _, blk := range blocks {
		switch blk.kind {
		case LineRemove:
			for _, content := range blk.lines {
				lines = append(lines, Line{Type: LineRemove, Content: content, OldLineNumber: oldNum})
				pending = append(pending, pendingRemoval{index: len(lines) - 1, content: content})
				oldNum++
				stats.Deletions++
			}
			prevRemoved = len(blk.lines)
			continue

		case LineAdd:
			// A lone removed line replaced by a lone added line always pairs,
			// whatever its score, so one-line edits such as "a" to "b" still
			// get word tokens. Every other pair needs score > pairThreshold.
			single := len(blk.lines) == 1 && prevRemoved == 1 && len(pending) == 1
			pairable := len(pending)*len(blk.lines) <= maxPairCandidates
			for _, content := range blk.lines {
				line := Line{Type: LineAdd, Content: content, NewLineNumber: newNum}

				best, score := -1, 0.0
				if pairable {
					best, score = bestPending(pending, content)
				}
				if best >= 0 && (score > pairThreshold || single) {
					removedSide, addedSide := inlineDiff(pending[best].content, content)
					lines[pending[best].index].Tokens = removedSide
					line.Tokens = addedSide
					pending = append(pending[:best], pending[best+1:]...)
				}

				lines = append(lines, line)
				newNum++
				stats.Additions++
			}

		case LineNormal:
			for _, content := range blk.lines {
				lines = append(lines, Line{
					Type:          LineNormal,
					Content:       content,
					OldLineNumber: oldNum,
					NewLineNumber: newNum,
				})
				oldNum++
				newNum++
			}
			// Removals never pair across unchanged lines.
			pending = nil
		}
		prevRemoved = 0
	}

	return lines, stats
}

// bestPending returns the index and score of the highest-scoring pending
// removal; ties keep the earliest.
func bestPending(pending []pendingRemoval, content string) (int, float64) {
	best := -1
	bestScore := 0.0
	for i, p := range pending {
		score := similarity(p.content, content)
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}

// buildHunks groups lines into context windows. Changes whose unchanged gap is
// at most 2*contextLines share a hunk.
func buildHunks(lines []Line, contextLines int) []Hunk {
	if len(lines) == 0 {
		return nil
	}

	var changed []int
	for i, line := range lines {
		if line.Type != LineNormal {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return []Hunk{newHunk(lines, 0, len(lines)-1)}
	}

	var hunks []Hunk
	emit := func(first, last int) {
		lo := max(0, first-contextLines)
		hi := min(len(lines)-1, last+contextLines)
		hunks = append(hunks, newHunk(lines, lo, hi))
	}

	start, prev := changed[0], changed[0]
	for _, idx := range changed[1:] {
		if idx-prev-1 <= 2*contextLines {
			prev = idx
			continue
		}
		emit(start, prev)
		start, prev = idx, idx
	}
	emit(start, prev)

	return hunks
}

func newHunk(lines []Line, lo, hi int) Hunk {
	window := make([]Line, hi-lo+1)
	copy(window, lines[lo:hi+1])

	h := Hunk{Lines: window}
	for _, line := range window {
		if line.OldLineNumber > 0 {
			if h.OldLines == 0 {
				h.OldStart = line.OldLineNumber
			}
			h.OldLines++
		}
		if line.NewLineNumber > 0 {
			if h.NewLines == 0 {
				h.NewStart = line.NewLineNumber
			}
			h.NewLines++
		}
	}

	// A side with no lines in the window anchors to the last line before it,
	// as in `git diff` (0 when the window starts the file).
	if h.OldLines == 0 {
		h.OldStart = lastNumberBefore(lines, lo, func(l Line) int { return l.OldLineNumber })
	}
	if h.NewLines == 0 {
		h.NewStart = lastNumberBefore(lines, lo, func(l Line) int { return l.NewLineNumber })
	}
	return h
}

func lastNumberBefore(lines []Line, lo int, number func(Line) int) int {
	for i := lo - 1; i >= 0; i-- {
		if n := number(lines[i]); n > 0 {
			return n
		}
	}
	return 0
}
