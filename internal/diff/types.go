// Package diff turns pairs of texts into contextual unified-diff hunks with
// word-level inline highlighting.
package diff

// DefaultContextLines is the number of unchanged lines kept around a change.
const DefaultContextLines = 3

// LineType classifies one rendered diff line.
type LineType string

const (
	LineAdd    LineType = "add"
	LineRemove LineType = "remove"
	LineNormal LineType = "normal"
)

// Token is a word-level fragment of a paired line.
type Token struct {
	Value   string `json:"value"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// Line is one line of a hunk. Line numbers are 1-based; zero means the line
// does not exist on that side.
type Line struct {
	Type          LineType `json:"type"`
	Content       string   `json:"content"`
	OldLineNumber int      `json:"oldLineNumber,omitempty"`
	NewLineNumber int      `json:"newLineNumber,omitempty"`
	Tokens        []Token  `json:"tokens,omitempty"`
}

// Hunk is a contiguous, context-padded window of the diff.
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldLines int    `json:"oldLines"`
	NewStart int    `json:"newStart"`
	NewLines int    `json:"newLines"`
	Lines    []Line `json:"lines"`
}

// Stats counts changed lines.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Result is the full diff of one file.
type Result struct {
	Hunks []Hunk `json:"hunks"`
	Stats Stats  `json:"stats"`
}

func (s *Stats) add(other Stats) {
	s.Additions += other.Additions
	s.Deletions += other.Deletions
}
