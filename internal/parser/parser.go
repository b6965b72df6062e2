// Package parser normalizes raw agent log lines from every supported wire
// format into canonical timeline events.
package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"hookcode/internal/claude"
	"hookcode/internal/codex"
	"hookcode/internal/model"
)

// FileDiffType is the envelope type of the custom diff notification.
const FileDiffType = "hookcode.file.diff"

var (
	// ErrMalformed is returned for lines that are not a JSON object.
	ErrMalformed = errors.New("malformed line")
	// ErrUnsupported is returned for envelopes with an unknown type.
	ErrUnsupported = errors.New("unsupported line type")
)

type envelope struct {
	Type string `json:"type"`
}

type fileDiffPayload struct {
	ItemID      string `json:"item_id"`
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	UnifiedDiff string `json:"unified_diff"`
	OldText     string `json:"old_text"`
	NewText     string `json:"new_text"`
}

// Normalize turns one raw log line into zero or more canonical events. It
// never fails: anything it cannot interpret yields no events.
func Normalize(line string) []model.Event {
	events, _ := NormalizeLine(line)
	return events
}

// NormalizeLine is Normalize with a diagnostic error explaining why a line
// produced nothing. Events and error are never both non-empty.
func NormalizeLine(line string) ([]model.Event, error) {
	raw := []byte(strings.TrimSpace(line))
	if len(raw) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		events []model.Event
		err    error
	)
	switch {
	case env.Type == FileDiffType:
		events, err = decodeFileDiff(raw)
	case codex.IsEventType(env.Type):
		events, err = codex.Decode(raw)
	case env.Type == string(claude.EntryTypeAssistant) || env.Type == string(claude.EntryTypeUser):
		events, err = claude.Decode(raw)
	case claude.IsEntryType(env.Type):
		// system/result lines carry run metadata only.
		return nil, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupported, env.Type)
	}
	if errors.Is(err, codex.ErrUnsupportedItem) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return events, nil
}

// ScanMeta folds run-level information from line into meta. Lines without
// such information are ignored.
func ScanMeta(line string, meta *model.RunMeta) {
	raw := []byte(strings.TrimSpace(line))
	if len(raw) == 0 {
		return
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	if codex.ScanMeta(raw, env.Type, meta) {
		return
	}
	claude.ScanMeta(raw, env.Type, meta)
}

func decodeFileDiff(raw []byte) ([]model.Event, error) {
	var payload fileDiffPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal file diff: %w", err)
	}
	if payload.ItemID == "" {
		return nil, errors.New("file diff has no item_id")
	}
	return []model.Event{model.FileDiffEvent{
		ItemID:      payload.ItemID,
		Path:        payload.Path,
		Kind:        model.ParseChangeKind(payload.Kind),
		UnifiedDiff: payload.UnifiedDiff,
		OldText:     payload.OldText,
		NewText:     payload.NewText,
	}}, nil
}

// MaxLineSize bounds a single log line. Tool outputs and full file texts can
// be large.
const MaxLineSize = 8 * 1024 * 1024

// NewScanner returns a line scanner sized for agent logs.
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024)
	scanner.Buffer(buf, MaxLineSize)
	return scanner
}
