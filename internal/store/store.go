// Package store enumerates and loads recorded runs.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hookcode/internal/model"
	"hookcode/internal/parser"
	"hookcode/internal/timeline"
)

// ErrRunNotFound is returned when no run matches an identifier.
var ErrRunNotFound = errors.New("run not found")

var errStop = errors.New("stop iteration")

// RunSummary describes one run for listings.
type RunSummary struct {
	ID          string         `json:"id"`
	Path        string         `json:"path"`
	Provider    model.Provider `json:"provider,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	Model       string         `json:"model,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Summary     string         `json:"summary"`
	Items       int            `json:"items"`
	Commands    int            `json:"commands"`
	FileChanges int            `json:"fileChanges"`
	Messages    int            `json:"messages"`
	Additions   int            `json:"additions"`
	Deletions   int            `json:"deletions"`
	Failed      bool           `json:"failed"`
}

// ListOptions controls how runs are enumerated.
type ListOptions struct {
	Root       string
	Provider   model.Provider
	After      *time.Time
	Before     *time.Time
	Limit      int
	MaxSummary int
}

// ListResult contains run summaries and non-fatal warnings.
type ListResult struct {
	Summaries []RunSummary
	Warnings  []error
}

// Run is one fully reduced log file.
type Run struct {
	ID        string
	Path      string
	UpdatedAt time.Time
	Meta      model.RunMeta
	Timeline  timeline.Timeline
	Report    timeline.Report
}

// ListRuns enumerates runs under Root, newest first.
func ListRuns(opts ListOptions) (ListResult, error) {
	root := opts.Root
	if root == "" {
		return ListResult{}, errors.New("root directory is required")
	}

	var result ListResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}
		if d.IsDir() || !isRunFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}
		if opts.After != nil && info.ModTime().Before(*opts.After) {
			return nil
		}
		if opts.Before != nil && info.ModTime().After(*opts.Before) {
			return nil
		}

		run, err := LoadRun(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("load run %s: %w", path, err))
			return nil
		}
		if opts.Provider != model.ProviderUnknown && run.Meta.Provider != opts.Provider {
			return nil
		}

		result.Summaries = append(result.Summaries, Summarize(run, opts.MaxSummary))
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.SliceStable(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].UpdatedAt.After(result.Summaries[j].UpdatedAt)
	})

	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}

	return result, nil
}

// LoadRun reads and reduces one run file.
func LoadRun(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Run{}, fmt.Errorf("stat %s: %w", path, err)
	}

	tl, report, err := timeline.ReduceReader(f)
	if err != nil {
		return Run{}, fmt.Errorf("read %s: %w", path, err)
	}

	return Run{
		ID:        RunID(path),
		Path:      path,
		UpdatedAt: info.ModTime(),
		Meta:      report.Meta,
		Timeline:  tl,
		Report:    report,
	}, nil
}

// Summarize builds the listing entry for a loaded run.
func Summarize(run Run, maxSummary int) RunSummary {
	stats := run.Timeline.Stats()
	summaryText := summarize(run.Timeline)
	if maxSummary > 0 {
		summaryText = truncate(summaryText, maxSummary)
	}

	return RunSummary{
		ID:          run.ID,
		Path:        run.Path,
		Provider:    run.Meta.Provider,
		SessionID:   run.Meta.SessionID,
		Model:       run.Meta.Model,
		UpdatedAt:   run.UpdatedAt,
		Summary:     summaryText,
		Items:       stats.Items,
		Commands:    stats.Commands,
		FileChanges: stats.FileChanges,
		Messages:    stats.Messages,
		Additions:   stats.Additions,
		Deletions:   stats.Deletions,
		Failed:      run.Meta.Failed || stats.CommandsFailed > 0,
	}
}

// RunID derives a run id from its file name.
func RunID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// FindRunPath resolves id to a run file under root. The id may be a file
// stem or a provider session id.
func FindRunPath(root, id string) (string, error) {
	if root == "" {
		return "", errors.New("root directory is required")
	}
	if id == "" {
		return "", errors.New("run id is required")
	}

	var matched string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !isRunFile(d.Name()) {
			return nil
		}
		if RunID(path) == id {
			matched = path
			return errStop
		}
		if meta, err := readMeta(path); err == nil && meta.SessionID == id {
			matched = path
			return errStop
		}
		return nil
	})

	if matched != "" {
		return matched, nil
	}
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}
	return "", fmt.Errorf("%w: %s under %s", ErrRunNotFound, id, root)
}

// readMeta scans a run until its session id is known.
func readMeta(path string) (model.RunMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RunMeta{}, err
	}
	defer f.Close()

	var meta model.RunMeta
	scanner := parser.NewScanner(f)
	for scanner.Scan() {
		parser.ScanMeta(scanner.Text(), &meta)
		if meta.SessionID != "" {
			break
		}
	}
	return meta, scanner.Err()
}

// summarize picks the first agent message, falling back to the first
// command, as the run's one-line description.
func summarize(tl timeline.Timeline) string {
	var firstCommand string
	for _, item := range tl.Items() {
		switch it := item.(type) {
		case model.AgentMessage:
			if text := collapseWhitespace(it.Text); text != "" {
				return text
			}
		case model.CommandExecution:
			if firstCommand == "" {
				firstCommand = "$ " + collapseWhitespace(it.Command)
			}
		}
	}
	return firstCommand
}

func isRunFile(name string) bool {
	return strings.HasSuffix(name, ".jsonl")
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

// RunDocument is the JSON shape of one run served to UIs.
type RunDocument struct {
	ID        string            `json:"id"`
	Path      string            `json:"path"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Meta      model.RunMeta     `json:"meta"`
	Timeline  timeline.Timeline `json:"timeline"`
	Stats     timeline.Stats    `json:"stats"`
	Skipped   int               `json:"skipped"`
}

// Document converts a loaded run into its JSON document.
func (r Run) Document() RunDocument {
	return RunDocument{
		ID:        r.ID,
		Path:      r.Path,
		UpdatedAt: r.UpdatedAt,
		Meta:      r.Meta,
		Timeline:  r.Timeline,
		Stats:     r.Timeline.Stats(),
		Skipped:   len(r.Report.Skipped),
	}
}
