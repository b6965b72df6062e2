// Package main provides the hookcode CLI for browsing agent run timelines.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"hookcode/internal/config"
	"hookcode/internal/diff"
	"hookcode/internal/format"
	"hookcode/internal/model"
	"hookcode/internal/schema"
	"hookcode/internal/server"
	"hookcode/internal/store"
	"hookcode/internal/view"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "hookcode",
	Short:   "Browse agent runs as unified execution timelines",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (env: HOOKCODE_CONFIG, default: ~/.hookcode/config.toml)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newServeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hookcode: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given, otherwise the default location.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newListCmd() *cobra.Command {
	var (
		providerFlag string
		afterStr     string
		beforeStr    string
		limit        int
		formatFlag   string
		noHeader     bool
		summaryWidth int
		runsDir      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs in reverse chronological order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if runsDir == "" {
				runsDir = cfg.RunsDir
			}

			provider, err := model.ParseProvider(strings.ToLower(providerFlag))
			if err != nil {
				return err
			}

			var after, before *time.Time
			if afterStr != "" {
				t, err := time.Parse(time.RFC3339, afterStr)
				if err != nil {
					return fmt.Errorf("invalid --after value: %w", err)
				}
				after = &t
			}
			if beforeStr != "" {
				t, err := time.Parse(time.RFC3339, beforeStr)
				if err != nil {
					return fmt.Errorf("invalid --before value: %w", err)
				}
				before = &t
			}

			result, err := store.ListRuns(store.ListOptions{
				Root:       runsDir,
				Provider:   provider,
				After:      after,
				Before:     before,
				Limit:      limit,
				MaxSummary: summaryWidth,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&providerFlag, "provider", "", "only include runs from this provider: codex or claude")
	flags.StringVar(&afterStr, "after", "", "include runs modified on/after the given RFC3339 timestamp")
	flags.StringVar(&beforeStr, "before", "", "include runs modified on/before the given RFC3339 timestamp")
	flags.IntVar(&limit, "limit", 0, "limit number of runs returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for plain output")
	flags.IntVar(&summaryWidth, "summary-width", 160, "maximum characters included in the summary column")
	flags.StringVar(&runsDir, "runs-dir", "", "override the runs directory (env: HOOKCODE_RUNS_DIR)")

	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		kindArg      string
		wrap         int
		maxItems     int
		showDiffs    bool
		contextLines int
		runsDir      string
		formatFlag   string
		forceColor   bool
		forceNoColor bool
		followFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "view <run-id-or-path>",
		Short: "Render a run timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if runsDir == "" {
				runsDir = cfg.RunsDir
			}
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			forceColor, forceNoColor = applyColorConfig(cfg, forceColor, forceNoColor)
			if !cmd.Flags().Changed("wrap") {
				wrap = cfg.Wrap
			}
			if !cmd.Flags().Changed("context") {
				contextLines = cfg.ContextLines
			}

			path, err := resolveRunPath(args[0], runsDir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if followFlag {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				Path:         path,
				Format:       formatFlag,
				Wrap:         wrap,
				MaxItems:     maxItems,
				KindArg:      kindArg,
				ShowDiffs:    showDiffs,
				ContextLines: contextLines,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Follow:       followFlag,
				Context:      ctx,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&kindArg, "kind", "k", "", "comma-separated item kinds to include: command, file, message (default: all)")
	flags.IntVar(&wrap, "wrap", 0, "wrap item bodies at the given column width")
	flags.IntVar(&maxItems, "max", 0, "show only the most recent N items (0 means no limit)")
	flags.BoolVar(&showDiffs, "diffs", false, "expand file diffs under file_change items")
	flags.IntVar(&contextLines, "context", diff.DefaultContextLines, "unchanged lines shown around each diff change")
	flags.StringVar(&runsDir, "runs-dir", "", "override the runs directory (env: HOOKCODE_RUNS_DIR)")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, chat, json, table, patch, or raw")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	flags.BoolVarP(&followFlag, "follow", "f", false, "keep reading the run as it grows (text and raw formats)")

	return cmd
}

type infoPayload struct {
	RunID          string         `json:"run_id"`
	JSONLPath      string         `json:"jsonl_path"`
	Provider       model.Provider `json:"provider"`
	SessionID      string         `json:"session_id"`
	Model          string         `json:"model"`
	CWD            string         `json:"cwd"`
	UpdatedAt      string         `json:"updated_at"`
	InputTokens    int            `json:"input_tokens"`
	OutputTokens   int            `json:"output_tokens"`
	Items          int            `json:"items"`
	Commands       int            `json:"commands"`
	CommandsFailed int            `json:"commands_failed"`
	FileChanges    int            `json:"file_changes"`
	Messages       int            `json:"messages"`
	Additions      int            `json:"additions"`
	Deletions      int            `json:"deletions"`
	Lines          int            `json:"lines"`
	SkippedLines   int            `json:"skipped_lines"`
	MalformedLines int            `json:"malformed_lines"`
	Failed         bool           `json:"failed"`
	Error          string         `json:"error,omitempty"`
	Summary        string         `json:"summary"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag  string
		summaryMode string
		runsDir     string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "info <run-id-or-path>",
		Short: "Show run metadata and timeline statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if runsDir == "" {
				runsDir = cfg.RunsDir
			}

			summaryMode = strings.ToLower(summaryMode)
			switch summaryMode {
			case "", "clip":
			case "full":
			default:
				return fmt.Errorf("invalid --summary value: %s", summaryMode)
			}

			path, err := resolveRunPath(args[0], runsDir)
			if err != nil {
				return err
			}

			run, err := store.LoadRun(path)
			if err != nil {
				return err
			}

			if verbose {
				errs := cmd.ErrOrStderr()
				for _, s := range run.Report.Skipped {
					fmt.Fprintf(errs, "skipped line %d: %v\n", s.Line, s.Err) //nolint:errcheck
				}
			}

			stats := run.Timeline.Stats()
			summary := store.Summarize(run, 0)
			payload := infoPayload{
				RunID:          run.ID,
				JSONLPath:      path,
				Provider:       run.Meta.Provider,
				SessionID:      run.Meta.SessionID,
				Model:          run.Meta.Model,
				CWD:            run.Meta.CWD,
				UpdatedAt:      run.UpdatedAt.Format(time.RFC3339),
				InputTokens:    run.Meta.InputTokens,
				OutputTokens:   run.Meta.OutputTokens,
				Items:          stats.Items,
				Commands:       stats.Commands,
				CommandsFailed: stats.CommandsFailed,
				FileChanges:    stats.FileChanges,
				Messages:       stats.Messages,
				Additions:      stats.Additions,
				Deletions:      stats.Deletions,
				Lines:          run.Report.Lines,
				SkippedLines:   len(run.Report.Skipped),
				MalformedLines: run.Report.Malformed(),
				Failed:         summary.Failed,
				Error:          run.Meta.Error,
				Summary:        summary.Summary,
			}

			summarySnippet := collapseWhitespace(payload.Summary)
			if summaryMode != "full" {
				summarySnippet = clipSummary(summarySnippet, 160)
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				renderInfoText(cmd.OutOrStdout(), payload, summarySnippet)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.StringVar(&summaryMode, "summary", "clip", "summary display: clip or full")
	flags.StringVar(&runsDir, "runs-dir", "", "override the runs directory (env: HOOKCODE_RUNS_DIR)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print the reason each skipped line produced no events")

	return cmd
}

type diffPayload struct {
	Path   string           `json:"path"`
	Kind   model.ChangeKind `json:"kind"`
	Result diff.Result      `json:"result"`
}

func newDiffCmd() *cobra.Command {
	var (
		contextLines  int
		formatFlag    string
		runsDir       string
		forceColor    bool
		forceNoColor  bool
		noLineNumbers bool
	)

	cmd := &cobra.Command{
		Use:   "diff <run-id-or-path> <item-id> [index]",
		Short: "Show the file diffs recorded for a file_change item",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if runsDir == "" {
				runsDir = cfg.RunsDir
			}
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			forceColor, forceNoColor = applyColorConfig(cfg, forceColor, forceNoColor)
			if !cmd.Flags().Changed("context") {
				contextLines = cfg.ContextLines
			}

			path, err := resolveRunPath(args[0], runsDir)
			if err != nil {
				return err
			}
			run, err := store.LoadRun(path)
			if err != nil {
				return err
			}

			item, ok := run.Timeline.Item(args[1])
			if !ok {
				return fmt.Errorf("item %s not found in %s", args[1], run.ID)
			}
			fc, ok := item.(model.FileChange)
			if !ok {
				return fmt.Errorf("item %s is a %s, not a file_change", args[1], item.Kind())
			}

			diffs := fc.Diffs
			if len(args) == 3 {
				index, err := strconv.Atoi(args[2])
				if err != nil || index < 0 || index >= len(fc.Diffs) {
					return fmt.Errorf("invalid diff index %q: item has %d diffs", args[2], len(fc.Diffs))
				}
				diffs = fc.Diffs[index : index+1]
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(formatFlag) {
			case "unified":
				for _, d := range diffs {
					fmt.Fprint(out, d.UnifiedDiff) //nolint:errcheck
				}
				return nil

			case "json":
				payloads := make([]diffPayload, 0, len(diffs))
				for _, d := range diffs {
					result, err := diff.ForFile(d, contextLines)
					if err != nil {
						return fmt.Errorf("diff %s: %w", d.Path, err)
					}
					payloads = append(payloads, diffPayload{Path: d.Path, Kind: d.Kind, Result: result})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(payloads)

			case "text":
				opts := format.DiffOptions{
					Color:       useColor(out, forceColor, forceNoColor),
					LineNumbers: !noLineNumbers,
				}
				for idx, d := range diffs {
					result, err := diff.ForFile(d, contextLines)
					if err != nil {
						return fmt.Errorf("diff %s: %w", d.Path, err)
					}
					if idx > 0 {
						fmt.Fprintln(out) //nolint:errcheck
					}
					fmt.Fprintf(out, "%s (%s)\n", d.Path, format.DiffStatLine(result)) //nolint:errcheck
					for _, line := range format.RenderDiff(result, opts) {
						fmt.Fprintln(out, line) //nolint:errcheck
					}
				}
				return nil

			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&contextLines, "context", diff.DefaultContextLines, "unchanged lines shown around each change")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, json, or unified")
	flags.StringVar(&runsDir, "runs-dir", "", "override the runs directory (env: HOOKCODE_RUNS_DIR)")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	flags.BoolVar(&noLineNumbers, "no-line-numbers", false, "omit the old/new line number gutter")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of run documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema.Generate())
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		runsDir string
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve runs and live timelines over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			srvCfg := serverConfig(cfg)
			if host != "" {
				srvCfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				srvCfg.Port = port
			}
			if runsDir != "" {
				srvCfg.RunsDir = runsDir
			}
			if quiet {
				srvCfg.Quiet = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(srvCfg).ListenAndServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "", "listen host (default from config: 127.0.0.1)")
	flags.IntVarP(&port, "port", "p", 0, "listen port (default from config: 7878; 0 picks a free port)")
	flags.StringVar(&runsDir, "runs-dir", "", "override the runs directory (env: HOOKCODE_RUNS_DIR)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "disable request logging")

	return cmd
}

func serverConfig(cfg config.Config) server.Config {
	return server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		RunsDir:      cfg.RunsDir,
		ContextLines: cfg.ContextLines,
		Quiet:        cfg.Server.Quiet,
	}
}

// applyColorConfig falls back to the configured color mode when neither
// --color nor --no-color was given.
func applyColorConfig(cfg config.Config, forceColor, forceNoColor bool) (bool, bool) {
	if forceColor || forceNoColor {
		return forceColor, forceNoColor
	}
	switch cfg.Color {
	case config.ColorAlways:
		return true, false
	case config.ColorNever:
		return false, true
	default:
		return false, false
	}
}

func useColor(out io.Writer, forceColor, forceNoColor bool) bool {
	if forceColor {
		return true
	}
	if forceNoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func resolveRunPath(arg, root string) (string, error) {
	if arg == "" {
		return "", errors.New("run identifier is empty")
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}

	candidate := filepath.Join(root, arg)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, nil
	}

	return store.FindRunPath(root, arg)
}

func renderInfoText(out io.Writer, payload infoPayload, summarySnippet string) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Run ID", payload.RunID)
	writeKV(out, labelWidth, "Provider", string(payload.Provider))
	writeKV(out, labelWidth, "Session ID", payload.SessionID)
	writeKV(out, labelWidth, "Model", payload.Model)
	writeKV(out, labelWidth, "CWD", payload.CWD)
	writeKV(out, labelWidth, "Updated At", payload.UpdatedAt)
	writeKV(out, labelWidth, "Tokens", fmt.Sprintf("%d in / %d out", payload.InputTokens, payload.OutputTokens))
	writeKV(out, labelWidth, "Items", fmt.Sprintf("%d (%d commands, %d file changes, %d messages)",
		payload.Items, payload.Commands, payload.FileChanges, payload.Messages))
	writeKV(out, labelWidth, "Failed Cmds", strconv.Itoa(payload.CommandsFailed))
	writeKV(out, labelWidth, "Changes", fmt.Sprintf("+%d -%d", payload.Additions, payload.Deletions))
	writeKV(out, labelWidth, "Lines", fmt.Sprintf("%d (%d skipped, %d malformed)",
		payload.Lines, payload.SkippedLines, payload.MalformedLines))
	if payload.Error != "" {
		writeKV(out, labelWidth, "Error", payload.Error)
	}
	writeKV(out, labelWidth, "JSONL Path", payload.JSONLPath)
	writeKV(out, labelWidth, "Summary", summarySnippet)
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
}

func clipSummary(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
