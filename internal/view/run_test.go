package view

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hookcode/internal/model"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "runs", name)
}

func TestParseKindArg(t *testing.T) {
	kinds, err := parseKindArg("command, file")
	if err != nil {
		t.Fatalf("parseKindArg returned error: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %#v", kinds)
	}
	if _, ok := kinds[model.ItemKindFileChange]; !ok {
		t.Fatalf("file alias should map to file_change")
	}

	if kinds, err := parseKindArg("all"); err != nil || kinds != nil {
		t.Fatalf("all should disable filtering, got %#v, %v", kinds, err)
	}
	if _, err := parseKindArg("command,reasoning"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRingKeepsMostRecent(t *testing.T) {
	r := newRing[int](2)
	for i := 1; i <= 5; i++ {
		r.push(i)
	}
	got := r.slice()
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("unexpected ring contents %v", got)
	}
	if newRing[int](0).slice() != nil {
		t.Fatalf("zero-capacity ring should stay empty")
	}
}

func TestRunTextFiltersKinds(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{
		Path:         fixture("codex-fix-tests.jsonl"),
		Format:       "text",
		KindArg:      "command",
		ForceNoColor: true,
		Out:          &buf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[#001] command | item_1 | failed") {
		t.Fatalf("missing first command header:\n%s", out)
	}
	if !strings.Contains(out, "[#002] command | item_3 | completed") {
		t.Fatalf("missing second command header:\n%s", out)
	}
	if strings.Contains(out, "agent") {
		t.Fatalf("agent messages should be filtered out:\n%s", out)
	}
	if !strings.Contains(out, "| exit code: 1") {
		t.Fatalf("missing exit code line:\n%s", out)
	}
}

func TestRunTextMaxAndDiffs(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{
		Path:         fixture("codex-fix-tests.jsonl"),
		Format:       "text",
		KindArg:      "file",
		MaxItems:     1,
		ShowDiffs:    true,
		ContextLines: 1,
		ForceNoColor: true,
		Out:          &buf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[#001] file_change | item_2 | completed",
		"| M internal/calc/calc.go",
		"| internal/calc/calc.go (+1 -1)",
		"| @@ -3,3 +3,3 @@",
		"-\treturn a - b",
		"+\treturn a + b",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunPatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(Options{Path: fixture("codex-fix-tests.jsonl"), Format: "patch", Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "--- a/internal/calc/calc.go") || !strings.Contains(out, "+\treturn a + b") {
		t.Fatalf("unexpected patch:\n%s", out)
	}
}

func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(Options{Path: fixture("claude-add-readme.jsonl"), Format: "json", KindArg: "message", Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"id": "c0a8e1f2-0001:text:0"`) || !strings.Contains(out, `"text": "Added a README."`) {
		t.Fatalf("unexpected json:\n%s", out)
	}
	if strings.Contains(out, "toolu_01") {
		t.Fatalf("commands should be filtered out:\n%s", out)
	}
}

func TestRunRawKeepsOriginalLines(t *testing.T) {
	var buf bytes.Buffer
	path := fixture("codex-fix-tests.jsonl")
	if err := Run(Options{Path: path, Format: "raw", KindArg: "file", Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var want []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.Contains(line, `"item_2"`) {
			want = append(want, line)
		}
	}
	if got := buf.String(); got != strings.Join(want, "\n")+"\n" {
		t.Fatalf("raw output mismatch\nwant:\n%q\n\ngot:\n%q", strings.Join(want, "\n"), got)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	err := Run(Options{Path: fixture("codex-fix-tests.jsonl"), Format: "html", Out: &bytes.Buffer{}})
	if err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunFollowPrintsUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.jsonl")
	first := `{"type":"item.started","item":{"id":"c1","type":"command_execution","command":"sleep 1"}}` + "\n"
	if err := os.WriteFile(path, []byte(first), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- Run(Options{Path: path, Follow: true, ForceNoColor: true, Context: ctx, Out: out})
	}()

	waitForOutput(t, out, "[#001] command | c1 | in_progress")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(`{"type":"item.completed","item":{"id":"c1","type":"command_execution","exit_code":0}}` + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	waitForOutput(t, out, "[#001] command | c1 | completed")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow returned error: %v", err)
	}
}

func waitForOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, out.String())
}

func TestRenderChatLinesAlignment(t *testing.T) {
	code := 0
	items := []model.Item{
		model.AgentMessage{ID: "m1", Type: model.ItemKindAgentMessage, Text: "hi, let me check"},
		model.CommandExecution{ID: "c1", Type: model.ItemKindCommandExecution, Command: "ls", ExitCode: &code, Status: model.ItemStatusCompleted},
		model.FileChange{ID: "p1", Type: model.ItemKindFileChange, Changes: []model.FileUpdateChange{{Path: "a.go", Kind: model.ChangeKindUpdate}}},
	}

	lines := renderChatTranscript(items, 80, false)
	var tops []int
	for _, line := range lines {
		if idx := strings.Index(line, "╭"); idx >= 0 {
			tops = append(tops, idx)
		}
	}
	if len(tops) != 3 {
		t.Fatalf("expected 3 bubbles, got %d:\n%s", len(tops), strings.Join(lines, "\n"))
	}
	if tops[0] != 2 {
		t.Fatalf("agent bubble should be left aligned, got index %d", tops[0])
	}
	if tops[1] <= tops[0] || tops[2] <= tops[1] {
		t.Fatalf("expected left/center/right alignment, got %v", tops)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "Command · completed") {
		t.Fatalf("missing command header:\n%s", strings.Join(lines, "\n"))
	}
}

func TestRunTableFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(Options{Path: fixture("codex-fix-tests.jsonl"), Format: "table", KindArg: "file", Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "item_2") || strings.Contains(out, "item_1") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}
