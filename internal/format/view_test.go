package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"hookcode/internal/model"
	"hookcode/internal/timeline"
)

func TestRenderItemLines_Message(t *testing.T) {
	item := model.AgentMessage{ID: "m1", Type: model.ItemKindAgentMessage, Text: "one two three four five six"}

	lines := RenderItemLines(item, 10)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %v", lines)
	}
	if strings.TrimSpace(lines[0]) == "" {
		t.Fatalf("first line should contain text: %v", lines)
	}
}

func TestRenderItemLines_Command(t *testing.T) {
	code := 2
	item := model.CommandExecution{
		ID:       "c1",
		Command:  "jq .",
		Output:   `{"foo":1,"bar":{"baz":2}}`,
		ExitCode: &code,
	}

	lines := RenderItemLines(item, 80)
	if lines[0] != "$ jq ." {
		t.Fatalf("first line should be the command: %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "  ") {
		t.Fatalf("json output should be indented: %v", lines)
	}
	if lines[len(lines)-1] != "exit code: 2" {
		t.Fatalf("missing exit code: %v", lines)
	}
}

func TestRenderItemLines_FileChange(t *testing.T) {
	item := model.FileChange{
		ID: "p1",
		Changes: []model.FileUpdateChange{
			{Path: "a.go", Kind: model.ChangeKindAdd},
			{Path: "b.go", Kind: model.ChangeKindUpdate},
		},
	}

	got := RenderItemLines(item, 0)
	want := []string{"A a.go", "M b.go"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines %v", got)
	}
}

func TestWriteItemsJSON(t *testing.T) {
	tl := timeline.ReduceLines([]string{
		`{"type":"item.completed","item":{"id":"m1","type":"agent_message","text":"hi"}}`,
	})

	var buf bytes.Buffer
	if err := WriteTimeline(&buf, tl, "json"); err != nil {
		t.Fatalf("WriteTimeline returned error: %v", err)
	}

	var doc struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(doc.Items) != 1 || doc.Items[0]["type"] != "agent_message" || doc.Items[0]["text"] != "hi" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestWriteItemsTable(t *testing.T) {
	tl := timeline.ReduceLines([]string{
		`{"type":"item.started","item":{"id":"c1","type":"command_execution","command":"make"}}`,
	})

	var buf bytes.Buffer
	if err := WriteTimeline(&buf, tl, "table"); err != nil {
		t.Fatalf("WriteTimeline returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "$ make") || !strings.Contains(out, "in_progress") {
		t.Fatalf("table missing command row:\n%s", out)
	}
}
