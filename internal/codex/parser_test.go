package codex

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hookcode/internal/model"
)

func intPtr(v int) *int { return &v }

func TestDecodeItems(t *testing.T) {
	cases := []struct {
		name string
		line string
		want model.Event
	}{
		{
			name: "command completed",
			line: `{"type":"item.completed","item":{"id":"item_1","type":"command_execution","command":"ls","aggregated_output":"a\n","exit_code":2,"status":"failed"}}`,
			want: model.ItemEvent{Phase: model.ItemPhaseCompleted, Item: model.CommandExecution{
				ID: "item_1", Type: model.ItemKindCommandExecution, Command: "ls", Output: "a\n", ExitCode: intPtr(2), Status: model.ItemStatusFailed,
			}},
		},
		{
			name: "file change started",
			line: `{"type":"item.started","item":{"id":"item_2","type":"file_change","changes":[{"path":"a.go","kind":"add"},{"path":"b.go","kind":"rename"}]}}`,
			want: model.ItemEvent{Phase: model.ItemPhaseStarted, Item: model.FileChange{
				ID:   "item_2",
				Type: model.ItemKindFileChange,
				Changes: []model.FileUpdateChange{
					{Path: "a.go", Kind: model.ChangeKindAdd},
					{Path: "b.go", Kind: model.ChangeKindUpdate},
				},
			}},
		},
		{
			name: "updated counts as started",
			line: `{"type":"item.updated","item":{"id":"item_3","type":"agent_message","text":"partial"}}`,
			want: model.ItemEvent{Phase: model.ItemPhaseStarted, Item: model.AgentMessage{
				ID: "item_3", Type: model.ItemKindAgentMessage, Text: "partial",
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, err := Decode([]byte(tc.line))
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if diff := cmp.Diff([]model.Event{tc.want}, events); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeNonItemLines(t *testing.T) {
	events, err := Decode([]byte(`{"type":"turn.started"}`))
	if err != nil || events != nil {
		t.Fatalf("expected no events and no error, got %v, %v", events, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"type":"item.completed","item":{"id":"r1","type":"reasoning","text":"hmm"}}`))
	if !errors.Is(err, ErrUnsupportedItem) {
		t.Fatalf("expected ErrUnsupportedItem, got %v", err)
	}
	if _, err := Decode([]byte(`{"type":"item.completed","item":{"type":"agent_message"}}`)); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := Decode([]byte(`{"type":"item.completed","item":"oops"}`)); err == nil {
		t.Fatalf("expected error for malformed item")
	}
}

func TestScanMeta(t *testing.T) {
	var meta model.RunMeta
	lines := []struct {
		eventType string
		raw       string
	}{
		{"thread.started", `{"type":"thread.started","thread_id":"th_1"}`},
		{"turn.completed", `{"type":"turn.completed","usage":{"input_tokens":100,"cached_input_tokens":40,"output_tokens":7}}`},
		{"turn.completed", `{"type":"turn.completed","usage":{"input_tokens":10,"output_tokens":3}}`},
		{"turn.failed", `{"type":"turn.failed","error":{"message":"stream closed"}}`},
	}
	for _, line := range lines {
		if !ScanMeta([]byte(line.raw), line.eventType, &meta) {
			t.Fatalf("ScanMeta ignored %s", line.raw)
		}
	}

	want := model.RunMeta{
		Provider:     model.ProviderCodex,
		SessionID:    "th_1",
		InputTokens:  110,
		OutputTokens: 10,
		Failed:       true,
		Error:        "stream closed",
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}

	if ScanMeta([]byte(`{"type":"assistant"}`), "assistant", &meta) {
		t.Fatalf("foreign envelope types must be ignored")
	}
}

func TestIsEventType(t *testing.T) {
	for _, value := range []string{"thread.started", "item.updated", "error"} {
		if !IsEventType(value) {
			t.Fatalf("%s should be an event type", value)
		}
	}
	if IsEventType("assistant") {
		t.Fatalf("assistant is not an item stream event type")
	}
}
