package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hookcode/internal/model"
)

func TestNormalizeRoutesEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []model.Event
	}{
		{
			name: "item stream",
			line: `{"type":"item.completed","item":{"id":"m1","type":"agent_message","text":"done"}}`,
			want: []model.Event{model.ItemEvent{Phase: model.ItemPhaseCompleted, Item: model.AgentMessage{
				ID: "m1", Type: model.ItemKindAgentMessage, Text: "done",
			}}},
		},
		{
			name: "message stream",
			line: `{"type":"assistant","uuid":"u1","message":{"id":"a1","content":[{"type":"text","text":"hi"}]}}`,
			want: []model.Event{model.ItemEvent{Phase: model.ItemPhaseCompleted, Item: model.AgentMessage{
				ID: "u1:text:0", Type: model.ItemKindAgentMessage, Text: "hi",
			}}},
		},
		{
			name: "file diff",
			line: `{"type":"hookcode.file.diff","item_id":"p1","path":"a.txt","kind":"delete","old_text":"x\n"}`,
			want: []model.Event{model.FileDiffEvent{ItemID: "p1", Path: "a.txt", Kind: model.ChangeKindDelete, OldText: "x\n"}},
		},
		{
			name: "metadata only",
			line: `{"type":"system","subtype":"init","session_id":"s1"}`,
		},
		{
			name: "blank",
			line: "   ",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Normalize(tc.line)); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeLineReasons(t *testing.T) {
	cases := []struct {
		line string
		want error
	}{
		{`not json`, ErrMalformed},
		{`[1,2]`, ErrMalformed},
		{`{"type":"telemetry"}`, ErrUnsupported},
		{`{"type":"item.completed","item":{"id":"r","type":"reasoning"}}`, ErrUnsupported},
		{`{"type":"item.completed","item":{"type":"agent_message"}}`, ErrMalformed},
		{`{"type":"hookcode.file.diff","path":"a.txt"}`, ErrMalformed},
	}
	for _, tc := range cases {
		events, err := NormalizeLine(tc.line)
		if !errors.Is(err, tc.want) {
			t.Fatalf("NormalizeLine(%s) error = %v, want %v", tc.line, err, tc.want)
		}
		if len(events) != 0 {
			t.Fatalf("NormalizeLine(%s) returned events with an error", tc.line)
		}
		if got := Normalize(tc.line); got != nil {
			t.Fatalf("Normalize(%s) = %v, want nil", tc.line, got)
		}
	}
}

func TestScanMetaAcrossProviders(t *testing.T) {
	var meta model.RunMeta
	ScanMeta(`{"type":"thread.started","thread_id":"th_9"}`, &meta)
	ScanMeta(`{"type":"system","subtype":"init","session_id":"other","model":"m"}`, &meta)
	ScanMeta(`garbage`, &meta)

	if meta.Provider != model.ProviderCodex {
		t.Fatalf("first provider should win, got %q", meta.Provider)
	}
	if meta.SessionID != "th_9" {
		t.Fatalf("first session id should win, got %q", meta.SessionID)
	}
	if meta.Model != "m" {
		t.Fatalf("model should still be recorded, got %q", meta.Model)
	}
}

func TestNewScannerHandlesLongLines(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	scanner := NewScanner(strings.NewReader(long + "\nshort\n"))

	var got []int
	for scanner.Scan() {
		got = append(got, len(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if diff := cmp.Diff([]int{200 * 1024, 5}, got); diff != "" {
		t.Fatalf("line lengths mismatch (-want +got):\n%s", diff)
	}
}
