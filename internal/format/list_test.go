package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"hookcode/internal/model"
	"hookcode/internal/store"
)

func sampleSummaries() []store.RunSummary {
	return []store.RunSummary{
		{
			ID:        "run-a",
			Provider:  model.ProviderCodex,
			UpdatedAt: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
			Summary:   "Alpha",
			Items:     10,
			Additions: 4,
			Deletions: 2,
		},
		{
			ID:        "run-b",
			Provider:  model.ProviderClaude,
			UpdatedAt: time.Date(2025, 10, 2, 9, 30, 0, 0, time.UTC),
			Summary:   "Beta\nsecond line",
			Items:     3,
			Failed:    true,
		},
	}
}

func TestWriteSummariesPlain(t *testing.T) {
	var buf bytes.Buffer
	items := sampleSummaries()

	if err := WriteSummaries(&buf, items, true, "plain"); err != nil {
		t.Fatalf("WriteSummaries plain returned error: %v", err)
	}

	expected := strings.Join([]string{
		"updated_at\trun_id\tprovider\titems\tchanges\tstatus\tsummary",
		"2025-10-01T12:00:00Z\trun-a\tcodex\t10\t+4 -2\tok\tAlpha",
		"2025-10-02T09:30:00Z\trun-b\tclaude\t3\t+0 -0\tfailed\tBeta\\nsecond line",
	}, "\n") + "\n"

	if got := buf.String(); got != expected {
		t.Fatalf("plain output mismatch:\nexpected: %q\nactual:   %q", expected, got)
	}
}

func TestWriteSummariesTable(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteSummaries(&buf, sampleSummaries(), true, "table"); err != nil {
		t.Fatalf("WriteSummaries table returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "RUN ID") || !strings.Contains(out, "CHANGES") {
		t.Fatalf("table header missing expected columns:\n%s", out)
	}
	if strings.Index(out, "run-a") > strings.Index(out, "run-b") {
		t.Fatalf("table row order unexpected: %s", out)
	}
}

func TestWriteSummariesEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaries(&buf, nil, true, "table"); err != nil {
		t.Fatalf("WriteSummaries returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "(no runs)") {
		t.Fatalf("expected placeholder row:\n%s", buf.String())
	}
}

func TestWriteSummariesInvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummaries(&buf, sampleSummaries(), true, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWriteSummariesJSONL(t *testing.T) {
	var buf bytes.Buffer
	items := sampleSummaries()

	if err := WriteSummaries(&buf, items, false, "jsonl"); err != nil {
		t.Fatalf("WriteSummaries jsonl returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(items) {
		t.Fatalf("expected %d lines, got %d", len(items), len(lines))
	}
	if !strings.Contains(lines[0], `"id":"run-a"`) || !strings.Contains(lines[0], `"additions":4`) {
		t.Fatalf("first jsonl line unexpected: %s", lines[0])
	}
}
