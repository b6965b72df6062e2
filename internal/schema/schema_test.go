package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateIncludesVariants(t *testing.T) {
	s := Generate()

	for _, name := range []string{
		"RunDocument",
		"CommandExecution",
		"FileChange",
		"AgentMessage",
		"FileDiff",
		"DiffResult",
		"DiffHunk",
		"DiffStats",
		"TimelineStats",
		"RunMeta",
	} {
		if _, ok := s.Definitions[name]; !ok {
			t.Fatalf("missing definition %s; have %v", name, keys(s.Definitions))
		}
	}

	cmd := s.Definitions["CommandExecution"]
	typ, ok := cmd.Properties.Get("type")
	if !ok || typ.Const != "command_execution" {
		t.Fatalf("command type should be pinned, got %+v", typ)
	}
}

func TestGenerateTimelineUnion(t *testing.T) {
	data, err := json.Marshal(Generate())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"oneOf":[{"$ref":"#/$defs/CommandExecution"},{"$ref":"#/$defs/FileChange"},{"$ref":"#/$defs/AgentMessage"}]`,
		`"$schema":"https://json-schema.org/draft/2020-12/schema"`,
		`"exitCode"`,
		`"oldLineNumber"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("schema missing %s", want)
		}
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
