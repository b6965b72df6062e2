// Package claude decodes the message stream emitted by Claude Code-style
// agents (`--output-format stream-json`).
package claude

import "encoding/json"

// EntryType represents the top-level "type" field values in the message stream.
type EntryType string

const (
	EntryTypeUser      EntryType = "user"
	EntryTypeAssistant EntryType = "assistant"
	EntryTypeSystem    EntryType = "system"
	EntryTypeResult    EntryType = "result"
)

// ContentBlockType represents the "type" field in content blocks.
type ContentBlockType string

const (
	ContentBlockTypeText       ContentBlockType = "text"
	ContentBlockTypeToolUse    ContentBlockType = "tool_use"
	ContentBlockTypeToolResult ContentBlockType = "tool_result"
)

// IsEntryType reports whether value is one of the stream's envelope types.
func IsEntryType(value string) bool {
	switch EntryType(value) {
	case EntryTypeUser, EntryTypeAssistant, EntryTypeSystem, EntryTypeResult:
		return true
	default:
		return false
	}
}

// ContentBlock is one element of a message's content array. Only the fields
// of the block's own type are populated.
type ContentBlock struct {
	Type      ContentBlockType
	Text      string
	ID        string
	Name      string
	Input     json.RawMessage
	ToolUseID string
	Content   string
	IsError   bool
}

// Message is an assistant or user turn with its decoded content blocks.
type Message struct {
	Kind    EntryType
	ID      string
	Role    string
	Model   string
	Content []ContentBlock

	// LineID identifies the line the message came from: the entry uuid, or
	// a hash of the raw line. Stream output splits one API message across
	// lines sharing ID, so block-derived ids key on LineID instead.
	LineID string
}

type rawEntry struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype"`
	UUID      string          `json:"uuid"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`

	// system/init
	Model string `json:"model"`
	CWD   string `json:"cwd"`

	// result
	IsError bool        `json:"is_error"`
	Result  string      `json:"result"`
	Usage   *tokenUsage `json:"usage"`
}

type messagePayload struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

type tokenUsage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}
