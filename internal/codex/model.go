// Package codex decodes the structured item stream emitted by Codex-style
// agents (`codex exec --json`).
package codex

// EventType represents the top-level "type" field values in the item stream.
type EventType string

const (
	EventTypeThreadStarted EventType = "thread.started"
	EventTypeTurnStarted   EventType = "turn.started"
	EventTypeTurnCompleted EventType = "turn.completed"
	EventTypeTurnFailed    EventType = "turn.failed"
	EventTypeItemStarted   EventType = "item.started"
	EventTypeItemUpdated   EventType = "item.updated"
	EventTypeItemCompleted EventType = "item.completed"
	EventTypeError         EventType = "error"
)

// ItemType captures the "item.type" values.
type ItemType string

const (
	ItemTypeAgentMessage     ItemType = "agent_message"
	ItemTypeReasoning        ItemType = "reasoning"
	ItemTypeCommandExecution ItemType = "command_execution"
	ItemTypeFileChange       ItemType = "file_change"
	ItemTypeMcpToolCall      ItemType = "mcp_tool_call"
	ItemTypeWebSearch        ItemType = "web_search"
	ItemTypeTodoList         ItemType = "todo_list"
	ItemTypeError            ItemType = "error"
)

// IsEventType reports whether value is one of the stream's envelope types.
func IsEventType(value string) bool {
	switch EventType(value) {
	case EventTypeThreadStarted, EventTypeTurnStarted, EventTypeTurnCompleted, EventTypeTurnFailed,
		EventTypeItemStarted, EventTypeItemUpdated, EventTypeItemCompleted, EventTypeError:
		return true
	default:
		return false
	}
}

type itemEnvelope struct {
	Type EventType `json:"type"`
	Item rawItem   `json:"item"`
}

// rawItem is the union of every item payload field this package reads.
type rawItem struct {
	ID               string       `json:"id"`
	Type             ItemType     `json:"type"`
	Command          string       `json:"command"`
	AggregatedOutput string       `json:"aggregated_output"`
	ExitCode         *int         `json:"exit_code"`
	Status           string       `json:"status"`
	Changes          []fileChange `json:"changes"`
	Text             string       `json:"text"`
}

type fileChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

type threadStarted struct {
	ThreadID string `json:"thread_id"`
}

type usage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

type turnCompleted struct {
	Usage usage `json:"usage"`
}

type turnFailed struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type streamError struct {
	Message string `json:"message"`
}
