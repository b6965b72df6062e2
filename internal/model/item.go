// Package model provides the canonical, provider-agnostic types shared by the
// normalizer, the timeline reducer, and every renderer.
package model

// ItemKind enumerates the timeline item variants.
type ItemKind string

const (
	ItemKindCommandExecution ItemKind = "command_execution"
	ItemKindFileChange       ItemKind = "file_change"
	ItemKindAgentMessage     ItemKind = "agent_message"
)

// ItemStatus represents the lifecycle stage of an item.
type ItemStatus string

const (
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// ChangeKind indicates how a file changed.
type ChangeKind string

const (
	ChangeKindAdd    ChangeKind = "add"
	ChangeKindUpdate ChangeKind = "update"
	ChangeKindDelete ChangeKind = "delete"
)

// Item is the sealed union of everything that can appear on a timeline.
// Identity is ItemID; it is unique within one timeline.
type Item interface {
	timelineItem()
	ItemID() string
	Kind() ItemKind
}

// CommandExecution captures a command (or tool call) run by the agent.
type CommandExecution struct {
	ID       string     `json:"id"`
	Type     ItemKind   `json:"type"`
	Command  string     `json:"command"`
	Output   string     `json:"output"`
	ExitCode *int       `json:"exitCode,omitempty"`
	Status   ItemStatus `json:"status"`
}

// AgentMessage is natural-language output from the agent.
type AgentMessage struct {
	ID   string   `json:"id"`
	Type ItemKind `json:"type"`
	Text string   `json:"text"`
}

// FileUpdateChange represents a single file touched by a patch.
type FileUpdateChange struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
}

// FileDiff carries the full before/after texts of one file edit. Diffs
// accumulate in arrival order and are not deduplicated by path.
type FileDiff struct {
	Path        string     `json:"path"`
	Kind        ChangeKind `json:"kind"`
	OldText     string     `json:"oldText"`
	NewText     string     `json:"newText"`
	UnifiedDiff string     `json:"unifiedDiff,omitempty"`
}

// FileChange aggregates the files touched by one patch application.
type FileChange struct {
	ID      string             `json:"id"`
	Type    ItemKind           `json:"type"`
	Changes []FileUpdateChange `json:"changes"`
	Diffs   []FileDiff         `json:"diffs"`
	Status  ItemStatus         `json:"status,omitempty"`
}

func (CommandExecution) timelineItem() {}
func (AgentMessage) timelineItem()     {}
func (FileChange) timelineItem()       {}

func (c CommandExecution) ItemID() string { return c.ID }
func (m AgentMessage) ItemID() string     { return m.ID }
func (f FileChange) ItemID() string       { return f.ID }

func (CommandExecution) Kind() ItemKind { return ItemKindCommandExecution }
func (AgentMessage) Kind() ItemKind     { return ItemKindAgentMessage }
func (FileChange) Kind() ItemKind       { return ItemKindFileChange }

// ParseItemKind maps a wire string to an ItemKind.
func ParseItemKind(value string) (ItemKind, bool) {
	switch ItemKind(value) {
	case ItemKindCommandExecution, ItemKindFileChange, ItemKindAgentMessage:
		return ItemKind(value), true
	default:
		return "", false
	}
}

// ParseChangeKind maps a wire string to a ChangeKind. Unknown values fall
// back to update, which is what a renderer shows for an unlabeled edit.
func ParseChangeKind(value string) ChangeKind {
	switch ChangeKind(value) {
	case ChangeKindAdd, ChangeKindDelete:
		return ChangeKind(value)
	default:
		return ChangeKindUpdate
	}
}
