package claude

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"hookcode/internal/model"
)

// ErrNoMessage is returned when an assistant/user entry has no message payload.
var ErrNoMessage = errors.New("entry has no message")

// ParseMessage decodes an assistant or user entry into its content blocks.
// Blocks of an unrecognized type are dropped.
func ParseMessage(raw []byte) (Message, error) {
	var entry rawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Message{}, fmt.Errorf("unmarshal entry: %w", err)
	}

	kind := EntryType(entry.Type)
	if kind != EntryTypeAssistant && kind != EntryTypeUser {
		return Message{}, fmt.Errorf("entry type %q is not a message", entry.Type)
	}
	if len(entry.Message) == 0 {
		return Message{}, ErrNoMessage
	}

	var msg messagePayload
	if err := json.Unmarshal(entry.Message, &msg); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}

	lineID := entry.UUID
	if lineID == "" {
		lineID = lineHash(raw)
	}
	id := msg.ID
	if id == "" {
		id = lineID
	}

	return Message{
		Kind:    kind,
		ID:      id,
		Role:    msg.Role,
		Model:   msg.Model,
		Content: decodeContent(msg.Content),
		LineID:  lineID,
	}, nil
}

// Decode converts one assistant/user line into canonical events, one per
// recognized content block. tool_use and tool_result share the call id, so
// the reducer pairs them without special handling.
func Decode(raw []byte) ([]model.Event, error) {
	msg, err := ParseMessage(raw)
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(msg.Content))
	for idx, block := range msg.Content {
		switch block.Type {
		case ContentBlockTypeText:
			events = append(events, model.ItemEvent{
				Phase: model.ItemPhaseCompleted,
				Item: model.AgentMessage{
					ID:   fmt.Sprintf("%s:text:%d", msg.LineID, idx),
					Type: model.ItemKindAgentMessage,
					Text: block.Text,
				},
			})
		case ContentBlockTypeToolUse:
			if block.ID == "" {
				continue
			}
			events = append(events, model.ItemEvent{
				Phase: model.ItemPhaseStarted,
				Item: model.CommandExecution{
					ID:      block.ID,
					Type:    model.ItemKindCommandExecution,
					Command: commandFromToolUse(block.Name, block.Input),
					Status:  model.ItemStatusInProgress,
				},
			})
		case ContentBlockTypeToolResult:
			if block.ToolUseID == "" {
				continue
			}
			item := model.CommandExecution{
				ID:     block.ToolUseID,
				Type:   model.ItemKindCommandExecution,
				Output: block.Content,
				Status: model.ItemStatusCompleted,
			}
			if block.IsError {
				code := 1
				item.ExitCode = &code
			}
			events = append(events, model.ItemEvent{Phase: model.ItemPhaseCompleted, Item: item})
		}
	}
	return events, nil
}

// ScanMeta folds system/init and result lines into meta. It reports
// whether the line carried run-level information.
func ScanMeta(raw []byte, entryType string, meta *model.RunMeta) bool {
	switch EntryType(entryType) {
	case EntryTypeSystem, EntryTypeResult:
	case EntryTypeAssistant, EntryTypeUser:
		meta.SetProvider(model.ProviderClaude)
		return true
	default:
		return false
	}

	var entry rawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false
	}
	meta.SetProvider(model.ProviderClaude)
	if meta.SessionID == "" {
		meta.SessionID = entry.SessionID
	}

	switch EntryType(entry.Type) {
	case EntryTypeSystem:
		if entry.Model != "" {
			meta.Model = entry.Model
		}
		if entry.CWD != "" {
			meta.CWD = entry.CWD
		}
	case EntryTypeResult:
		if entry.Usage != nil {
			meta.InputTokens += entry.Usage.InputTokens + entry.Usage.CacheCreationInputTokens + entry.Usage.CacheReadInputTokens
			meta.OutputTokens += entry.Usage.OutputTokens
		}
		if entry.IsError {
			meta.Failed = true
			meta.Error = entry.Result
		}
	}
	return true
}

func decodeContent(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}

	// Plain string content is a single text block.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []ContentBlock{{Type: ContentBlockTypeText, Text: asString}}
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}

	result := make([]ContentBlock, 0, len(blocks))
	for _, block := range blocks {
		switch ContentBlockType(block.Type) {
		case ContentBlockTypeText:
			result = append(result, ContentBlock{Type: ContentBlockTypeText, Text: block.Text})
		case ContentBlockTypeToolUse:
			result = append(result, ContentBlock{
				Type:  ContentBlockTypeToolUse,
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		case ContentBlockTypeToolResult:
			result = append(result, ContentBlock{
				Type:      ContentBlockTypeToolResult,
				ToolUseID: block.ToolUseID,
				Content:   stringifyResult(block.Content),
				IsError:   block.IsError,
			})
		default:
			// Keep the slot so text block indexes stay stable across versions.
			result = append(result, ContentBlock{Type: ContentBlockType(block.Type)})
		}
	}
	return result
}

// stringifyResult flattens tool_result content: strings pass through,
// arrays of blocks contribute their text fields, anything else stays JSON.
func stringifyResult(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var nested []contentBlock
	if err := json.Unmarshal(raw, &nested); err == nil {
		parts := make([]string, 0, len(nested))
		for _, nb := range nested {
			if nb.Text != "" {
				parts = append(parts, nb.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	return string(raw)
}

// commandFromToolUse derives a display command. Shell-like tools carry the
// command verbatim; everything else renders as name plus compact input.
func commandFromToolUse(name string, input json.RawMessage) string {
	if len(input) == 0 || string(input) == "null" {
		return name
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err == nil {
		if rawCmd, ok := fields["command"]; ok {
			var cmd string
			if err := json.Unmarshal(rawCmd, &cmd); err == nil && cmd != "" {
				return cmd
			}
		}
		if len(fields) == 0 {
			return name
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, input); err != nil {
		return name + " " + string(input)
	}
	return name + " " + compact.String()
}

func lineHash(raw []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return fmt.Sprintf("line-%016x", h.Sum64())
}
