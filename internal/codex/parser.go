package codex

import (
	"encoding/json"
	"errors"
	"fmt"

	"hookcode/internal/model"
)

// ErrUnsupportedItem is returned for item types that have no timeline shape.
var ErrUnsupportedItem = errors.New("unsupported item type")

// Decode converts one item.* line into canonical events. Lines of other
// envelope types decode to no events and no error.
func Decode(raw []byte) ([]model.Event, error) {
	var envelope itemEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal item envelope: %w", err)
	}

	var phase model.ItemPhase
	switch envelope.Type {
	case EventTypeItemStarted, EventTypeItemUpdated:
		phase = model.ItemPhaseStarted
	case EventTypeItemCompleted:
		phase = model.ItemPhaseCompleted
	default:
		return nil, nil
	}

	item, err := convertItem(envelope.Item)
	if err != nil {
		return nil, fmt.Errorf("decode %s item: %w", envelope.Type, err)
	}
	return []model.Event{model.ItemEvent{Phase: phase, Item: item}}, nil
}

func convertItem(raw rawItem) (model.Item, error) {
	if raw.ID == "" {
		return nil, errors.New("item id is empty")
	}

	switch raw.Type {
	case ItemTypeCommandExecution:
		return model.CommandExecution{
			ID:       raw.ID,
			Type:     model.ItemKindCommandExecution,
			Command:  raw.Command,
			Output:   raw.AggregatedOutput,
			ExitCode: raw.ExitCode,
			Status:   model.ItemStatus(raw.Status),
		}, nil
	case ItemTypeFileChange:
		changes := make([]model.FileUpdateChange, 0, len(raw.Changes))
		for _, change := range raw.Changes {
			changes = append(changes, model.FileUpdateChange{
				Path: change.Path,
				Kind: model.ParseChangeKind(change.Kind),
			})
		}
		return model.FileChange{
			ID:      raw.ID,
			Type:    model.ItemKindFileChange,
			Changes: changes,
			Status:  model.ItemStatus(raw.Status),
		}, nil
	case ItemTypeAgentMessage:
		return model.AgentMessage{
			ID:   raw.ID,
			Type: model.ItemKindAgentMessage,
			Text: raw.Text,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedItem, raw.Type)
	}
}

// ScanMeta folds thread/turn lines into meta. It reports whether the line
// was one of them.
func ScanMeta(raw []byte, eventType string, meta *model.RunMeta) bool {
	switch EventType(eventType) {
	case EventTypeThreadStarted:
		var payload threadStarted
		if err := json.Unmarshal(raw, &payload); err != nil {
			return false
		}
		meta.SetProvider(model.ProviderCodex)
		if meta.SessionID == "" {
			meta.SessionID = payload.ThreadID
		}
	case EventTypeTurnCompleted:
		var payload turnCompleted
		if err := json.Unmarshal(raw, &payload); err != nil {
			return false
		}
		meta.SetProvider(model.ProviderCodex)
		meta.InputTokens += payload.Usage.InputTokens
		meta.OutputTokens += payload.Usage.OutputTokens
	case EventTypeTurnFailed:
		var payload turnFailed
		if err := json.Unmarshal(raw, &payload); err != nil {
			return false
		}
		meta.SetProvider(model.ProviderCodex)
		meta.Failed = true
		meta.Error = payload.Error.Message
	case EventTypeError:
		var payload streamError
		if err := json.Unmarshal(raw, &payload); err != nil {
			return false
		}
		meta.Failed = true
		meta.Error = payload.Message
	case EventTypeTurnStarted, EventTypeItemStarted, EventTypeItemUpdated, EventTypeItemCompleted:
		meta.SetProvider(model.ProviderCodex)
	default:
		return false
	}
	return true
}
