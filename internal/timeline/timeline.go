// Package timeline folds canonical events into an ordered, identity-keyed
// list of items.
package timeline

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"hookcode/internal/diff"
	"hookcode/internal/model"
)

// Timeline is an ordered sequence of items. An item's position is fixed when
// its id is first seen. The zero value is an empty timeline.
//
// Timeline values returned by this package never share mutable state with
// each other, so they may be read concurrently.
type Timeline struct {
	items []model.Item
	index map[string]int
}

// CreateEmptyTimeline returns a timeline with no items.
func CreateEmptyTimeline() Timeline {
	return Timeline{}
}

// ApplyEvent returns t with ev folded in. t itself is left unchanged.
func ApplyEvent(t Timeline, ev model.Event) Timeline {
	next := t.clone()
	next.apply(ev)
	return next
}

// Len returns the number of items.
func (t Timeline) Len() int {
	return len(t.items)
}

// Items returns the items in timeline order.
func (t Timeline) Items() []model.Item {
	return slices.Clone(t.items)
}

// Item looks up an item by id.
func (t Timeline) Item(id string) (model.Item, bool) {
	idx, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.items[idx], true
}

// Index returns the position of the item with the given id.
func (t Timeline) Index(id string) (int, bool) {
	idx, ok := t.index[id]
	return idx, ok
}

// MarshalJSON encodes the timeline as {"items":[...]}.
func (t Timeline) MarshalJSON() ([]byte, error) {
	items := t.items
	if items == nil {
		items = []model.Item{}
	}
	return json.Marshal(struct {
		Items []model.Item `json:"items"`
	}{Items: items})
}

// UnmarshalJSON decodes a document written by MarshalJSON. Items are
// restored by their "type" field; duplicate ids are rejected.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var doc struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	next := Timeline{}
	for i, raw := range doc.Items {
		item, err := decodeItem(raw)
		if err != nil {
			return fmt.Errorf("decode item %d: %w", i, err)
		}
		if _, dup := next.index[item.ItemID()]; dup {
			return fmt.Errorf("decode item %d: duplicate id %q", i, item.ItemID())
		}
		next.insert(item)
	}
	*t = next
	return nil
}

func decodeItem(raw json.RawMessage) (model.Item, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	kind, ok := model.ParseItemKind(head.Type)
	if !ok {
		return nil, fmt.Errorf("unknown item type %q", head.Type)
	}
	switch kind {
	case model.ItemKindCommandExecution:
		var item model.CommandExecution
		err := json.Unmarshal(raw, &item)
		return item, err
	case model.ItemKindFileChange:
		var item model.FileChange
		err := json.Unmarshal(raw, &item)
		return item, err
	case model.ItemKindAgentMessage:
		var item model.AgentMessage
		err := json.Unmarshal(raw, &item)
		return item, err
	default:
		return nil, fmt.Errorf("unknown item type %q", head.Type)
	}
}

func (t Timeline) clone() Timeline {
	return Timeline{
		items: slices.Clone(t.items),
		index: maps.Clone(t.index),
	}
}

// apply folds ev into t in place and reports whether anything changed.
// Slices inside items are never appended to in place so clones stay
// independent.
func (t *Timeline) apply(ev model.Event) bool {
	switch e := ev.(type) {
	case model.ItemEvent:
		return t.applyItem(e)
	case model.FileDiffEvent:
		return t.applyDiff(e)
	default:
		return false
	}
}

func (t *Timeline) applyItem(ev model.ItemEvent) bool {
	item, ok := valueItem(ev.Item)
	if !ok || item.ItemID() == "" {
		return false
	}
	ev.Item = item
	id := item.ItemID()

	idx, seen := t.index[id]
	if !seen {
		t.insert(initialItem(ev))
		return true
	}

	current := t.items[idx]
	if current.Kind() != ev.Item.Kind() {
		return false
	}
	t.items[idx] = mergeItem(current, ev)
	return true
}

// valueItem returns the value form of item. Timelines store values only;
// pointer items are dereferenced and nil pointers are rejected.
func valueItem(item model.Item) (model.Item, bool) {
	switch it := item.(type) {
	case model.CommandExecution, model.FileChange, model.AgentMessage:
		return it, true
	case *model.CommandExecution:
		if it == nil {
			return nil, false
		}
		return *it, true
	case *model.FileChange:
		if it == nil {
			return nil, false
		}
		return *it, true
	case *model.AgentMessage:
		if it == nil {
			return nil, false
		}
		return *it, true
	default:
		return nil, false
	}
}

// insert appends an item whose id is not yet present.
func (t *Timeline) insert(item model.Item) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[item.ItemID()] = len(t.items)
	t.items = append(t.items, item)
}

func (t *Timeline) applyDiff(ev model.FileDiffEvent) bool {
	idx, ok := t.index[ev.ItemID]
	if !ok {
		return false
	}
	fc, ok := t.items[idx].(model.FileChange)
	if !ok {
		return false
	}

	d := ev.Diff()
	if d.UnifiedDiff == "" {
		d.UnifiedDiff = diff.Unified(d.Path, d.OldText, d.NewText)
	}
	fc.Diffs = append(slices.Clip(fc.Diffs), d)
	t.items[idx] = fc
	return true
}

func initialItem(ev model.ItemEvent) model.Item {
	switch item := ev.Item.(type) {
	case model.CommandExecution:
		item.Type = model.ItemKindCommandExecution
		item.Status = nextStatus("", item.Status, ev.Phase)
		return item
	case model.FileChange:
		item.Type = model.ItemKindFileChange
		item.Status = nextStatus("", item.Status, ev.Phase)
		if item.Changes == nil {
			item.Changes = []model.FileUpdateChange{}
		}
		item.Diffs = slices.Clip(item.Diffs)
		if item.Diffs == nil {
			item.Diffs = []model.FileDiff{}
		}
		return item
	case model.AgentMessage:
		item.Type = model.ItemKindAgentMessage
		return item
	default:
		return ev.Item
	}
}

// mergeItem overwrites the fields ev reports. Zero values mean "not
// reported" and keep the current value.
func mergeItem(current model.Item, ev model.ItemEvent) model.Item {
	switch cur := current.(type) {
	case model.CommandExecution:
		next, ok := ev.Item.(model.CommandExecution)
		if !ok {
			return cur
		}
		if next.Command != "" {
			cur.Command = next.Command
		}
		if next.Output != "" {
			cur.Output = next.Output
		}
		if next.ExitCode != nil {
			code := *next.ExitCode
			cur.ExitCode = &code
		}
		cur.Status = nextStatus(cur.Status, next.Status, ev.Phase)
		return cur

	case model.FileChange:
		next, ok := ev.Item.(model.FileChange)
		if !ok {
			return cur
		}
		if len(next.Changes) > 0 {
			cur.Changes = next.Changes
		}
		if len(next.Diffs) > 0 {
			cur.Diffs = append(slices.Clip(cur.Diffs), next.Diffs...)
		}
		cur.Status = nextStatus(cur.Status, next.Status, ev.Phase)
		return cur

	case model.AgentMessage:
		next, ok := ev.Item.(model.AgentMessage)
		if !ok {
			return cur
		}
		if next.Text != "" {
			cur.Text = next.Text
		}
		return cur

	default:
		return current
	}
}

// nextStatus resolves the lifecycle status after an event. A started event
// never moves a finished item back to in_progress, and a completed event
// without an explicit status completes the item.
func nextStatus(current, reported model.ItemStatus, phase model.ItemPhase) model.ItemStatus {
	terminal := current == model.ItemStatusCompleted || current == model.ItemStatusFailed

	switch phase {
	case model.ItemPhaseStarted:
		if terminal {
			return current
		}
		if reported != "" {
			return reported
		}
		return model.ItemStatusInProgress
	case model.ItemPhaseCompleted:
		if reported == "" || reported == model.ItemStatusInProgress {
			return model.ItemStatusCompleted
		}
		return reported
	default:
		return current
	}
}
